package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bannergen/internal/domain"
	"bannergen/internal/http/httpapi"
)

func getPath(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestStatusPendingTask(t *testing.T) {
	app, mem, _ := newTestApp(t)
	router := httpapi.NewRouter(app)

	task := domain.NewTask("t-1", domain.TaskKindBanner,
		domain.GenerationRequest{Prompt: "spring sale", Style: domain.StyleDefault, AspectRatio: domain.AspectSquare, VariantCount: 1}, time.Hour)
	if err := mem.Create(context.Background(), task); err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := getPath(t, router, "/api/v1/status/t-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var snap domain.StatusSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Status != domain.SnapshotPending || snap.TaskID != "t-1" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestStatusSucceededTaskCarriesVariants(t *testing.T) {
	app, mem, _ := newTestApp(t)
	router := httpapi.NewRouter(app)

	ctx := context.Background()
	task := domain.NewTask("t-1", domain.TaskKindBanner,
		domain.GenerationRequest{Prompt: "spring sale", Style: domain.StyleDefault, AspectRatio: domain.AspectSquare, VariantCount: 1}, time.Hour)
	if err := mem.Create(ctx, task); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := mem.ClaimNext(ctx); err != nil {
		t.Fatalf("claim: %v", err)
	}
	variants := []domain.Variant{{Index: 1, Marketing: domain.Marketing{Title: "Spring Into Savings"}, ImageRef: "/media/banner_ab12cd34.png", Status: domain.VariantOK}}
	if err := mem.Finish(ctx, "t-1", domain.TaskStateSucceeded, variants, ""); err != nil {
		t.Fatalf("finish: %v", err)
	}

	rec := getPath(t, router, "/api/v1/status/t-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var snap domain.StatusSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Status != domain.SnapshotSuccess || snap.Progress != 100 || snap.Count != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if len(snap.Variants) != 1 || snap.Variants[0].ImageRef != "/media/banner_ab12cd34.png" {
		t.Fatalf("variants missing: %+v", snap.Variants)
	}
}

func TestStatusUnknownAndExpiredAreDistinct(t *testing.T) {
	app, mem, _ := newTestApp(t)
	router := httpapi.NewRouter(app)

	rec := getPath(t, router, "/api/v1/status/missing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown status = %d, want 404", rec.Code)
	}
	var errResp struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &errResp)
	if errResp.Error != "not_found" {
		t.Fatalf("unknown error kind = %q, want not_found", errResp.Error)
	}

	created := time.Now().UTC()
	task := domain.NewTask("t-old", domain.TaskKindBanner,
		domain.GenerationRequest{Prompt: "spring sale", Style: domain.StyleDefault, AspectRatio: domain.AspectSquare, VariantCount: 1}, time.Hour)
	if err := mem.Create(context.Background(), task); err != nil {
		t.Fatalf("create: %v", err)
	}
	mem.SetClock(func() time.Time { return created.Add(2 * time.Hour) })

	rec = getPath(t, router, "/api/v1/status/t-old")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expired status = %d, want 404", rec.Code)
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &errResp)
	if errResp.Error != "expired" {
		t.Fatalf("expired error kind = %q, want expired", errResp.Error)
	}
}

func TestHealth(t *testing.T) {
	app, _, _ := newTestApp(t)
	router := httpapi.NewRouter(app)

	rec := getPath(t, router, "/api/v1/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
