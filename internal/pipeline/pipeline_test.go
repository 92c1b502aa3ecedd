package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"bannergen/internal/domain"
	"bannergen/internal/providers/image"
	"bannergen/internal/storage"
)

type fakeText struct {
	complete func(ctx context.Context, instruction string) (string, error)
}

func (f fakeText) Complete(ctx context.Context, instruction string) (string, error) {
	if f.complete != nil {
		return f.complete(ctx, instruction)
	}
	return `{"title":"Coffee Time","subtitle":"Hot and fresh","cta":"Order"}`, nil
}

type fakeImage struct {
	generate func(ctx context.Context, req image.GenerateRequest) ([]byte, error)
	calls    atomic.Int32
	seeds    []int64
}

func (f *fakeImage) Generate(ctx context.Context, req image.GenerateRequest) ([]byte, error) {
	f.calls.Add(1)
	f.seeds = append(f.seeds, req.Seed)
	if f.generate != nil {
		return f.generate(ctx, req)
	}
	return []byte("img"), nil
}

func newTestPipeline(t *testing.T, txt fakeText, img *fakeImage, composeEnabled bool) *Pipeline {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	return New(Options{
		Text:           txt,
		Image:          img,
		Store:          store,
		Retry:          RetryPolicy{MaxAttempts: 3},
		ComposeEnabled: composeEnabled,
		Logger:         zerolog.Nop(),
	})
}

func testRequest(count int) domain.GenerationRequest {
	return domain.GenerationRequest{
		Prompt:       "coffee machine",
		Style:        domain.StyleAnime,
		AspectRatio:  domain.AspectWide,
		VariantCount: count,
	}
}

func TestProduceHealthyBackends(t *testing.T) {
	img := &fakeImage{}
	p := newTestPipeline(t, fakeText{}, img, false)

	advanced := 0
	v := p.Produce(context.Background(), testRequest(1), 1, func() { advanced++ })

	if v.Status != domain.VariantOK {
		t.Fatalf("Status = %q, want ok", v.Status)
	}
	if v.Marketing.Title != "Coffee Time" {
		t.Fatalf("Title = %q", v.Marketing.Title)
	}
	if !strings.HasPrefix(v.ImageRef, "/media/banner_") || !strings.HasSuffix(v.ImageRef, ".png") {
		t.Fatalf("ImageRef = %q", v.ImageRef)
	}
	if advanced != p.Steps() {
		t.Fatalf("advance called %d times, want %d", advanced, p.Steps())
	}
}

func TestProduceDistinctSeedsAcrossVariants(t *testing.T) {
	img := &fakeImage{}
	p := newTestPipeline(t, fakeText{}, img, false)

	for i := 1; i <= 3; i++ {
		p.Produce(context.Background(), testRequest(3), i, nil)
	}
	seen := map[int64]bool{}
	for _, seed := range img.seeds {
		if seen[seed] {
			t.Fatalf("seed %d repeated across variants: %v", seed, img.seeds)
		}
		seen[seed] = true
	}
}

func TestProduceImageBackendAlwaysFails(t *testing.T) {
	img := &fakeImage{generate: func(ctx context.Context, req image.GenerateRequest) ([]byte, error) {
		return nil, errors.New("timeout")
	}}
	p := newTestPipeline(t, fakeText{}, img, false)

	v := p.Produce(context.Background(), testRequest(1), 1, nil)

	if v.Status != domain.VariantDegraded {
		t.Fatalf("Status = %q, want degraded", v.Status)
	}
	if v.ImageRef == "" {
		t.Fatal("degraded variant must still reference a placeholder artifact")
	}
	if got := img.calls.Load(); got != 3 {
		t.Fatalf("image backend called %d times, want 3 (bounded retry)", got)
	}
	if v.Marketing.Title == "" {
		t.Fatal("marketing copy should survive image failure")
	}
}

func TestProduceTextBackendFailureFallsBack(t *testing.T) {
	txt := fakeText{complete: func(ctx context.Context, instruction string) (string, error) {
		return "", errors.New("backend down")
	}}
	p := newTestPipeline(t, txt, &fakeImage{}, false)

	v := p.Produce(context.Background(), testRequest(1), 1, nil)

	if v.Status != domain.VariantDegraded {
		t.Fatalf("Status = %q, want degraded", v.Status)
	}
	if v.Marketing.Title == "" || v.Marketing.Subtitle == "" || v.Marketing.CTA == "" {
		t.Fatalf("fallback record incomplete: %+v", v.Marketing)
	}
}

func TestProduceUnparseableTextFallsBack(t *testing.T) {
	txt := fakeText{complete: func(ctx context.Context, instruction string) (string, error) {
		return "no structure here, sorry", nil
	}}
	p := newTestPipeline(t, txt, &fakeImage{}, false)

	v := p.Produce(context.Background(), testRequest(1), 1, nil)

	if v.Status != domain.VariantDegraded {
		t.Fatalf("Status = %q, want degraded", v.Status)
	}
	if !strings.Contains(strings.ToLower(v.Marketing.Title), "no structure here") {
		t.Fatalf("fallback title should derive from raw output: %q", v.Marketing.Title)
	}
}

func TestProduceFallbackIsIdempotent(t *testing.T) {
	txt := fakeText{complete: func(ctx context.Context, instruction string) (string, error) {
		return "", errors.New("forced failure")
	}}
	img := &fakeImage{generate: func(ctx context.Context, req image.GenerateRequest) ([]byte, error) {
		return nil, errors.New("forced failure")
	}}
	p := newTestPipeline(t, txt, img, false)

	one := p.Produce(context.Background(), testRequest(1), 1, nil)
	two := p.Produce(context.Background(), testRequest(1), 1, nil)

	if one.Marketing != two.Marketing {
		t.Fatalf("fallback records differ: %+v vs %+v", one.Marketing, two.Marketing)
	}
	if one.Status != domain.VariantDegraded || two.Status != domain.VariantDegraded {
		t.Fatal("both runs should degrade")
	}
}

func TestProduceWithComposeAddsStep(t *testing.T) {
	img := &fakeImage{}
	p := newTestPipeline(t, fakeText{}, img, true)

	if p.Steps() != 3 {
		t.Fatalf("Steps = %d, want 3", p.Steps())
	}
	advanced := 0
	v := p.Produce(context.Background(), testRequest(1), 1, func() { advanced++ })
	if advanced != 3 {
		t.Fatalf("advance called %d times, want 3", advanced)
	}
	if v.ImageRef == "" {
		t.Fatal("composed variant must reference an artifact")
	}
}

func TestProduceTitleTextOnly(t *testing.T) {
	img := &fakeImage{}
	p := newTestPipeline(t, fakeText{}, img, true)

	advanced := 0
	v := p.ProduceTitle(context.Background(), "coffee machine", func() { advanced++ })

	if v.Marketing.Title == "" {
		t.Fatal("title task should produce marketing copy")
	}
	if v.ImageRef != "" {
		t.Fatalf("title task should not produce an image, got %q", v.ImageRef)
	}
	if got := img.calls.Load(); got != 0 {
		t.Fatalf("image backend called %d times for title task", got)
	}
	if advanced != 1 {
		t.Fatalf("advance called %d times, want 1", advanced)
	}
}
