package worker

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"bannergen/internal/adapter/repo"
	"bannergen/internal/domain"
	"bannergen/internal/messaging"
	"bannergen/internal/pipeline"
	imgprov "bannergen/internal/providers/image"
	"bannergen/internal/providers/text"
	"bannergen/internal/storage"
)

type fakeText struct{}

func (fakeText) Complete(ctx context.Context, instruction string) (string, error) {
	return `{"title": "Summer Splash", "subtitle": "Dive into the season", "cta": "Shop now"}`, nil
}

type fakeImage struct{}

func (fakeImage) Generate(ctx context.Context, req imgprov.GenerateRequest) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// progressRecorder wraps a repository and records every progress write.
type progressRecorder struct {
	domain.TaskRepository

	mu     sync.Mutex
	values []int
}

func (p *progressRecorder) SetProgress(ctx context.Context, taskID string, progress int) error {
	p.mu.Lock()
	p.values = append(p.values, progress)
	p.mu.Unlock()
	return p.TaskRepository.SetProgress(ctx, taskID, progress)
}

var _ text.Generator = fakeText{}
var _ imgprov.Generator = fakeImage{}

func newTestOrchestrator(t *testing.T, r domain.TaskRepository) *Orchestrator {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	p := pipeline.New(pipeline.Options{
		Text:   fakeText{},
		Image:  fakeImage{},
		Store:  store,
		Retry:  pipeline.RetryPolicy{MaxAttempts: 1},
		Logger: zerolog.Nop(),
	})
	return &Orchestrator{Repo: r, Pipeline: p, Logger: zerolog.Nop(), PollInterval: 10 * time.Millisecond}
}

func createTask(t *testing.T, r domain.TaskRepository, kind domain.TaskKind, count int) *domain.Task {
	t.Helper()
	req := domain.GenerationRequest{Prompt: "grand opening", Style: domain.StyleDefault, AspectRatio: domain.AspectSquare, VariantCount: count}
	task := domain.NewTask("task-1", kind, req, time.Hour)
	if err := r.Create(context.Background(), task); err != nil {
		t.Fatalf("create: %v", err)
	}
	return task
}

func TestExecuteBannerTaskSucceeds(t *testing.T) {
	mem := repo.NewTaskRepositoryMemory()
	o := newTestOrchestrator(t, mem)
	createTask(t, mem, domain.TaskKindBanner, 3)

	ctx := context.Background()
	task, err := mem.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	o.Execute(ctx, task)

	got, err := mem.GetByID(ctx, "task-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != domain.TaskStateSucceeded {
		t.Fatalf("state = %q, want succeeded (error: %q)", got.State, got.ErrorMessage)
	}
	if got.Progress != 100 {
		t.Fatalf("progress = %d, want 100", got.Progress)
	}
	if len(got.Variants) != 3 {
		t.Fatalf("variants = %d, want 3", len(got.Variants))
	}
	for _, v := range got.Variants {
		if v.Status != domain.VariantOK {
			t.Fatalf("variant %d degraded unexpectedly", v.Index)
		}
		if v.Marketing.Title != "Summer Splash" {
			t.Fatalf("variant %d title = %q", v.Index, v.Marketing.Title)
		}
		if v.ImageRef == "" {
			t.Fatalf("variant %d has no image ref", v.Index)
		}
	}
}

func TestExecuteReportsMonotonicProgress(t *testing.T) {
	mem := repo.NewTaskRepositoryMemory()
	rec := &progressRecorder{TaskRepository: mem}
	o := newTestOrchestrator(t, rec)
	createTask(t, mem, domain.TaskKindBanner, 2)

	ctx := context.Background()
	task, err := mem.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	o.Execute(ctx, task)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	// Two variants at two steps each.
	if len(rec.values) != 4 {
		t.Fatalf("progress writes = %v, want 4 entries", rec.values)
	}
	prev := 0
	for _, p := range rec.values {
		if p < prev {
			t.Fatalf("progress regressed: %v", rec.values)
		}
		if p < 0 || p > 100 {
			t.Fatalf("progress out of range: %v", rec.values)
		}
		prev = p
	}
	if rec.values[len(rec.values)-1] != 100 {
		t.Fatalf("last progress write = %d, want 100", rec.values[len(rec.values)-1])
	}
}

func TestExecuteTitleTaskTextOnly(t *testing.T) {
	mem := repo.NewTaskRepositoryMemory()
	o := newTestOrchestrator(t, mem)
	createTask(t, mem, domain.TaskKindTitle, 1)

	ctx := context.Background()
	task, err := mem.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	o.Execute(ctx, task)

	got, err := mem.GetByID(ctx, "task-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != domain.TaskStateSucceeded {
		t.Fatalf("state = %q, want succeeded", got.State)
	}
	if len(got.Variants) != 1 {
		t.Fatalf("variants = %d, want 1", len(got.Variants))
	}
	if got.Variants[0].ImageRef != "" {
		t.Fatal("title task produced an image ref")
	}
	if got.Variants[0].Marketing.Title == "" {
		t.Fatal("title task produced no title")
	}
}

func TestExecuteRejectsUnknownKind(t *testing.T) {
	mem := repo.NewTaskRepositoryMemory()
	o := newTestOrchestrator(t, mem)
	createTask(t, mem, domain.TaskKind("poster"), 1)

	ctx := context.Background()
	task, err := mem.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	o.Execute(ctx, task)

	got, err := mem.GetByID(ctx, "task-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != domain.TaskStateFailed {
		t.Fatalf("state = %q, want failed", got.State)
	}
	if got.ErrorMessage == "" {
		t.Fatal("failed task carries no error message")
	}
}

func TestRunDrainsOnBrokerMessage(t *testing.T) {
	mem := repo.NewTaskRepositoryMemory()
	o := newTestOrchestrator(t, mem)
	o.PollInterval = time.Hour // force the broker path
	createTask(t, mem, domain.TaskKindBanner, 1)

	queue := messaging.NewInMemoryQueue()
	defer queue.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		o.Run(ctx, queue)
		close(done)
	}()

	if err := queue.PublishGenerateTask(ctx, messaging.TaskMessage{TaskID: "task-1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		got, err := mem.GetByID(context.Background(), "task-1")
		if err == nil && got.State.Terminal() {
			if got.State != domain.TaskStateSucceeded {
				t.Fatalf("state = %q, want succeeded", got.State)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("task never reached a terminal state")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}
