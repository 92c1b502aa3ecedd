package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"bannergen/internal/domain"
	"bannergen/internal/messaging"
	"bannergen/internal/pipeline"
)

// Orchestrator owns task execution. It claims pending tasks from the
// repository, runs the variant pipeline for each and writes the terminal
// state back. Broker messages only wake the claim loop early; the repository
// remains the source of truth, so a lost message is repaired by the next
// poll tick.
type Orchestrator struct {
	Repo         domain.TaskRepository
	Pipeline     *pipeline.Pipeline
	Logger       zerolog.Logger
	PollInterval time.Duration
}

// Run processes tasks until ctx is cancelled. receiver may be nil, in which
// case the orchestrator relies on polling alone.
func (o *Orchestrator) Run(ctx context.Context, receiver messaging.Receiver) {
	interval := o.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var deliveries <-chan messaging.Delivery
	if receiver != nil {
		deliveries = receiver.Deliveries()
	}

	o.drain(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				deliveries = nil
				continue
			}
			d.Ack()
			o.drain(ctx)
		case <-ticker.C:
			o.drain(ctx)
		}
	}
}

// drain claims and executes tasks until the backlog is empty.
func (o *Orchestrator) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		task, err := o.Repo.ClaimNext(ctx)
		if err == domain.ErrNotFound {
			return
		}
		if err != nil {
			o.Logger.Error().Err(err).Msg("claim failed")
			return
		}
		o.Execute(ctx, task)
	}
}

// Execute runs one claimed task to a terminal state. It never returns before
// writing that state: pipeline failures degrade variants, and only a request
// the pipeline cannot run at all fails the task.
func (o *Orchestrator) Execute(ctx context.Context, task *domain.Task) {
	start := time.Now()
	log := o.Logger.With().Str("task_id", task.ID).Str("kind", string(task.Kind)).Logger()
	log.Info().Int("variant_count", task.Request.VariantCount).Msg("task started")

	var variants []domain.Variant
	switch task.Kind {
	case domain.TaskKindTitle:
		variants = []domain.Variant{o.Pipeline.ProduceTitle(ctx, task.Request.Prompt, nil)}
	case domain.TaskKindBanner:
		count := task.Request.VariantCount
		if count < 1 {
			o.fail(ctx, task, fmt.Sprintf("invalid variant count %d", count))
			return
		}
		total := count * o.Pipeline.Steps()
		completed := 0
		advance := func() {
			completed++
			if err := o.Repo.SetProgress(ctx, task.ID, completed*100/total); err != nil {
				log.Warn().Err(err).Msg("progress write failed")
			}
		}
		for i := 1; i <= count; i++ {
			variants = append(variants, o.Pipeline.Produce(ctx, task.Request, i, advance))
		}
	default:
		o.fail(ctx, task, fmt.Sprintf("unknown task kind %q", task.Kind))
		return
	}

	if err := o.Repo.Finish(ctx, task.ID, domain.TaskStateSucceeded, variants, ""); err != nil {
		log.Error().Err(err).Msg("terminal write failed")
		return
	}
	log.Info().Dur("elapsed", time.Since(start)).Int("variants", len(variants)).Msg("task succeeded")
}

func (o *Orchestrator) fail(ctx context.Context, task *domain.Task, reason string) {
	o.Logger.Error().Str("task_id", task.ID).Str("reason", reason).Msg("task failed")
	if err := o.Repo.Finish(ctx, task.ID, domain.TaskStateFailed, nil, reason); err != nil {
		o.Logger.Error().Err(err).Str("task_id", task.ID).Msg("terminal write failed")
	}
}
