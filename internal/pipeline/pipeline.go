// Package pipeline produces individual banner variants. Its contract is the
// backbone of failure containment: Produce always returns a Variant, every
// internal failure degrades to fallback content instead of propagating.
package pipeline

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"bannergen/internal/compose"
	"bannergen/internal/domain"
	"bannergen/internal/marketing"
	"bannergen/internal/prompt"
	"bannergen/internal/providers/image"
	"bannergen/internal/providers/text"
	"bannergen/internal/storage"
)

// Options wires the pipeline's collaborators. Backends are injected so tests
// can swap them for fakes and force failures.
type Options struct {
	Text  text.Generator
	Image image.Generator
	Store *storage.FileStore

	Retry        RetryPolicy
	TextTimeout  time.Duration
	ImageTimeout time.Duration

	// ComposeEnabled turns the composition stage on, adding a third step per
	// variant.
	ComposeEnabled bool

	// MediaBaseURL prefixes artifact filenames in variant references.
	MediaBaseURL string

	Logger zerolog.Logger

	// Seed overrides the per-variant seed source. Nil means crypto-free
	// pseudo-random seeding; tests inject a recorder.
	Seed func() int64
}

// Pipeline produces one banner variant per Produce call.
type Pipeline struct {
	opts Options

	mu  sync.Mutex
	rng *rand.Rand
}

func New(opts Options) *Pipeline {
	if opts.Retry.MaxAttempts < 1 {
		opts.Retry = DefaultRetry
	}
	if opts.TextTimeout <= 0 {
		opts.TextTimeout = 30 * time.Second
	}
	if opts.ImageTimeout <= 0 {
		opts.ImageTimeout = 45 * time.Second
	}
	if opts.MediaBaseURL == "" {
		opts.MediaBaseURL = "/media"
	}
	return &Pipeline{
		opts: opts,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Steps reports how many progress steps one variant contributes.
func (p *Pipeline) Steps() int {
	if p.opts.ComposeEnabled {
		return 3
	}
	return 2
}

// Produce runs the text, image and optional composition stages for one
// variant. advance is called after each completed stage so the caller can
// publish progress. Produce never returns an error: failures degrade.
func (p *Pipeline) Produce(ctx context.Context, req domain.GenerationRequest, index int, advance func()) domain.Variant {
	if advance == nil {
		advance = func() {}
	}
	variant := domain.Variant{Index: index, Status: domain.VariantOK}

	record, degraded := p.textStage(ctx, req, index)
	variant.Marketing = record
	if degraded {
		variant.Status = domain.VariantDegraded
	}
	advance()

	data, degraded := p.imageStage(ctx, req, record, index)
	if degraded {
		variant.Status = domain.VariantDegraded
	}
	advance()

	if p.opts.ComposeEnabled {
		data = p.composeStage(req, record, data)
		advance()
	}

	variant.ImageRef = p.persist(ctx, data)
	if variant.ImageRef == "" {
		variant.Status = domain.VariantDegraded
	}
	return variant
}

// ProduceTitle is the text-only pipeline used by title tasks.
func (p *Pipeline) ProduceTitle(ctx context.Context, userPrompt string, advance func()) domain.Variant {
	if advance == nil {
		advance = func() {}
	}
	variant := domain.Variant{Index: 1, Status: domain.VariantOK}
	record, degraded := p.textStage(ctx, domain.GenerationRequest{Prompt: userPrompt, Style: domain.StyleDefault}, 1)
	variant.Marketing = record
	if degraded {
		variant.Status = domain.VariantDegraded
	}
	advance()
	return variant
}

func (p *Pipeline) textStage(ctx context.Context, req domain.GenerationRequest, index int) (domain.Marketing, bool) {
	instruction := prompt.TextInstruction(req.Prompt, req.Style, index)

	callCtx, cancel := context.WithTimeout(ctx, p.opts.TextTimeout)
	defer cancel()

	raw, err := p.opts.Text.Complete(callCtx, instruction)
	if err != nil {
		p.opts.Logger.Warn().Err(err).Int("variant", index).Msg("pipeline: text backend failed, using fallback copy")
		return marketing.Fallback("", req.Prompt), true
	}
	record, ok := marketing.Extract(raw)
	if !ok {
		p.opts.Logger.Warn().Int("variant", index).Msg("pipeline: no parseable record in text output, using fallback copy")
		return marketing.Fallback(raw, req.Prompt), true
	}
	return record, false
}

func (p *Pipeline) imageStage(ctx context.Context, req domain.GenerationRequest, record domain.Marketing, index int) ([]byte, bool) {
	width, height := req.AspectRatio.Size()
	topic := record.Title
	if topic == "" {
		topic = req.Prompt
	}
	imagePrompt := prompt.ImagePrompt(topic, req.Style, req.AspectRatio)
	seed := p.nextSeed(index)

	var data []byte
	err := p.opts.Retry.Do(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, p.opts.ImageTimeout)
		defer cancel()

		bytes, genErr := p.opts.Image.Generate(callCtx, image.GenerateRequest{
			Prompt: imagePrompt,
			Width:  width,
			Height: height,
			Seed:   seed,
		})
		if genErr != nil {
			return genErr
		}
		data = bytes
		return nil
	})
	if err != nil {
		p.opts.Logger.Warn().Err(err).Int64("seed", seed).Msg("pipeline: image backend exhausted retries, rendering placeholder")
		placeholder, phErr := compose.Placeholder(width, height,
			"image generation failed",
			err.Error(),
			"placeholder artifact")
		if phErr != nil {
			p.opts.Logger.Error().Err(phErr).Msg("pipeline: placeholder rendering failed")
			return nil, true
		}
		return placeholder, true
	}
	return data, false
}

func (p *Pipeline) composeStage(req domain.GenerationRequest, record domain.Marketing, data []byte) []byte {
	width, height := req.AspectRatio.Size()
	composed, err := compose.Banner(data, record.Title, record.Subtitle, width, height)
	if err != nil {
		p.opts.Logger.Warn().Err(err).Msg("pipeline: composition failed, keeping uncomposed image")
		return data
	}
	return composed
}

func (p *Pipeline) persist(ctx context.Context, data []byte) string {
	if len(data) == 0 {
		return ""
	}
	name := storage.NewName("banner", ".png")
	saved, err := p.opts.Store.Write(ctx, name, data)
	if err != nil {
		p.opts.Logger.Error().Err(err).Msg("pipeline: persist artifact failed")
		return ""
	}
	return p.opts.MediaBaseURL + "/" + saved
}

// nextSeed draws a random base and folds in the variant index so variants of
// one task can never collide on a seed.
func (p *Pipeline) nextSeed(index int) int64 {
	if p.opts.Seed != nil {
		return p.opts.Seed()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Int63n(1_000_000)*1000 + int64(index)
}
