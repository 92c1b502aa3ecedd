package image

import "context"

// GenerateRequest describes one image to produce.
type GenerateRequest struct {
	Prompt string
	Width  int
	Height int
	Seed   int64
}

// Generator is the contract implemented by all image backends: prompt, size
// and seed in, encoded image bytes out.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]byte, error)
}
