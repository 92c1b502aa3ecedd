package text

import "context"

// Generator is the contract implemented by all text backends: instruction in,
// raw model output out. Callers own timeout enforcement via the context and
// must treat failures as recoverable.
type Generator interface {
	Complete(ctx context.Context, instruction string) (string, error)
}
