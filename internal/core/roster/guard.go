package roster

import "context"

// ReplaceGuard serializes full roster replacements inside the process.
// Confirm and rollback share one guard.
type ReplaceGuard struct {
	sem chan struct{}
}

// NewReplaceGuard creates an unlocked guard.
func NewReplaceGuard() *ReplaceGuard {
	return &ReplaceGuard{sem: make(chan struct{}, 1)}
}

// Acquire blocks until the guard is free or ctx is done.
func (g *ReplaceGuard) Acquire(ctx context.Context) (release func(), err error) {
	select {
	case g.sem <- struct{}{}:
		return func() { <-g.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
