package persistence

import (
	"context"
	"sync"
)

// CompletionGuard makes call completion at-most-once: MarkCompleted returns
// true only for the first completion event seen for a call id. Twilio
// retries status callbacks, so duplicates are normal.
type CompletionGuard interface {
	MarkCompleted(ctx context.Context, callID string) (bool, error)
}

// MemoryGuard is the single-process guard.
type MemoryGuard struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{seen: map[string]struct{}{}}
}

func (g *MemoryGuard) MarkCompleted(_ context.Context, callID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.seen[callID]; ok {
		return false, nil
	}
	g.seen[callID] = struct{}{}
	return true, nil
}
