package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Ring keeps the last N formatted log lines in memory.
// It backs the read-only /debug/logs endpoint; the JSON stdout handler
// remains the authoritative log stream.
type Ring struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 200
	}
	return &Ring{lines: make([]string, capacity)}
}

func (r *Ring) add(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[r.next] = line
	r.next = (r.next + 1) % len(r.lines)
	if r.next == 0 {
		r.full = true
	}
}

// Tail returns up to n most recent lines, oldest first.
func (r *Ring) Tail(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.next
	if r.full {
		size = len(r.lines)
	}
	if n <= 0 || n > size {
		n = size
	}
	out := make([]string, 0, n)
	start := r.next - n
	if start < 0 {
		start += len(r.lines)
	}
	for i := 0; i < n; i++ {
		out = append(out, r.lines[(start+i)%len(r.lines)])
	}
	return out
}

// teeHandler forwards records to the wrapped handler and mirrors a
// plain-text rendering into the ring.
type teeHandler struct {
	out  slog.Handler
	ring *Ring
}

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return t.out.Enabled(ctx, level)
}

func (t teeHandler) Handle(ctx context.Context, rec slog.Record) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", rec.Time.Format(time.RFC3339), rec.Level, rec.Message)
	rec.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	})
	t.ring.add(b.String())
	return t.out.Handle(ctx, rec)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return teeHandler{out: t.out.WithAttrs(attrs), ring: t.ring}
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	return teeHandler{out: t.out.WithGroup(name), ring: t.ring}
}
