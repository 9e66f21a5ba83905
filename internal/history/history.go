// Package history keeps an undo/redo list of immutable snapshots. Bursts of
// edits are collapsed by a debounce window before they become an entry.
package history

import (
	"sync"
	"sync/atomic"
	"time"
)

// Defaults applied when options are omitted.
const (
	DefaultMaxDepth = 100
	DefaultDebounce = 500 * time.Millisecond
)

// Timer is the subset of *time.Timer the history uses.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. It matches time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

type config struct {
	maxDepth  int
	debounce  time.Duration
	afterFunc AfterFunc
}

// Option configures a History.
type Option func(*config)

// WithMaxDepth caps the number of retained entries. Oldest entries are
// discarded first.
func WithMaxDepth(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// WithDebounce sets the quiescence window of PushDebounced.
func WithDebounce(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.debounce = d
		}
	}
}

// WithAfterFunc replaces the timer source, mainly for tests.
func WithAfterFunc(fn AfterFunc) Option {
	return func(c *config) {
		if fn != nil {
			c.afterFunc = fn
		}
	}
}

// History is a linear undo/redo list. Position is -1 while empty. Pushed
// values are stored as given and must not be mutated afterwards.
//
// History is safe for concurrent use; debounce timers fire on their own
// goroutine.
type History[T any] struct {
	mu         sync.Mutex
	cfg        config
	entries    []T
	position   int
	pending    T
	hasPending bool
	timer      Timer
	generation uint64
	closed     bool

	restoring atomic.Bool
}

// New returns an empty history.
func New[T any](opts ...Option) *History[T] {
	cfg := config{maxDepth: DefaultMaxDepth, debounce: DefaultDebounce, afterFunc: realAfterFunc}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &History[T]{cfg: cfg, position: -1}
}

// PushDebounced records snapshot as the pending entry. It is committed once
// no further push arrives within the debounce window, or earlier by Flush,
// Undo, Redo or PushImmediate.
func (h *History[T]) PushDebounced(snapshot T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.stopTimerLocked()
	h.pending = snapshot
	h.hasPending = true
	gen := h.generation
	h.timer = h.cfg.afterFunc(h.cfg.debounce, func() { h.fire(gen) })
}

func (h *History[T]) fire(gen uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if gen != h.generation || !h.hasPending || h.closed {
		return
	}
	h.timer = nil
	h.commitPendingLocked()
}

// PushImmediate commits any pending snapshot and then snapshot itself,
// discarding the redo branch.
func (h *History[T]) PushImmediate(snapshot T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.flushLocked()
	h.commitLocked(snapshot)
}

// Flush commits the pending snapshot, if any.
func (h *History[T]) Flush() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.flushLocked()
}

// Undo flushes pending edits and steps back one entry. It reports false at
// the oldest entry.
func (h *History[T]) Undo() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.flushLocked()
	var zero T
	if h.position <= 0 {
		return zero, false
	}
	h.position--
	return h.entries[h.position], true
}

// Redo flushes pending edits and steps forward one entry. It reports false
// at the newest entry.
func (h *History[T]) Redo() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.flushLocked()
	var zero T
	if h.position >= len(h.entries)-1 {
		return zero, false
	}
	h.position++
	return h.entries[h.position], true
}

// CanUndo reports whether an older committed entry exists.
func (h *History[T]) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.position > 0
}

// CanRedo reports whether a newer committed entry exists.
func (h *History[T]) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.position < len(h.entries)-1
}

// Position returns the index of the current entry, or -1 when empty.
func (h *History[T]) Position() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.position
}

// Len returns the number of committed entries.
func (h *History[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Pending reports whether a debounced snapshot awaits commit.
func (h *History[T]) Pending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hasPending
}

// Clear drops all entries and any pending snapshot.
func (h *History[T]) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clearLocked()
}

// Reset clears the history and seeds it with initial.
func (h *History[T]) Reset(initial T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clearLocked()
	if !h.closed {
		h.commitLocked(initial)
	}
}

// Restore runs apply with the restoration flag set. State listeners consult
// Restoring to skip capturing the change apply makes.
func (h *History[T]) Restore(apply func()) {
	h.restoring.Store(true)
	defer h.restoring.Store(false)
	apply()
}

// Restoring reports whether a Restore call is in progress.
func (h *History[T]) Restoring() bool {
	return h.restoring.Load()
}

// Close cancels the pending timer and discards the pending snapshot. Later
// pushes are ignored.
func (h *History[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopTimerLocked()
	h.hasPending = false
	var zero T
	h.pending = zero
	h.closed = true
}

func (h *History[T]) stopTimerLocked() {
	h.generation++
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

func (h *History[T]) flushLocked() {
	if !h.hasPending {
		return
	}
	h.stopTimerLocked()
	h.commitPendingLocked()
}

func (h *History[T]) commitPendingLocked() {
	snapshot := h.pending
	var zero T
	h.pending = zero
	h.hasPending = false
	h.commitLocked(snapshot)
}

// commitLocked drops the redo branch, appends snapshot and enforces the depth
// cap. Truncation reallocates entries.
func (h *History[T]) commitLocked(snapshot T) {
	keep := h.position + 1
	if keep < len(h.entries) {
		h.entries = append(make([]T, 0, keep+1), h.entries[:keep]...)
	}
	h.entries = append(h.entries, snapshot)
	if over := len(h.entries) - h.cfg.maxDepth; over > 0 {
		h.entries = append(make([]T, 0, h.cfg.maxDepth), h.entries[over:]...)
	}
	h.position = len(h.entries) - 1
}

func (h *History[T]) clearLocked() {
	h.stopTimerLocked()
	h.entries = nil
	h.position = -1
	h.hasPending = false
	var zero T
	h.pending = zero
}
