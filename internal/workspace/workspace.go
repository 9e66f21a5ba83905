// Package workspace holds the live design being edited. Every change is
// captured into the undo history unless it comes from undo/redo itself;
// loading a document replaces the design and restarts the history.
package workspace

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"shipyard/internal/document"
	"shipyard/internal/history"
	"shipyard/internal/observability"
	"shipyard/pkg/domain"
)

// ErrNoWriter is returned by Save when the workspace has no writer.
var ErrNoWriter = errors.New("workspace: no writer configured")

// Reader reads raw document bytes.
type Reader interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)
}

// Writer persists raw document bytes.
type Writer interface {
	WriteFile(ctx context.Context, name string, data []byte) error
}

// Codec converts designs to and from bytes. *document.Engine implements it.
type Codec interface {
	Encode(ctx context.Context, design domain.Design) ([]byte, error)
	Decode(ctx context.Context, data []byte) (document.LoadResult, error)
}

// Listener observes design changes.
type Listener func(domain.Design)

// Workspace is the state holder for one design editor.
type Workspace struct {
	codec   Codec
	writer  Writer
	history *history.History[domain.Design]
	logger  logrus.FieldLogger
	metrics observability.Metrics
	nowFn   func() time.Time

	autoSaveName     string
	autoSaveInterval time.Duration
	afterFunc        history.AfterFunc
	autoSaver        *AutoSaver

	mu        sync.Mutex
	design    domain.Design
	listeners map[int]Listener
	nextID    int
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithHistory supplies the history used for undo/redo.
func WithHistory(h *history.History[domain.Design]) Option {
	return func(w *Workspace) { w.history = h }
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(w *Workspace) { w.logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m observability.Metrics) Option {
	return func(w *Workspace) { w.metrics = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(w *Workspace) { w.nowFn = now }
}

// WithAutoSave saves to name once interval passes without further edits.
// A zero interval disables auto-save.
func WithAutoSave(name string, interval time.Duration) Option {
	return func(w *Workspace) {
		w.autoSaveName = name
		w.autoSaveInterval = interval
	}
}

// WithAfterFunc replaces the auto-save timer source, mainly for tests.
func WithAfterFunc(fn history.AfterFunc) Option {
	return func(w *Workspace) { w.afterFunc = fn }
}

// New returns a workspace holding an empty design.
func New(codec Codec, writer Writer, opts ...Option) *Workspace {
	w := &Workspace{
		codec:     codec,
		writer:    writer,
		nowFn:     time.Now,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	if w.history == nil {
		w.history = history.New[domain.Design]()
	}
	w.logger = observability.OrDiscard(w.logger)
	w.metrics = observability.OrNop(w.metrics)
	if w.autoSaveInterval > 0 && w.autoSaveName != "" && writer != nil {
		w.autoSaver = NewAutoSaver(w.autoSaveInterval, func() {
			w.Save(context.Background(), w.autoSaveName)
		}, w.afterFunc)
	}
	w.listeners[0] = w.capture
	w.nextID = 1
	w.history.Reset(w.design)
	return w
}

// capture records genuine edits into the history.
func (w *Workspace) capture(d domain.Design) {
	if w.history.Restoring() {
		return
	}
	w.history.PushDebounced(d)
	if w.autoSaver != nil {
		w.autoSaver.Touch()
	}
}

// Design returns the current design. The value shares collections with the
// workspace; callers replace them through Update rather than editing them.
func (w *Workspace) Design() domain.Design {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.design
}

// History exposes the undo history.
func (w *Workspace) History() *history.History[domain.Design] { return w.history }

// Subscribe registers fn for design changes and returns a function that
// removes it.
func (w *Workspace) Subscribe(fn Listener) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextID
	w.nextID++
	w.listeners[id] = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.listeners, id)
	}
}

// Update applies an edit. fn receives the current design and returns its
// replacement, typically built with the domain With* helpers.
func (w *Workspace) Update(fn func(domain.Design) domain.Design) {
	w.mu.Lock()
	next := fn(w.design)
	w.design = next
	listeners := w.snapshotListenersLocked()
	w.mu.Unlock()
	notify(listeners, next)
}

// NewDesign replaces the design with an empty one and restarts the history.
func (w *Workspace) NewDesign(name string) {
	now := w.nowFn().UTC()
	w.replace(domain.Design{Name: name, CreatedAt: now, ModifiedAt: now})
}

// Load decodes data and, on success, replaces the design and restarts the
// history. A failed load leaves the workspace untouched.
func (w *Workspace) Load(ctx context.Context, data []byte) (document.LoadResult, error) {
	w.history.Flush()
	res, err := w.codec.Decode(ctx, data)
	if err != nil {
		return res, err
	}
	if res.Success {
		w.replace(*res.Design)
	}
	return res, nil
}

// Open reads name from r and loads it.
func (w *Workspace) Open(ctx context.Context, r Reader, name string) (document.LoadResult, error) {
	data, err := r.ReadFile(ctx, name)
	if err != nil {
		return document.LoadResult{}, err
	}
	return w.Load(ctx, data)
}

// Save encodes the current design now and writes it in the background. The
// returned channel yields the write result once and is then closed; callers
// may ignore it.
func (w *Workspace) Save(ctx context.Context, name string) <-chan error {
	done := make(chan error, 1)
	if w.writer == nil {
		done <- ErrNoWriter
		close(done)
		return done
	}
	start := w.nowFn()
	data, err := w.codec.Encode(ctx, w.Design())
	if err != nil {
		w.logger.WithError(err).WithField("file", name).Error("design encode failed")
		w.metrics.Observe(ctx, "save", false, 0)
		done <- err
		close(done)
		return done
	}
	go func() {
		defer close(done)
		err := w.writer.WriteFile(ctx, name, data)
		log := w.logger.WithFields(logrus.Fields{"file": name, "bytes": len(data)})
		if err != nil {
			log.WithError(err).Error("design save failed")
		} else {
			log.Debug("design saved")
		}
		w.metrics.Observe(ctx, "save", err == nil, w.nowFn().Sub(start))
		done <- err
	}()
	return done
}

// Undo restores the previous snapshot. It reports false when there is none.
func (w *Workspace) Undo() bool {
	snapshot, ok := w.history.Undo()
	if !ok {
		return false
	}
	w.history.Restore(func() { w.set(snapshot) })
	return true
}

// Redo restores the next snapshot. It reports false when there is none.
func (w *Workspace) Redo() bool {
	snapshot, ok := w.history.Redo()
	if !ok {
		return false
	}
	w.history.Restore(func() { w.set(snapshot) })
	return true
}

// CanUndo reports whether Undo would succeed without pending edits.
func (w *Workspace) CanUndo() bool { return w.history.CanUndo() }

// CanRedo reports whether Redo would succeed.
func (w *Workspace) CanRedo() bool { return w.history.CanRedo() }

// Close cancels the history and auto-save timers.
func (w *Workspace) Close() {
	w.history.Close()
	if w.autoSaver != nil {
		w.autoSaver.Stop()
	}
}

// replace installs d as the new baseline without recording an edit.
func (w *Workspace) replace(d domain.Design) {
	w.history.Reset(d)
	w.history.Restore(func() { w.set(d) })
}

func (w *Workspace) set(d domain.Design) {
	w.mu.Lock()
	w.design = d
	listeners := w.snapshotListenersLocked()
	w.mu.Unlock()
	notify(listeners, d)
}

func (w *Workspace) snapshotListenersLocked() []Listener {
	ids := make([]int, 0, len(w.listeners))
	for id := range w.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Listener, 0, len(ids))
	for _, id := range ids {
		out = append(out, w.listeners[id])
	}
	return out
}

func notify(listeners []Listener, d domain.Design) {
	for _, fn := range listeners {
		fn(d)
	}
}
