// Package document converts designs to and from the portable wire format.
// Loading never trusts stored derived values: every entity is resolved
// against the catalog and recomputed by the calculator.
package document

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"shipyard/internal/migrate"
	"shipyard/internal/observability"
	"shipyard/internal/wire"
	"shipyard/pkg/domain"
)

// ErrMalformed is returned by Decode when the input is not a document.
var ErrMalformed = errors.New("document: malformed input")

// LoadResult is the outcome of Deserialize. Design is set iff Success.
type LoadResult struct {
	Success  bool
	Design   *domain.Design
	Errors   []domain.Diagnostic
	Warnings []domain.Diagnostic
}

// Diagnostics returns errors followed by warnings.
func (r LoadResult) Diagnostics() []domain.Diagnostic {
	out := make([]domain.Diagnostic, 0, len(r.Errors)+len(r.Warnings))
	out = append(out, r.Errors...)
	return append(out, r.Warnings...)
}

// Has reports whether any diagnostic carries code.
func (r LoadResult) Has(code string) bool {
	for _, d := range r.Diagnostics() {
		if d.Code == code {
			return true
		}
	}
	return false
}

// Engine serializes and deserializes designs.
type Engine struct {
	catalog domain.Catalog
	calc    domain.Calculator
	table   migrate.Table
	nowFn   func() time.Time
	newID   func() string
	logger  logrus.FieldLogger
	metrics observability.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.nowFn = now }
}

// WithIDGenerator overrides instance id generation.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// WithMigrations replaces the migration table.
func WithMigrations(table migrate.Table) Option {
	return func(e *Engine) { e.table = table }
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New returns an engine resolving types through catalog and recomputing
// derived values with calc.
func New(catalog domain.Catalog, calc domain.Calculator, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalog,
		calc:    calc,
		table:   migrate.Default(),
		nowFn:   time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.logger = observability.OrDiscard(e.logger)
	e.metrics = observability.OrNop(e.metrics)
	return e
}

// Catalog returns the catalog the engine resolves types against.
func (e *Engine) Catalog() domain.Catalog { return e.catalog }

// Encode serializes design and renders it as bytes.
func (e *Engine) Encode(ctx context.Context, design domain.Design) ([]byte, error) {
	start := e.nowFn()
	data, err := wire.ToBytes(e.Serialize(design))
	e.metrics.Observe(ctx, "encode", err == nil, e.nowFn().Sub(start))
	return data, err
}

// Decode parses bytes and deserializes them. Malformed input returns
// ErrMalformed; a well-formed document that fails to load returns a
// LoadResult with Success unset and a nil error.
func (e *Engine) Decode(ctx context.Context, data []byte) (LoadResult, error) {
	doc := wire.FromBytes(data)
	if doc == nil {
		e.metrics.Observe(ctx, "decode", false, 0)
		return LoadResult{}, ErrMalformed
	}
	return e.Deserialize(ctx, doc), nil
}

// Deserialize rebuilds a design from doc. doc is not modified.
func (e *Engine) Deserialize(ctx context.Context, doc *wire.Document) LoadResult {
	start := e.nowFn()
	d := &decoder{engine: e}
	res := d.run(doc)

	var name, version string
	if doc != nil {
		name, version = doc.Name, doc.Version
	}
	log := e.logger.WithFields(logrus.Fields{
		"design":   name,
		"version":  version,
		"errors":   len(res.Errors),
		"warnings": len(res.Warnings),
	})
	for _, diag := range res.Diagnostics() {
		e.metrics.Diagnostic(diag)
		log.WithFields(logrus.Fields{
			"code":     diag.Code,
			"category": diag.Category,
			"id":       diag.ID,
		}).Debug(diag.Message)
	}
	if res.Success {
		log.Info("design loaded")
	} else {
		log.Warn("design load failed")
	}
	e.metrics.Observe(ctx, "deserialize", res.Success, e.nowFn().Sub(start))
	return res
}
