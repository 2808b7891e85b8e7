// Package pipeline wires the verification stages together: normalize ->
// extract -> parse -> decide, with idempotent outcome persistence and an
// asynchronous submission queue.
package pipeline

import (
	"errors"
	"time"

	"github.com/collegemail/idverify/internal/decision"
	"github.com/collegemail/idverify/internal/document"
	"github.com/collegemail/idverify/internal/engine"
	"github.com/collegemail/idverify/internal/extract"
	"github.com/collegemail/idverify/internal/normalize"
	"github.com/collegemail/idverify/internal/store"
)

// Config holds configuration for the verification pipeline.
type Config struct {
	Normalize normalize.Config
	Extract   extract.Config
	Queue     QueueConfig
}

// DefaultConfig returns a default pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		Normalize: normalize.DefaultConfig(),
		Extract:   extract.DefaultConfig(),
		Queue:     DefaultQueueConfig(),
	}
}

// Request is one verification invocation: the uploaded document plus the
// requester's registered profile, keyed by request identifier.
type Request struct {
	ID       string
	Document document.Document
	Profile  decision.Profile
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg      Config
	provider engine.Provider
	outcomes store.OutcomeStore
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithEngineProvider sets the OCR engine provider. Required.
func (b *Builder) WithEngineProvider(p engine.Provider) *Builder {
	b.provider = p
	return b
}

// WithOutcomeStore sets the outcome store. Defaults to an in-memory store.
func (b *Builder) WithOutcomeStore(s store.OutcomeStore) *Builder {
	b.outcomes = s
	return b
}

// WithExtractionTimeout overrides the OCR time budget.
func (b *Builder) WithExtractionTimeout(d time.Duration) *Builder {
	if d > 0 {
		b.cfg.Extract.Timeout = d
	}
	return b
}

// WithMaxImageSide caps the longest normalized image side.
func (b *Builder) WithMaxImageSide(px int) *Builder {
	if px > 0 {
		b.cfg.Normalize.MaxSide = px
	}
	return b
}

// WithQueueWorkers sets the number of concurrent queue workers.
func (b *Builder) WithQueueWorkers(n int) *Builder {
	if n > 0 {
		b.cfg.Queue.Workers = n
	}
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Validate checks the builder configuration.
func (b *Builder) Validate() error {
	if b.provider == nil {
		return errors.New("engine provider is required")
	}
	if b.cfg.Extract.Timeout <= 0 {
		return errors.New("extraction timeout must be > 0")
	}
	if b.cfg.Normalize.MaxSide <= 0 {
		return errors.New("max image side must be > 0")
	}
	return nil
}

// Pipeline runs verification requests through the four stages.
type Pipeline struct {
	cfg        Config
	normalizer *normalize.Normalizer
	extractor  *extract.Extractor
	outcomes   store.OutcomeStore
}

// Build initializes the pipeline components.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	outcomes := b.outcomes
	if outcomes == nil {
		outcomes = store.NewMemoryStore()
	}
	return &Pipeline{
		cfg:        b.cfg,
		normalizer: normalize.New(b.cfg.Normalize),
		extractor:  extract.New(b.cfg.Extract, b.provider),
		outcomes:   outcomes,
	}, nil
}

// Outcomes exposes the outcome store for read-side collaborators.
func (p *Pipeline) Outcomes() store.OutcomeStore { return p.outcomes }

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }
