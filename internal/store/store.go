// Package store persists decision outcomes keyed by request identifier.
// Writes are at-most-once: the first stored outcome for a request is
// terminal and later writes are ignored, so duplicate pipeline invocations
// can never overwrite an existing decision.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/collegemail/idverify/internal/decision"
	"github.com/collegemail/idverify/internal/fields"
)

// ErrNotFound is returned by Get when no outcome exists for the request.
var ErrNotFound = errors.New("no stored outcome for request")

// Record is the persisted result of one completed pipeline run.
type Record struct {
	RequestID  string                  `json:"request_id"`
	Extraction fields.ExtractionResult `json:"extraction"`
	Outcome    decision.Outcome        `json:"outcome"`
}

// OutcomeStore is the persistence port for decision outcomes.
type OutcomeStore interface {
	// Get returns the stored record, or ErrNotFound.
	Get(ctx context.Context, requestID string) (Record, error)
	// Put stores the record unless one already exists. It returns the
	// record that is durable after the call and whether this call wrote
	// it (false means an earlier write won).
	Put(ctx context.Context, rec Record) (Record, bool, error)
}

// MemoryStore is a mutex-guarded in-memory OutcomeStore.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Get implements OutcomeStore.
func (s *MemoryStore) Get(ctx context.Context, requestID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[requestID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Put implements OutcomeStore with first-write-wins semantics.
func (s *MemoryStore) Put(ctx context.Context, rec Record) (Record, bool, error) {
	if rec.RequestID == "" {
		return Record{}, false, errors.New("record has no request id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[rec.RequestID]; ok {
		return existing, false, nil
	}
	s.records[rec.RequestID] = rec
	return rec, true, nil
}
