package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collegemail/idverify/internal/decision"
	"github.com/collegemail/idverify/internal/fields"
)

func sampleRecord(id string, category decision.Category) Record {
	return Record{
		RequestID: id,
		Extraction: fields.ExtractionResult{
			RawText: "Student Name: Jane Smith",
			Name:    "Jane Smith",
			Roll:    "202310101110069",
		},
		Outcome: decision.Outcome{
			Category:        category,
			ConfidenceScore: 1.0,
			NameMatchScore:  1.0,
			RollMatchScore:  1.0,
		},
	}
}

// storeUnderTest runs the shared OutcomeStore contract against an
// implementation.
func storeUnderTest(t *testing.T, s OutcomeStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		_, err := s.Get(ctx, "never-written")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("put then get round-trips", func(t *testing.T) {
		want := sampleRecord("req-1", decision.LikelyApprove)

		stored, wrote, err := s.Put(ctx, want)
		require.NoError(t, err)
		assert.True(t, wrote)
		assert.Equal(t, want, stored)

		got, err := s.Get(ctx, "req-1")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("first write wins", func(t *testing.T) {
		first := sampleRecord("req-2", decision.LikelyApprove)
		second := sampleRecord("req-2", decision.FlagSuspicious)

		_, wrote, err := s.Put(ctx, first)
		require.NoError(t, err)
		require.True(t, wrote)

		durable, wrote, err := s.Put(ctx, second)
		require.NoError(t, err)
		assert.False(t, wrote)
		assert.Equal(t, first.Outcome.Category, durable.Outcome.Category)

		got, err := s.Get(ctx, "req-2")
		require.NoError(t, err)
		assert.Equal(t, decision.LikelyApprove, got.Outcome.Category)
	})

	t.Run("empty request id rejected", func(t *testing.T) {
		_, _, err := s.Put(ctx, sampleRecord("", decision.LikelyApprove))
		require.Error(t, err)
	})
}

func TestMemoryStore(t *testing.T) {
	storeUnderTest(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(t.TempDir())
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	storeUnderTest(t, s)
}

func TestSQLiteStoreReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewSQLiteStore(dir)
	require.NoError(t, err)
	_, wrote, err := s.Put(ctx, sampleRecord("req-persist", decision.ReviewManually))
	require.NoError(t, err)
	require.True(t, wrote)
	require.NoError(t, s.Close())

	// Outcomes survive process restarts.
	s2, err := NewSQLiteStore(dir)
	require.NoError(t, err)
	defer func() { require.NoError(t, s2.Close()) }()

	got, err := s2.Get(ctx, "req-persist")
	require.NoError(t, err)
	assert.Equal(t, decision.ReviewManually, got.Outcome.Category)
	assert.Equal(t, "Jane Smith", got.Extraction.Name)
}

func TestMemoryStoreConcurrentDuplicates(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := sampleRecord("req-race", decision.Category(fmt.Sprintf("CAT-%d", i)))
			_, wrote, err := s.Put(ctx, rec)
			assert.NoError(t, err)
			if wrote {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	// Exactly one invocation persists its outcome.
	assert.Equal(t, 1, winners)
}
