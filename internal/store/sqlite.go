package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/collegemail/idverify/internal/decision"
	"github.com/collegemail/idverify/internal/fields"
)

// SQLiteStore is an OutcomeStore backed by a local SQLite database. The
// primary-key constraint on request_id is the at-most-once guard: a
// conflicting insert is a no-op and the original row stays terminal.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

const outcomeSchema = `
CREATE TABLE IF NOT EXISTS outcomes (
	request_id       TEXT PRIMARY KEY,
	category         TEXT NOT NULL,
	confidence_score REAL NOT NULL,
	name_match_score REAL NOT NULL,
	roll_match_score REAL NOT NULL,
	extraction       TEXT NOT NULL
);`

// NewSQLiteStore opens (creating if needed) the outcome database at the
// given data directory.
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".idverify", "data")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "outcomes.db")

	// WAL mode for concurrent pipeline invocations.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(outcomeSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating outcomes table: %w", err)
	}
	return &SQLiteStore{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

// Get implements OutcomeStore.
func (s *SQLiteStore) Get(ctx context.Context, requestID string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT request_id, category, confidence_score, name_match_score, roll_match_score, extraction
		FROM outcomes WHERE request_id = ?`, requestID)
	return scanRecord(row)
}

// Put implements OutcomeStore. The ON CONFLICT DO NOTHING clause makes the
// insert idempotent under concurrent duplicate invocations; the row read
// back afterwards is the durable one regardless of which writer won.
func (s *SQLiteStore) Put(ctx context.Context, rec Record) (Record, bool, error) {
	if rec.RequestID == "" {
		return Record{}, false, errors.New("record has no request id")
	}
	extraction, err := json.Marshal(rec.Extraction)
	if err != nil {
		return Record{}, false, fmt.Errorf("encoding extraction: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO outcomes (request_id, category, confidence_score, name_match_score, roll_match_score, extraction)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(request_id) DO NOTHING`,
		rec.RequestID, string(rec.Outcome.Category), rec.Outcome.ConfidenceScore,
		rec.Outcome.NameMatchScore, rec.Outcome.RollMatchScore, string(extraction))
	if err != nil {
		return Record{}, false, fmt.Errorf("inserting outcome: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Record{}, false, fmt.Errorf("reading rows affected: %w", err)
	}

	stored, err := s.Get(ctx, rec.RequestID)
	if err != nil {
		return Record{}, false, fmt.Errorf("reading back outcome: %w", err)
	}
	return stored, n > 0, nil
}

// scanRecord decodes one outcomes row.
func scanRecord(row *sql.Row) (Record, error) {
	var rec Record
	var category string
	var extraction string
	err := row.Scan(&rec.RequestID, &category, &rec.Outcome.ConfidenceScore,
		&rec.Outcome.NameMatchScore, &rec.Outcome.RollMatchScore, &extraction)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("scanning outcome row: %w", err)
	}
	rec.Outcome.Category = decision.Category(category)
	var ext fields.ExtractionResult
	if err := json.Unmarshal([]byte(extraction), &ext); err != nil {
		return Record{}, fmt.Errorf("decoding extraction: %w", err)
	}
	rec.Extraction = ext
	return rec, nil
}
