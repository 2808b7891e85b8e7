package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/collegemail/idverify/internal/decision"
	"github.com/collegemail/idverify/internal/document"
	"github.com/collegemail/idverify/internal/fields"
	"github.com/collegemail/idverify/internal/normalize"
	"github.com/collegemail/idverify/internal/store"
)

// Process runs the four stages for one request. It is idempotent: a
// request with a stored outcome short-circuits to the cached record
// without touching the OCR engine. On any stage error the run aborts and
// nothing partial is persisted.
func (p *Pipeline) Process(ctx context.Context, req Request) (store.Record, error) {
	if req.ID == "" {
		return store.Record{}, errors.New("request has no id")
	}

	// Stored outcomes are terminal; never recompute.
	if rec, err := p.outcomes.Get(ctx, req.ID); err == nil {
		slog.Debug("Returning cached outcome", "request_id", req.ID, "category", rec.Outcome.Category)
		return rec, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return store.Record{}, fmt.Errorf("outcome lookup: %w", err)
	}

	if err := document.Validate(req.Document); err != nil {
		return store.Record{}, err
	}

	totalStart := time.Now()
	slog.Debug("Starting verification", "request_id", req.ID,
		"media_type", req.Document.MediaType, "bytes", len(req.Document.Data))

	// Stage 1: normalize. An undecodable buffer is a preprocessing
	// failure, same taxonomy as the transform chain.
	img, err := document.Decode(req.Document)
	if err != nil {
		return store.Record{}, &normalize.PreprocessingError{Operation: "decode", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return store.Record{}, err
	}
	normalized, err := p.normalizer.Apply(img)
	if err != nil {
		return store.Record{}, err
	}
	slog.Debug("Image normalized", "request_id", req.ID,
		"width", normalized.Bounds().Dx(), "height", normalized.Bounds().Dy())

	// Stage 2: extract.
	if err := ctx.Err(); err != nil {
		return store.Record{}, err
	}
	ocr, err := p.extractor.Extract(ctx, normalized)
	if err != nil {
		return store.Record{}, err
	}

	// Stage 3: parse. Field misses are valid partial results, not errors.
	extraction := fields.Parse(ocr.Text)
	slog.Debug("Fields parsed", "request_id", req.ID,
		"name_found", extraction.Name != "",
		"roll_found", extraction.Roll != "",
		"college_id_found", extraction.CollegeID != "")

	// Stage 4: decide.
	outcome := decision.Decide(extraction.Name, extraction.Roll, req.Profile)

	rec := store.Record{RequestID: req.ID, Extraction: extraction, Outcome: outcome}
	stored, wrote, err := p.outcomes.Put(ctx, rec)
	if err != nil {
		return store.Record{}, fmt.Errorf("store outcome: %w", err)
	}
	if !wrote {
		// A concurrent duplicate invocation won the write; its outcome is
		// terminal and state-equivalent since the computation is
		// deterministic.
		slog.Debug("Concurrent duplicate detected, keeping stored outcome", "request_id", req.ID)
	}

	slog.Debug("Verification completed", "request_id", req.ID,
		"category", stored.Outcome.Category,
		"confidence", stored.Outcome.ConfidenceScore,
		"duration_ms", time.Since(totalStart).Milliseconds())
	return stored, nil
}
