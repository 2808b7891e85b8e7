// Package extract runs optical character recognition over a normalized
// bitmap under a bounded time budget. The engine itself is a black box
// behind the engine.Provider port; this package owns the timeout race and
// the scoped acquisition of engine handles.
package extract

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/collegemail/idverify/internal/engine"
)

// ErrExtractionTimeout is returned when recognition exceeds the time
// budget. The attempt is abandoned; re-queuing is caller policy.
var ErrExtractionTimeout = errors.New("ocr recognition exceeded time budget")

// ExtractionError wraps any non-timeout engine failure.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("ocr engine failure: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// DefaultTimeout is the fixed recognition budget.
const DefaultTimeout = 10 * time.Second

// Config holds extractor settings.
type Config struct {
	Timeout time.Duration
}

// DefaultConfig returns the default extractor configuration.
func DefaultConfig() Config {
	return Config{Timeout: DefaultTimeout}
}

// Extractor wraps an engine provider with timeout enforcement.
type Extractor struct {
	cfg      Config
	provider engine.Provider
}

// New creates an Extractor backed by the given provider.
func New(cfg Config, provider engine.Provider) *Extractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Extractor{cfg: cfg, provider: provider}
}

// Extract acquires an engine handle, runs recognition and returns the raw
// text. The engine may not honor deadlines internally, so the recognition
// call is raced against a timer; on timeout the attempt is abandoned and
// ErrExtractionTimeout surfaces to the caller. The handle is released on
// every exit path.
func (x *Extractor) Extract(ctx context.Context, img image.Image) (engine.Result, error) {
	if img == nil {
		return engine.Result{}, &ExtractionError{Err: errors.New("input image is nil")}
	}

	eng, err := x.provider.Acquire()
	if err != nil {
		return engine.Result{}, &ExtractionError{Err: fmt.Errorf("acquire engine: %w", err)}
	}

	type outcome struct {
		res engine.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() { _ = eng.Close() }()
		res, rerr := eng.Recognize(img)
		done <- outcome{res: res, err: rerr}
	}()

	timer := time.NewTimer(x.cfg.Timeout)
	defer timer.Stop()

	start := time.Now()
	select {
	case out := <-done:
		if out.err != nil {
			return engine.Result{}, &ExtractionError{Err: out.err}
		}
		slog.Debug("Text extraction completed",
			"duration_ms", time.Since(start).Milliseconds(),
			"text_length", len(out.res.Text),
			"avg_confidence", out.res.AvgConfidence)
		return out.res, nil
	case <-timer.C:
		slog.Warn("Text extraction timed out", "budget", x.cfg.Timeout)
		return engine.Result{}, ErrExtractionTimeout
	case <-ctx.Done():
		return engine.Result{}, ctx.Err()
	}
}
