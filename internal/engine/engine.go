// Package engine defines the OCR engine port used by the text extractor.
// Any engine satisfying "bitmap in, text plus per-token confidence out"
// can back the pipeline; the ONNX Runtime adapter in this package is the
// production implementation.
package engine

import "image"

// Token is a recognized text token with its confidence.
type Token struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Result is the output of a single recognition run.
type Result struct {
	Text          string  `json:"text"`
	Tokens        []Token `json:"tokens,omitempty"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// Engine recognizes text on a normalized bitmap. Implementations are not
// required to honor deadlines internally; the extractor enforces the time
// budget around Recognize.
type Engine interface {
	Recognize(img image.Image) (Result, error)
	Close() error
}

// Provider hands out engine handles scoped to one pipeline invocation.
// Callers must Close the returned engine on every exit path.
type Provider interface {
	Acquire() (Engine, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func() (Engine, error)

func (f ProviderFunc) Acquire() (Engine, error) { return f() }
