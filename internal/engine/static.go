package engine

import (
	"image"
	"strings"
	"time"
)

// StaticEngine returns a fixed recognition result regardless of input. It
// backs tests and the integration suite, and doubles as a slow or failing
// engine when Delay or Err are set.
type StaticEngine struct {
	Text   string
	Conf   float64
	Delay  time.Duration
	Err    error
	Closed bool
	Calls  int
}

// Recognize returns the canned text, optionally after a delay.
func (s *StaticEngine) Recognize(img image.Image) (Result, error) {
	s.Calls++
	if s.Delay > 0 {
		time.Sleep(s.Delay)
	}
	if s.Err != nil {
		return Result{}, s.Err
	}
	res := Result{Text: s.Text, AvgConfidence: s.Conf}
	for _, tok := range strings.Fields(s.Text) {
		res.Tokens = append(res.Tokens, Token{Text: tok, Confidence: s.Conf})
	}
	return res, nil
}

// Close marks the engine as released.
func (s *StaticEngine) Close() error {
	s.Closed = true
	return nil
}

// StaticProvider hands out the same StaticEngine on every Acquire.
type StaticProvider struct {
	Engine *StaticEngine
}

// Acquire returns the configured engine.
func (p *StaticProvider) Acquire() (Engine, error) {
	return p.Engine, nil
}
