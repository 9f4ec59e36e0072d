// Package extraction locates an invoice number and its issuance date in
// noisy OCR text.
//
// The pipeline is normalize → scan candidates → locate labels → resolve.
// Everything here is pure and safe for concurrent use; orchestration of OCR
// passes lives in package invoice.
package extraction

import (
	"fmt"
	"sync/atomic"
)

// Extractor runs the heuristics over one OCR text at a time.
type Extractor struct {
	normalizer atomic.Pointer[Normalizer]
	locator    *LabelLocator
}

// New creates an Extractor from cfg.
func New(cfg Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extraction config: %w", err)
	}
	e := &Extractor{locator: NewLabelLocator(cfg)}
	e.normalizer.Store(NewNormalizer(cfg.Corrections))
	return e, nil
}

// SetCorrections swaps the misread table. Evaluations already running keep
// the table they started with.
func (e *Extractor) SetCorrections(corrections []Correction) {
	e.normalizer.Store(NewNormalizer(corrections))
}

// Evaluate normalizes raw OCR output and collects candidates and labels.
func (e *Extractor) Evaluate(raw string) *Evaluation {
	text := e.normalizer.Load().Normalize(raw)
	ev := &Evaluation{Text: text}
	if text == "" {
		return ev
	}
	if c, ok := FindInvoiceNumber(text); ok {
		ev.Invoice = &c
	}
	ev.Dates = FindDates(text)
	if hit, ok := e.locator.FindExact(text); ok {
		ev.Exact = &hit
	}
	ev.Fuzzy = e.locator.FindFuzzy(text)
	return ev
}

// Extract evaluates raw and resolves it in a single pass, without retries.
func (e *Extractor) Extract(raw string) Result {
	return e.Evaluate(raw).Result()
}
