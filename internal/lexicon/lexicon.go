// Package lexicon loads the OCR misread correction table from disk and keeps
// it fresh while the service runs.
package lexicon

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fakturka/invoice-scan/internal/extraction"
)

// File is the on-disk layout of a corrections file:
//
//	corrections:
//	  - from: WYSTNSENIA
//	    to: WYSTAWIENIA
type File struct {
	Corrections []extraction.Correction `yaml:"corrections"`
}

// Load reads and validates the corrections file at path.
func Load(path string) ([]extraction.Correction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corrections file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a corrections document. Unknown keys are rejected so typos
// don't silently disable a correction.
func Parse(data []byte) ([]extraction.Correction, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parsing corrections: %w", err)
	}
	for i, c := range f.Corrections {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("correction %d: %w", i+1, err)
		}
	}
	return f.Corrections, nil
}

// Merge appends extra after base, letting extra override entries with the
// same source word.
func Merge(base, extra []extraction.Correction) []extraction.Correction {
	out := make([]extraction.Correction, 0, len(base)+len(extra))
	overridden := make(map[string]bool, len(extra))
	for _, c := range extra {
		overridden[strings.ToUpper(c.From)] = true
	}
	for _, c := range base {
		if !overridden[strings.ToUpper(c.From)] {
			out = append(out, c)
		}
	}
	return append(out, extra...)
}
