package extraction

import "fmt"

const (
	// DefaultExactLabel is the printed label that precedes the issuance date on Polish invoices.
	DefaultExactLabel = "DATA WYSTAWIENIA"
	// DefaultLabelWindow is how many characters after the exact label are searched for a date.
	DefaultLabelWindow = 50
	// DefaultFuzzyThreshold is the normalized edit distance below which a token counts as a label.
	DefaultFuzzyThreshold = 0.3
)

// DefaultFuzzyTargets are the label words matched by similarity: "issued", "issued-on", "on-the-day".
var DefaultFuzzyTargets = []string{"WYSTAWIENIA", "WYSTAWIONO", "DNIA"}

// DefaultCorrections holds the OCR misreads seen in the field.
var DefaultCorrections = []Correction{
	{From: "WYSTNSENIA", To: "WYSTAWIENIA"},
}

// Config holds the tunables of the extraction heuristics.
type Config struct {
	ExactLabel     string
	LabelWindow    int
	FuzzyTargets   []string
	FuzzyThreshold float64
	Corrections    []Correction
}

// DefaultConfig returns the configuration the heuristics were tuned with.
func DefaultConfig() Config {
	return Config{
		ExactLabel:     DefaultExactLabel,
		LabelWindow:    DefaultLabelWindow,
		FuzzyTargets:   append([]string(nil), DefaultFuzzyTargets...),
		FuzzyThreshold: DefaultFuzzyThreshold,
		Corrections:    append([]Correction(nil), DefaultCorrections...),
	}
}

// Validate reports configuration values the heuristics cannot work with.
func (c Config) Validate() error {
	if c.ExactLabel == "" {
		return fmt.Errorf("exact label is required")
	}
	if c.LabelWindow <= 0 {
		return fmt.Errorf("label window must be positive, got %d", c.LabelWindow)
	}
	if c.FuzzyThreshold <= 0 || c.FuzzyThreshold > 1 {
		return fmt.Errorf("fuzzy threshold must be in (0, 1], got %v", c.FuzzyThreshold)
	}
	for _, t := range c.FuzzyTargets {
		if t == "" {
			return fmt.Errorf("fuzzy targets must not be empty strings")
		}
	}
	for _, corr := range c.Corrections {
		if err := corr.Validate(); err != nil {
			return err
		}
	}
	return nil
}
