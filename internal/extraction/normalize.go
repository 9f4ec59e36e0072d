package extraction

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Correction replaces a known OCR misread with the word it should have been.
type Correction struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// Validate reports whether c can be applied as a whole-word substitution.
func (c Correction) Validate() error {
	if strings.TrimSpace(c.From) == "" {
		return fmt.Errorf("correction has empty source word (to %q)", c.To)
	}
	if strings.ContainsFunc(c.From, unicode.IsSpace) {
		return fmt.Errorf("correction source %q must be a single word", c.From)
	}
	return nil
}

// ParseCorrection parses a "FROM=TO" pair as given on the command line.
func ParseCorrection(s string) (Correction, error) {
	from, to, ok := strings.Cut(s, "=")
	if !ok {
		return Correction{}, fmt.Errorf("invalid correction %q: expected FROM=TO", s)
	}
	c := Correction{From: strings.TrimSpace(from), To: strings.TrimSpace(to)}
	if err := c.Validate(); err != nil {
		return Correction{}, err
	}
	return c, nil
}

// Normalizer canonicalizes raw OCR output before any matching happens.
type Normalizer struct {
	corrections []Correction
}

// NewNormalizer creates a Normalizer applying the given corrections in order.
func NewNormalizer(corrections []Correction) *Normalizer {
	upper := make([]Correction, 0, len(corrections))
	for _, c := range corrections {
		if c.From == "" {
			continue
		}
		upper = append(upper, Correction{
			From: strings.ToUpper(c.From),
			To:   strings.ToUpper(c.To),
		})
	}
	return &Normalizer{corrections: upper}
}

// Normalize upper-cases text and applies whole-word misread corrections.
// All offsets produced downstream refer to the returned string.
func (n *Normalizer) Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	text := strings.ToUpper(raw)
	for _, c := range n.corrections {
		text = replaceWord(text, c.From, c.To)
	}
	return text
}

// replaceWord substitutes every occurrence of word in s that is not glued to
// a neighbouring letter or digit.
func replaceWord(s, word, repl string) string {
	if word == "" || !strings.Contains(s, word) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for {
		j := strings.Index(s[i:], word)
		if j < 0 {
			b.WriteString(s[i:])
			return b.String()
		}
		start := i + j
		end := start + len(word)
		if isWordEdge(s, start, end) {
			b.WriteString(s[i:start])
			b.WriteString(repl)
		} else {
			b.WriteString(s[i:end])
		}
		i = end
	}
}

func isWordEdge(s string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
