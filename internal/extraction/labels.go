package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var tokenRE = regexp.MustCompile(`\S+`)

// LabelKind tells how a label occurrence was located.
type LabelKind int

const (
	// LabelExact is a literal match of the full label phrase.
	LabelExact LabelKind = iota
	// LabelFuzzy is a single token similar to one of the target words.
	LabelFuzzy
)

func (k LabelKind) String() string {
	switch k {
	case LabelExact:
		return "exact"
	case LabelFuzzy:
		return "fuzzy"
	default:
		return "unknown"
	}
}

// LabelMatch is one located occurrence of an issuance label.
type LabelMatch struct {
	Offset int       `json:"offset"`
	Kind   LabelKind `json:"kind"`
	Target string    `json:"target"`
}

// ExactHit is the result of the exact phrase search. End is the character
// offset just past the phrase; Date is set when a date appeared inside the
// window that follows it.
type ExactHit struct {
	Match LabelMatch
	End   int
	Date  *Candidate
}

// LabelLocator finds issuance labels in normalized text.
type LabelLocator struct {
	phrase    string
	window    int
	targets   []string
	threshold float64
}

// NewLabelLocator creates a LabelLocator from cfg.
func NewLabelLocator(cfg Config) *LabelLocator {
	targets := make([]string, 0, len(cfg.FuzzyTargets))
	for _, t := range cfg.FuzzyTargets {
		targets = append(targets, strings.ToUpper(t))
	}
	return &LabelLocator{
		phrase:    strings.ToUpper(cfg.ExactLabel),
		window:    cfg.LabelWindow,
		targets:   targets,
		threshold: cfg.FuzzyThreshold,
	}
}

// FindExact locates the first occurrence of the label phrase and looks for a
// date in the window that follows it. text must already be normalized; the
// phrase is upper-cased, which makes the search case-insensitive.
func (l *LabelLocator) FindExact(text string) (ExactHit, bool) {
	if l.phrase == "" {
		return ExactHit{}, false
	}
	start := strings.Index(text, l.phrase)
	if start < 0 {
		return ExactHit{}, false
	}
	end := start + len(l.phrase)
	startRune := utf8.RuneCountInString(text[:start])
	endRune := startRune + utf8.RuneCountInString(l.phrase)

	hit := ExactHit{
		Match: LabelMatch{Offset: startRune, Kind: LabelExact, Target: l.phrase},
		End:   endRune,
	}
	window := text[end:runeIndex(text, end, l.window)]
	if dates := findDatesFrom(window, endRune, 1); len(dates) > 0 {
		hit.Date = &dates[0]
	}
	return hit, true
}

// FindFuzzy returns every whitespace-delimited token similar to one of the
// target words. A token is reported once, against the first target it matches.
func (l *LabelLocator) FindFuzzy(text string) []LabelMatch {
	var out []LabelMatch
	prevByte, prevRune := 0, 0
	for _, loc := range tokenRE.FindAllStringIndex(text, -1) {
		token := text[loc[0]:loc[1]]
		for _, target := range l.targets {
			if !IsSimilar(token, target, l.threshold) {
				continue
			}
			prevRune += utf8.RuneCountInString(text[prevByte:loc[0]])
			prevByte = loc[0]
			out = append(out, LabelMatch{Offset: prevRune, Kind: LabelFuzzy, Target: target})
			break
		}
	}
	return out
}

// runeIndex returns the byte index n runes past from in s, clamped to len(s).
func runeIndex(s string, from, n int) int {
	i := from
	for ; n > 0 && i < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i
}
