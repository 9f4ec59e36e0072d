package extraction

import (
	"regexp"
	"unicode/utf8"
)

var (
	// Slash-joined runs of at least three segments, e.g. "FV/123/09/2024".
	invoiceNumberRE = regexp.MustCompile(`[^\s/]+(?:/[^\s/]+){2,}`)

	// YYYY-MM-DD or DD-MM-YYYY with '-' or '.' separators. No calendar validation.
	dateRE = regexp.MustCompile(`\b(\d{4}[-.]\d{2}[-.]\d{2}|\d{2}[-.]\d{2}[-.]\d{4})\b`)
)

// Candidate is a syntactic match for a field together with its character
// offset in the normalized text it was found in. Offsets from different OCR
// passes are not comparable.
type Candidate struct {
	Value  string `json:"value"`
	Offset int    `json:"offset"`
}

// FindInvoiceNumber returns the first slash-delimited run in text.
func FindInvoiceNumber(text string) (Candidate, bool) {
	loc := invoiceNumberRE.FindStringIndex(text)
	if loc == nil {
		return Candidate{}, false
	}
	return Candidate{
		Value:  text[loc[0]:loc[1]],
		Offset: utf8.RuneCountInString(text[:loc[0]]),
	}, true
}

// FindDates returns every date-shaped token in text, left to right.
func FindDates(text string) []Candidate {
	return findDatesFrom(text, 0, -1)
}

// findDatesFrom returns at most n dates (all when n < 0) with offsets shifted
// by base runes. Byte offsets are converted incrementally so the scan stays linear.
func findDatesFrom(text string, base int, n int) []Candidate {
	locs := dateRE.FindAllStringIndex(text, n)
	if len(locs) == 0 {
		return nil
	}
	out := make([]Candidate, 0, len(locs))
	prevByte, prevRune := 0, base
	for _, loc := range locs {
		prevRune += utf8.RuneCountInString(text[prevByte:loc[0]])
		prevByte = loc[0]
		out = append(out, Candidate{Value: text[loc[0]:loc[1]], Offset: prevRune})
	}
	return out
}
