package extraction

// Evaluation holds everything one OCR pass yielded: the normalized text,
// the candidates scanned out of it, and the labels located in it.
type Evaluation struct {
	Text    string
	Invoice *Candidate
	Dates   []Candidate
	Exact   *ExactHit
	Fuzzy   []LabelMatch
}

// LabelSeenDateUnresolved reports the one condition that warrants another OCR
// pass: the exact label was printed but no date followed it within the window.
// This usually means the page was photographed sideways.
func (e *Evaluation) LabelSeenDateUnresolved() bool {
	return e.Exact != nil && e.Exact.Date == nil
}

// Result resolves the evaluation into a final Result, falling back to fuzzy
// labels and then to the first date when the exact label did not settle it.
func (e *Evaluation) Result() Result {
	var res Result
	if e.Invoice != nil {
		res.InvoiceNumber = FoundField(e.Invoice.Value)
	}
	if date, src, ok := ResolveDate(e.Exact, e.Fuzzy, e.Dates); ok {
		res.IssueDate = FoundField(date.Value)
		res.DateSource = src
	}
	return res
}

// ResolveDate picks the issuance date by precedence: a date in the exact
// label's window, then the date nearest any fuzzy label, then the first date.
func ResolveDate(exact *ExactHit, fuzzy []LabelMatch, dates []Candidate) (Candidate, DateSource, bool) {
	if exact != nil && exact.Date != nil {
		return *exact.Date, SourceExactLabel, true
	}
	if c, ok := nearestDate(fuzzy, dates); ok {
		return c, SourceFuzzyLabel, true
	}
	if len(dates) > 0 {
		return dates[0], SourceFirstDate, true
	}
	return Candidate{}, SourceNone, false
}

// nearestDate scans (label, date) pairs in order of appearance and keeps the
// first pair with the smallest distance.
func nearestDate(labels []LabelMatch, dates []Candidate) (Candidate, bool) {
	best := -1
	bestDist := 0
	for _, l := range labels {
		for i, d := range dates {
			dist := abs(l.Offset - d.Offset)
			if best < 0 || dist < bestDist {
				best, bestDist = i, dist
			}
		}
	}
	if best < 0 {
		return Candidate{}, false
	}
	return dates[best], true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
