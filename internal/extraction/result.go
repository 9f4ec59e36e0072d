package extraction

import "fmt"

// Status is the outcome for a single extracted field.
type Status int

const (
	NotFound Status = iota
	Found
)

func (s Status) String() string {
	if s == Found {
		return "found"
	}
	return "not_found"
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "found":
		*s = Found
	case "not_found":
		*s = NotFound
	default:
		return fmt.Errorf("unknown status %q", b)
	}
	return nil
}

// Field is an optional extracted value.
type Field struct {
	Value  string `json:"value,omitempty"`
	Status Status `json:"status"`
}

// FoundField returns a Field holding v.
func FoundField(v string) Field {
	return Field{Value: v, Status: Found}
}

// Found reports whether the field holds a value.
func (f Field) Found() bool { return f.Status == Found }

// DateSource records which rule picked the issuance date.
type DateSource int

const (
	SourceNone DateSource = iota
	SourceExactLabel
	SourceFuzzyLabel
	SourceFirstDate
)

func (d DateSource) String() string {
	switch d {
	case SourceExactLabel:
		return "exact_label"
	case SourceFuzzyLabel:
		return "fuzzy_label"
	case SourceFirstDate:
		return "first_date"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d DateSource) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DateSource) UnmarshalText(b []byte) error {
	for _, src := range []DateSource{SourceNone, SourceExactLabel, SourceFuzzyLabel, SourceFirstDate} {
		if src.String() == string(b) {
			*d = src
			return nil
		}
	}
	return fmt.Errorf("unknown date source %q", b)
}

// Result is the outcome of one extraction. It is a value: once returned it is
// never modified.
type Result struct {
	InvoiceNumber Field      `json:"invoice_number"`
	IssueDate     Field      `json:"issue_date"`
	DateSource    DateSource `json:"date_source"`
}
