package invoice

import (
	"fmt"
	"io"

	"github.com/fakturka/invoice-scan/internal/extraction"
)

// ReportStatus is "ok" when the fields were looked for, "failed" otherwise
type ReportStatus string

const (
	StatusOK     ReportStatus = "ok"
	StatusFailed ReportStatus = "failed"
)

// Report is what one extraction request hands back to the user. Lines are
// ready to display; each can be copied on its own.
type Report struct {
	RequestID string             `json:"request_id"`
	Filename  string             `json:"filename,omitempty"`
	Status    ReportStatus       `json:"status"`
	Lines     []string           `json:"lines"`
	Result    *extraction.Result `json:"result,omitempty"`
	Attempts  int                `json:"attempts"`
	Outcome   Outcome            `json:"outcome"`
	Error     string             `json:"error,omitempty"`
}

// Sink receives finished reports
type Sink interface {
	Emit(report *Report) error
}

// WriterSink prints report lines, one per line, optionally under a filename header
type WriterSink struct {
	w          io.Writer
	withHeader bool
}

// NewWriterSink creates a sink writing to w. With header set every report is
// preceded by its filename, for runs over several files.
func NewWriterSink(w io.Writer, header bool) *WriterSink {
	return &WriterSink{w: w, withHeader: header}
}

func (s *WriterSink) Emit(report *Report) error {
	if s.withHeader && report.Filename != "" {
		if _, err := fmt.Fprintf(s.w, "%s:\n", report.Filename); err != nil {
			return err
		}
	}
	for _, line := range report.Lines {
		if _, err := fmt.Fprintln(s.w, line); err != nil {
			return err
		}
	}
	return nil
}
