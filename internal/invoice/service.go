package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fakturka/invoice-scan/internal/scanning"
)

// IDGenerator generates request IDs
type IDGenerator interface {
	Generate() string
}

// uuidGenerator generates random UUIDs
type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

// Service turns uploaded files into reports
type Service struct {
	controller  *Controller
	messages    Messages
	idGenerator IDGenerator
}

// NewService creates a new Service with UUID request IDs
func NewService(controller *Controller, messages Messages) *Service {
	return NewServiceWithDeps(controller, messages, &uuidGenerator{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(controller *Controller, messages Messages, idGen IDGenerator) *Service {
	return &Service{
		controller:  controller,
		messages:    messages,
		idGenerator: idGen,
	}
}

// Messages returns the catalog reports are rendered with
func (s *Service) Messages() Messages {
	return s.messages
}

// ProcessImage decodes an uploaded file and runs the extraction on it.
//
// Failures still produce a report holding the single failure line, returned
// together with the error. A cancelled request produces no report.
func (s *Service) ProcessImage(ctx context.Context, filename string, data []byte, contentType string) (*Report, error) {
	id := s.idGenerator.Generate()
	logger := slog.With("request_id", id, "filename", filename)

	if len(data) == 0 {
		return s.failed(id, filename, 0, ErrNoImage), ErrNoImage
	}

	img, err := scanning.DecodeImage(data, contentType)
	if err != nil {
		logger.Error("Failed to load image",
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		loadErr := &LoadError{Filename: filename, Cause: err}
		return s.failed(id, filename, 0, loadErr), loadErr
	}

	ext, err := s.controller.Run(ctx, img, func(st State) {
		logger.Debug("Extraction state",
			"phase", st.Phase,
			"attempt", st.Retry.Attempt,
			"outcome", st.Outcome,
		)
	})
	if err != nil {
		if ctx.Err() != nil {
			// The caller is gone: no report, no log line
			return nil, fmt.Errorf("extracting %s: %w", filename, err)
		}
		attempts := 0
		var ocrErr *OCRFailure
		if errors.As(err, &ocrErr) {
			attempts = ocrErr.Attempt
		}
		logger.Error("OCR failed", "attempt", attempts, "error", err)
		return s.failed(id, filename, attempts, err), err
	}

	if ext.Outcome == OutcomeBudgetExhausted {
		logger.Info("Rotation budget exhausted, using fallback date",
			"attempts", ext.Attempts,
			"date_source", ext.Result.DateSource,
		)
	}
	logger.Info("Extraction finished",
		"invoice_number", ext.Result.InvoiceNumber.Status,
		"issue_date", ext.Result.IssueDate.Status,
		"date_source", ext.Result.DateSource,
		"attempts", ext.Attempts,
	)

	res := ext.Result
	return &Report{
		RequestID: id,
		Filename:  filename,
		Status:    StatusOK,
		Lines:     s.messages.ResultLines(res),
		Result:    &res,
		Attempts:  ext.Attempts,
		Outcome:   ext.Outcome,
	}, nil
}

// ProcessText runs a single extraction pass over text that was already
// recognized elsewhere. There is no image, so there is nothing to rotate.
func (s *Service) ProcessText(text string) *Report {
	id := s.idGenerator.Generate()
	res := s.controller.Extractor().Extract(text)
	slog.Info("Text extraction finished",
		"request_id", id,
		"invoice_number", res.InvoiceNumber.Status,
		"issue_date", res.IssueDate.Status,
		"date_source", res.DateSource,
	)
	return &Report{
		RequestID: id,
		Status:    StatusOK,
		Lines:     s.messages.ResultLines(res),
		Result:    &res,
		Outcome:   OutcomeResolved,
	}
}

func (s *Service) failed(id, filename string, attempts int, err error) *Report {
	outcome := OutcomeOCRFailed
	if errors.Is(err, ErrNoImage) || errors.Is(err, ErrImageLoad) {
		outcome = OutcomeRejected
	}
	return &Report{
		RequestID: id,
		Filename:  filename,
		Status:    StatusFailed,
		Lines:     []string{s.messages.FailureLine(err)},
		Attempts:  attempts,
		Outcome:   outcome,
		Error:     err.Error(),
	}
}
