package invoice

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fakturka/invoice-scan/internal/extraction"
)

// Messages is the catalog of user-facing result lines
type Messages struct {
	InvoiceNumber     string // format with the number
	InvoiceNotFound   string
	IssueDate         string // format with the date
	IssueDateNotFound string
	ProcessingError   string // format with the engine's message
	ImageLoadError    string // format with the decoder's message
	NoImage           string
}

// English is the default catalog
var English = Messages{
	InvoiceNumber:     "Invoice number: %s",
	InvoiceNotFound:   "Invoice number not found.",
	IssueDate:         "Issuance date: %s",
	IssueDateNotFound: "Issuance date not found.",
	ProcessingError:   "Image processing error: %s",
	ImageLoadError:    "Image load error: %s",
	NoImage:           "Take a photo or select an image first!",
}

// Polish matches the wording of the invoices being read
var Polish = Messages{
	InvoiceNumber:     "Numer faktury: %s",
	InvoiceNotFound:   "Nie znaleziono numeru faktury.",
	IssueDate:         "Data wystawienia: %s",
	IssueDateNotFound: "Nie znaleziono daty wystawienia.",
	ProcessingError:   "Błąd przetwarzania obrazu: %s",
	ImageLoadError:    "Błąd wczytywania obrazu: %s",
	NoImage:           "Najpierw wykonaj zdjęcie lub wybierz obraz!",
}

// MessagesFor returns the catalog for a language code ("en" or "pl")
func MessagesFor(lang string) (Messages, error) {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "", "en":
		return English, nil
	case "pl":
		return Polish, nil
	default:
		return Messages{}, fmt.Errorf("unsupported language %q (want en or pl)", lang)
	}
}

// ResultLines renders a result as one line per field, invoice number first
func (m Messages) ResultLines(res extraction.Result) []string {
	lines := make([]string, 0, 2)
	if res.InvoiceNumber.Found() {
		lines = append(lines, fmt.Sprintf(m.InvoiceNumber, res.InvoiceNumber.Value))
	} else {
		lines = append(lines, m.InvoiceNotFound)
	}
	if res.IssueDate.Found() {
		lines = append(lines, fmt.Sprintf(m.IssueDate, res.IssueDate.Value))
	} else {
		lines = append(lines, m.IssueDateNotFound)
	}
	return lines
}

// FailureLine renders an error as the single line that replaces the results
func (m Messages) FailureLine(err error) string {
	var loadErr *LoadError
	var ocrErr *OCRFailure
	switch {
	case errors.Is(err, ErrNoImage):
		return m.NoImage
	case errors.As(err, &loadErr):
		return fmt.Sprintf(m.ImageLoadError, loadErr.Error())
	case errors.As(err, &ocrErr):
		return fmt.Sprintf(m.ProcessingError, ocrErr.Error())
	default:
		return fmt.Sprintf(m.ProcessingError, err.Error())
	}
}
