package scanning

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract implements the Recognizer interface using a local Tesseract install
type Tesseract struct {
	languages []string
}

// availableLanguages lists the traineddata installed for Tesseract
var availableLanguages = gosseract.GetAvailableLanguages

// NewTesseract creates a new Tesseract Recognizer for the given languages
// (Tesseract codes such as "pol" or "eng"). Every language must be installed.
func NewTesseract(languages ...string) (*Tesseract, error) {
	if len(languages) == 0 {
		languages = []string{"pol", "eng"}
	}
	installed, err := availableLanguages()
	if err != nil {
		return nil, fmt.Errorf("listing tesseract languages: %w", err)
	}
	if missing := missingLanguages(languages, installed); len(missing) > 0 {
		return nil, fmt.Errorf("tesseract languages not installed: %s (available: %s)",
			strings.Join(missing, ", "), strings.Join(installed, ", "))
	}
	return &Tesseract{languages: languages}, nil
}

func missingLanguages(requested, installed []string) []string {
	have := make(map[string]bool, len(installed))
	for _, l := range installed {
		have[l] = true
	}
	var missing []string
	for _, l := range requested {
		if !have[l] {
			missing = append(missing, l)
		}
	}
	return missing
}

// Recognize runs Tesseract on img. A client is created per call since
// gosseract clients are not safe for concurrent use.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return "", fmt.Errorf("setting language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return "", fmt.Errorf("setting page segmentation: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("setting image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract OCR failed: %w", err)
	}
	return text, nil
}

// Close is a no-op; clients are released after every call
func (t *Tesseract) Close() error {
	return nil
}
