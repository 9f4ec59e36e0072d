package scanning

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder (flatbed scanners)
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// ErrUnsupportedFormat is returned when the upload is not an image or PDF we can read
var ErrUnsupportedFormat = errors.New("unsupported image format")

// pdfToImage renders the first page of a PDF
func pdfToImage(pdfData []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	// Invoices that matter are single page; the rest have the header on page one
	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

// isHEICFormat checks if the image data is in HEIC/HEIF format
// HEIC files typically start with specific magic bytes
func isHEICFormat(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	// ftyp box at offset 4 with a HEIC-related brand
	if string(data[4:8]) == "ftyp" {
		brand := string(data[8:12])
		if brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1" {
			return true
		}
	}
	return false
}

// isHEICMimeType checks if the MIME type indicates HEIC/HEIF format
func isHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

func isPDF(data []byte, mimeType string) bool {
	return mimeType == "application/pdf" || bytes.HasPrefix(data, []byte("%PDF-"))
}

// DecodeImage turns an uploaded file into an image the OCR engines can read.
// Camera JPEGs, gallery PNG/GIF/HEIC, scanner TIFF/BMP/WebP and the first page
// of a PDF are supported.
func DecodeImage(data []byte, contentType string) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data: %w", ErrUnsupportedFormat)
	}
	mimeType := strings.ToLower(strings.TrimSpace(contentType))

	if isPDF(data, mimeType) {
		return pdfToImage(data)
	}

	// Go's standard image package doesn't support HEIC (common on iPhones)
	if isHEICFormat(data) || isHEICMimeType(mimeType) {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w (supported: JPEG, PNG, GIF, HEIC, TIFF, BMP, WebP, PDF)", ErrUnsupportedFormat)
		}
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// EncodePNG encodes img losslessly for engines that take bytes
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}
