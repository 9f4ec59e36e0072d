package scanning

import (
	"context"
	"image"
)

// Recognizer defines the contract of an OCR engine
type Recognizer interface {
	// Recognize returns the text found in img. Errors are opaque and meant
	// to be shown to the user as they are.
	Recognize(ctx context.Context, img image.Image) (string, error)
	// Close releases resources held by the engine
	Close() error
}

// Rotator turns images by multiples of 90 degrees
type Rotator interface {
	// Rotate returns a new image rotated clockwise by degrees. The source is not modified.
	Rotate(img image.Image, degrees int) (image.Image, error)
}
