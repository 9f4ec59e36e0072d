package scanning

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ImagingRotator rotates images with the imaging package. Pixels are moved,
// never resampled, so rotations are lossless.
type ImagingRotator struct{}

// Rotate turns img clockwise by degrees, which must be a multiple of 90.
func (ImagingRotator) Rotate(img image.Image, degrees int) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("rotating nil image")
	}
	if degrees%90 != 0 {
		return nil, fmt.Errorf("rotation must be a multiple of 90 degrees, got %d", degrees)
	}
	// imaging rotates counter-clockwise
	switch ((degrees % 360) + 360) % 360 {
	case 90:
		return imaging.Rotate270(img), nil
	case 180:
		return imaging.Rotate180(img), nil
	case 270:
		return imaging.Rotate90(img), nil
	default:
		return imaging.Clone(img), nil
	}
}
