package invoice

import "errors"

var (
	// ErrNoImage is returned when extraction is started without an image
	ErrNoImage = errors.New("no image provided")
	// ErrImageLoad matches every *LoadError
	ErrImageLoad = errors.New("image could not be loaded")
	// ErrOCRTimeout is wrapped by an OCRFailure when the engine took too long
	ErrOCRTimeout = errors.New("ocr timed out")
)

// OCRFailure is a terminal error from the OCR engine. It is never retried.
// Its message is the engine's own, unchanged, so it can be shown to the user.
type OCRFailure struct {
	Attempt int
	Cause   error
}

func (e *OCRFailure) Error() string {
	return e.Cause.Error()
}

func (e *OCRFailure) Unwrap() error {
	return e.Cause
}

// LoadError means the uploaded file could not be decoded into an image
type LoadError struct {
	Filename string
	Cause    error
}

func (e *LoadError) Error() string {
	return e.Cause.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

func (e *LoadError) Is(target error) bool {
	return target == ErrImageLoad
}
