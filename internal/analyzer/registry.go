package analyzer

import (
	"errors"
	"fmt"
)

var ErrUnknownVariant = errors.New("unknown detector variant")

// NewDetector creates a detector based on the specified variant
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "sobel-nms", "":
		return NewSobelDetector(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}
}
