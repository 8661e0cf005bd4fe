package segmentation

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidImage is returned for nil or zero-sized input grids.
	ErrInvalidImage = errors.New("invalid image")

	// ErrInvalidConfig is returned when a pipeline parameter is out of range.
	ErrInvalidConfig = errors.New("invalid config")
)

var errBadElement = fmt.Errorf("%w: structuring element must come from NewStructuringElement", ErrInvalidConfig)

func errNegativeIterations(n int) error {
	return fmt.Errorf("%w: iterations must be >= 0, got %d", ErrInvalidConfig, n)
}
