package pixelart

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidPixelSize = fmt.Errorf("%w: pixel size must be greater than 0", ErrInvalidConfig)
	ErrInvalidIntensity = fmt.Errorf("%w: distress intensity must be between 0 and 100", ErrInvalidConfig)
	ErrEmptyImage       = errors.New("empty image")
)
