package segmentation

import (
	"fmt"
	"strings"
)

// ThresholdMode selects how a grayscale grid is binarized.
type ThresholdMode int

const (
	// ThresholdGlobal compares every pixel against one fixed cutoff.
	ThresholdGlobal ThresholdMode = iota
	// ThresholdAdaptive compares every pixel against its neighborhood mean.
	ThresholdAdaptive
)

func (m ThresholdMode) String() string {
	switch m {
	case ThresholdGlobal:
		return "global"
	case ThresholdAdaptive:
		return "adaptive"
	default:
		return fmt.Sprintf("ThresholdMode(%d)", int(m))
	}
}

// ParseThresholdMode parses "global" or "adaptive".
func ParseThresholdMode(s string) (ThresholdMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "global", "":
		return ThresholdGlobal, nil
	case "adaptive":
		return ThresholdAdaptive, nil
	}
	return 0, fmt.Errorf("%w: unknown threshold mode %q", ErrInvalidConfig, s)
}

// AdaptiveMethod selects how the adaptive reference value is weighted.
type AdaptiveMethod int

const (
	// AdaptiveMean weights every pixel of the window equally.
	AdaptiveMean AdaptiveMethod = iota
	// AdaptiveGaussian weights the window with a Gaussian centered on the pixel.
	AdaptiveGaussian
)

func (m AdaptiveMethod) String() string {
	switch m {
	case AdaptiveMean:
		return "mean"
	case AdaptiveGaussian:
		return "gaussian"
	default:
		return fmt.Sprintf("AdaptiveMethod(%d)", int(m))
	}
}

// ParseAdaptiveMethod parses "mean" or "gaussian".
func ParseAdaptiveMethod(s string) (AdaptiveMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mean", "box", "":
		return AdaptiveMean, nil
	case "gaussian":
		return AdaptiveGaussian, nil
	}
	return 0, fmt.Errorf("%w: unknown adaptive method %q", ErrInvalidConfig, s)
}

// Polarity says which side of the cutoff is foreground.
type Polarity int

const (
	// PolarityInvert treats dark pixels as foreground (objects on a light
	// background).
	PolarityInvert Polarity = iota
	// PolarityNormal treats bright pixels as foreground.
	PolarityNormal
)

func (p Polarity) String() string {
	switch p {
	case PolarityInvert:
		return "invert"
	case PolarityNormal:
		return "normal"
	default:
		return fmt.Sprintf("Polarity(%d)", int(p))
	}
}

// ParsePolarity parses "invert" or "normal".
func ParsePolarity(s string) (Polarity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "invert", "inverse", "dark", "":
		return PolarityInvert, nil
	case "normal", "bright":
		return PolarityNormal, nil
	}
	return 0, fmt.Errorf("%w: unknown polarity %q", ErrInvalidConfig, s)
}

// MinArea is the area filter threshold. Exactly one of Pixels and Fraction
// must be set.
type MinArea struct {
	// Pixels is an absolute pixel count.
	Pixels int
	// Fraction is a share of the image area, in (0, 1].
	Fraction float64
}

// Resolve returns the cutoff in pixels for a width x height image.
func (m MinArea) Resolve(width, height int) float64 {
	if m.Fraction > 0 {
		return m.Fraction * float64(width) * float64(height)
	}
	return float64(m.Pixels)
}

func (m MinArea) String() string {
	if m.Fraction > 0 {
		return fmt.Sprintf("%g of image area", m.Fraction)
	}
	return fmt.Sprintf("%d px", m.Pixels)
}

func (m MinArea) validate() error {
	switch {
	case m.Pixels != 0 && m.Fraction != 0:
		return fmt.Errorf("%w: min area sets both pixels (%d) and fraction (%g)", ErrInvalidConfig, m.Pixels, m.Fraction)
	case m.Fraction != 0:
		if !(m.Fraction > 0 && m.Fraction <= 1) {
			return fmt.Errorf("%w: min area fraction must be in (0, 1], got %g", ErrInvalidConfig, m.Fraction)
		}
	case m.Pixels <= 0:
		return fmt.Errorf("%w: min area must be a positive pixel count, got %d", ErrInvalidConfig, m.Pixels)
	}
	return nil
}

// Config holds every parameter of one pipeline invocation.
type Config struct {
	Threshold ThresholdMode
	Polarity  Polarity

	// Cutoff is the global threshold level.
	Cutoff uint8

	// AdaptiveWindow is the odd side length (>= 3) of the adaptive
	// neighborhood; AdaptiveOffset is subtracted from the local mean.
	AdaptiveMethod AdaptiveMethod
	AdaptiveWindow int
	AdaptiveOffset int

	Shape  Shape
	Radius int

	OpenIterations   int
	DilateIterations int
	CloseIterations  int

	MinArea MinArea

	// Workers is the number of goroutines per stage; 0 means runtime.NumCPU.
	Workers int
}

// DefaultConfig returns the settings of the classic object-counting setup:
// dark objects on a light background, cutoff 100, 5x5 ellipse, one opening
// and one closing, and a 1000 pixel minimum area.
func DefaultConfig() Config {
	return Config{
		Threshold:       ThresholdGlobal,
		Polarity:        PolarityInvert,
		Cutoff:          100,
		AdaptiveMethod:  AdaptiveGaussian,
		AdaptiveWindow:  101,
		AdaptiveOffset:  2,
		Shape:           ShapeEllipse,
		Radius:          2,
		OpenIterations:  1,
		CloseIterations: 1,
		MinArea:         MinArea{Pixels: 1000},
	}
}

// Validate reports the first invalid parameter. Adaptive window settings
// are only checked in adaptive mode.
func (c Config) Validate() error {
	switch c.Threshold {
	case ThresholdGlobal:
	case ThresholdAdaptive:
		if c.AdaptiveWindow < 3 || c.AdaptiveWindow%2 == 0 {
			return fmt.Errorf("%w: adaptive window must be odd and >= 3, got %d", ErrInvalidConfig, c.AdaptiveWindow)
		}
		if c.AdaptiveMethod != AdaptiveMean && c.AdaptiveMethod != AdaptiveGaussian {
			return fmt.Errorf("%w: unknown adaptive method %d", ErrInvalidConfig, int(c.AdaptiveMethod))
		}
	default:
		return fmt.Errorf("%w: unknown threshold mode %d", ErrInvalidConfig, int(c.Threshold))
	}
	if c.Polarity != PolarityInvert && c.Polarity != PolarityNormal {
		return fmt.Errorf("%w: unknown polarity %d", ErrInvalidConfig, int(c.Polarity))
	}
	if c.Shape != ShapeEllipse && c.Shape != ShapeRect {
		return fmt.Errorf("%w: unknown structuring element shape %d", ErrInvalidConfig, int(c.Shape))
	}
	if c.Radius < 1 {
		return fmt.Errorf("%w: structuring element radius must be >= 1, got %d", ErrInvalidConfig, c.Radius)
	}
	if c.OpenIterations < 0 || c.DilateIterations < 0 || c.CloseIterations < 0 {
		return fmt.Errorf("%w: iteration counts must be >= 0 (open %d, dilate %d, close %d)",
			ErrInvalidConfig, c.OpenIterations, c.DilateIterations, c.CloseIterations)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidConfig, c.Workers)
	}
	return c.MinArea.validate()
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return defaultWorkers()
}
