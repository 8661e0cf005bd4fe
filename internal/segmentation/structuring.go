package segmentation

import (
	"fmt"
	"math"
	"strings"
)

// Shape selects the footprint of a StructuringElement.
type Shape int

const (
	// ShapeEllipse is a rasterized disk, matching OpenCV's MORPH_ELLIPSE.
	ShapeEllipse Shape = iota
	// ShapeRect is the full (2r+1)x(2r+1) square.
	ShapeRect
)

// String returns the config name of the shape.
func (s Shape) String() string {
	switch s {
	case ShapeEllipse:
		return "ellipse"
	case ShapeRect:
		return "rect"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// ParseShape parses "ellipse" (or "disk") and "rect" (or "square").
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ellipse", "disk", "":
		return ShapeEllipse, nil
	case "rect", "square":
		return ShapeRect, nil
	}
	return 0, fmt.Errorf("%w: unknown structuring element shape %q", ErrInvalidConfig, s)
}

// StructuringElement is the shape used by erosion and dilation: a square
// window of side 2*Radius+1 with a membership mask.
//
// A StructuringElement is immutable once built and may be shared between
// goroutines and pipeline runs.
type StructuringElement struct {
	Radius int
	Shape  Shape

	// Mask is row-major, Size()*Size() entries, true where the offset
	// belongs to the element.
	Mask []bool

	runs []run
}

// run is one horizontal segment of the mask, as offsets from the center.
type run struct {
	dy, x0, x1 int
}

// NewStructuringElement builds an element of the given shape and radius.
func NewStructuringElement(shape Shape, radius int) (*StructuringElement, error) {
	if radius < 1 {
		return nil, fmt.Errorf("%w: structuring element radius must be >= 1, got %d", ErrInvalidConfig, radius)
	}
	size := 2*radius + 1
	mask := make([]bool, size*size)

	switch shape {
	case ShapeEllipse:
		r := float64(radius)
		for i := 0; i < size; i++ {
			dy := float64(i - radius)
			dx := int(math.Round(math.Sqrt(r*r - dy*dy)))
			for j := radius - dx; j <= radius+dx; j++ {
				mask[i*size+j] = true
			}
		}
	case ShapeRect:
		for i := range mask {
			mask[i] = true
		}
	default:
		return nil, fmt.Errorf("%w: unknown structuring element shape %d", ErrInvalidConfig, int(shape))
	}

	se := &StructuringElement{Radius: radius, Shape: shape, Mask: mask}
	se.runs = maskRuns(mask, radius)
	return se, nil
}

// Ellipse is shorthand for NewStructuringElement(ShapeEllipse, radius).
func Ellipse(radius int) (*StructuringElement, error) {
	return NewStructuringElement(ShapeEllipse, radius)
}

// Size returns the side length of the element window.
func (se *StructuringElement) Size() int {
	return 2*se.Radius + 1
}

// Contains reports whether the element point at offset (dx, dy) from the
// center belongs to the element.
func (se *StructuringElement) Contains(dx, dy int) bool {
	if dx < -se.Radius || dx > se.Radius || dy < -se.Radius || dy > se.Radius {
		return false
	}
	return se.Mask[(dy+se.Radius)*se.Size()+dx+se.Radius]
}

// Points returns the number of points in the element.
func (se *StructuringElement) Points() int {
	n := 0
	for _, on := range se.Mask {
		if on {
			n++
		}
	}
	return n
}

// String renders the mask as rows of '#' and '.'.
func (se *StructuringElement) String() string {
	var sb strings.Builder
	size := se.Size()
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			if se.Mask[i*size+j] {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		if i < size-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// maskRuns splits each mask row into contiguous horizontal runs.
func maskRuns(mask []bool, radius int) []run {
	size := 2*radius + 1
	var runs []run
	for i := 0; i < size; i++ {
		j := 0
		for j < size {
			if !mask[i*size+j] {
				j++
				continue
			}
			start := j
			for j < size && mask[i*size+j] {
				j++
			}
			runs = append(runs, run{dy: i - radius, x0: start - radius, x1: j - 1 - radius})
		}
	}
	return runs
}
