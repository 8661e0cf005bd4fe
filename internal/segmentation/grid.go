package segmentation

import (
	"fmt"
	"image"
)

// Foreground and Background are the two values a binary Gray grid holds.
const (
	Background uint8 = 0
	Foreground uint8 = 255
)

// Grid is a rectangular row-major array of pixel values.
//
// Pixel (x, y) lives at Pix[y*Width+x].
type Grid[T uint8 | uint32] struct {
	Width  int
	Height int
	Pix    []T
}

// Gray holds grayscale intensities, or a binary mask of Background/Foreground.
type Gray = Grid[uint8]

// Labels holds component labels; 0 is background.
type Labels = Grid[uint32]

// NewGrid allocates a zeroed grid.
func NewGrid[T uint8 | uint32](width, height int) Grid[T] {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return Grid[T]{Width: width, Height: height, Pix: make([]T, width*height)}
}

// NewGray allocates a zeroed (all background) Gray grid.
func NewGray(width, height int) Gray {
	return NewGrid[uint8](width, height)
}

// At returns the value at (x, y). Coordinates must be in range.
func (g Grid[T]) At(x, y int) T {
	return g.Pix[y*g.Width+x]
}

// Set stores v at (x, y). Coordinates must be in range.
func (g Grid[T]) Set(x, y int, v T) {
	g.Pix[y*g.Width+x] = v
}

// In reports whether (x, y) is inside the grid.
func (g Grid[T]) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// Clone returns a deep copy.
func (g Grid[T]) Clone() Grid[T] {
	out := Grid[T]{Width: g.Width, Height: g.Height, Pix: make([]T, len(g.Pix))}
	copy(out.Pix, g.Pix)
	return out
}

// Bounds returns the grid extent as an image.Rectangle anchored at the origin.
func (g Grid[T]) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

// validate checks the grid is non-empty and its buffer matches its size.
func (g Grid[T]) validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: grid is %dx%d", ErrInvalidImage, g.Width, g.Height)
	}
	if len(g.Pix) != g.Width*g.Height {
		return fmt.Errorf("%w: %dx%d grid has %d pixels", ErrInvalidImage, g.Width, g.Height, len(g.Pix))
	}
	return nil
}

// GrayFromImage copies an *image.Gray into a Gray grid, dropping the
// image's origin offset.
func GrayFromImage(img *image.Gray) Gray {
	b := img.Bounds()
	g := NewGray(b.Dx(), b.Dy())
	for y := 0; y < g.Height; y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(g.Pix[y*g.Width:(y+1)*g.Width], img.Pix[off:off+g.Width])
	}
	return g
}

// ToImage returns the grid as an *image.Gray sharing no memory with g.
func ToImage(g Gray) *image.Gray {
	img := image.NewGray(g.Bounds())
	copy(img.Pix, g.Pix)
	return img
}
