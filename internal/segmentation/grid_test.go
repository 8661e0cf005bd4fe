package segmentation

import (
	"errors"
	"image"
	"testing"
)

func TestGrayFromImage_DropsOrigin(t *testing.T) {
	img := image.NewGray(image.Rect(5, 7, 9, 10)) // 4x3, offset origin
	for y := 7; y < 10; y++ {
		for x := 5; x < 9; x++ {
			img.Pix[img.PixOffset(x, y)] = uint8(10*(y-7) + (x - 5))
		}
	}

	g := GrayFromImage(img)
	if g.Width != 4 || g.Height != 3 {
		t.Fatalf("size: got %dx%d, want 4x3", g.Width, g.Height)
	}
	if g.At(0, 0) != 0 || g.At(3, 0) != 3 || g.At(2, 2) != 22 {
		t.Errorf("pixels not copied row by row: %v", g.Pix)
	}
}

func TestGrayFromImage_SubImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	sub := img.SubImage(image.Rect(2, 3, 5, 5)).(*image.Gray)

	g := GrayFromImage(sub)
	if g.Width != 3 || g.Height != 2 {
		t.Fatalf("size: got %dx%d", g.Width, g.Height)
	}
	if g.At(0, 0) != 32 || g.At(2, 1) != 44 {
		t.Errorf("got %v", g.Pix)
	}
}

func TestToImage_Independent(t *testing.T) {
	g := uniformGray(3, 2, 9)
	img := ToImage(g)
	if img.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Fatalf("bounds: %v", img.Bounds())
	}
	img.Pix[0] = 1
	if g.Pix[0] != 9 {
		t.Error("ToImage shares memory with the grid")
	}
}

func TestGrid_Validate(t *testing.T) {
	tests := []struct {
		name string
		g    Gray
		ok   bool
	}{
		{"valid", NewGray(3, 3), true},
		{"zero size", Gray{}, false},
		{"negative size from NewGray", NewGray(-1, 4), false},
		{"long buffer", Gray{Width: 2, Height: 2, Pix: make([]uint8, 5)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.g.validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidImage) {
				t.Errorf("got %v, want ErrInvalidImage", err)
			}
		})
	}
}
