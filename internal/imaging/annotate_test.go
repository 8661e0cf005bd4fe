package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/blobcount/internal/segmentation"
)

func centeredBlob() segmentation.Component {
	return segmentation.Component{
		Label:    1,
		Area:     10000,
		BBox:     segmentation.BBox{MinX: 50, MinY: 50, MaxX: 149, MaxY: 149},
		Centroid: segmentation.Centroid{X: 99.5, Y: 99.5},
	}
}

func TestAnnotate_DefaultStyle(t *testing.T) {
	img := createInMemoryImage(200, 200, color.RGBA{255, 255, 255, 255})

	out, err := Annotate(img, []segmentation.Component{centeredBlob()}, DefaultAnnotationStyle())
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	tests := []struct {
		name    string
		x, y    int
		r, g, b uint8
	}{
		{"box top edge", 100, 48, 255, 0, 255},
		{"box outer top row", 100, 47, 255, 0, 255},
		{"box left edge", 49, 120, 255, 0, 255},
		{"box right edge", 150, 120, 255, 0, 255},
		{"inside the box", 100, 130, 255, 255, 255},
		{"outside the box", 20, 20, 255, 255, 255},
		{"centroid truncated to (99,99)", 99, 99, 255, 0, 0},
		{"dot edge", 99, 114, 255, 0, 0},
		{"past the dot", 99, 116, 255, 255, 255},
		// "(99,99)" is 108x20 pixels at scale 4, centered above the dot:
		// top-left (45,60). The first '(' pixel is glyph column 2, row 0.
		{"label first stroke", 54, 61, 0, 255, 0},
		{"label gap", 46, 61, 255, 255, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b := rgb8(out.At(tt.x, tt.y))
			if r != tt.r || g != tt.g || b != tt.b {
				t.Errorf("(%d,%d): got (%d,%d,%d), want (%d,%d,%d)", tt.x, tt.y, r, g, b, tt.r, tt.g, tt.b)
			}
		})
	}

	if r, g, b := rgb8(img.At(100, 48)); r != 255 || g != 255 || b != 255 {
		t.Error("Annotate modified the source image")
	}
}

func TestAnnotate_DisabledMarks(t *testing.T) {
	img := createInMemoryImage(200, 200, color.RGBA{255, 255, 255, 255})
	style := DefaultAnnotationStyle()
	style.BoxColor = ""
	style.TextColor = ""

	out, err := Annotate(img, []segmentation.Component{centeredBlob()}, style)
	if err != nil {
		t.Fatal(err)
	}
	if r, g, b := rgb8(out.At(100, 48)); r != 255 || g != 255 || b != 255 {
		t.Errorf("box drawn although disabled: (%d,%d,%d)", r, g, b)
	}
	if r, g, b := rgb8(out.At(54, 61)); r != 255 || g != 255 || b != 255 {
		t.Errorf("label drawn although disabled: (%d,%d,%d)", r, g, b)
	}
	if r, g, _ := rgb8(out.At(99, 99)); r != 255 || g != 0 {
		t.Error("centroid dot missing")
	}
}

func TestAnnotate_ClipsAtBorder(t *testing.T) {
	img := createInMemoryImage(30, 30, color.RGBA{0, 0, 0, 255})
	c := segmentation.Component{
		Label:    1,
		BBox:     segmentation.BBox{MinX: 0, MinY: 0, MaxX: 4, MaxY: 4},
		Centroid: segmentation.Centroid{X: 2, Y: 2},
	}

	out, err := Annotate(img, []segmentation.Component{c}, DefaultAnnotationStyle())
	if err != nil {
		t.Fatalf("Annotate near the border failed: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, 30, 30) {
		t.Errorf("bounds: got %v", out.Bounds())
	}
}

func TestAnnotate_OffsetOrigin(t *testing.T) {
	base := createInMemoryImage(100, 100, color.RGBA{255, 255, 255, 255})
	sub := base.SubImage(image.Rect(40, 40, 100, 100))
	c := segmentation.Component{
		Label:    1,
		BBox:     segmentation.BBox{MinX: 10, MinY: 10, MaxX: 20, MaxY: 20},
		Centroid: segmentation.Centroid{X: 15, Y: 15},
	}
	style := AnnotationStyle{CentroidColor: "#0000FF", CentroidRadius: 1}

	out, err := Annotate(sub, []segmentation.Component{c}, style)
	if err != nil {
		t.Fatal(err)
	}
	if out.Bounds() != image.Rect(0, 0, 60, 60) {
		t.Fatalf("bounds: got %v", out.Bounds())
	}
	if r, _, b := rgb8(out.At(15, 15)); r != 0 || b != 255 {
		t.Error("dot not drawn in sub-image coordinates")
	}
}

func TestAnnotate_InvalidColor(t *testing.T) {
	img := createInMemoryImage(10, 10, color.White)
	style := DefaultAnnotationStyle()
	style.TextColor = "not-a-color"

	if _, err := Annotate(img, nil, style); err == nil {
		t.Error("Annotate should reject an invalid color")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#FF00FF", color.RGBA{255, 0, 255, 255}, false},
		{"00ff00", color.RGBA{0, 255, 0, 255}, false},
		{" #102030 ", color.RGBA{16, 32, 48, 255}, false},
		{"#GG0000", color.RGBA{}, true},
		{"", color.RGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRenderAnnotated(t *testing.T) {
	img := createInMemoryImage(200, 200, color.RGBA{128, 128, 128, 255})

	res, err := RenderAnnotated(img, []segmentation.Component{centeredBlob()}, DefaultAnnotationStyle())
	if err != nil {
		t.Fatalf("RenderAnnotated failed: %v", err)
	}
	out := decodeResult(t, res)
	if r, g, b := rgb8(out.At(100, 48)); r != 255 || g != 0 || b != 255 {
		t.Errorf("box pixel: got (%d,%d,%d)", r, g, b)
	}
}

func TestTextSize(t *testing.T) {
	if w, h := textSize("(1,2)", 1); w != 19 || h != 5 {
		t.Errorf("scale 1: got %dx%d, want 19x5", w, h)
	}
	if w, h := textSize("12", 3); w != 21 || h != 15 {
		t.Errorf("scale 3: got %dx%d, want 21x15", w, h)
	}
	if w, h := textSize("", 4); w != 0 || h != 0 {
		t.Errorf("empty: got %dx%d", w, h)
	}
}
