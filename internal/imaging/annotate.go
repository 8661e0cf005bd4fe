package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/blobcount/internal/segmentation"
)

// AnnotationStyle controls how accepted blobs are drawn over the source image.
type AnnotationStyle struct {
	// Colors are "#RRGGBB" hex strings. An empty string disables that mark.
	BoxColor      string `json:"box_color" yaml:"box_color"`
	CentroidColor string `json:"centroid_color" yaml:"centroid_color"`
	TextColor     string `json:"text_color" yaml:"text_color"`

	// BoxThickness is the outline width in pixels.
	BoxThickness int `json:"box_thickness" yaml:"box_thickness"`

	// CentroidRadius is the radius of the filled centroid dot.
	CentroidRadius int `json:"centroid_radius" yaml:"centroid_radius"`

	// TextScale multiplies the 3x5 glyphs; 4 gives 12x20 pixel characters.
	TextScale int `json:"text_scale" yaml:"text_scale"`
}

// DefaultAnnotationStyle matches the classic object-counting overlay:
// magenta boxes, red centroid dots and green "(x,y)" labels.
func DefaultAnnotationStyle() AnnotationStyle {
	return AnnotationStyle{
		BoxColor:       "#FF00FF",
		CentroidColor:  "#FF0000",
		TextColor:      "#00FF00",
		BoxThickness:   5,
		CentroidRadius: 15,
		TextScale:      4,
	}
}

type marks struct {
	box, dot, text          color.Color
	hasBox, hasDot, hasText bool
}

// parseColor turns "#RRGGBB" (or "#RGB", with or without the '#') into
// an opaque color.
func parseColor(hex string) (color.RGBA, error) {
	s := strings.TrimSpace(hex)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

func (s AnnotationStyle) marks() (marks, error) {
	var p marks
	var err error
	if s.BoxColor != "" {
		if p.box, err = parseColor(s.BoxColor); err != nil {
			return p, fmt.Errorf("box: %w", err)
		}
		p.hasBox = true
	}
	if s.CentroidColor != "" {
		if p.dot, err = parseColor(s.CentroidColor); err != nil {
			return p, fmt.Errorf("centroid: %w", err)
		}
		p.hasDot = true
	}
	if s.TextColor != "" {
		if p.text, err = parseColor(s.TextColor); err != nil {
			return p, fmt.Errorf("text: %w", err)
		}
		p.hasText = true
	}
	return p, nil
}

// Annotate draws a box, a centroid dot and a "(x,y)" label for every
// component on a copy of img. Centroid coordinates are truncated to whole
// pixels for display. Marks that fall outside the image are clipped.
func Annotate(img image.Image, components []segmentation.Component, style AnnotationStyle) (*image.NRGBA, error) {
	p, err := style.marks()
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)

	scale := style.TextScale
	if scale < 1 {
		scale = 1
	}

	for _, c := range components {
		cx, cy := int(c.Centroid.X), int(c.Centroid.Y)

		if p.hasBox && style.BoxThickness > 0 {
			drawBox(out, c.BBox, style.BoxThickness, p.box)
		}
		if p.hasDot && style.CentroidRadius > 0 {
			fillCircle(out, cx, cy, style.CentroidRadius, p.dot)
		}
		if p.hasText {
			label := fmt.Sprintf("(%d,%d)", cx, cy)
			w, h := textSize(label, scale)
			gap := style.CentroidRadius + scale
			drawText(out, cx-w/2, cy-gap-h, label, scale, p.text)
		}
	}
	return out, nil
}

// RenderAnnotated annotates img and encodes the result as a PNG.
func RenderAnnotated(img image.Image, components []segmentation.Component, style AnnotationStyle) (*ImageResult, error) {
	out, err := Annotate(img, components, style)
	if err != nil {
		return nil, err
	}
	return EncodePNG(out)
}

// fillRect paints [x0,x1) x [y0,y1), clipped to img.
func fillRect(img *image.NRGBA, x0, y0, x1, y1 int, c color.Color) {
	r := image.Rect(x0, y0, x1, y1).Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// drawBox outlines the bounding box. The outline is centered on the box
// edge, so half the thickness lies outside the blob.
func drawBox(img *image.NRGBA, b segmentation.BBox, thickness int, c color.Color) {
	in := thickness / 2
	out := thickness - in
	x0, y0 := b.MinX-out, b.MinY-out
	x1, y1 := b.MaxX+1+out, b.MaxY+1+out

	fillRect(img, x0, y0, x1, b.MinY+in, c)
	fillRect(img, x0, b.MaxY+1-in, x1, y1, c)
	fillRect(img, x0, y0, b.MinX+in, y1, c)
	fillRect(img, b.MaxX+1-in, y0, x1, y1, c)
}

func fillCircle(img *image.NRGBA, cx, cy, radius int, c color.Color) {
	bounds := img.Bounds()
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			if image.Pt(x, y).In(bounds) {
				img.Set(x, y, c)
			}
		}
	}
}

// glyphs is a 3x5 pixel font covering the characters of coordinate labels.
var glyphs = map[rune][5]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	',': {"000", "000", "000", "010", "100"},
	'(': {"001", "010", "010", "010", "001"},
	')': {"100", "010", "010", "010", "100"},
	'-': {"000", "000", "111", "000", "000"},
	'.': {"000", "000", "000", "000", "010"},
}

// glyph cells are 3 columns plus one column of spacing.
const glyphAdvance = 4

func textSize(text string, scale int) (int, int) {
	n := len([]rune(text))
	if n == 0 {
		return 0, 0
	}
	return (n*glyphAdvance - 1) * scale, 5 * scale
}

// drawText renders text with its top-left corner at (x, y). Unknown
// characters leave a blank cell.
func drawText(img *image.NRGBA, x, y int, text string, scale int, c color.Color) {
	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if ok {
			for row, line := range glyph {
				for col, pixel := range line {
					if pixel != '1' {
						continue
					}
					px, py := cx+col*scale, y+row*scale
					fillRect(img, px, py, px+scale, py+scale, c)
				}
			}
		}
		cx += glyphAdvance * scale
	}
}
