package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/blobcount/internal/segmentation"
)

// ImageResult is a rendered image ready to hand to a client.
type ImageResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG encodes img as a base64 PNG ImageResult.
func EncodePNG(img image.Image) (*ImageResult, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	b := img.Bounds()
	return &ImageResult{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// MaskImage returns a binary mask as a black and white image: foreground
// white, background black.
func MaskImage(mask segmentation.Gray) *image.Gray {
	return segmentation.ToImage(mask)
}

// RenderMask encodes a binary mask as a PNG.
func RenderMask(mask segmentation.Gray) (*ImageResult, error) {
	return EncodePNG(MaskImage(mask))
}

// LabelImage paints every component in its own color on black. Hues step
// by the golden angle, so neighboring labels stay easy to tell apart.
func LabelImage(labels segmentation.Labels, count uint32) *image.NRGBA {
	palette := make([]color.NRGBA, count+1)
	palette[0] = color.NRGBA{A: 255}
	for l := uint32(1); l <= count; l++ {
		hue := math.Mod(float64(l)*137.508, 360)
		r, g, b := colorful.Hsv(hue, 0.75, 0.95).RGB255()
		palette[l] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}

	img := image.NewNRGBA(labels.Bounds())
	for i, l := range labels.Pix {
		c := palette[0]
		if l <= count {
			c = palette[l]
		}
		img.Pix[i*4+0] = c.R
		img.Pix[i*4+1] = c.G
		img.Pix[i*4+2] = c.B
		img.Pix[i*4+3] = c.A
	}
	return img
}

// RenderLabels encodes LabelImage as a PNG.
func RenderLabels(labels segmentation.Labels, count uint32) (*ImageResult, error) {
	return EncodePNG(LabelImage(labels, count))
}

// SaveImage writes img to path; the format follows the file extension.
func SaveImage(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
