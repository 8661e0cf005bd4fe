package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/blobcount/internal/segmentation"
)

// CropBlob cuts the bounding box of one component out of img, grown by
// padding pixels on every side and clipped to the image.
//
// A scale other than 1 resizes the crop with a Lanczos filter, which helps
// when inspecting small blobs.
func CropBlob(img image.Image, c segmentation.Component, padding int, scale float64) (*ImageResult, error) {
	if padding < 0 {
		return nil, fmt.Errorf("padding must be >= 0, got %d", padding)
	}
	if scale <= 0 {
		return nil, fmt.Errorf("scale must be > 0, got %g", scale)
	}

	bounds := img.Bounds()
	r := image.Rect(
		c.BBox.MinX-padding, c.BBox.MinY-padding,
		c.BBox.MaxX+1+padding, c.BBox.MaxY+1+padding,
	).Add(bounds.Min)
	r = r.Intersect(bounds)
	if r.Empty() {
		return nil, fmt.Errorf("blob %d bbox (%d,%d)-(%d,%d) outside image bounds %dx%d",
			c.Label, c.BBox.MinX, c.BBox.MinY, c.BBox.MaxX, c.BBox.MaxY, bounds.Dx(), bounds.Dy())
	}

	cropped := imaging.Crop(img, r)

	if scale != 1.0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		if newWidth < 1 || newHeight < 1 {
			return nil, fmt.Errorf("scale %g shrinks the crop to nothing", scale)
		}
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	return EncodePNG(cropped)
}
