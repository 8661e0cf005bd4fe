package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/blobcount/internal/segmentation"
)

// ToGray converts img to the luminance grid the segmentation pipeline
// consumes, using the Rec. 601 weights (0.299 R + 0.587 G + 0.114 B).
//
// A positive blurRadius smooths the image with a Gaussian first. Blurring
// before adaptive thresholding fills in hollow or textured objects; radius 7
// spans the 15x15 window of the classic setup. Alpha is ignored.
func ToGray(img image.Image, blurRadius float64) segmentation.Gray {
	if g, ok := img.(*image.Gray); ok && blurRadius <= 0 {
		return segmentation.GrayFromImage(g)
	}

	src := img
	if blurRadius > 0 {
		src = blur.Gaussian(img, blurRadius)
	}
	lum := imaging.Grayscale(src)

	w, h := lum.Bounds().Dx(), lum.Bounds().Dy()
	g := segmentation.NewGray(w, h)
	for y := 0; y < h; y++ {
		row := lum.Pix[y*lum.Stride:]
		for x := 0; x < w; x++ {
			// Grayscale writes the luminance into R, G and B alike.
			g.Pix[y*w+x] = row[x*4]
		}
	}
	return g
}
