package segmentation

import "math"

// Binarize converts a grayscale grid into a Background/Foreground mask using
// the threshold settings of cfg.
//
// Global mode: with PolarityInvert a pixel is foreground iff it is strictly
// darker than cfg.Cutoff, with PolarityNormal iff strictly brighter.
//
// Adaptive mode: each pixel is compared against ref = m - cfg.AdaptiveOffset,
// where m is the mean (or Gaussian-weighted mean) of the
// AdaptiveWindow x AdaptiveWindow neighborhood centered on it. Pixels outside
// the grid replicate the nearest edge pixel. With PolarityInvert a pixel is
// foreground iff it is below ref, with PolarityNormal iff above.
func Binarize(gray Gray, cfg Config) (Gray, error) {
	if err := gray.validate(); err != nil {
		return Gray{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Gray{}, err
	}

	switch cfg.Threshold {
	case ThresholdAdaptive:
		if cfg.AdaptiveMethod == AdaptiveGaussian {
			return adaptiveGaussian(gray, cfg), nil
		}
		return adaptiveMean(gray, cfg), nil
	default:
		return global(gray, cfg), nil
	}
}

func global(gray Gray, cfg Config) Gray {
	out := NewGray(gray.Width, gray.Height)

	// Lookup table indexed by intensity.
	var lut [256]uint8
	for v := 0; v < 256; v++ {
		fg := v > int(cfg.Cutoff)
		if cfg.Polarity == PolarityInvert {
			fg = v < int(cfg.Cutoff)
		}
		if fg {
			lut[v] = Foreground
		}
	}

	forEachBand(gray.Height, cfg.workers(), func(_, y0, y1 int) {
		for i := y0 * gray.Width; i < y1*gray.Width; i++ {
			out.Pix[i] = lut[gray.Pix[i]]
		}
	})
	return out
}

// adaptiveMean uses separable sliding box sums, so the cost per pixel does
// not depend on the window size. All arithmetic stays in integers.
func adaptiveMean(gray Gray, cfg Config) Gray {
	w, h := gray.Width, gray.Height
	half := cfg.AdaptiveWindow / 2
	workers := cfg.workers()

	// Horizontal window sums.
	rows := make([]int64, w*h)
	forEachBand(h, workers, func(_, y0, y1 int) {
		for y := y0; y < y1; y++ {
			src := gray.Pix[y*w : (y+1)*w]
			dst := rows[y*w : (y+1)*w]
			var sum int64
			for k := -half; k <= half; k++ {
				sum += int64(src[clamp(k, 0, w-1)])
			}
			dst[0] = sum
			for x := 1; x < w; x++ {
				sum += int64(src[clamp(x+half, 0, w-1)]) - int64(src[clamp(x-1-half, 0, w-1)])
				dst[x] = sum
			}
		}
	})

	area := int64(cfg.AdaptiveWindow) * int64(cfg.AdaptiveWindow)
	offset := int64(cfg.AdaptiveOffset) * area
	invert := cfg.Polarity == PolarityInvert

	out := NewGray(w, h)
	forEachBand(h, workers, func(_, y0, y1 int) {
		acc := make([]int64, w)
		for k := -half; k <= half; k++ {
			r := rows[clamp(y0+k, 0, h-1)*w:]
			for x := 0; x < w; x++ {
				acc[x] += r[x]
			}
		}
		for y := y0; y < y1; y++ {
			if y > y0 {
				add := rows[clamp(y+half, 0, h-1)*w:]
				sub := rows[clamp(y-1-half, 0, h-1)*w:]
				for x := 0; x < w; x++ {
					acc[x] += add[x] - sub[x]
				}
			}
			// v < sum/area - C  <=>  v*area < sum - C*area
			for x := 0; x < w; x++ {
				v := int64(gray.Pix[y*w+x]) * area
				ref := acc[x] - offset
				if (invert && v < ref) || (!invert && v > ref) {
					out.Pix[y*w+x] = Foreground
				}
			}
		}
	})
	return out
}

// adaptiveGaussian applies a separable normalized Gaussian of side
// AdaptiveWindow and compares against the smoothed value.
func adaptiveGaussian(gray Gray, cfg Config) Gray {
	w, h := gray.Width, gray.Height
	kernel := gaussianKernel(cfg.AdaptiveWindow)
	half := cfg.AdaptiveWindow / 2
	workers := cfg.workers()

	rows := make([]float64, w*h)
	forEachBand(h, workers, func(_, y0, y1 int) {
		for y := y0; y < y1; y++ {
			src := gray.Pix[y*w : (y+1)*w]
			for x := 0; x < w; x++ {
				var sum float64
				for k := -half; k <= half; k++ {
					sum += kernel[k+half] * float64(src[clamp(x+k, 0, w-1)])
				}
				rows[y*w+x] = sum
			}
		}
	})

	offset := float64(cfg.AdaptiveOffset)
	invert := cfg.Polarity == PolarityInvert

	out := NewGray(w, h)
	forEachBand(h, workers, func(_, y0, y1 int) {
		acc := make([]float64, w)
		for y := y0; y < y1; y++ {
			for x := range acc {
				acc[x] = 0
			}
			for k := -half; k <= half; k++ {
				r := rows[clamp(y+k, 0, h-1)*w:]
				wk := kernel[k+half]
				for x := 0; x < w; x++ {
					acc[x] += wk * r[x]
				}
			}
			for x := 0; x < w; x++ {
				v := float64(gray.Pix[y*w+x])
				ref := acc[x] - offset
				if (invert && v < ref) || (!invert && v > ref) {
					out.Pix[y*w+x] = Foreground
				}
			}
		}
	})
	return out
}

// gaussianKernel returns normalized 1-D weights of length size using the
// sigma OpenCV derives from the kernel size.
func gaussianKernel(size int) []float64 {
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	half := size / 2
	k := make([]float64, size)
	var sum float64
	for i := range k {
		d := float64(i - half)
		k[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// clamp constrains an integer value to the range [min, max].
// Used for edge replication when a window reaches past the grid.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// CountForeground returns the number of foreground pixels in a mask.
func CountForeground(b Gray) int {
	n := 0
	for _, v := range b.Pix {
		if v != Background {
			n++
		}
	}
	return n
}
