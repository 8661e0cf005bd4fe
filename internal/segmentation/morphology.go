package segmentation

// Erode returns a new mask where a pixel is foreground iff every element point
// of se, centered on it, lands on a foreground pixel. Element points outside
// the grid count as background, so foreground touching the border shrinks.
func Erode(b Gray, se *StructuringElement) (Gray, error) {
	if err := checkMorphInput(b, se); err != nil {
		return Gray{}, err
	}
	return morph(b, se, true, 0), nil
}

// Dilate returns a new mask where a pixel is foreground iff at least one
// element point of se, centered on it, lands on a foreground pixel. Element
// points outside the grid contribute nothing.
func Dilate(b Gray, se *StructuringElement) (Gray, error) {
	if err := checkMorphInput(b, se); err != nil {
		return Gray{}, err
	}
	return morph(b, se, false, 0), nil
}

// Open erodes iterations times, then dilates iterations times. It removes
// foreground specks the element does not fit into. Zero iterations return
// an unchanged copy.
func Open(b Gray, se *StructuringElement, iterations int) (Gray, error) {
	return compose(b, se, iterations, true, 0)
}

// Close dilates iterations times, then erodes iterations times. It fills
// background holes and gaps the element does not fit into.
func Close(b Gray, se *StructuringElement, iterations int) (Gray, error) {
	return compose(b, se, iterations, false, 0)
}

// dilateN dilates iterations times.
func dilateN(b Gray, se *StructuringElement, iterations, workers int) (Gray, error) {
	if err := checkMorphInput(b, se); err != nil {
		return Gray{}, err
	}
	if iterations < 0 {
		return Gray{}, errNegativeIterations(iterations)
	}
	return repeat(b, se, false, iterations, workers), nil
}

func compose(b Gray, se *StructuringElement, iterations int, erodeFirst bool, workers int) (Gray, error) {
	if err := checkMorphInput(b, se); err != nil {
		return Gray{}, err
	}
	if iterations < 0 {
		return Gray{}, errNegativeIterations(iterations)
	}
	out := repeat(b, se, erodeFirst, iterations, workers)
	return repeat(out, se, !erodeFirst, iterations, workers), nil
}

// repeat applies one elementary operation n times. It always returns a
// grid that does not alias b.
func repeat(b Gray, se *StructuringElement, erode bool, n, workers int) Gray {
	if n == 0 {
		return b.Clone()
	}
	out := b
	for i := 0; i < n; i++ {
		out = morph(out, se, erode, workers)
	}
	return out
}

// morph is one erosion or dilation pass. Each row of the element is a set of
// horizontal runs, and a run is tested against a per-row prefix count of
// foreground pixels, so a pixel costs one lookup per run instead of one per
// element point.
func morph(b Gray, se *StructuringElement, erode bool, workers int) Gray {
	w, h := b.Width, b.Height
	stride := w + 1

	prefix := make([]int32, stride*h)
	for y := 0; y < h; y++ {
		row := b.Pix[y*w : (y+1)*w]
		p := prefix[y*stride : (y+1)*stride]
		for x, v := range row {
			p[x+1] = p[x]
			if v != Background {
				p[x+1]++
			}
		}
	}

	if workers <= 0 {
		workers = defaultWorkers()
	}

	out := NewGray(w, h)
	forEachBand(h, workers, func(_, y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				if erode {
					if eroded(prefix, stride, w, h, x, y, se.runs) {
						out.Pix[y*w+x] = Foreground
					}
				} else if dilated(prefix, stride, w, h, x, y, se.runs) {
					out.Pix[y*w+x] = Foreground
				}
			}
		}
	})
	return out
}

func eroded(prefix []int32, stride, w, h, x, y int, runs []run) bool {
	for _, r := range runs {
		yy := y + r.dy
		a, b := x+r.x0, x+r.x1
		if yy < 0 || yy >= h || a < 0 || b >= w {
			return false
		}
		p := prefix[yy*stride:]
		if int(p[b+1]-p[a]) != b-a+1 {
			return false
		}
	}
	return true
}

func dilated(prefix []int32, stride, w, h, x, y int, runs []run) bool {
	for _, r := range runs {
		yy := y + r.dy
		if yy < 0 || yy >= h {
			continue
		}
		a, b := x+r.x0, x+r.x1
		if a < 0 {
			a = 0
		}
		if b >= w {
			b = w - 1
		}
		if a > b {
			continue
		}
		p := prefix[yy*stride:]
		if p[b+1]-p[a] > 0 {
			return true
		}
	}
	return false
}

func checkMorphInput(b Gray, se *StructuringElement) error {
	if err := b.validate(); err != nil {
		return err
	}
	if se == nil || se.Radius < 1 || len(se.runs) == 0 {
		return errBadElement
	}
	return nil
}
