package segmentation

import "fmt"

// Point is a pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// BBox is an axis-aligned bounding box, inclusive on both ends.
type BBox struct {
	MinX int `json:"min_x"`
	MinY int `json:"min_y"`
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`
}

// Width returns the number of columns the box spans.
func (b BBox) Width() int { return b.MaxX - b.MinX + 1 }

// Height returns the number of rows the box spans.
func (b BBox) Height() int { return b.MaxY - b.MinY + 1 }

// Contains reports whether (x, y) lies inside the box.
func (b BBox) Contains(x, y float64) bool {
	return x >= float64(b.MinX) && x <= float64(b.MaxX) && y >= float64(b.MinY) && y <= float64(b.MaxY)
}

// Overlaps reports whether two boxes share at least one pixel.
func (b BBox) Overlaps(o BBox) bool {
	return b.MinX <= o.MaxX && o.MinX <= b.MaxX && b.MinY <= o.MaxY && o.MinY <= b.MaxY
}

// Centroid is the mean position of a component's pixels.
type Centroid struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Component describes one labeled blob.
type Component struct {
	Label    uint32   `json:"label"`
	Area     int      `json:"area"`
	BBox     BBox     `json:"bbox"`
	Centroid Centroid `json:"centroid"`
}

// partial accumulates the statistics of one label within one row band.
type partial struct {
	area                   int
	minX, minY, maxX, maxY int
	sumX, sumY             int64
}

func (p *partial) merge(o partial) {
	if o.area == 0 {
		return
	}
	if p.area == 0 {
		*p = o
		return
	}
	p.area += o.area
	p.minX = min(p.minX, o.minX)
	p.minY = min(p.minY, o.minY)
	p.maxX = max(p.maxX, o.maxX)
	p.maxY = max(p.maxY, o.maxY)
	p.sumX += o.sumX
	p.sumY += o.sumY
}

// Aggregate measures every label 1..count of l in one pass and returns one
// Component per label, in label order. Label 0 is background and produces
// no record.
func Aggregate(l Labels, count uint32) ([]Component, error) {
	return aggregate(l, count, defaultWorkers())
}

func aggregate(l Labels, count uint32, workers int) ([]Component, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}
	// Every label owns at least one pixel, so a larger count cannot be real.
	if uint64(count) > uint64(len(l.Pix)) {
		return nil, fmt.Errorf("%w: component count %d exceeds pixel count %d", ErrInvalidImage, count, len(l.Pix))
	}

	w := l.Width
	bands := bandCount(l.Height, workers)
	partials := make([][]partial, bands)
	overflow := make([]uint32, bands)

	forEachBand(l.Height, workers, func(band, y0, y1 int) {
		acc := make([]partial, count+1)
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				lbl := l.Pix[y*w+x]
				if lbl == 0 {
					continue
				}
				if lbl > count {
					overflow[band] = lbl
					continue
				}
				p := &acc[lbl]
				if p.area == 0 {
					p.minX, p.maxX, p.minY, p.maxY = x, x, y, y
				} else {
					// Rows are scanned in order, so minY is already final.
					p.minX = min(p.minX, x)
					p.maxX = max(p.maxX, x)
					p.maxY = y
				}
				p.area++
				p.sumX += int64(x)
				p.sumY += int64(y)
			}
		}
		partials[band] = acc
	})

	for _, lbl := range overflow {
		if lbl != 0 {
			return nil, fmt.Errorf("%w: label %d exceeds component count %d", ErrInvalidImage, lbl, count)
		}
	}

	total := partials[0]
	for _, p := range partials[1:] {
		for i := range total {
			total[i].merge(p[i])
		}
	}

	components := make([]Component, 0, count)
	for lbl := uint32(1); lbl <= count; lbl++ {
		p := total[lbl]
		if p.area == 0 {
			continue
		}
		components = append(components, Component{
			Label: lbl,
			Area:  p.area,
			BBox:  BBox{MinX: p.minX, MinY: p.minY, MaxX: p.maxX, MaxY: p.maxY},
			Centroid: Centroid{
				X: float64(p.sumX) / float64(p.area),
				Y: float64(p.sumY) / float64(p.area),
			},
		})
	}
	return components, nil
}

// Filter returns the components whose area is strictly greater than
// minArea, in their original order. The input slice is not modified.
func Filter(components []Component, minArea float64) []Component {
	accepted := make([]Component, 0, len(components))
	for _, c := range components {
		if float64(c.Area) > minArea {
			accepted = append(accepted, c)
		}
	}
	return accepted
}
