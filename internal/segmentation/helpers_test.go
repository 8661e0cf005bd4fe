package segmentation

import (
	"strings"
	"testing"
)

// maskFromRows builds a binary mask from rows of '#' (foreground) and any
// other character (background).
func maskFromRows(t *testing.T, rows ...string) Gray {
	t.Helper()
	if len(rows) == 0 {
		t.Fatal("maskFromRows: no rows")
	}
	g := NewGray(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != g.Width {
			t.Fatalf("maskFromRows: row %d has %d columns, want %d", y, len(row), g.Width)
		}
		for x, ch := range row {
			if ch == '#' {
				g.Set(x, y, Foreground)
			}
		}
	}
	return g
}

// maskRows renders a mask back into '#'/'.' rows for readable failures.
func maskRows(g Gray) string {
	var sb strings.Builder
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if g.At(x, y) != Background {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// fillRect sets a w x h rectangle at (x0, y0) to v.
func fillRect(g Gray, x0, y0, w, h int, v uint8) {
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			g.Set(x, y, v)
		}
	}
}

// uniformGray returns a grid filled with v.
func uniformGray(w, h int, v uint8) Gray {
	g := NewGray(w, h)
	for i := range g.Pix {
		g.Pix[i] = v
	}
	return g
}

// fillDisk sets every pixel within radius of (cx, cy) to v.
func fillDisk(g Gray, cx, cy, radius int, v uint8) {
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius && g.In(x, y) {
				g.Set(x, y, v)
			}
		}
	}
}

func sameMask(a, b Gray) bool {
	if a.Width != b.Width || a.Height != b.Height {
		return false
	}
	for i := range a.Pix {
		if (a.Pix[i] == Background) != (b.Pix[i] == Background) {
			return false
		}
	}
	return true
}

func mustElement(t *testing.T, shape Shape, radius int) *StructuringElement {
	t.Helper()
	se, err := NewStructuringElement(shape, radius)
	if err != nil {
		t.Fatalf("NewStructuringElement(%v, %d) failed: %v", shape, radius, err)
	}
	return se
}

// thresholdGray runs a global threshold with the given cutoff and polarity.
func thresholdGray(gray Gray, cutoff uint8, polarity Polarity) (Gray, error) {
	cfg := DefaultConfig()
	cfg.Threshold = ThresholdGlobal
	cfg.Cutoff = cutoff
	cfg.Polarity = polarity
	return Binarize(gray, cfg)
}
