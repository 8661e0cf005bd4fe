// Package report turns a segmentation result into the per-object listing
// and area statistics printed by the CLI and returned by the MCP server.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/blobcount/internal/segmentation"
)

// Object is one accepted blob.
type Object struct {
	// Index numbers accepted objects from 1 in scan order.
	Index int    `json:"index"`
	Label uint32 `json:"label"`
	Area  int    `json:"area"`

	// X and Y are the centroid truncated to whole pixels, as drawn on the
	// annotated image.
	X int `json:"x"`
	Y int `json:"y"`

	Centroid segmentation.Centroid `json:"centroid"`
	BBox     segmentation.BBox     `json:"bbox"`
	Width    int                   `json:"width"`
	Height   int                   `json:"height"`
}

// Summary holds area statistics over the accepted objects. All fields are
// zero when nothing was accepted.
type Summary struct {
	Count      int     `json:"count"`
	TotalArea  int     `json:"total_area"`
	MeanArea   float64 `json:"mean_area"`
	MedianArea float64 `json:"median_area"`
	StdDevArea float64 `json:"stddev_area"`
	MinArea    int     `json:"min_area"`
	MaxArea    int     `json:"max_area"`

	// Coverage is the share of the image covered by accepted objects.
	Coverage float64 `json:"coverage"`
}

// Report describes one analyzed image.
type Report struct {
	Image  string `json:"image,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`

	// TotalBlobs counts every component before the area filter.
	TotalBlobs int `json:"total_blobs"`

	// MinArea is the resolved area cutoff; objects have area > MinArea.
	MinArea float64 `json:"min_area"`

	Objects []Object `json:"objects"`
	Summary Summary  `json:"summary"`
}

// New builds the report for res. image names the source and may be empty.
func New(image string, res *segmentation.Result) *Report {
	r := &Report{
		Image:      image,
		Width:      res.Width,
		Height:     res.Height,
		TotalBlobs: len(res.Components),
		MinArea:    res.MinArea,
		Objects:    make([]Object, 0, len(res.Accepted)),
	}
	for i, c := range res.Accepted {
		r.Objects = append(r.Objects, Object{
			Index:    i + 1,
			Label:    c.Label,
			Area:     c.Area,
			X:        int(c.Centroid.X),
			Y:        int(c.Centroid.Y),
			Centroid: c.Centroid,
			BBox:     c.BBox,
			Width:    c.BBox.Width(),
			Height:   c.BBox.Height(),
		})
	}
	r.Summary = summarize(res.Accepted, res.Width*res.Height)
	return r
}

func summarize(accepted []segmentation.Component, imageArea int) Summary {
	if len(accepted) == 0 {
		return Summary{}
	}

	areas := make([]float64, len(accepted))
	s := Summary{
		Count:   len(accepted),
		MinArea: accepted[0].Area,
		MaxArea: accepted[0].Area,
	}
	for i, c := range accepted {
		areas[i] = float64(c.Area)
		s.TotalArea += c.Area
		s.MinArea = min(s.MinArea, c.Area)
		s.MaxArea = max(s.MaxArea, c.Area)
	}

	s.MeanArea = stat.Mean(areas, nil)
	if len(areas) > 1 {
		s.StdDevArea = stat.StdDev(areas, nil)
	}
	sort.Float64s(areas)
	// Empirical picks the lower middle value for even counts.
	s.MedianArea = stat.Quantile(0.5, stat.Empirical, areas, nil)

	if imageArea > 0 {
		s.Coverage = float64(s.TotalArea) / float64(imageArea)
	}
	return s
}

// WriteText prints the report in the console format of the object counter:
// one line per accepted object followed by the totals.
func (r *Report) WriteText(w io.Writer) error {
	ew := &errWriter{w: w}
	if r.Image != "" {
		ew.printf("Processing: %s (%dx%d)\n", r.Image, r.Width, r.Height)
	}
	ew.printf("Total blobs found (before filtering): %d\n", r.TotalBlobs)
	for _, o := range r.Objects {
		ew.printf(" Object %d accepted: Area=%d, Pos=(%d,%d)\n", o.Label, o.Area, o.X, o.Y)
	}
	ew.printf("Final valid objects detected: %d\n", len(r.Objects))
	if s := r.Summary; s.Count > 0 {
		ew.printf("  Area: total=%d mean=%.1f median=%.0f stddev=%.1f min=%d max=%d coverage=%.2f%%\n",
			s.TotalArea, s.MeanArea, s.MedianArea, s.StdDevArea, s.MinArea, s.MaxArea, 100*s.Coverage)
	}
	return ew.err
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// errWriter keeps the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
