package segmentation

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Result holds the output of every stage of one pipeline run.
type Result struct {
	Width  int
	Height int

	// Binary is the thresholded mask; Cleaned is the mask after morphology.
	Binary  Gray
	Cleaned Gray

	Labels Labels

	// Components lists every labeled blob; Accepted the ones that passed
	// the area filter.
	Components []Component
	Accepted   []Component

	// MinArea is the resolved area cutoff in pixels.
	MinArea float64
}

// Runner executes the pipeline and reports stage timings to Log.
type Runner struct {
	Log logrus.FieldLogger
}

// NewRunner returns a Runner logging to log. A nil log discards output.
func NewRunner(log logrus.FieldLogger) *Runner {
	if log == nil {
		log = discardLogger()
	}
	return &Runner{Log: log}
}

// Segment runs the full pipeline and returns the accepted components.
func Segment(gray Gray, cfg Config) ([]Component, error) {
	res, err := NewRunner(nil).Run(gray, cfg)
	if err != nil {
		return nil, err
	}
	return res.Accepted, nil
}

// Run runs the full pipeline and returns every intermediate product.
func Run(gray Gray, cfg Config) (*Result, error) {
	return NewRunner(nil).Run(gray, cfg)
}

// Run validates gray and cfg, then threshold, open, dilate, close, label,
// aggregate and filter. Nothing is computed if validation fails.
func (r *Runner) Run(gray Gray, cfg Config) (*Result, error) {
	if err := gray.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	se, err := NewStructuringElement(cfg.Shape, cfg.Radius)
	if err != nil {
		return nil, err
	}

	log := r.Log
	if log == nil {
		log = discardLogger()
	}
	log = log.WithFields(logrus.Fields{"width": gray.Width, "height": gray.Height})
	workers := cfg.workers()

	debug := debugEnabled(log)

	start := time.Now()
	binary, err := Binarize(gray, cfg)
	if err != nil {
		return nil, fmt.Errorf("binarize: %w", err)
	}
	if debug {
		log.WithFields(logrus.Fields{
			"stage":      "binarize",
			"mode":       cfg.Threshold.String(),
			"foreground": CountForeground(binary),
			"elapsed":    time.Since(start),
		}).Debug("thresholded")
	}

	start = time.Now()
	cleaned, err := compose(binary, se, cfg.OpenIterations, true, workers)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	cleaned, err = dilateN(cleaned, se, cfg.DilateIterations, workers)
	if err != nil {
		return nil, fmt.Errorf("dilate: %w", err)
	}
	cleaned, err = compose(cleaned, se, cfg.CloseIterations, false, workers)
	if err != nil {
		return nil, fmt.Errorf("close: %w", err)
	}
	if debug {
		log.WithFields(logrus.Fields{
			"stage":      "morphology",
			"element":    fmt.Sprintf("%s r=%d", cfg.Shape, cfg.Radius),
			"foreground": CountForeground(cleaned),
			"elapsed":    time.Since(start),
		}).Debug("cleaned mask")
	}

	start = time.Now()
	labels, count, err := Label(cleaned)
	if err != nil {
		return nil, fmt.Errorf("label: %w", err)
	}
	components, err := aggregate(labels, count, workers)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	minArea := cfg.MinArea.Resolve(gray.Width, gray.Height)
	accepted := Filter(components, minArea)
	log.WithFields(logrus.Fields{
		"stage":    "components",
		"blobs":    len(components),
		"accepted": len(accepted),
		"min_area": minArea,
		"elapsed":  time.Since(start),
	}).Debug("labeled components")

	return &Result{
		Width:      gray.Width,
		Height:     gray.Height,
		Binary:     binary,
		Cleaned:    cleaned,
		Labels:     labels,
		Components: components,
		Accepted:   accepted,
		MinArea:    minArea,
	}, nil
}

// debugEnabled reports whether log emits debug entries. Loggers it cannot
// inspect are assumed to.
func debugEnabled(log logrus.FieldLogger) bool {
	switch l := log.(type) {
	case *logrus.Entry:
		return l.Logger.IsLevelEnabled(logrus.DebugLevel)
	case *logrus.Logger:
		return l.IsLevelEnabled(logrus.DebugLevel)
	default:
		return true
	}
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
