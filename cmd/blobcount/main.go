// Command blobcount counts the objects in images: it thresholds each image,
// cleans the mask with morphology, labels 8-connected blobs and reports the
// ones above the minimum area.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/blobcount/internal/config"
	"github.com/ironsheep/blobcount/internal/imaging"
	"github.com/ironsheep/blobcount/internal/report"
	"github.com/ironsheep/blobcount/internal/segmentation"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configPath string
	envPath    string
	adaptive   bool
	debug      bool
	version    bool
	images     []string
}

// parseFlags builds the effective configuration: defaults (or the adaptive
// preset), then the YAML file, then BLOBCOUNT_* variables, then flags.
func parseFlags(args []string, stderr io.Writer) (*config.Config, *options, error) {
	fs := flag.NewFlagSet("blobcount", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: blobcount [options] image...")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
		fmt.Fprintln(stderr)
		fmt.Fprintf(stderr, "Environment variables prefixed %s override the config file;\n", config.EnvPrefix)
		fmt.Fprintln(stderr, "flags override both.")
	}

	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "blobcount.yaml", "YAML config file (ignored if missing)")
	fs.StringVar(&opts.envPath, "env", ".env", "dotenv file loaded into the environment (ignored if missing)")
	fs.BoolVar(&opts.adaptive, "adaptive", false, "start from the adaptive preset for unevenly lit photos")
	fs.BoolVar(&opts.debug, "debug", false, "enable debug logging with per-stage timings")
	fs.BoolVar(&opts.version, "version", false, "print version information")

	cutoff := fs.Int("cutoff", 0, "global threshold level (0-255)")
	polarity := fs.String("polarity", "", "invert (dark objects) or normal (bright objects)")
	window := fs.Int("window", 0, "adaptive window size (odd, >= 3)")
	offset := fs.Int("offset", 0, "constant subtracted from the adaptive mean")
	blur := fs.Float64("blur", 0, "Gaussian blur radius before thresholding")
	radius := fs.Int("radius", 0, "structuring element radius")
	open := fs.Int("open", 0, "opening iterations")
	dilate := fs.Int("dilate", 0, "extra dilation iterations")
	closeN := fs.Int("close", 0, "closing iterations")
	minArea := fs.Int("min-area", 0, "minimum object area in pixels")
	minFraction := fs.Float64("min-area-fraction", 0, "minimum object area as a share of the image")
	annotateDir := fs.String("annotate", "", "write annotated images to this directory")
	maskDir := fs.String("mask", "", "write cleaned masks to this directory")
	jsonOut := fs.Bool("json", false, "print JSON reports instead of text")
	workers := fs.Int("workers", 0, "goroutines per pipeline stage (0 = all CPUs)")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	opts.images = fs.Args()
	if opts.version {
		return nil, opts, nil
	}

	if err := config.LoadEnvFile(opts.envPath); err != nil {
		return nil, nil, err
	}
	base := config.Default()
	if opts.adaptive {
		base = config.AdaptivePreset()
	}
	cfg, err := config.LoadOver(base, opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "cutoff":
			cfg.Threshold.Cutoff = *cutoff
		case "polarity":
			cfg.Threshold.Polarity = *polarity
		case "window":
			cfg.Threshold.Window = *window
		case "offset":
			cfg.Threshold.Offset = *offset
		case "blur":
			cfg.Threshold.Blur = *blur
		case "radius":
			cfg.Morphology.Radius = *radius
		case "open":
			cfg.Morphology.Open = *open
		case "dilate":
			cfg.Morphology.Dilate = *dilate
		case "close":
			cfg.Morphology.Close = *closeN
		case "min-area":
			cfg.Filter.MinArea = *minArea
			cfg.Filter.MinAreaFraction = 0
		case "min-area-fraction":
			cfg.Filter.MinAreaFraction = *minFraction
		case "annotate":
			cfg.Output.AnnotateDir = *annotateDir
		case "mask":
			cfg.Output.MaskDir = *maskDir
		case "json":
			cfg.Output.JSON = *jsonOut
		case "workers":
			cfg.Workers = *workers
		}
	})
	return cfg, opts, nil
}

// run is main without the exit: 0 on success, 1 if any image failed,
// 2 for usage and configuration errors.
func run(args []string, stdout, stderr io.Writer) int {
	cfg, opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "blobcount: %v\n", err)
		return 2
	}
	if opts.version {
		fmt.Fprintf(stdout, "blobcount %s\n", Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		return 0
	}
	if len(opts.images) == 0 {
		fmt.Fprintln(stderr, "blobcount: no images given")
		return 2
	}

	logger, err := config.NewLogger(cfg.Logging, opts.debug, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "blobcount: %v\n", err)
		return 2
	}
	segCfg, err := cfg.Segmentation()
	if err != nil {
		logger.WithError(err).Error("invalid configuration")
		return 2
	}
	logger.WithFields(logrus.Fields{
		"version":  Version,
		"images":   len(opts.images),
		"mode":     cfg.Threshold.Mode,
		"min_area": segCfg.MinArea.String(),
	}).Debug("starting")

	c := &counter{
		cfg:    cfg,
		segCfg: segCfg,
		cache:  imaging.NewImageCache(),
		log:    logger,
		out:    stdout,
	}
	failed := 0
	for _, path := range opts.images {
		if err := c.process(path); err != nil {
			logger.WithField("image", path).WithError(err).Error("processing failed")
			failed++
		}
	}
	if failed > 0 {
		return 1
	}
	return 0
}

type counter struct {
	cfg    *config.Config
	segCfg segmentation.Config
	cache  *imaging.ImageCache
	log    logrus.FieldLogger
	out    io.Writer
}

// process segments one image, prints its report and writes the optional
// annotated image and mask.
func (c *counter) process(path string) error {
	// Each image is used once.
	defer c.cache.Evict(path)

	img, err := c.cache.Load(path)
	if err != nil {
		return err
	}
	log := c.log.WithField("image", path)
	res, err := segmentation.NewRunner(log).Run(imaging.ToGray(img, c.cfg.Threshold.Blur), c.segCfg)
	if err != nil {
		return err
	}

	rep := report.New(path, res)
	if c.cfg.Output.JSON {
		err = rep.WriteJSON(c.out)
	} else {
		err = rep.WriteText(c.out)
	}
	if err != nil {
		return err
	}

	if dir := c.cfg.Output.AnnotateDir; dir != "" {
		annotated, err := imaging.Annotate(img, res.Accepted, c.cfg.Annotation)
		if err != nil {
			return err
		}
		if err := save(annotated, dir, path, "annotated"); err != nil {
			return err
		}
	}
	if dir := c.cfg.Output.MaskDir; dir != "" {
		if err := save(imaging.MaskImage(res.Cleaned), dir, path, "mask"); err != nil {
			return err
		}
	}

	log.WithFields(logrus.Fields{
		"blobs":    len(res.Components),
		"accepted": len(res.Accepted),
	}).Info("processed")
	return nil
}

// save writes img as dir/<source name>_<suffix>.png.
func save(img image.Image, dir, source, suffix string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return imaging.SaveImage(img, filepath.Join(dir, name+"_"+suffix+".png"))
}
