// Package config loads blobcount settings from a YAML file and BLOBCOUNT_*
// environment variables and turns them into a segmentation.Config.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/blobcount/internal/imaging"
	"github.com/ironsheep/blobcount/internal/segmentation"
)

// Config is the on-disk configuration.
type Config struct {
	Threshold  Threshold               `yaml:"threshold"`
	Morphology Morphology              `yaml:"morphology"`
	Filter     Filter                  `yaml:"filter"`
	Annotation imaging.AnnotationStyle `yaml:"annotation"`
	Output     Output                  `yaml:"output"`
	Logging    Logging                 `yaml:"logging"`

	// Workers is the goroutine count per pipeline stage; 0 uses every CPU.
	Workers int `yaml:"workers"`
}

// Threshold selects how the grayscale image is binarized.
type Threshold struct {
	// Mode is "global" or "adaptive".
	Mode string `yaml:"mode"`

	// Polarity is "invert" (dark objects on a light background) or "normal".
	Polarity string `yaml:"polarity"`

	// Cutoff is the global threshold level, 0-255.
	Cutoff int `yaml:"cutoff"`

	// Method, Window and Offset configure adaptive mode. Method is "mean"
	// or "gaussian"; Window is odd and >= 3.
	Method string `yaml:"method"`
	Window int    `yaml:"window"`
	Offset int    `yaml:"offset"`

	// Blur is the Gaussian pre-blur radius applied before thresholding;
	// 0 disables it.
	Blur float64 `yaml:"blur"`
}

// Morphology configures the cleanup between thresholding and labeling.
type Morphology struct {
	// Shape is "ellipse" or "rect".
	Shape  string `yaml:"shape"`
	Radius int    `yaml:"radius"`
	Open   int    `yaml:"open"`
	Dilate int    `yaml:"dilate"`
	Close  int    `yaml:"close"`
}

// Filter sets the minimum object area. A nonzero MinAreaFraction takes
// precedence over MinArea; zero means unset.
type Filter struct {
	MinArea         int     `yaml:"min_area"`
	MinAreaFraction float64 `yaml:"min_area_fraction"`
}

// Output controls what the CLI writes besides the report.
type Output struct {
	AnnotateDir string `yaml:"annotate_dir"`
	MaskDir     string `yaml:"mask_dir"`
	JSON        bool   `yaml:"json"`
}

// Logging configures the logrus logger.
type Logging struct {
	// Level is any logrus level name.
	Level string `yaml:"level"`
	// Format is "json" or "text".
	Format string `yaml:"format"`
}

// Default returns the classic object-counting setup.
func Default() *Config {
	seg := segmentation.DefaultConfig()
	return &Config{
		Threshold: Threshold{
			Mode:     seg.Threshold.String(),
			Polarity: seg.Polarity.String(),
			Cutoff:   int(seg.Cutoff),
			Method:   seg.AdaptiveMethod.String(),
			Window:   seg.AdaptiveWindow,
			Offset:   seg.AdaptiveOffset,
		},
		Morphology: Morphology{
			Shape:  seg.Shape.String(),
			Radius: seg.Radius,
			Open:   seg.OpenIterations,
			Dilate: seg.DilateIterations,
			Close:  seg.CloseIterations,
		},
		Filter: Filter{
			MinArea: seg.MinArea.Pixels,
		},
		Annotation: imaging.DefaultAnnotationStyle(),
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
	}
}

// AdaptivePreset returns the settings for unevenly lit photos: heavy blur,
// Gaussian adaptive threshold over a 101 pixel window, two extra dilations
// and a minimum area of 0.1% of the image.
func AdaptivePreset() *Config {
	cfg := Default()
	cfg.Threshold.Mode = segmentation.ThresholdAdaptive.String()
	cfg.Threshold.Method = segmentation.AdaptiveGaussian.String()
	cfg.Threshold.Window = 101
	cfg.Threshold.Offset = 2
	cfg.Threshold.Blur = 7
	cfg.Morphology.Dilate = 2
	cfg.Filter.MinAreaFraction = 0.001
	return cfg
}

// Load reads the YAML file at path on top of Default. A missing file (or
// an empty path) yields the defaults.
func Load(path string) (*Config, error) {
	return LoadOver(Default(), path)
}

// LoadOver reads the YAML file at path on top of base, which it modifies.
// Keys absent from the file keep base's values.
func LoadOver(base *Config, path string) (*Config, error) {
	cfg := base
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating the directory if needed.
func Save(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// MinArea returns the configured area filter. Any nonzero fraction wins over
// the pixel count; Segmentation rejects the ones out of range.
func (c *Config) MinArea() segmentation.MinArea {
	if c.Filter.MinAreaFraction != 0 {
		return segmentation.MinArea{Fraction: c.Filter.MinAreaFraction}
	}
	return segmentation.MinArea{Pixels: c.Filter.MinArea}
}

// Segmentation converts c into a validated pipeline configuration. Errors
// wrap segmentation.ErrInvalidConfig.
func (c *Config) Segmentation() (segmentation.Config, error) {
	var out segmentation.Config
	var err error

	if out.Threshold, err = segmentation.ParseThresholdMode(c.Threshold.Mode); err != nil {
		return out, err
	}
	if out.Polarity, err = segmentation.ParsePolarity(c.Threshold.Polarity); err != nil {
		return out, err
	}
	if out.AdaptiveMethod, err = segmentation.ParseAdaptiveMethod(c.Threshold.Method); err != nil {
		return out, err
	}
	if out.Shape, err = segmentation.ParseShape(c.Morphology.Shape); err != nil {
		return out, err
	}
	if c.Threshold.Cutoff < 0 || c.Threshold.Cutoff > 255 {
		return out, fmt.Errorf("%w: cutoff must be in [0, 255], got %d", segmentation.ErrInvalidConfig, c.Threshold.Cutoff)
	}
	if c.Filter.MinAreaFraction < 0 {
		return out, fmt.Errorf("%w: min area fraction must be >= 0, got %g", segmentation.ErrInvalidConfig, c.Filter.MinAreaFraction)
	}
	if c.Threshold.Blur < 0 {
		return out, fmt.Errorf("%w: blur radius must be >= 0, got %g", segmentation.ErrInvalidConfig, c.Threshold.Blur)
	}

	out.Cutoff = uint8(c.Threshold.Cutoff)
	out.AdaptiveWindow = c.Threshold.Window
	out.AdaptiveOffset = c.Threshold.Offset
	out.Radius = c.Morphology.Radius
	out.OpenIterations = c.Morphology.Open
	out.DilateIterations = c.Morphology.Dilate
	out.CloseIterations = c.Morphology.Close
	out.MinArea = c.MinArea()
	out.Workers = c.Workers

	if err := out.Validate(); err != nil {
		return out, err
	}
	return out, nil
}
