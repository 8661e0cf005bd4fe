package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix starts every environment variable Config reads.
const EnvPrefix = "BLOBCOUNT_"

// LoadEnvFile loads KEY=value pairs from the given .env files (".env" when
// none are named) into the process environment. Variables already set are
// kept, and missing files are ignored.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error loading %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides c with BLOBCOUNT_* variables from the environment.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	var errs []error
	num := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	float := func(name string, dst *float64) {
		if v, ok := lookup(EnvPrefix + name); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = f
		}
	}
	flag := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	str("THRESHOLD", &c.Threshold.Mode)
	str("POLARITY", &c.Threshold.Polarity)
	num("CUTOFF", &c.Threshold.Cutoff)
	str("METHOD", &c.Threshold.Method)
	num("WINDOW", &c.Threshold.Window)
	num("OFFSET", &c.Threshold.Offset)
	float("BLUR", &c.Threshold.Blur)

	str("SHAPE", &c.Morphology.Shape)
	num("RADIUS", &c.Morphology.Radius)
	num("OPEN", &c.Morphology.Open)
	num("DILATE", &c.Morphology.Dilate)
	num("CLOSE", &c.Morphology.Close)

	num("MIN_AREA", &c.Filter.MinArea)
	float("MIN_AREA_FRACTION", &c.Filter.MinAreaFraction)

	str("ANNOTATE_DIR", &c.Output.AnnotateDir)
	str("MASK_DIR", &c.Output.MaskDir)
	flag("JSON", &c.Output.JSON)

	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)

	num("WORKERS", &c.Workers)

	return errors.Join(errs...)
}
