package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/blobcount/internal/segmentation"
)

func TestDefault_MatchesPipelineDefaults(t *testing.T) {
	seg, err := Default().Segmentation()
	require.NoError(t, err)
	require.Equal(t, segmentation.DefaultConfig(), seg)
}

func TestAdaptivePreset(t *testing.T) {
	seg, err := AdaptivePreset().Segmentation()
	require.NoError(t, err)
	require.Equal(t, segmentation.ThresholdAdaptive, seg.Threshold)
	require.Equal(t, segmentation.AdaptiveGaussian, seg.AdaptiveMethod)
	require.Equal(t, 101, seg.AdaptiveWindow)
	require.Equal(t, 2, seg.DilateIterations)
	require.Equal(t, segmentation.MinArea{Fraction: 0.001}, seg.MinArea)
	require.Equal(t, 7.0, AdaptivePreset().Threshold.Blur)
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blobcount.yaml")
	yml := `
threshold:
  cutoff: 200
morphology:
  dilate: 2
filter:
  min_area_fraction: 0.001
annotation:
  box_color: "#00FFFF"
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 200, cfg.Threshold.Cutoff)
	require.Equal(t, "global", cfg.Threshold.Mode)
	require.Equal(t, 2, cfg.Morphology.Dilate)
	require.Equal(t, 2, cfg.Morphology.Radius)
	require.Equal(t, "#00FFFF", cfg.Annotation.BoxColor)
	require.Equal(t, "#FF0000", cfg.Annotation.CentroidColor)

	seg, err := cfg.Segmentation()
	require.NoError(t, err)
	require.Equal(t, uint8(200), seg.Cutoff)
	require.Equal(t, segmentation.MinArea{Fraction: 0.001}, seg.MinArea, "fraction wins over the default pixel count")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("threshold: [unterminated"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "error parsing config file")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "blobcount.yaml")
	cfg := AdaptivePreset()
	cfg.Output.AnnotateDir = "out"
	cfg.Workers = 3

	require.NoError(t, Save(cfg, path))
	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestSegmentation_Errors(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"unknown mode", func(c *Config) { c.Threshold.Mode = "otsu" }},
		{"unknown polarity", func(c *Config) { c.Threshold.Polarity = "sideways" }},
		{"unknown method", func(c *Config) { c.Threshold.Method = "median" }},
		{"unknown shape", func(c *Config) { c.Morphology.Shape = "cross" }},
		{"cutoff too high", func(c *Config) { c.Threshold.Cutoff = 256 }},
		{"cutoff negative", func(c *Config) { c.Threshold.Cutoff = -1 }},
		{"negative blur", func(c *Config) { c.Threshold.Blur = -2 }},
		{"even window in adaptive mode", func(c *Config) {
			c.Threshold.Mode = "adaptive"
			c.Threshold.Window = 50
		}},
		{"zero radius", func(c *Config) { c.Morphology.Radius = 0 }},
		{"fraction above one", func(c *Config) { c.Filter.MinAreaFraction = 2 }},
		{"negative fraction", func(c *Config) { c.Filter.MinAreaFraction = -0.5 }},
		{"no min area", func(c *Config) { c.Filter.MinArea = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mut(cfg)
			_, err := cfg.Segmentation()
			require.ErrorIs(t, err, segmentation.ErrInvalidConfig)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"BLOBCOUNT_THRESHOLD":         "adaptive",
		"BLOBCOUNT_CUTOFF":            " 150 ",
		"BLOBCOUNT_WINDOW":            "51",
		"BLOBCOUNT_BLUR":              "2.5",
		"BLOBCOUNT_SHAPE":             "rect",
		"BLOBCOUNT_MIN_AREA_FRACTION": "0.01",
		"BLOBCOUNT_JSON":              "true",
		"BLOBCOUNT_LOG_LEVEL":         "debug",
		"UNRELATED":                   "x",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.applyEnv(lookup))
	require.Equal(t, "adaptive", cfg.Threshold.Mode)
	require.Equal(t, 150, cfg.Threshold.Cutoff)
	require.Equal(t, 51, cfg.Threshold.Window)
	require.Equal(t, 2.5, cfg.Threshold.Blur)
	require.Equal(t, "rect", cfg.Morphology.Shape)
	require.Equal(t, 0.01, cfg.Filter.MinAreaFraction)
	require.True(t, cfg.Output.JSON)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, 2, cfg.Morphology.Radius, "unset variables keep their value")
}

func TestApplyEnv_BadNumbers(t *testing.T) {
	env := map[string]string{
		"BLOBCOUNT_CUTOFF": "lots",
		"BLOBCOUNT_BLUR":   "soft",
		"BLOBCOUNT_JSON":   "maybe",
		"BLOBCOUNT_RADIUS": "4",
	}
	cfg := Default()
	err := cfg.applyEnv(func(k string) (string, bool) { v, ok := env[k]; return v, ok })
	require.Error(t, err)
	require.Contains(t, err.Error(), "BLOBCOUNT_CUTOFF")
	require.Contains(t, err.Error(), "BLOBCOUNT_BLUR")
	require.Contains(t, err.Error(), "BLOBCOUNT_JSON")
	require.Equal(t, 100, cfg.Threshold.Cutoff)
	require.Equal(t, 4, cfg.Morphology.Radius, "valid variables still apply")
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("BLOBCOUNT_TEST_RADIUS_FROM_FILE=5\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("BLOBCOUNT_TEST_RADIUS_FROM_FILE") })

	require.NoError(t, LoadEnvFile(path, filepath.Join(dir, "missing.env")))
	require.Equal(t, "5", os.Getenv("BLOBCOUNT_TEST_RADIUS_FROM_FILE"))
}

func TestApplyEnv_FromProcessEnvironment(t *testing.T) {
	t.Setenv("BLOBCOUNT_OPEN", "3")
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	require.Equal(t, 3, cfg.Morphology.Open)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger, err := NewLogger(Logging{Level: "warn", Format: "json"}, false, &buf)
	require.NoError(t, err)
	require.Equal(t, logrus.WarnLevel, logger.GetLevel())
	logger.Info("hidden")
	logger.WithField("image", "a.png").Warn("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"image":"a.png"`)

	logger, err = NewLogger(Logging{Level: "error"}, true, &buf)
	require.NoError(t, err)
	require.Equal(t, logrus.DebugLevel, logger.GetLevel(), "debug overrides the configured level")
	require.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	_, err = NewLogger(Logging{Level: "loud"}, false, &buf)
	require.Error(t, err)
	_, err = NewLogger(Logging{Format: "xml"}, false, &buf)
	require.Error(t, err)
}

func TestLoadOver_KeepsBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blobcount.yaml")
	require.NoError(t, os.WriteFile(path, []byte("threshold:\n  offset: 5\n"), 0o644))

	cfg, err := LoadOver(AdaptivePreset(), path)
	require.NoError(t, err)
	require.Equal(t, "adaptive", cfg.Threshold.Mode)
	require.Equal(t, 101, cfg.Threshold.Window)
	require.Equal(t, 5, cfg.Threshold.Offset)
}
