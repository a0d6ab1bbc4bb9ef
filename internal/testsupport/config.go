package testsupport

import (
	"path/filepath"
	"testing"

	"facevault/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.VaultDir = filepath.Join(base, "vault")
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure test directories: %v", err)
	}
	return &cfg
}

// WithFaceDim shrinks the face embedding dimensionality for compact fixtures.
func WithFaceDim(dim int) ConfigOption {
	return func(c *config.Config) {
		c.Matching.FaceEmbeddingDim = dim
	}
}

// WithVoiceDim shrinks the voice coefficient count for compact fixtures.
func WithVoiceDim(dim int) ConfigOption {
	return func(c *config.Config) {
		c.Matching.VoiceCoefficients = dim
	}
}

// WithFaceSamples overrides the enrollment sample target.
func WithFaceSamples(n int) ConfigOption {
	return func(c *config.Config) {
		c.Capture.FaceSamples = n
	}
}

// Vector builds a fixed-dimension vector filled with value.
func Vector(dim int, value float64) []float64 {
	v := make([]float64, dim)
	for i := range v {
		v[i] = value
	}
	return v
}
