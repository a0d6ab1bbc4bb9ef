package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	VaultDir string `toml:"vault_dir"`
	WorkDir  string `toml:"work_dir"`
	LogDir   string `toml:"log_dir"`
}

// Capture contains camera and microphone capture settings.
type Capture struct {
	CameraDevice       string `toml:"camera_device"`
	AudioDevice        string `toml:"audio_device"`
	SampleRate         int    `toml:"sample_rate"`
	RecordSeconds      int    `toml:"record_seconds"`
	FaceSamples        int    `toml:"face_samples"`
	FrameRetryLimit    int    `toml:"frame_retry_limit"`
	VerifyAttemptLimit int    `toml:"verify_attempt_limit"`
	FrameIntervalMS    int    `toml:"frame_interval_ms"`
}

// Matching contains the fixed comparison thresholds and template shapes.
type Matching struct {
	FaceTolerance     float64 `toml:"face_tolerance"`
	VoiceThreshold    float64 `toml:"voice_threshold"`
	FaceEmbeddingDim  int     `toml:"face_embedding_dim"`
	VoiceCoefficients int     `toml:"voice_coefficients"`
}

// Voice contains enrollment passphrase settings.
type Voice struct {
	Passphrase string `toml:"passphrase"`
}

// Extractor contains configuration for the external feature-extraction helper.
type Extractor struct {
	Command        string `toml:"command"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for facevault.
//
// Configuration sections by subsystem:
//   - Paths: template store, vault, scratch, and log directories
//   - Capture: camera/microphone devices and capture budgets
//   - Matching: factor thresholds and template dimensionality
//   - Voice: the passphrase spoken during enrollment
//   - Extractor: the external feature-extraction helper
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Capture   Capture   `toml:"capture"`
	Matching  Matching  `toml:"matching"`
	Voice     Voice     `toml:"voice"`
	Extractor Extractor `toml:"extractor"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/facevault/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("facevault.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the application writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.VaultDir, c.Paths.WorkDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TemplateDBPath returns the SQLite template store location.
func (c *Config) TemplateDBPath() string {
	return filepath.Join(c.Paths.DataDir, "templates.db")
}

// SessionLockPath returns the lock file guarding the single active session.
func (c *Config) SessionLockPath() string {
	return filepath.Join(c.Paths.DataDir, "session.lock")
}

// FFmpegBinary returns the ffmpeg executable name used for capture.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// ExtractorBinary returns the feature-extraction helper executable.
func (c *Config) ExtractorBinary() string {
	return c.Extractor.Command
}

// WriteSample writes the embedded sample configuration to path.
func WriteSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
