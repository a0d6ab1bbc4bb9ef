package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateExtractor(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.VaultDir == "" {
		return errors.New("paths.vault_dir must be set")
	}
	if c.Paths.DataDir == c.Paths.VaultDir {
		return errors.New("paths.vault_dir must differ from paths.data_dir")
	}
	return nil
}

func (c *Config) validateCapture() error {
	if c.Capture.SampleRate < 8000 {
		return fmt.Errorf("capture.sample_rate must be at least 8000, got %d", c.Capture.SampleRate)
	}
	if c.Capture.RecordSeconds < 1 || c.Capture.RecordSeconds > 60 {
		return fmt.Errorf("capture.record_seconds must be between 1 and 60, got %d", c.Capture.RecordSeconds)
	}
	if c.Capture.FaceSamples < 1 {
		return fmt.Errorf("capture.face_samples must be positive, got %d", c.Capture.FaceSamples)
	}
	if c.Capture.FrameRetryLimit < c.Capture.FaceSamples {
		return fmt.Errorf("capture.frame_retry_limit (%d) must not be below capture.face_samples (%d)",
			c.Capture.FrameRetryLimit, c.Capture.FaceSamples)
	}
	if c.Capture.VerifyAttemptLimit < 1 {
		return fmt.Errorf("capture.verify_attempt_limit must be positive, got %d", c.Capture.VerifyAttemptLimit)
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.FaceTolerance <= 0 {
		return fmt.Errorf("matching.face_tolerance must be positive, got %g", c.Matching.FaceTolerance)
	}
	if c.Matching.VoiceThreshold <= 0 {
		return fmt.Errorf("matching.voice_threshold must be positive, got %g", c.Matching.VoiceThreshold)
	}
	if c.Matching.FaceEmbeddingDim < 1 {
		return fmt.Errorf("matching.face_embedding_dim must be positive, got %d", c.Matching.FaceEmbeddingDim)
	}
	if c.Matching.VoiceCoefficients < 1 {
		return fmt.Errorf("matching.voice_coefficients must be positive, got %d", c.Matching.VoiceCoefficients)
	}
	return nil
}

func (c *Config) validateExtractor() error {
	if c.Extractor.Command == "" {
		return errors.New("extractor.command must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
