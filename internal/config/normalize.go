package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCapture()
	c.normalizeVoice()
	c.normalizeExtractor()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = ExpandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.VaultDir) == "" {
		c.Paths.VaultDir = defaultVaultDir
	}
	if c.Paths.VaultDir, err = ExpandPath(c.Paths.VaultDir); err != nil {
		return fmt.Errorf("paths.vault_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = ExpandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCapture() {
	c.Capture.CameraDevice = strings.TrimSpace(c.Capture.CameraDevice)
	if strings.TrimSpace(c.Capture.AudioDevice) == "" {
		c.Capture.AudioDevice = defaultAudioDevice
	}
	if c.Capture.SampleRate <= 0 {
		c.Capture.SampleRate = defaultSampleRate
	}
	if c.Capture.RecordSeconds <= 0 {
		c.Capture.RecordSeconds = defaultRecordSeconds
	}
	if c.Capture.FaceSamples <= 0 {
		c.Capture.FaceSamples = defaultFaceSamples
	}
	if c.Capture.FrameRetryLimit <= 0 {
		c.Capture.FrameRetryLimit = defaultFrameRetryLimit
	}
	if c.Capture.VerifyAttemptLimit <= 0 {
		c.Capture.VerifyAttemptLimit = defaultVerifyAttemptLimit
	}
	if c.Capture.FrameIntervalMS <= 0 {
		c.Capture.FrameIntervalMS = defaultFrameIntervalMS
	}
}

func (c *Config) normalizeVoice() {
	if strings.TrimSpace(c.Voice.Passphrase) == "" {
		c.Voice.Passphrase = defaultPassphrase
	}
}

func (c *Config) normalizeExtractor() {
	c.Extractor.Command = strings.TrimSpace(c.Extractor.Command)
	if c.Extractor.Command == "" {
		c.Extractor.Command = defaultExtractorCommand
	}
	if c.Extractor.TimeoutSeconds <= 0 {
		c.Extractor.TimeoutSeconds = defaultExtractorTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
