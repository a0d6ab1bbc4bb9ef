package config

const (
	defaultDataDir  = "~/.local/share/facevault"
	defaultVaultDir = "~/.local/share/facevault/vault"
	defaultWorkDir  = "~/.local/share/facevault/work"
	defaultLogDir   = "~/.local/share/facevault/logs"

	defaultAudioDevice        = "default"
	defaultSampleRate         = 16000
	defaultRecordSeconds      = 5
	defaultFaceSamples        = 5
	defaultFrameRetryLimit    = 60
	defaultVerifyAttemptLimit = 20
	defaultFrameIntervalMS    = 100

	defaultFaceTolerance     = 0.5
	defaultVoiceThreshold    = 20.0
	defaultFaceEmbeddingDim  = 128
	defaultVoiceCoefficients = 13

	defaultPassphrase = "My voice is my password"

	defaultExtractorCommand = "facevault-extract"
	defaultExtractorTimeout = 30

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			VaultDir: defaultVaultDir,
			WorkDir:  defaultWorkDir,
			LogDir:   defaultLogDir,
		},
		Capture: Capture{
			AudioDevice:        defaultAudioDevice,
			SampleRate:         defaultSampleRate,
			RecordSeconds:      defaultRecordSeconds,
			FaceSamples:        defaultFaceSamples,
			FrameRetryLimit:    defaultFrameRetryLimit,
			VerifyAttemptLimit: defaultVerifyAttemptLimit,
			FrameIntervalMS:    defaultFrameIntervalMS,
		},
		Matching: Matching{
			FaceTolerance:     defaultFaceTolerance,
			VoiceThreshold:    defaultVoiceThreshold,
			FaceEmbeddingDim:  defaultFaceEmbeddingDim,
			VoiceCoefficients: defaultVoiceCoefficients,
		},
		Voice: Voice{
			Passphrase: defaultPassphrase,
		},
		Extractor: Extractor{
			Command:        defaultExtractorCommand,
			TimeoutSeconds: defaultExtractorTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
