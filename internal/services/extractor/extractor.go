package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"facevault/internal/config"
)

// CommandRunner abstracts helper execution for tests. It returns the helper's
// stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Service invokes the feature-extraction helper binary.
type Service struct {
	command       string
	timeout       time.Duration
	commandRunner CommandRunner
}

// New constructs a Service from configuration.
func New(cfg *config.Config) *Service {
	return &Service{
		command: cfg.ExtractorBinary(),
		timeout: time.Duration(cfg.Extractor.TimeoutSeconds) * time.Second,
	}
}

// SetCommandRunner overrides command execution; used by tests.
func (s *Service) SetCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
}

type faceResult struct {
	Embeddings [][]float64 `json:"embeddings"`
}

type voiceResult struct {
	Signature []float64 `json:"signature"`
}

// FaceEmbeddings extracts one embedding per face detected in the image.
// A frame with no detectable face yields an empty slice, not an error.
func (s *Service) FaceEmbeddings(ctx context.Context, imagePath string) ([][]float64, error) {
	if imagePath == "" {
		return nil, fmt.Errorf("face embeddings: image path required")
	}
	output, err := s.run(ctx, "face", "--input", imagePath)
	if err != nil {
		return nil, fmt.Errorf("face embeddings: %w", err)
	}
	var result faceResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("face embeddings: decode helper output: %w", err)
	}
	return result.Embeddings, nil
}

// VoiceSignature extracts the mean-MFCC signature from a recorded clip.
func (s *Service) VoiceSignature(ctx context.Context, wavPath string, sampleRate int) ([]float64, error) {
	if wavPath == "" {
		return nil, fmt.Errorf("voice signature: audio path required")
	}
	output, err := s.run(ctx, "voice", "--input", wavPath, "--rate", strconv.Itoa(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("voice signature: %w", err)
	}
	var result voiceResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("voice signature: decode helper output: %w", err)
	}
	return result.Signature, nil
}

func (s *Service) run(ctx context.Context, args ...string) ([]byte, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if s.commandRunner != nil {
		return s.commandRunner(ctx, s.command, args...)
	}
	cmd := exec.CommandContext(ctx, s.command, args...) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		detail := ""
		if exitErr, ok := err.(*exec.ExitError); ok {
			detail = strings.TrimSpace(string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("%s: %w: %s", s.command, err, detail)
	}
	return output, nil
}
