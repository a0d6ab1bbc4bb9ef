package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"facevault/internal/config"
	"facevault/internal/services"
)

// Recording is one fixed-duration microphone capture on disk.
type Recording struct {
	Path       string
	SampleRate int
	Seconds    int
}

// Remove deletes the recording file from the work directory.
func (r Recording) Remove() {
	if r.Path != "" {
		_ = os.Remove(r.Path)
	}
}

// Recorder captures one fixed-duration audio clip.
type Recorder interface {
	Record(ctx context.Context) (Recording, error)
}

type ffmpegRecorder struct {
	binary     string
	device     string
	workDir    string
	sampleRate int
	seconds    int
	runner     CommandRunner
}

// NewRecorder returns a Recorder that records a mono WAV clip at the
// configured sample rate and duration from the configured ALSA device.
func NewRecorder(cfg *config.Config, runner CommandRunner) Recorder {
	if runner == nil {
		runner = runCommand
	}
	return &ffmpegRecorder{
		binary:     cfg.FFmpegBinary(),
		device:     cfg.Capture.AudioDevice,
		workDir:    cfg.Paths.WorkDir,
		sampleRate: cfg.Capture.SampleRate,
		seconds:    cfg.Capture.RecordSeconds,
		runner:     runner,
	}
}

func (r *ffmpegRecorder) Record(ctx context.Context) (Recording, error) {
	if err := os.MkdirAll(r.workDir, 0o755); err != nil {
		return Recording{}, fmt.Errorf("ensure work directory: %w", err)
	}
	dest := filepath.Join(r.workDir, fmt.Sprintf("voice-%d.wav", time.Now().UnixNano()))
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "alsa",
		"-i", r.device,
		"-t", strconv.Itoa(r.seconds),
		"-ar", strconv.Itoa(r.sampleRate),
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y",
		dest,
	}
	if err := r.runner(ctx, r.binary, args...); err != nil {
		_ = os.Remove(dest)
		return Recording{}, services.Wrap(services.ErrDeviceUnavailable, "capture", "record audio", r.device, err)
	}
	info, err := os.Stat(dest)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(dest)
		return Recording{}, services.Wrap(services.ErrNoSignalCaptured, "capture", "record audio",
			fmt.Sprintf("%s produced no audio", r.device), err)
	}
	return Recording{Path: dest, SampleRate: r.sampleRate, Seconds: r.seconds}, nil
}
