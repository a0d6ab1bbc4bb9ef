package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"facevault/internal/config"
	"facevault/internal/services"
)

// Frame is one captured camera image on disk.
type Frame struct {
	Path string
}

// Remove deletes the frame file from the work directory.
func (f Frame) Remove() {
	if f.Path != "" {
		_ = os.Remove(f.Path)
	}
}

// FrameSource delivers camera frames one at a time.
type FrameSource interface {
	ReadFrame(ctx context.Context) (Frame, error)
	Close() error
}

// CameraOpener opens the capture device, probing for a usable camera.
type CameraOpener func(ctx context.Context) (FrameSource, error)

// CommandRunner abstracts external command execution for tests.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// probeDevices are tried in order when no camera device is configured,
// mirroring the usual v4l2 device numbering.
var probeDevices = []string{"/dev/video0", "/dev/video1", "/dev/video2"}

type ffmpegCamera struct {
	binary  string
	device  string
	workDir string
	runner  CommandRunner
	closed  bool
}

// NewCameraOpener returns an opener that probes the configured device (or
// /dev/video0 through /dev/video2 when none is configured) and returns a
// FrameSource bound to the first device that can deliver a frame.
func NewCameraOpener(cfg *config.Config, runner CommandRunner) CameraOpener {
	if runner == nil {
		runner = runCommand
	}
	binary := cfg.FFmpegBinary()
	workDir := cfg.Paths.WorkDir
	candidates := probeDevices
	if cfg.Capture.CameraDevice != "" {
		candidates = []string{cfg.Capture.CameraDevice}
	}

	return func(ctx context.Context) (FrameSource, error) {
		var lastErr error
		for _, device := range candidates {
			cam := &ffmpegCamera{binary: binary, device: device, workDir: workDir, runner: runner}
			frame, err := cam.ReadFrame(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil, services.Wrap(services.ErrDeviceUnavailable, "capture", "open camera", "cancelled", ctx.Err())
				}
				lastErr = err
				continue
			}
			frame.Remove()
			return cam, nil
		}
		return nil, services.Wrap(services.ErrDeviceUnavailable, "capture", "open camera",
			fmt.Sprintf("no usable camera among %s", strings.Join(candidates, ", ")), lastErr)
	}
}

func (c *ffmpegCamera) ReadFrame(ctx context.Context) (Frame, error) {
	if c.closed {
		return Frame{}, errors.New("camera is closed")
	}
	if err := os.MkdirAll(c.workDir, 0o755); err != nil {
		return Frame{}, fmt.Errorf("ensure work directory: %w", err)
	}
	dest := filepath.Join(c.workDir, fmt.Sprintf("frame-%d.jpg", time.Now().UnixNano()))
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "v4l2",
		"-i", c.device,
		"-frames:v", "1",
		"-y",
		dest,
	}
	if err := c.runner(ctx, c.binary, args...); err != nil {
		_ = os.Remove(dest)
		return Frame{}, services.Wrap(services.ErrDeviceUnavailable, "capture", "read frame", c.device, err)
	}
	if info, err := os.Stat(dest); err != nil || info.Size() == 0 {
		_ = os.Remove(dest)
		return Frame{}, services.Wrap(services.ErrDeviceUnavailable, "capture", "read frame",
			fmt.Sprintf("%s produced no image", c.device), err)
	}
	return Frame{Path: dest}, nil
}

func (c *ffmpegCamera) Close() error {
	c.closed = true
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
