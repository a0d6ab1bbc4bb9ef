package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"facevault/internal/config"
	"facevault/internal/services"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	return &cfg
}

// fakeRunner simulates ffmpeg by writing a byte to the last argument, which
// is the destination path for both frame grabs and recordings.
func fakeRunner(failDevices map[string]bool) CommandRunner {
	return func(ctx context.Context, name string, args ...string) error {
		for i, arg := range args {
			if arg == "-i" && i+1 < len(args) && failDevices[args[i+1]] {
				return errors.New("device busy")
			}
		}
		dest := args[len(args)-1]
		return os.WriteFile(dest, []byte{0xff}, 0o644)
	}
}

func TestCameraOpenerProbesDevices(t *testing.T) {
	cfg := testConfig(t)
	opener := NewCameraOpener(cfg, fakeRunner(map[string]bool{"/dev/video0": true}))

	source, err := opener(context.Background())
	if err != nil {
		t.Fatalf("open camera: %v", err)
	}
	defer source.Close()

	frame, err := source.ReadFrame(context.Background())
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	defer frame.Remove()

	if !strings.HasPrefix(filepath.Base(frame.Path), "frame-") {
		t.Fatalf("unexpected frame path %q", frame.Path)
	}
	cam := source.(*ffmpegCamera)
	if cam.device != "/dev/video1" {
		t.Fatalf("expected fallback to /dev/video1, got %q", cam.device)
	}
}

func TestCameraOpenerAllDevicesFail(t *testing.T) {
	cfg := testConfig(t)
	opener := NewCameraOpener(cfg, fakeRunner(map[string]bool{
		"/dev/video0": true, "/dev/video1": true, "/dev/video2": true,
	}))

	_, err := opener(context.Background())
	if !errors.Is(err, services.ErrDeviceUnavailable) {
		t.Fatalf("expected device-unavailable, got %v", err)
	}
}

func TestCameraConfiguredDeviceOnly(t *testing.T) {
	cfg := testConfig(t)
	cfg.Capture.CameraDevice = "/dev/video7"
	var used []string
	runner := func(ctx context.Context, name string, args ...string) error {
		for i, arg := range args {
			if arg == "-i" {
				used = append(used, args[i+1])
			}
		}
		return os.WriteFile(args[len(args)-1], []byte{0xff}, 0o644)
	}

	source, err := NewCameraOpener(cfg, runner)(context.Background())
	if err != nil {
		t.Fatalf("open camera: %v", err)
	}
	defer source.Close()

	for _, device := range used {
		if device != "/dev/video7" {
			t.Fatalf("probed unexpected device %q", device)
		}
	}
}

func TestReadFrameAfterCloseFails(t *testing.T) {
	cfg := testConfig(t)
	source, err := NewCameraOpener(cfg, fakeRunner(nil))(context.Background())
	if err != nil {
		t.Fatalf("open camera: %v", err)
	}
	if err := source.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := source.ReadFrame(context.Background()); err == nil {
		t.Fatal("expected error reading from closed camera")
	}
}

func TestRecorderProducesWav(t *testing.T) {
	cfg := testConfig(t)
	var gotArgs []string
	runner := func(ctx context.Context, name string, args ...string) error {
		gotArgs = args
		return os.WriteFile(args[len(args)-1], []byte{0x01}, 0o644)
	}

	rec, err := NewRecorder(cfg, runner).Record(context.Background())
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	defer rec.Remove()

	if rec.SampleRate != 16000 || rec.Seconds != 5 {
		t.Fatalf("unexpected recording params: %+v", rec)
	}
	joined := strings.Join(gotArgs, " ")
	for _, fragment := range []string{"-f alsa", "-t 5", "-ar 16000", "-ac 1"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("expected %q in ffmpeg args %q", fragment, joined)
		}
	}
}

func TestRecorderEmptyOutputIsNoSignal(t *testing.T) {
	cfg := testConfig(t)
	runner := func(ctx context.Context, name string, args ...string) error {
		return os.WriteFile(args[len(args)-1], nil, 0o644)
	}

	_, err := NewRecorder(cfg, runner).Record(context.Background())
	if !errors.Is(err, services.ErrNoSignalCaptured) {
		t.Fatalf("expected no-signal, got %v", err)
	}
}

func TestRecorderDeviceFailure(t *testing.T) {
	cfg := testConfig(t)
	runner := func(ctx context.Context, name string, args ...string) error {
		return errors.New("cannot open audio device")
	}

	_, err := NewRecorder(cfg, runner).Record(context.Background())
	if !errors.Is(err, services.ErrDeviceUnavailable) {
		t.Fatalf("expected device-unavailable, got %v", err)
	}
}
