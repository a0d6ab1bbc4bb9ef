package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"facevault/internal/capture"
)

// FakeFrameSource hands out synthetic frame files and records Close calls.
type FakeFrameSource struct {
	mu      sync.Mutex
	dir     string
	serial  int
	Err     error
	Closed  int
	MaxRead int // 0 means unlimited
}

// NewFakeFrameSource creates a frame source writing frames under dir.
func NewFakeFrameSource(dir string) *FakeFrameSource {
	return &FakeFrameSource{dir: dir}
}

func (f *FakeFrameSource) ReadFrame(ctx context.Context) (capture.Frame, error) {
	if err := ctx.Err(); err != nil {
		return capture.Frame{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return capture.Frame{}, f.Err
	}
	if f.MaxRead > 0 && f.serial >= f.MaxRead {
		return capture.Frame{}, errors.New("frame budget exhausted")
	}
	f.serial++
	path := filepath.Join(f.dir, fmt.Sprintf("fake-frame-%d.jpg", f.serial))
	if err := os.WriteFile(path, []byte{0xff, 0xd8}, 0o644); err != nil {
		return capture.Frame{}, err
	}
	return capture.Frame{Path: path}, nil
}

func (f *FakeFrameSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed++
	return nil
}

// Opener returns a CameraOpener that always hands back this source.
func (f *FakeFrameSource) Opener() capture.CameraOpener {
	return func(ctx context.Context) (capture.FrameSource, error) {
		return f, nil
	}
}

// FailingCameraOpener returns an opener that always fails with err.
func FailingCameraOpener(err error) capture.CameraOpener {
	return func(ctx context.Context) (capture.FrameSource, error) {
		return nil, err
	}
}

// FakeRecorder returns a synthetic recording, or Err when set.
type FakeRecorder struct {
	Dir        string
	SampleRate int
	Seconds    int
	Err        error
	Records    int
}

func (r *FakeRecorder) Record(ctx context.Context) (capture.Recording, error) {
	if err := ctx.Err(); err != nil {
		return capture.Recording{}, err
	}
	if r.Err != nil {
		return capture.Recording{}, r.Err
	}
	r.Records++
	path := filepath.Join(r.Dir, fmt.Sprintf("fake-voice-%d.wav", r.Records))
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		return capture.Recording{}, err
	}
	sampleRate := r.SampleRate
	if sampleRate == 0 {
		sampleRate = 16000
	}
	seconds := r.Seconds
	if seconds == 0 {
		seconds = 5
	}
	return capture.Recording{Path: path, SampleRate: sampleRate, Seconds: seconds}, nil
}

// FakeExtractor replays scripted extraction results.
//
// FaceResults is consumed one entry per frame; when exhausted, the last entry
// repeats. A nil entry simulates a frame with no detectable face.
type FakeExtractor struct {
	mu          sync.Mutex
	FaceResults [][][]float64
	FaceErr     error
	Voice       []float64
	VoiceErr    error
	FaceCalls   int
	VoiceCalls  int
}

func (e *FakeExtractor) FaceEmbeddings(ctx context.Context, imagePath string) ([][]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.FaceCalls++
	if e.FaceErr != nil {
		return nil, e.FaceErr
	}
	if len(e.FaceResults) == 0 {
		return nil, nil
	}
	idx := e.FaceCalls - 1
	if idx >= len(e.FaceResults) {
		idx = len(e.FaceResults) - 1
	}
	return e.FaceResults[idx], nil
}

func (e *FakeExtractor) VoiceSignature(ctx context.Context, wavPath string, sampleRate int) ([]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.VoiceCalls++
	if e.VoiceErr != nil {
		return nil, e.VoiceErr
	}
	return e.Voice, nil
}
