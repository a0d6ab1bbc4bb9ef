package enroll_test

import (
	"context"
	"errors"
	"testing"

	"facevault/internal/config"
	"facevault/internal/enroll"
	"facevault/internal/logging"
	"facevault/internal/services"
	"facevault/internal/templates"
	"facevault/internal/testsupport"
)

type recordingStore struct {
	writes []writeCall
	err    error
}

type writeCall struct {
	username string
	face     [][]float64
	voice    templates.VoiceTemplate
}

func (s *recordingStore) Write(ctx context.Context, username string, face [][]float64, voice templates.VoiceTemplate) error {
	if s.err != nil {
		return s.err
	}
	s.writes = append(s.writes, writeCall{username: username, face: face, voice: voice})
	return nil
}

type flowFixture struct {
	cfg       *config.Config
	flow      *enroll.Flow
	frames    *testsupport.FakeFrameSource
	recorder  *testsupport.FakeRecorder
	extractor *testsupport.FakeExtractor
	store     *recordingStore
}

func newFixture(t *testing.T) *flowFixture {
	t.Helper()
	cfg := testsupport.NewConfig(t,
		testsupport.WithFaceDim(4),
		testsupport.WithVoiceDim(3),
		testsupport.WithFaceSamples(5),
	)
	cfg.Capture.FrameIntervalMS = 1
	cfg.Capture.FrameRetryLimit = 10

	frames := testsupport.NewFakeFrameSource(cfg.Paths.WorkDir)
	recorder := &testsupport.FakeRecorder{Dir: cfg.Paths.WorkDir}
	extractor := &testsupport.FakeExtractor{
		FaceResults: [][][]float64{{testsupport.Vector(4, 0.1)}},
		Voice:       testsupport.Vector(3, 2),
	}
	store := &recordingStore{}

	flow, err := enroll.New(cfg, "alice", frames.Opener(), recorder, extractor, store, logging.NewNop())
	if err != nil {
		t.Fatalf("new flow: %v", err)
	}
	return &flowFixture{cfg: cfg, flow: flow, frames: frames, recorder: recorder, extractor: extractor, store: store}
}

func TestFullEnrollment(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	if err := fx.flow.CaptureFace(ctx); err != nil {
		t.Fatalf("capture face: %v", err)
	}
	if got := fx.flow.State(); got != enroll.StateFaceCaptured {
		t.Fatalf("state = %q", got)
	}
	if err := fx.flow.CaptureVoice(ctx); err != nil {
		t.Fatalf("capture voice: %v", err)
	}
	if got := fx.flow.State(); got != enroll.StateVoiceCaptured {
		t.Fatalf("state = %q", got)
	}
	if err := fx.flow.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if got := fx.flow.State(); got != enroll.StateCommitted {
		t.Fatalf("state = %q", got)
	}

	if len(fx.store.writes) != 1 {
		t.Fatalf("expected one store write, got %d", len(fx.store.writes))
	}
	write := fx.store.writes[0]
	if write.username != "alice" || len(write.face) != 5 {
		t.Fatalf("unexpected write %+v", write)
	}
	if write.voice.Passphrase != fx.cfg.Voice.Passphrase {
		t.Fatalf("passphrase not carried: %q", write.voice.Passphrase)
	}
	if fx.frames.Closed == 0 {
		t.Fatal("camera was not released")
	}
}

func TestFaceMissesAreUncountedUntilCeiling(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	// Three empty frames before each detection: misses reset on success, so
	// the flow still collects all five samples.
	results := make([][][]float64, 0, 20)
	for i := 0; i < 5; i++ {
		results = append(results, nil, nil, nil, [][]float64{testsupport.Vector(4, 0.1)})
	}
	fx.extractor.FaceResults = results

	if err := fx.flow.CaptureFace(ctx); err != nil {
		t.Fatalf("capture face: %v", err)
	}
	if got := fx.flow.State(); got != enroll.StateFaceCaptured {
		t.Fatalf("state = %q", got)
	}
}

func TestFaceRetryCeilingFailsRecoverably(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	fx.extractor.FaceResults = [][][]float64{nil} // never a face

	err := fx.flow.CaptureFace(ctx)
	if !errors.Is(err, services.ErrNoFaceDetected) {
		t.Fatalf("expected no-face-detected, got %v", err)
	}
	if !services.Retryable(err) {
		t.Fatal("ceiling failure must be retryable")
	}
	if got := fx.flow.State(); got != enroll.StateCapturingFace {
		t.Fatalf("state = %q, want capturing_face for retry", got)
	}
	if fx.frames.Closed == 0 {
		t.Fatal("camera must be released on failure")
	}

	// Retry succeeds and restarts accumulation.
	fx.extractor.FaceResults = [][][]float64{{testsupport.Vector(4, 0.2)}}
	if err := fx.flow.CaptureFace(ctx); err != nil {
		t.Fatalf("retry capture face: %v", err)
	}
}

func TestCameraUnavailableIsRetryable(t *testing.T) {
	fx := newFixture(t)
	openErr := services.Wrap(services.ErrDeviceUnavailable, "capture", "open camera", "no camera", nil)

	flow, err := enroll.New(fx.cfg, "alice", testsupport.FailingCameraOpener(openErr),
		fx.recorder, fx.extractor, fx.store, logging.NewNop())
	if err != nil {
		t.Fatalf("new flow: %v", err)
	}

	captureErr := flow.CaptureFace(context.Background())
	if !errors.Is(captureErr, services.ErrDeviceUnavailable) {
		t.Fatalf("expected device-unavailable, got %v", captureErr)
	}
	if got := flow.State(); got != enroll.StateCapturingFace {
		t.Fatalf("state = %q", got)
	}
}

func TestVoiceFailureDiscardsPartialAttempt(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	if err := fx.flow.CaptureFace(ctx); err != nil {
		t.Fatalf("capture face: %v", err)
	}

	fx.recorder.Err = services.Wrap(services.ErrDeviceUnavailable, "capture", "record audio", "no mic", nil)
	err := fx.flow.CaptureVoice(ctx)
	if !errors.Is(err, services.ErrDeviceUnavailable) {
		t.Fatalf("expected device-unavailable, got %v", err)
	}
	if got := fx.flow.State(); got != enroll.StateCapturingVoice {
		t.Fatalf("state = %q, want capturing_voice for retry", got)
	}

	fx.recorder.Err = nil
	if err := fx.flow.CaptureVoice(ctx); err != nil {
		t.Fatalf("retry capture voice: %v", err)
	}
	if got := fx.flow.State(); got != enroll.StateVoiceCaptured {
		t.Fatalf("state = %q", got)
	}
}

func TestCommitRequiresVoiceCaptured(t *testing.T) {
	fx := newFixture(t)

	err := fx.flow.Commit(context.Background())
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid-input, got %v", err)
	}
	if len(fx.store.writes) != 0 {
		t.Fatal("no write may happen before voice capture")
	}
}

func TestCommitFailureAbortsAndDiscards(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	if err := fx.flow.CaptureFace(ctx); err != nil {
		t.Fatalf("capture face: %v", err)
	}
	if err := fx.flow.CaptureVoice(ctx); err != nil {
		t.Fatalf("capture voice: %v", err)
	}

	fx.store.err = services.Wrap(services.ErrDuplicateUser, "templates", "write", "alice exists", nil)
	err := fx.flow.Commit(ctx)
	if !errors.Is(err, services.ErrDuplicateUser) {
		t.Fatalf("expected duplicate-user, got %v", err)
	}
	if got := fx.flow.State(); got != enroll.StateAborted {
		t.Fatalf("state = %q, want aborted", got)
	}

	// Aborted flows cannot be resumed with stale captures.
	fx.store.err = nil
	if err := fx.flow.Commit(ctx); !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid-input after abort, got %v", err)
	}
}

func TestCancelFromAnyNonTerminalState(t *testing.T) {
	fx := newFixture(t)

	fx.flow.Cancel()
	if got := fx.flow.State(); got != enroll.StateAborted {
		t.Fatalf("state = %q", got)
	}

	// Cancel after commit leaves the committed state alone.
	fx2 := newFixture(t)
	ctx := context.Background()
	if err := fx2.flow.CaptureFace(ctx); err != nil {
		t.Fatalf("capture face: %v", err)
	}
	if err := fx2.flow.CaptureVoice(ctx); err != nil {
		t.Fatalf("capture voice: %v", err)
	}
	if err := fx2.flow.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	fx2.flow.Cancel()
	if got := fx2.flow.State(); got != enroll.StateCommitted {
		t.Fatalf("state = %q, cancel must not undo commit", got)
	}
}

func TestEventsReportProgress(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	if err := fx.flow.CaptureFace(ctx); err != nil {
		t.Fatalf("capture face: %v", err)
	}

	var sawProgress, sawDone bool
	for {
		select {
		case event := <-fx.flow.Events():
			if event.State == enroll.StateCapturingFace && event.Captured > 0 {
				sawProgress = true
			}
			if event.State == enroll.StateFaceCaptured {
				sawDone = true
			}
			continue
		default:
		}
		break
	}
	if !sawProgress || !sawDone {
		t.Fatalf("expected progress and completion events, got progress=%v done=%v", sawProgress, sawDone)
	}
}
