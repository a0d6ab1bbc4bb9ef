package enroll

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"facevault/internal/capture"
	"facevault/internal/config"
	"facevault/internal/logging"
	"facevault/internal/services"
	"facevault/internal/templates"
)

// State identifies the enrollment flow's position.
type State string

const (
	StateIdle           State = "idle"
	StateCapturingFace  State = "capturing_face"
	StateFaceCaptured   State = "face_captured"
	StateCapturingVoice State = "capturing_voice"
	StateVoiceCaptured  State = "voice_captured"
	StateCommitted      State = "committed"
	StateAborted        State = "aborted"
)

// Event is a state transition or progress report published to observers.
type Event struct {
	State    State
	Message  string
	Captured int
	Target   int
}

// Extractor is the feature-extraction boundary the flow depends on.
type Extractor interface {
	FaceEmbeddings(ctx context.Context, imagePath string) ([][]float64, error)
	VoiceSignature(ctx context.Context, wavPath string, sampleRate int) ([]float64, error)
}

// Store is the subset of the template store the flow commits through.
type Store interface {
	Write(ctx context.Context, username string, faceEmbeddings [][]float64, voice templates.VoiceTemplate) error
}

// Flow is a single enrollment session for one candidate username.
type Flow struct {
	username   string
	passphrase string
	cfg        *config.Config
	openCamera capture.CameraOpener
	recorder   capture.Recorder
	extractor  Extractor
	store      Store
	logger     *slog.Logger

	mu         sync.Mutex
	state      State
	embeddings [][]float64
	signature  []float64

	events chan Event
}

// New creates an enrollment flow in the Idle state.
func New(
	cfg *config.Config,
	username string,
	openCamera capture.CameraOpener,
	recorder capture.Recorder,
	extractor Extractor,
	store Store,
	logger *slog.Logger,
) (*Flow, error) {
	if username == "" {
		return nil, services.Wrap(services.ErrInvalidInput, "enroll", "new", "username is empty", nil)
	}
	return &Flow{
		username:   username,
		passphrase: cfg.Voice.Passphrase,
		cfg:        cfg,
		openCamera: openCamera,
		recorder:   recorder,
		extractor:  extractor,
		store:      store,
		logger:     logging.NewComponentLogger(logger, "enroll"),
		state:      StateIdle,
		events:     make(chan Event, 64),
	}, nil
}

// Events returns the flow's transition/progress stream.
func (f *Flow) Events() <-chan Event {
	return f.events
}

// State returns the current flow state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// CaptureFace accumulates exactly the configured number of face samples.
// It may be called from Idle, or again from CapturingFace after a
// recoverable failure; each entry restarts accumulation from zero.
func (f *Flow) CaptureFace(ctx context.Context) error {
	if err := f.enter(StateCapturingFace, StateIdle, StateCapturingFace); err != nil {
		return err
	}
	f.mu.Lock()
	f.embeddings = nil
	f.mu.Unlock()

	ctx = services.WithUsername(ctx, f.username)
	log := logging.WithContext(services.WithStep(ctx, "capture_face"), f.logger)

	target := f.cfg.Capture.FaceSamples
	f.publish(Event{State: StateCapturingFace, Message: "opening camera", Target: target})

	source, err := f.openCamera(ctx)
	if err != nil {
		log.Warn("camera open failed", logging.Error(err))
		return err
	}
	defer func() {
		_ = source.Close()
	}()

	var (
		captured [][]float64
		misses   int
	)
	interval := time.Duration(f.cfg.Capture.FrameIntervalMS) * time.Millisecond

	for len(captured) < target {
		if err := ctx.Err(); err != nil {
			f.abort("face capture cancelled")
			return err
		}

		frame, err := source.ReadFrame(ctx)
		if err != nil {
			return services.Wrap(services.ErrDeviceUnavailable, "enroll", "read frame", "", err)
		}
		embeddings, err := f.extractor.FaceEmbeddings(ctx, frame.Path)
		frame.Remove()
		if err != nil {
			log.Warn("face extraction failed; retrying frame", logging.Error(err))
			embeddings = nil
		}

		if len(embeddings) == 0 {
			misses++
			if misses >= f.cfg.Capture.FrameRetryLimit {
				return services.Wrap(services.ErrNoFaceDetected, "enroll", "capture face",
					fmt.Sprintf("no face in %d consecutive frames", misses), nil)
			}
			continue
		}
		misses = 0

		sample := embeddings[0]
		if len(sample) != f.cfg.Matching.FaceEmbeddingDim {
			return services.Wrap(services.ErrInvalidInput, "enroll", "capture face",
				fmt.Sprintf("embedding has %d dimensions, expected %d", len(sample), f.cfg.Matching.FaceEmbeddingDim), nil)
		}
		captured = append(captured, sample)
		f.publish(Event{
			State:    StateCapturingFace,
			Message:  fmt.Sprintf("captured face sample %d/%d", len(captured), target),
			Captured: len(captured),
			Target:   target,
		})

		if len(captured) < target {
			select {
			case <-ctx.Done():
				f.abort("face capture cancelled")
				return ctx.Err()
			case <-time.After(interval):
			}
		}
	}

	f.mu.Lock()
	f.embeddings = captured
	f.state = StateFaceCaptured
	f.mu.Unlock()

	log.Info("face capture complete",
		logging.Int("samples", len(captured)),
		logging.String(logging.FieldEventType, "face_captured"))
	f.publish(Event{State: StateFaceCaptured, Message: "face capture complete", Captured: target, Target: target})
	return nil
}

// CaptureVoice records one fixed-duration clip and extracts its signature.
// A failed attempt is discarded entirely; retry re-enters from scratch.
func (f *Flow) CaptureVoice(ctx context.Context) error {
	if err := f.enter(StateCapturingVoice, StateFaceCaptured, StateCapturingVoice); err != nil {
		return err
	}
	f.mu.Lock()
	f.signature = nil
	f.mu.Unlock()

	ctx = services.WithUsername(ctx, f.username)
	log := logging.WithContext(services.WithStep(ctx, "capture_voice"), f.logger)

	f.publish(Event{State: StateCapturingVoice, Message: fmt.Sprintf("recording %d seconds of audio", f.cfg.Capture.RecordSeconds)})

	recording, err := f.recorder.Record(ctx)
	if err != nil {
		log.Warn("voice recording failed", logging.Error(err))
		return err
	}
	defer recording.Remove()

	signature, err := f.extractor.VoiceSignature(ctx, recording.Path, recording.SampleRate)
	if err != nil {
		return services.Wrap(services.ErrNoSignalCaptured, "enroll", "extract voice signature", "", err)
	}
	if len(signature) != f.cfg.Matching.VoiceCoefficients {
		return services.Wrap(services.ErrInvalidInput, "enroll", "capture voice",
			fmt.Sprintf("signature has %d coefficients, expected %d", len(signature), f.cfg.Matching.VoiceCoefficients), nil)
	}

	f.mu.Lock()
	f.signature = signature
	f.state = StateVoiceCaptured
	f.mu.Unlock()

	log.Info("voice capture complete",
		logging.String(logging.FieldEventType, "voice_captured"))
	f.publish(Event{State: StateVoiceCaptured, Message: "voice capture complete"})
	return nil
}

// Commit writes both templates atomically. Store failures abort the flow and
// discard the session's captures; nothing stale survives for a retry.
func (f *Flow) Commit(ctx context.Context) error {
	f.mu.Lock()
	if f.state != StateVoiceCaptured {
		state := f.state
		f.mu.Unlock()
		return services.Wrap(services.ErrInvalidInput, "enroll", "commit",
			fmt.Sprintf("cannot commit from state %q", state), nil)
	}
	embeddings := f.embeddings
	signature := f.signature
	f.mu.Unlock()

	ctx = services.WithUsername(ctx, f.username)
	log := logging.WithContext(services.WithStep(ctx, "commit"), f.logger)

	err := f.store.Write(ctx, f.username, embeddings, templates.VoiceTemplate{
		Signature:  signature,
		Passphrase: f.passphrase,
	})
	if err != nil {
		f.abort("commit failed")
		log.Error("enrollment commit failed", logging.Error(err))
		return err
	}

	f.mu.Lock()
	f.state = StateCommitted
	f.mu.Unlock()

	log.Info("user registered",
		logging.String(logging.FieldEventType, "enrollment_committed"))
	f.publish(Event{State: StateCommitted, Message: "registration complete"})
	return nil
}

// Cancel aborts the flow from any non-terminal state and discards captures.
func (f *Flow) Cancel() {
	f.mu.Lock()
	terminal := f.state == StateCommitted || f.state == StateAborted
	f.mu.Unlock()
	if !terminal {
		f.abort("enrollment cancelled")
	}
}

func (f *Flow) enter(next State, allowed ...State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, state := range allowed {
		if f.state == state {
			f.state = next
			return nil
		}
	}
	return services.Wrap(services.ErrInvalidInput, "enroll", "transition",
		fmt.Sprintf("cannot enter %q from %q", next, f.state), nil)
}

func (f *Flow) abort(message string) {
	f.mu.Lock()
	f.state = StateAborted
	f.embeddings = nil
	f.signature = nil
	f.mu.Unlock()
	f.publish(Event{State: StateAborted, Message: message})
}

func (f *Flow) publish(event Event) {
	select {
	case f.events <- event:
	default:
		// Observer fell behind; progress events are advisory.
	}
}
