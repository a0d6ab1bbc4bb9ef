package verify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"facevault/internal/capture"
	"facevault/internal/config"
	"facevault/internal/logging"
	"facevault/internal/match"
	"facevault/internal/services"
	"facevault/internal/templates"
)

// Factor identifies one of the two biometric checks.
type Factor string

const (
	FactorFace  Factor = "face"
	FactorVoice Factor = "voice"
)

// FactorState tracks the progress of a single factor.
type FactorState string

const (
	FactorPending   FactorState = "pending"
	FactorVerifying FactorState = "verifying"
	FactorPassed    FactorState = "passed"
	FactorFailed    FactorState = "failed"
)

// Event reports factor progress to observers.
type Event struct {
	Factor   Factor
	State    FactorState
	Attempt  int
	Distance float64
	Message  string
}

// Extractor is the feature-extraction boundary the flow depends on.
type Extractor interface {
	FaceEmbeddings(ctx context.Context, imagePath string) ([][]float64, error)
	VoiceSignature(ctx context.Context, wavPath string, sampleRate int) ([]float64, error)
}

// Store is the subset of the template store the flow reads through.
type Store interface {
	ReadFace(ctx context.Context, username string) ([][]float64, error)
	ReadVoice(ctx context.Context, username string) (templates.VoiceTemplate, error)
}

// Flow is a single verification session for one claimed username. The
// stored templates are loaded up front so an unknown username fails before
// any device is touched.
type Flow struct {
	username   string
	cfg        *config.Config
	openCamera capture.CameraOpener
	recorder   capture.Recorder
	extractor  Extractor
	engine     *match.Engine
	logger     *slog.Logger

	storedFace  [][]float64
	storedVoice templates.VoiceTemplate

	mu    sync.Mutex
	face  FactorState
	voice FactorState

	events chan Event
}

// New loads the stored templates for username and prepares both factors in
// the Pending state.
func New(
	ctx context.Context,
	cfg *config.Config,
	username string,
	openCamera capture.CameraOpener,
	recorder capture.Recorder,
	extractor Extractor,
	store Store,
	logger *slog.Logger,
) (*Flow, error) {
	if username == "" {
		return nil, services.Wrap(services.ErrInvalidInput, "verify", "new", "username is empty", nil)
	}
	storedFace, err := store.ReadFace(ctx, username)
	if err != nil {
		return nil, err
	}
	storedVoice, err := store.ReadVoice(ctx, username)
	if err != nil {
		return nil, err
	}
	return &Flow{
		username:    username,
		cfg:         cfg,
		openCamera:  openCamera,
		recorder:    recorder,
		extractor:   extractor,
		engine:      match.NewEngine(cfg),
		logger:      logging.NewComponentLogger(logger, "verify"),
		storedFace:  storedFace,
		storedVoice: storedVoice,
		face:        FactorPending,
		voice:       FactorPending,
		events:      make(chan Event, 64),
	}, nil
}

// Events returns the flow's factor progress stream.
func (f *Flow) Events() <-chan Event {
	return f.events
}

// Username returns the claimed identity this flow verifies.
func (f *Flow) Username() string {
	return f.username
}

// FaceState returns the face factor's current state.
func (f *Flow) FaceState() FactorState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.face
}

// VoiceState returns the voice factor's current state.
func (f *Flow) VoiceState() FactorState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.voice
}

// Authenticated reports whether both factors have passed.
func (f *Flow) Authenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.face == FactorPassed && f.voice == FactorPassed
}

// Passphrase returns the phrase the user must speak for the voice factor.
func (f *Flow) Passphrase() string {
	if f.storedVoice.Passphrase != "" {
		return f.storedVoice.Passphrase
	}
	return f.cfg.Voice.Passphrase
}

// VerifyFace captures frames until one matches the stored embeddings or the
// attempt budget runs out. A factor that already passed stays passed; a
// failed factor may be retried by calling VerifyFace again.
func (f *Flow) VerifyFace(ctx context.Context) error {
	if err := f.enterFactor(FactorFace); err != nil {
		return err
	}

	ctx = services.WithUsername(ctx, f.username)
	log := logging.WithContext(services.WithStep(ctx, "verify_face"), f.logger)

	budget := f.cfg.Capture.VerifyAttemptLimit
	f.publish(Event{Factor: FactorFace, State: FactorVerifying, Message: "opening camera"})

	source, err := f.openCamera(ctx)
	if err != nil {
		f.setFactor(FactorFace, FactorFailed)
		log.Warn("camera open failed", logging.Error(err))
		return err
	}
	defer func() {
		_ = source.Close()
	}()

	interval := time.Duration(f.cfg.Capture.FrameIntervalMS) * time.Millisecond
	for attempt := 1; attempt <= budget; attempt++ {
		if err := ctx.Err(); err != nil {
			f.setFactor(FactorFace, FactorFailed)
			return err
		}

		frame, err := source.ReadFrame(ctx)
		if err != nil {
			f.setFactor(FactorFace, FactorFailed)
			return services.Wrap(services.ErrDeviceUnavailable, "verify", "read frame", "", err)
		}
		embeddings, err := f.extractor.FaceEmbeddings(ctx, frame.Path)
		frame.Remove()
		if err != nil {
			log.Warn("face extraction failed; retrying frame", logging.Error(err))
			embeddings = nil
		}

		for _, candidate := range embeddings {
			decision, err := f.engine.CompareFace(candidate, f.storedFace)
			if err != nil {
				f.setFactor(FactorFace, FactorFailed)
				return err
			}
			f.publish(Event{
				Factor:   FactorFace,
				State:    FactorVerifying,
				Attempt:  attempt,
				Distance: decision.Distance,
			})
			if decision.Accepted {
				f.setFactor(FactorFace, FactorPassed)
				f.publish(Event{Factor: FactorFace, State: FactorPassed, Attempt: attempt, Distance: decision.Distance})
				log.Info("face factor passed",
					logging.Float64(logging.FieldDistance, decision.Distance),
					logging.Int(logging.FieldAttempt, attempt))
				return nil
			}
		}

		if attempt < budget {
			select {
			case <-ctx.Done():
				f.setFactor(FactorFace, FactorFailed)
				return ctx.Err()
			case <-time.After(interval):
			}
		}
	}

	f.setFactor(FactorFace, FactorFailed)
	f.publish(Event{Factor: FactorFace, State: FactorFailed, Attempt: budget})
	return services.Wrap(services.ErrMatchRejected, "verify", "verify face",
		fmt.Sprintf("no match in %d frames", budget), nil)
}

// VerifyVoice records one utterance of the passphrase and compares its
// signature to the stored template.
func (f *Flow) VerifyVoice(ctx context.Context) error {
	if err := f.enterFactor(FactorVoice); err != nil {
		return err
	}

	ctx = services.WithUsername(ctx, f.username)
	log := logging.WithContext(services.WithStep(ctx, "verify_voice"), f.logger)

	f.publish(Event{Factor: FactorVoice, State: FactorVerifying, Message: "recording"})

	recording, err := f.recorder.Record(ctx)
	if err != nil {
		f.setFactor(FactorVoice, FactorFailed)
		log.Warn("voice recording failed", logging.Error(err))
		return err
	}
	defer recording.Remove()

	signature, err := f.extractor.VoiceSignature(ctx, recording.Path, recording.SampleRate)
	if err != nil {
		f.setFactor(FactorVoice, FactorFailed)
		return services.Wrap(services.ErrNoSignalCaptured, "verify", "extract voice signature", "", err)
	}

	decision, err := f.engine.CompareVoice(signature, f.storedVoice.Signature)
	if err != nil {
		f.setFactor(FactorVoice, FactorFailed)
		return err
	}
	if !decision.Accepted {
		f.setFactor(FactorVoice, FactorFailed)
		f.publish(Event{Factor: FactorVoice, State: FactorFailed, Distance: decision.Distance})
		return services.Wrap(services.ErrMatchRejected, "verify", "verify voice",
			fmt.Sprintf("signature distance %.2f over threshold", decision.Distance), nil)
	}

	f.setFactor(FactorVoice, FactorPassed)
	f.publish(Event{Factor: FactorVoice, State: FactorPassed, Distance: decision.Distance})
	log.Info("voice factor passed",
		logging.Float64(logging.FieldDistance, decision.Distance))
	return nil
}

// enterFactor moves a factor into Verifying. Passed factors are final and
// reject re-entry; Pending and Failed factors may start or restart.
func (f *Flow) enterFactor(factor Factor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := f.factorLocked(factor)
	if state == FactorPassed {
		return services.Wrap(services.ErrInvalidInput, "verify", "enter factor",
			fmt.Sprintf("%s factor already passed", factor), nil)
	}
	if state == FactorVerifying {
		return services.Wrap(services.ErrInvalidInput, "verify", "enter factor",
			fmt.Sprintf("%s factor already in progress", factor), nil)
	}
	f.setFactorLocked(factor, FactorVerifying)
	return nil
}

func (f *Flow) setFactor(factor Factor, state FactorState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setFactorLocked(factor, state)
}

func (f *Flow) factorLocked(factor Factor) FactorState {
	if factor == FactorFace {
		return f.face
	}
	return f.voice
}

func (f *Flow) setFactorLocked(factor Factor, state FactorState) {
	if factor == FactorFace {
		f.face = state
		return
	}
	f.voice = state
}

// publish delivers an event without blocking; slow observers drop updates.
func (f *Flow) publish(event Event) {
	select {
	case f.events <- event:
	default:
	}
}
