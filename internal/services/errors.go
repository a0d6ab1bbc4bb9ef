package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDeviceUnavailable marks camera or microphone open failures. The
	// current attempt is lost but the step may be retried once the
	// operator fixes the hardware.
	ErrDeviceUnavailable = errors.New("device unavailable")
	// ErrNoFaceDetected marks a face capture step that exhausted its frame
	// budget without a detectable face.
	ErrNoFaceDetected = errors.New("no face detected")
	// ErrNoSignalCaptured marks an audio capture that produced no usable
	// signal.
	ErrNoSignalCaptured = errors.New("no signal captured")
	// ErrMatchRejected marks a factor comparison that did not accept.
	ErrMatchRejected = errors.New("match rejected")
	// ErrDuplicateUser marks registration against an existing username.
	ErrDuplicateUser = errors.New("duplicate user")
	// ErrUserNotFound marks login against a username with no committed
	// templates.
	ErrUserNotFound = errors.New("user not found")
	// ErrPersistence marks a failed template commit; no partial template
	// is left valid behind it.
	ErrPersistence = errors.New("persistence error")
	// ErrInvalidInput marks vectors whose dimensionality does not match
	// the configured template shape.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoReferenceData marks comparisons against an empty stored
	// template set.
	ErrNoReferenceData = errors.New("no reference data")
	// ErrSessionActive marks an authorization attempt while another
	// process already holds the vault session lock.
	ErrSessionActive = errors.New("session already active")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrPersistence
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether the flow step that produced err may be retried in
// place. Capture and match faults are retryable; identity and store faults
// abort the current flow.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrDeviceUnavailable),
		errors.Is(err, ErrNoFaceDetected),
		errors.Is(err, ErrNoSignalCaptured),
		errors.Is(err, ErrMatchRejected):
		return true
	default:
		return false
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
