// Package services defines shared utilities consumed by the enrollment and
// verification flows and by external tool integrations.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (retryable capture faults vs fatal store faults)
//     uniform across flow steps.
//   - Context helpers that stamp the active username and flow step for
//     logging.
//
// Use these helpers when wiring new flow logic so operational behaviour
// (error handling, observability, retries) stays consistent.
package services
