// Package enroll drives the registration state machine.
//
// A flow collects a fixed number of face samples and one voice signature for
// a candidate username, then commits both templates in a single store write.
// Capture steps report recoverable failures without unwinding the flow;
// commit failures abort it and discard everything collected. Accumulated
// session data is never partially persisted.
//
// State transitions and progress are published on the flow's event channel so
// a presentation layer can observe the machine instead of sharing mutable
// flags with it.
package enroll
