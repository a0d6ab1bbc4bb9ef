package logging

// Standardized attribute keys used across components.
const (
	FieldComponent = "component"
	FieldEventType = "event_type"
	FieldUsername  = "username"
	FieldState     = "state"
	FieldStep      = "step"
	FieldFactor    = "factor"
	FieldDistance  = "distance"
	FieldAttempt   = "attempt"
	FieldDevice    = "device"
	FieldSessionID = "session_id"
)
