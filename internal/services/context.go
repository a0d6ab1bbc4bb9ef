package services

import "context"

type contextKey string

const (
	usernameKey contextKey = "username"
	stepKey     contextKey = "step"
)

// WithUsername annotates context with the username the flow acts on behalf of.
func WithUsername(ctx context.Context, username string) context.Context {
	if username == "" {
		return ctx
	}
	return context.WithValue(ctx, usernameKey, username)
}

// UsernameFromContext returns the active username if present.
func UsernameFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(usernameKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStep annotates context with the flow step name.
func WithStep(ctx context.Context, step string) context.Context {
	if step == "" {
		return ctx
	}
	return context.WithValue(ctx, stepKey, step)
}

// StepFromContext returns the flow step name if present.
func StepFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stepKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
