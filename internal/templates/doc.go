// Package templates persists enrolled biometric templates in SQLite.
//
// A user's face embeddings and voice signature live in one row written in a
// single transaction, so a username is either fully registered (both factors
// present) or absent; no reachable state exposes a single-factor user. The
// byte layout (JSON-encoded vectors in text columns) is opaque to callers.
//
// Treat this package as the single source of truth for registration
// semantics; schema changes bump the version in schema.go and require users
// to re-enroll.
package templates
