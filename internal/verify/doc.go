// Package verify runs the two-factor identity check for a login attempt.
// Both the face and voice factors must pass before a session may be granted;
// a failed factor can be retried without disturbing a factor that already
// passed.
package verify
