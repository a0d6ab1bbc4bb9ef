// Package vault manages the per-user file store unlocked by a session
// grant. Every operation re-checks that the grant is still active, so a
// revoked session loses access immediately.
package vault
