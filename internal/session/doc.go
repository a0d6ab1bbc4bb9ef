// Package session turns a fully verified login into a vault grant. A file
// lock enforces that at most one grant is active per data directory, and
// revoking the grant releases the lock for the next login.
package session
