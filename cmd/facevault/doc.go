// Command facevault is the operator CLI for the two-factor biometric vault.
// It registers users, runs the face and voice checks for login, and exposes
// an interactive shell over the authenticated user's files.
package main
