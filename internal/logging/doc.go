// Package logging constructs the application's slog loggers and provides
// typed attribute helpers so flow and store code emits consistent fields.
//
// Loggers write to stdout plus a per-run log file under the configured log
// directory. Console format is the default; json is available for piping
// into other tooling. Component loggers (see NewComponentLogger) stamp every
// record with the subsystem that produced it.
package logging
