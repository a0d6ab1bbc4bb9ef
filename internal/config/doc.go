// Package config loads, validates, and normalizes facevault configuration.
//
// Configuration lives in a TOML file (default ~/.config/facevault/config.toml,
// or ./facevault.toml for project-local runs). Load applies defaults first,
// then file values, then normalizes paths (tilde expansion, absolute paths)
// and validates the result, so downstream code never sees a partially
// initialized Config.
package config
