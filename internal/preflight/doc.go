// Package preflight provides readiness checks for the binaries, devices,
// directories, and template store a login or registration run depends on.
//
// These checks run in two contexts:
//   - The register and login commands call RunAll before opening any device,
//     so a doomed run fails fast with a concrete reason.
//   - The "status" command uses the same checks to display system health.
package preflight
