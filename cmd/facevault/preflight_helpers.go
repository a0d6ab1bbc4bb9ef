package main

import (
	"context"
	"fmt"
	"io"

	"facevault/internal/config"
	"facevault/internal/preflight"
)

// warnPreflight prints failing readiness checks before a capture flow
// starts. Failures are advisory here; the flow itself fails hard on
// whatever its own step actually needs.
func warnPreflight(ctx context.Context, out io.Writer, cfg *config.Config) {
	for _, result := range preflight.RunAll(ctx, cfg) {
		if !result.Passed {
			fmt.Fprintf(out, "warning: %s: %s\n", result.Name, result.Detail)
		}
	}
}
