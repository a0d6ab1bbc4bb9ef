package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"facevault/internal/config"
	"facevault/internal/deps"
	"facevault/internal/devwatch"
	"facevault/internal/templates"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the capture pipeline binaries. Both the status
// command and the flow commands use this to avoid duplicating the
// requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.Required(cfg))
}

// CheckCamera reports whether any usable camera node is present.
func CheckCamera(cfg *config.Config) Result {
	const name = "Camera"
	statuses := devwatch.ProbeCameras(cfg)
	for _, status := range statuses {
		if status.Present && status.Readable {
			return Result{Name: name, Passed: true, Detail: status.Path}
		}
	}
	for _, status := range statuses {
		if status.Present {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions)", status.Path)}
		}
	}
	return Result{Name: name, Detail: "no video device node found"}
}

// CheckTemplateStore opens the template database and runs its health check.
func CheckTemplateStore(ctx context.Context, cfg *config.Config) Result {
	const name = "Template store"

	store, err := templates.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer store.Close()

	health, err := store.CheckHealth(ctx)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if !health.IntegrityCheck {
		return Result{Name: name, Detail: "integrity check failed: " + health.Error}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d enrolled users", health.TotalUsers)}
}
