package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"facevault/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("Data directory", dir)
	if !result.Passed {
		t.Fatalf("expected pass for %s, got %+v", dir, result)
	}

	result = CheckDirectoryAccess("Data directory", filepath.Join(dir, "missing"))
	if result.Passed {
		t.Fatalf("expected failure for missing directory, got %+v", result)
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result = CheckDirectoryAccess("Data directory", file)
	if result.Passed {
		t.Fatalf("expected failure for regular file, got %+v", result)
	}
}

func TestCheckTemplateStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	result := CheckTemplateStore(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("expected healthy store, got %+v", result)
	}
}

func TestRunAllReportsEveryConcern(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Capture.CameraDevice = "/dev/does-not-exist"

	results := RunAll(context.Background(), cfg)
	names := make(map[string]bool, len(results))
	for _, result := range results {
		names[result.Name] = true
	}
	for _, want := range []string{
		"Data directory", "Vault directory", "Work directory", "Log directory",
		"FFmpeg", "Feature extractor", "Camera", "Template store",
	} {
		if !names[want] {
			t.Fatalf("missing check %q in %+v", want, results)
		}
	}

	// A missing camera node must fail the aggregate.
	if AllPassed(results) {
		t.Fatal("expected at least one failing check")
	}
}
