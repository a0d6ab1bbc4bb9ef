package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "out.log")

	logger, err := New(Options{
		Level:       "debug",
		Format:      "json",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("hello", String(FieldComponent, "test"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"component":"test"`) {
		t.Fatalf("expected component attr in output, got %q", string(data))
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	for _, input := range []string{"", "bogus", "INFO"} {
		if got := parseLevel(input); got.String() != "INFO" {
			t.Fatalf("parseLevel(%q) = %v", input, got)
		}
	}
	if got := parseLevel("warn"); got.String() != "WARN" {
		t.Fatalf("parseLevel(warn) = %v", got)
	}
}

func TestComponentLoggerTolerantOfNilBase(t *testing.T) {
	logger := NewComponentLogger(nil, "capture")
	if logger == nil {
		t.Fatal("expected usable logger")
	}
	logger.Info("should be discarded")
}
