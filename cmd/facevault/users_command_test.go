package main

import (
	"context"
	"testing"

	"facevault/internal/config"
	"facevault/internal/templates"
)

func seedUser(t *testing.T, configPath, username string) {
	t.Helper()
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	store, err := templates.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	face := make([][]float64, cfg.Capture.FaceSamples)
	for i := range face {
		face[i] = make([]float64, cfg.Matching.FaceEmbeddingDim)
	}
	voice := templates.VoiceTemplate{
		Signature:  make([]float64, cfg.Matching.VoiceCoefficients),
		Passphrase: cfg.Voice.Passphrase,
	}
	if err := store.Write(context.Background(), username, face, voice); err != nil {
		t.Fatalf("write templates: %v", err)
	}
}

func TestUsersListShowsRegisteredUsers(t *testing.T) {
	configPath := writeTestConfig(t)

	out, _, err := runCLI(t, []string{"users"}, configPath, "")
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	requireContains(t, out, "No users registered")

	seedUser(t, configPath, "alice")

	out, _, err = runCLI(t, []string{"users", "list"}, configPath, "")
	if err != nil {
		t.Fatalf("users list: %v", err)
	}
	requireContains(t, out, "alice")
}

func TestUsersRemove(t *testing.T) {
	configPath := writeTestConfig(t)
	seedUser(t, configPath, "alice")

	out, _, err := runCLI(t, []string{"users", "remove", "alice"}, configPath, "")
	if err != nil {
		t.Fatalf("users remove: %v", err)
	}
	requireContains(t, out, "Removed alice")

	out, _, err = runCLI(t, []string{"users", "remove", "alice"}, configPath, "")
	if err != nil {
		t.Fatalf("users remove (absent): %v", err)
	}
	requireContains(t, out, "was not registered")
}

func TestRegisterRefusesDuplicateUsername(t *testing.T) {
	configPath := writeTestConfig(t)
	seedUser(t, configPath, "alice")

	_, _, err := runCLI(t, []string{"register", "alice"}, configPath, "")
	if err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	requireContains(t, err.Error(), "already registered")
}
