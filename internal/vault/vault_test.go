package vault_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"facevault/internal/config"
	"facevault/internal/logging"
	"facevault/internal/services"
	"facevault/internal/session"
	"facevault/internal/testsupport"
	"facevault/internal/vault"
)

type grantedIdentity string

func (g grantedIdentity) Authenticated() bool { return true }
func (g grantedIdentity) Username() string    { return string(g) }

func openVault(t *testing.T, username string) (*vault.Vault, *session.Grant, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	gate := session.NewGate(cfg, logging.NewNop())
	grant, err := gate.Authorize(grantedIdentity(username))
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	t.Cleanup(func() { _ = grant.Revoke() })
	return vault.Open(cfg, logging.NewNop()), grant, cfg
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPutListGetDelete(t *testing.T) {
	v, grant, cfg := openVault(t, "alice")

	src := writeTemp(t, "notes.txt", "secret notes")
	entry, err := v.Put(grant, src, false)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if entry.Name != "notes.txt" || entry.Size != int64(len("secret notes")) {
		t.Fatalf("unexpected entry %+v", entry)
	}

	entries, err := v.List(grant)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "notes.txt" {
		t.Fatalf("unexpected listing %+v", entries)
	}

	dstDir := t.TempDir()
	dst, err := v.Get(grant, "notes.txt", dstDir)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "secret notes" {
		t.Fatalf("content mismatch: %q", got)
	}

	if err := v.Delete(grant, "notes.txt"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	entries, err = v.List(grant)
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty vault, got %+v", entries)
	}

	// The file must live under the user's own directory.
	if _, err := os.Stat(filepath.Join(cfg.Paths.VaultDir, "alice")); err != nil {
		t.Fatalf("user directory missing: %v", err)
	}
}

func TestPutRefusesOverwriteUnlessAsked(t *testing.T) {
	v, grant, _ := openVault(t, "alice")

	first := writeTemp(t, "doc.txt", "v1")
	if _, err := v.Put(grant, first, false); err != nil {
		t.Fatalf("put: %v", err)
	}

	second := writeTemp(t, "doc.txt", "v2")
	if _, err := v.Put(grant, second, false); !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid-input on collision, got %v", err)
	}

	if _, err := v.Put(grant, second, true); err != nil {
		t.Fatalf("overwrite put: %v", err)
	}
	dst, err := v.Get(grant, "doc.txt", t.TempDir())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "v2" {
		t.Fatalf("expected overwritten content, got %q", got)
	}
}

func TestRevokedGrantLosesAccess(t *testing.T) {
	v, grant, _ := openVault(t, "alice")

	src := writeTemp(t, "notes.txt", "secret")
	if _, err := v.Put(grant, src, false); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := grant.Revoke(); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if _, err := v.List(grant); !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid-input after revoke, got %v", err)
	}
	if _, err := v.Get(grant, "notes.txt", t.TempDir()); !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid-input after revoke, got %v", err)
	}
}

func TestNamesAreConfinedToUserDirectory(t *testing.T) {
	v, grant, _ := openVault(t, "alice")

	for _, name := range []string{"", "..", "../escape.txt", "a/b.txt"} {
		if err := v.Delete(grant, name); !errors.Is(err, services.ErrInvalidInput) {
			t.Fatalf("delete %q: expected invalid-input, got %v", name, err)
		}
		if _, err := v.Get(grant, name, t.TempDir()); !errors.Is(err, services.ErrInvalidInput) {
			t.Fatalf("get %q: expected invalid-input, got %v", name, err)
		}
	}
}

func TestUsersAreIsolated(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	gate := session.NewGate(cfg, logging.NewNop())
	v := vault.Open(cfg, logging.NewNop())

	alice, err := gate.Authorize(grantedIdentity("alice"))
	if err != nil {
		t.Fatalf("authorize alice: %v", err)
	}
	src := writeTemp(t, "notes.txt", "alice only")
	if _, err := v.Put(alice, src, false); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := alice.Revoke(); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	bob, err := gate.Authorize(grantedIdentity("bob"))
	if err != nil {
		t.Fatalf("authorize bob: %v", err)
	}
	defer func() { _ = bob.Revoke() }()

	entries, err := v.List(bob)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("bob sees alice's files: %+v", entries)
	}
	if _, err := v.Get(bob, "notes.txt", t.TempDir()); !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid-input, got %v", err)
	}
}

func TestRemoveUserFiles(t *testing.T) {
	v, grant, cfg := openVault(t, "alice")

	src := writeTemp(t, "notes.txt", "secret")
	if _, err := v.Put(grant, src, false); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := v.RemoveUserFiles("alice"); err != nil {
		t.Fatalf("remove user files: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.VaultDir, "alice")); !os.IsNotExist(err) {
		t.Fatalf("expected directory gone, got %v", err)
	}

	if err := v.RemoveUserFiles("../alice"); !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid-input, got %v", err)
	}
}
