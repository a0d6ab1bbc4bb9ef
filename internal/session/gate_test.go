package session_test

import (
	"errors"
	"testing"

	"facevault/internal/logging"
	"facevault/internal/services"
	"facevault/internal/session"
	"facevault/internal/testsupport"
)

type stubIdentity struct {
	username      string
	authenticated bool
}

func (s stubIdentity) Authenticated() bool { return s.authenticated }
func (s stubIdentity) Username() string    { return s.username }

func TestAuthorizeRequiresBothFactors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	gate := session.NewGate(cfg, logging.NewNop())

	_, err := gate.Authorize(stubIdentity{username: "alice", authenticated: false})
	if !errors.Is(err, services.ErrMatchRejected) {
		t.Fatalf("expected match-rejected, got %v", err)
	}
}

func TestAuthorizeGrantsAndRevokes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	gate := session.NewGate(cfg, logging.NewNop())

	grant, err := gate.Authorize(stubIdentity{username: "alice", authenticated: true})
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if grant.ID == "" || grant.Username != "alice" {
		t.Fatalf("unexpected grant %+v", grant)
	}
	if !grant.Active() {
		t.Fatal("grant should start active")
	}

	if err := grant.Revoke(); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if grant.Active() {
		t.Fatal("grant should be inactive after revoke")
	}
	if err := grant.Revoke(); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
}

func TestSingleActiveSession(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	gate := session.NewGate(cfg, logging.NewNop())

	first, err := gate.Authorize(stubIdentity{username: "alice", authenticated: true})
	if err != nil {
		t.Fatalf("first authorize: %v", err)
	}

	_, err = gate.Authorize(stubIdentity{username: "bob", authenticated: true})
	if !errors.Is(err, services.ErrSessionActive) {
		t.Fatalf("expected session-active, got %v", err)
	}

	if err := first.Revoke(); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	second, err := gate.Authorize(stubIdentity{username: "bob", authenticated: true})
	if err != nil {
		t.Fatalf("authorize after revoke: %v", err)
	}
	if err := second.Revoke(); err != nil {
		t.Fatalf("revoke second: %v", err)
	}
}

func TestAnonymousIdentityRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	gate := session.NewGate(cfg, logging.NewNop())

	_, err := gate.Authorize(stubIdentity{username: "", authenticated: true})
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid-input, got %v", err)
	}
}
