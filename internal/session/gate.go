package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"facevault/internal/config"
	"facevault/internal/logging"
	"facevault/internal/services"
)

// Identity is the subset of a verification flow the gate inspects.
type Identity interface {
	Authenticated() bool
	Username() string
}

// Gate hands out vault grants for verified identities.
type Gate struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewGate constructs a session gate over the configured lock path.
func NewGate(cfg *config.Config, logger *slog.Logger) *Gate {
	return &Gate{cfg: cfg, logger: logging.NewComponentLogger(logger, "session")}
}

// Grant is an active vault session for one user. It holds the instance lock
// until revoked.
type Grant struct {
	ID        string
	Username  string
	GrantedAt time.Time

	mu     sync.Mutex
	lock   *flock.Flock
	active bool
}

// Authorize issues a grant when both factors of the identity have passed and
// no other session holds the lock.
func (g *Gate) Authorize(identity Identity) (*Grant, error) {
	if identity == nil || identity.Username() == "" {
		return nil, services.Wrap(services.ErrInvalidInput, "session", "authorize", "missing identity", nil)
	}
	if !identity.Authenticated() {
		return nil, services.Wrap(services.ErrMatchRejected, "session", "authorize",
			"both factors must pass before a session is granted", nil)
	}

	lock := flock.New(g.cfg.SessionLockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "session", "acquire lock", "", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrSessionActive, "session", "acquire lock",
			"another session holds the vault lock", nil)
	}

	grant := &Grant{
		ID:        uuid.NewString(),
		Username:  identity.Username(),
		GrantedAt: time.Now(),
		lock:      lock,
		active:    true,
	}
	g.logger.Info("session granted",
		logging.String(logging.FieldUsername, grant.Username),
		logging.String(logging.FieldSessionID, grant.ID))
	return grant, nil
}

// Active reports whether the grant still holds the session lock.
func (g *Grant) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Revoke releases the session lock. Revoking twice is harmless.
func (g *Grant) Revoke() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.active {
		return nil
	}
	g.active = false
	if err := g.lock.Unlock(); err != nil {
		return services.Wrap(services.ErrPersistence, "session", "release lock", "", err)
	}
	return nil
}
