package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/support-totem125/vcc-totem/internal/audit"
	apperrors "github.com/support-totem125/vcc-totem/internal/errors"
	"github.com/support-totem125/vcc-totem/internal/model"
	"github.com/support-totem125/vcc-totem/internal/util"
)

// Authenticator performs a remote login.
type Authenticator interface {
	Login(ctx context.Context) (*model.Session, error)
}

type Options struct {
	TTL time.Duration
	// MaxQueries is the rotation budget: after this many answered queries
	// the next non-forced Acquire logs in again. Zero disables rotation.
	MaxQueries int
}

// Manager hands out the current portal session, logging in when the cached
// one is missing, older than the TTL or has used up its query budget.
type Manager struct {
	auth       Authenticator
	store      Store
	ttl        time.Duration
	maxQueries int64

	mu   sync.Mutex
	used atomic.Int64
	now  func() time.Time
}

func NewManager(auth Authenticator, store Store, opts Options) *Manager {
	return &Manager{
		auth:       auth,
		store:      store,
		ttl:        opts.TTL,
		maxQueries: int64(opts.MaxQueries),
		now:        time.Now,
	}
}

// Acquire returns a usable session. With force set it always logs in.
func (m *Manager) Acquire(ctx context.Context, force bool) (*model.Session, error) {
	if !force {
		if sess := m.fresh(ctx); sess != nil {
			return sess, nil
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another caller may have logged in while we waited.
	if !force {
		if sess := m.fresh(ctx); sess != nil {
			return sess, nil
		}
	}

	return m.login(ctx, force)
}

// MarkUsed records one query the portal answered on the current session.
func (m *Manager) MarkUsed() {
	m.used.Add(1)
}

// NeedsRotation reports whether the current session has used up its budget.
func (m *Manager) NeedsRotation() bool {
	return m.maxQueries > 0 && m.used.Load() >= m.maxQueries
}

// Used returns the number of answered queries on the current session.
func (m *Manager) Used() int64 {
	return m.used.Load()
}

func (m *Manager) fresh(ctx context.Context) *model.Session {
	if m.NeedsRotation() {
		return nil
	}

	sess, err := m.store.Get(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("session cache read failed, treating as miss")
		return nil
	}
	if sess == nil || sess.CreatedAt.IsZero() {
		return nil
	}
	if sess.Age(m.now()) >= m.ttl {
		return nil
	}
	return sess
}

func (m *Manager) login(ctx context.Context, force bool) (*model.Session, error) {
	rotating := m.NeedsRotation()
	if rotating {
		audit.Log(ctx, audit.Event{
			Type:    audit.EventSessionRotate,
			Details: map[string]any{"queries": m.used.Load()},
		})
	}

	sess, err := m.auth.Login(ctx)
	if err != nil {
		if invErr := m.store.Invalidate(ctx); invErr != nil {
			log.Warn().Err(invErr).Msg("failed to invalidate session cache")
		}
		audit.Log(ctx, audit.Event{
			Type:    audit.EventLoginFailure,
			Details: map[string]any{"error": err.Error(), "forced": force},
		})
		if _, ok := apperrors.AsAppError(err); ok {
			return nil, err
		}
		return nil, apperrors.LoginFailed(err)
	}

	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = m.now()
	}
	if err := m.store.Set(ctx, sess); err != nil {
		log.Warn().Err(err).Msg("failed to cache session")
	}
	m.used.Store(0)

	audit.Log(ctx, audit.Event{
		Type:    audit.EventLoginSuccess,
		Session: sess,
		Details: map[string]any{
			"token_fp": util.Fingerprint(sess.Token),
			"forced":   force,
			"rotation": rotating,
		},
	})

	return sess, nil
}
