package service

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/support-totem125/vcc-totem/internal/audit"
	apperrors "github.com/support-totem125/vcc-totem/internal/errors"
	"github.com/support-totem125/vcc-totem/internal/message"
	"github.com/support-totem125/vcc-totem/internal/model"
	"github.com/support-totem125/vcc-totem/internal/util"
)

// SessionProvider is the part of session.Manager the lookup flow needs.
type SessionProvider interface {
	Acquire(ctx context.Context, force bool) (*model.Session, error)
	MarkUsed()
	NeedsRotation() bool
}

// Executor runs one remote lookup.
type Executor interface {
	Lookup(ctx context.Context, session *model.Session, dni string) model.QueryResult
}

type LookupOptions struct {
	// Cooldown is how long Lookup blocks after the portal rate limits us.
	// Zero returns immediately with RateLimited set.
	Cooldown time.Duration
	// RotationPauseMin and RotationPauseMax bound the random pause taken
	// before a proactive re-login. Both zero disables the pause.
	RotationPauseMin time.Duration
	RotationPauseMax time.Duration
}

type LookupResult struct {
	TraceID     string
	DNI         string
	Query       model.QueryResult
	Outcome     model.Outcome
	Message     model.Rendered
	Retried     bool
	RateLimited bool
	Aborted     bool
	Elapsed     time.Duration
}

// Success reports whether the portal returned client data.
func (r *LookupResult) Success() bool {
	return r.Query.Status.Is(model.StatusSuccess) && r.Query.Client != nil
}

// ReturnCode is 0 only when the client has an offer.
func (r *LookupResult) ReturnCode() int {
	if r.Outcome == model.OutcomeHasOffer {
		return 0
	}
	return 1
}

// LookupService applies the session lifecycle policy around a single lookup:
// one retry on expiry, a cooldown on rate limiting, and a permanent stop once
// the portal blocks the account.
type LookupService struct {
	sessions  SessionProvider
	executor  Executor
	generator *message.Generator
	opts      LookupOptions
	blocked   atomic.Bool
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewLookupService(
	sessions SessionProvider,
	executor Executor,
	generator *message.Generator,
	opts LookupOptions,
) *LookupService {
	return &LookupService{
		sessions:  sessions,
		executor:  executor,
		generator: generator,
		opts:      opts,
		sleep:     util.SleepContext,
	}
}

// Blocked reports whether the portal has blocked the account. Only a restart
// clears it.
func (s *LookupService) Blocked() bool {
	return s.blocked.Load()
}

func (s *LookupService) Lookup(ctx context.Context, dni string) (*LookupResult, error) {
	dni = strings.TrimSpace(dni)
	if !util.IsValidDNI(dni) {
		return nil, apperrors.InvalidDNI(util.DNILength)
	}
	if s.blocked.Load() {
		return nil, apperrors.PortalBlocked()
	}

	start := time.Now()
	result := &LookupResult{TraceID: uuid.NewString(), DNI: dni}
	logger := log.With().Str("trace_id", result.TraceID).Str("dni", util.MaskDNI(dni)).Logger()

	if s.sessions.NeedsRotation() {
		pause := util.Jitter(s.opts.RotationPauseMin, s.opts.RotationPauseMax)
		logger.Info().Dur("pause", pause).Msg("session budget used up, rotating")
		if err := s.sleep(ctx, pause); err != nil {
			return nil, err
		}
	}

	sess, err := s.sessions.Acquire(ctx, false)
	if err != nil {
		return nil, err
	}

	query := s.query(ctx, sess, dni)

	if query.Status.Is(model.StatusExpired) {
		logger.Warn().Msg("portal session expired, logging in again")
		audit.Log(ctx, audit.Event{
			Type:    audit.EventSessionExpired,
			TraceID: result.TraceID,
			DNI:     dni,
			Session: sess,
		})

		sess, err = s.sessions.Acquire(ctx, true)
		if err != nil {
			return nil, err
		}
		query = s.query(ctx, sess, dni)
		result.Retried = true
	}

	switch query.Status.Kind {
	case model.StatusRateLimited:
		result.RateLimited = true
		audit.Log(ctx, audit.Event{
			Type:    audit.EventRateLimited,
			TraceID: result.TraceID,
			DNI:     dni,
			Session: sess,
			Details: map[string]any{"cooldown": s.opts.Cooldown.String()},
		})
		if s.opts.Cooldown > 0 {
			logger.Warn().Dur("cooldown", s.opts.Cooldown).Msg("portal rate limit hit, cooling down")
			if err := s.sleep(ctx, s.opts.Cooldown); err != nil {
				logger.Warn().Err(err).Msg("cooldown interrupted")
			}
		}
	case model.StatusBlocked:
		s.blocked.Store(true)
		result.Aborted = true
		logger.Error().Msg("portal blocked access, no further lookups will be made")
		audit.Log(ctx, audit.Event{
			Type:    audit.EventPortalBlocked,
			TraceID: result.TraceID,
			DNI:     dni,
			Session: sess,
		})
	}

	result.Query = query
	result.Outcome = message.Classify(query.Client, query.Status)
	result.Message = s.generator.Render(result.Outcome, query.Client, query.RawMessage)
	result.Elapsed = time.Since(start)

	logger.Info().
		Str("status", query.Status.String()).
		Str("outcome", string(result.Outcome)).
		Bool("retried", result.Retried).
		Dur("elapsed", result.Elapsed).
		Msg("lookup completed")

	return result, nil
}

func (s *LookupService) query(ctx context.Context, sess *model.Session, dni string) model.QueryResult {
	res := s.executor.Lookup(ctx, sess, dni)
	if res.Status.Answered() {
		s.sessions.MarkUsed()
	}
	return res
}
