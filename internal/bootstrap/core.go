package bootstrap

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/support-totem125/vcc-totem/internal/config"
	"github.com/support-totem125/vcc-totem/internal/message"
	"github.com/support-totem125/vcc-totem/internal/portal"
	"github.com/support-totem125/vcc-totem/internal/redis"
	"github.com/support-totem125/vcc-totem/internal/service"
	"github.com/support-totem125/vcc-totem/internal/session"
)

// Core is the lookup stack shared by every entry point.
type Core struct {
	Config    *config.Config
	Generator *message.Generator
	Sessions  *session.Manager
	Lookups   *service.LookupService
	Redis     *redis.Client
}

type Mode int

const (
	// ModeServer answers HTTP callers: rate limits return at once and
	// rotation does not pause.
	ModeServer Mode = iota
	// ModeOperator drives batch and console runs, which wait out cooldowns.
	ModeOperator
)

func NewCore(ctx context.Context, cfg *config.Config, mode Mode) (*Core, error) {
	core := &Core{
		Config:    cfg,
		Generator: message.NewGenerator(cfg.ShowErrorDetail),
	}

	var store session.Store = session.NewMemoryStore()
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL, config.RedisNamespace, config.RedisPingTimeout)
		if err != nil {
			return nil, err
		}
		core.Redis = client
		store = session.NewRedisStore(client, cfg.SessionTTL(), cfg.EncryptionKey)
		log.Info().Msg("redis connected, sharing portal session")
	}

	portalClient := portal.NewClient(portal.Options{
		LoginURL:     cfg.LoginURL(),
		LookupURL:    cfg.LookupURL(),
		Username:     cfg.Username,
		Password:     cfg.Password,
		LoginTimeout: config.LoginTimeout,
		QuickTimeout: cfg.QuickTimeout(),
		Timeout:      cfg.Timeout(),
	})

	core.Sessions = session.NewManager(portalClient, store, session.Options{
		TTL:        cfg.SessionTTL(),
		MaxQueries: cfg.MaxQueriesPerSession,
	})

	opts := service.LookupOptions{}
	if mode == ModeOperator {
		opts.Cooldown = cfg.Cooldown()
		opts.RotationPauseMin = config.RotationPauseMin
		opts.RotationPauseMax = config.RotationPauseMax
	}
	core.Lookups = service.NewLookupService(core.Sessions, portalClient, core.Generator, opts)

	log.Info().
		Str("portal", cfg.BaseURL).
		Dur("timeout", cfg.Timeout()).
		Dur("quickTimeout", cfg.QuickTimeout()).
		Dur("sessionTTL", cfg.SessionTTL()).
		Int("maxQueriesPerSession", cfg.MaxQueriesPerSession).
		Dur("cooldown", opts.Cooldown).
		Msg("lookup core ready")

	return core, nil
}

func (c *Core) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis")
		}
	}
}

// Warmup logs in ahead of the first query.
func (c *Core) Warmup(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := c.Sessions.Acquire(ctx, false)
	return err
}
