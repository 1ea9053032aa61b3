package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/support-totem125/vcc-totem/internal/bootstrap"
	"github.com/support-totem125/vcc-totem/internal/config"
	"github.com/support-totem125/vcc-totem/internal/handler"
	"github.com/support-totem125/vcc-totem/internal/middleware"
)

func main() {
	bootstrap.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logCloser, err := bootstrap.ConfigureLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure logging")
	}
	defer logCloser.Close()

	core, err := bootstrap.NewCore(context.Background(), cfg, bootstrap.ModeServer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise lookup core")
	}
	defer core.Close()

	if err := core.Warmup(context.Background(), config.LoginTimeout); err != nil {
		log.Warn().Err(err).Msg("initial portal login failed, will retry on first query")
	}

	var limiter middleware.Limiter = middleware.NewMemoryRateLimiter()
	if core.Redis != nil {
		limiter = middleware.NewRedisRateLimiter(core.Redis)
	}
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(limiter, cfg.QueryRateLimitPerMin)

	queryHandler := handler.NewQueryHandler(core.Lookups, core.Generator, cfg.Cooldown())

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout()))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.BodyLimit(middleware.DefaultMaxBodySize))

	r.Get("/health", queryHandler.Health)

	r.Group(func(r chi.Router) {
		r.Use(rateLimitMiddleware.Handler)
		r.Post("/query", queryHandler.Query)
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: cfg.RequestTimeout() + config.ServerRequestSlack,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
