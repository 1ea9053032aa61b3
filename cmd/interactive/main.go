package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/support-totem125/vcc-totem/internal/bootstrap"
	"github.com/support-totem125/vcc-totem/internal/config"
	"github.com/support-totem125/vcc-totem/internal/console"
)

func main() {
	os.Exit(run())
}

func run() int {
	bootstrap.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		return 1
	}

	logCloser, err := bootstrap.ConfigureLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Error().Err(err).Msg("failed to configure logging")
		return 1
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core, err := bootstrap.NewCore(ctx, cfg, bootstrap.ModeOperator)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialise lookup core")
		return 1
	}
	defer core.Close()

	if err := core.Warmup(ctx, config.LoginTimeout); err != nil {
		log.Error().Err(err).Msg("could not log in to portal")
		return 1
	}

	if err := console.New(core.Lookups, os.Stdin, os.Stdout).Run(ctx); err != nil {
		log.Error().Err(err).Msg("console stopped")
		return 2
	}
	return 0
}
