package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/support-totem125/vcc-totem/internal/bootstrap"
	"github.com/support-totem125/vcc-totem/internal/config"
	"github.com/support-totem125/vcc-totem/internal/jobs"
	"github.com/support-totem125/vcc-totem/internal/model"
	"github.com/support-totem125/vcc-totem/internal/report"
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

	path := cfg.DNIsFile
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	dnis, err := report.ReadDNIs(path)
	if err != nil {
		log.Error().Err(err).Msg("failed to read DNI list")
		return 1
	}
	if len(dnis) == 0 {
		log.Error().Str("path", path).Msg("no DNIs to process, expected one 8-digit DNI per line")
		return 1
	}

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

	writer := report.NewWriter(cfg.OutputDir, core.Generator)
	job := jobs.NewBatchJob(core.Lookups, writer, jobs.BatchOptions{
		DelayMin: cfg.DelayMin(),
		DelayMax: cfg.DelayMax(),
		OnItem:   printItem,
	})

	summary := job.Run(ctx, dnis)
	printSummary(summary, cfg.OutputDir)

	if summary.Aborted {
		return 2
	}
	return 0
}

func printItem(item jobs.Item) {
	fmt.Printf("[%d/%d] DNI: %s\n", item.Index, item.Total, item.DNI)

	switch {
	case item.Err != nil:
		fmt.Printf("   ❌ %v\n", item.Err)
	case item.Result.Aborted:
		fmt.Println("   🚨 BLOQUEADO")
	case item.Result.RateLimited:
		fmt.Println("   ⚠️ RATE LIMIT")
	case item.Result.Outcome == model.OutcomeHasOffer:
		fmt.Printf("   ✅ CON OFERTA - %s\n", item.Result.Query.Client.Name)
	case item.Result.Outcome == model.OutcomeNoOffer:
		fmt.Printf("   ⚠️ SIN OFERTA - %s\n", item.Result.Query.Client.Name)
	case item.Result.Outcome == model.OutcomeDniNotFound:
		fmt.Println("   ❌ DNI NO ENCONTRADO")
	default:
		fmt.Printf("   ❌ Error técnico: %s\n", item.Result.Query.Status)
	}

	if item.ReportPath != "" {
		fmt.Printf("   📄 %s\n", filepath.Base(item.ReportPath))
	}
	if item.Delay > 0 {
		fmt.Printf("   ⏳ %.1fs...\n\n", item.Delay.Seconds())
	}
}

func printSummary(s jobs.Summary, outputDir string) {
	fmt.Println()
	fmt.Println("RESUMEN FINAL")
	fmt.Printf("Total procesados: %d de %d\n", s.Processed, s.Total)
	fmt.Printf("✅ DNIs válidos: %d\n", s.Succeeded)
	if s.Succeeded > 0 {
		fmt.Printf("   ├─ Con línea de crédito: %d (%.1f%%)\n", s.WithOffer, percent(s.WithOffer, s.Succeeded))
		fmt.Printf("   └─ Sin línea de crédito: %d (%.1f%%)\n", s.WithoutOffer, percent(s.WithoutOffer, s.Succeeded))
	}
	fmt.Printf("❌ DNIs inválidos/sin campaña: %d\n", s.Invalid)
	fmt.Printf("⚠️ Errores técnicos: %d\n", s.Errors)
	fmt.Printf("📁 Archivos: %s/\n", outputDir)
	if s.Aborted {
		fmt.Println("🚨 Proceso detenido: acceso bloqueado o sin sesión")
	}
	if s.Cancelled {
		fmt.Println("⚠️ Proceso interrumpido por el usuario")
	}
}

func percent(n, total int) float64 {
	return float64(n) / float64(total) * 100
}
