package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"coopdash/internal/config"
	"coopdash/internal/listener"
	"coopdash/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	must(config.InitLogger(cfg.LogLevel, cfg.LogFormat))
	defer func() { _ = zap.L().Sync() }()

	rules, err := config.LoadRules(cfg.RulesPath)
	must(err)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	svc := listener.NewService(db, cfg, rules)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	zap.L().Info("report listener started",
		zap.String("provider", cfg.ReportListenerProvider),
		zap.String("label", cfg.ReportListenerLabel),
		zap.String("rules_version", rules.Version))
	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
