package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Iyonsi/LoanWorkflow/internal/adapter/repository/mysql"
	"github.com/Iyonsi/LoanWorkflow/internal/conductor"
	"github.com/Iyonsi/LoanWorkflow/internal/config"
	"github.com/Iyonsi/LoanWorkflow/internal/domain/flow"
	"github.com/Iyonsi/LoanWorkflow/internal/infrastructure/db"
	"github.com/Iyonsi/LoanWorkflow/internal/worker"
	"github.com/Iyonsi/LoanWorkflow/pkg/logging"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}
	if !cfg.Conductor.Enabled {
		log.Fatal("worker requires CONDUCTOR_BASE_URL / CONDUCTOR_ENABLED")
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatal("mysql connect failed", zap.Error(err))
	}

	client := conductor.NewClient(conductor.Config{
		BaseURL:   cfg.Conductor.BaseURL,
		KeyID:     cfg.Conductor.KeyID,
		KeySecret: cfg.Conductor.KeySecret,
		Enabled:   cfg.Conductor.Enabled,
	}, log)

	p := worker.NewPoller(client, flow.Default(), mysql.NewGormUoW(gdb),
		cfg.Conductor.WorkerID, cfg.Conductor.PollInterval, cfg.Conductor.ErrorBackoff, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("worker starting", zap.String("worker_id", cfg.Conductor.WorkerID))
	p.Run(ctx)
	log.Info("worker stopped")
}
