package main

import (
	"context"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	httpadp "github.com/Iyonsi/LoanWorkflow/internal/adapter/http"
	"github.com/Iyonsi/LoanWorkflow/internal/adapter/middleware"
	"github.com/Iyonsi/LoanWorkflow/internal/adapter/repository/mysql"
	"github.com/Iyonsi/LoanWorkflow/internal/conductor"
	"github.com/Iyonsi/LoanWorkflow/internal/config"
	"github.com/Iyonsi/LoanWorkflow/internal/domain/decision"
	"github.com/Iyonsi/LoanWorkflow/internal/domain/flow"
	"github.com/Iyonsi/LoanWorkflow/internal/domain/loan"
	"github.com/Iyonsi/LoanWorkflow/internal/domain/request"
	"github.com/Iyonsi/LoanWorkflow/internal/infrastructure/cache"
	"github.com/Iyonsi/LoanWorkflow/internal/infrastructure/db"
	"github.com/Iyonsi/LoanWorkflow/internal/usecase/approval"
	requestuc "github.com/Iyonsi/LoanWorkflow/internal/usecase/request"
	"github.com/Iyonsi/LoanWorkflow/pkg/logging"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatal("mysql connect failed", zap.Error(err))
	}
	if err := gdb.AutoMigrate(&request.LoanRequest{}, &decision.Entry{}, &loan.Loan{}); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		log.Fatal("redis connect failed", zap.Error(err))
	}

	flows := flow.Default()
	unit := mysql.NewGormUoW(gdb)

	client := conductor.NewClient(conductor.Config{
		BaseURL:   cfg.Conductor.BaseURL,
		KeyID:     cfg.Conductor.KeyID,
		KeySecret: cfg.Conductor.KeySecret,
		Enabled:   cfg.Conductor.Enabled,
	}, log)
	registerDefinitions(client, cfg.Conductor, log)

	ruc := requestuc.NewUsecase(flows, unit, client, log)
	auc := approval.NewUsecase(flows, unit, client.Enabled(), log)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger(), echomw.Recover())
	e.Validator = httpadp.NewValidator(flows)

	idempTTL := time.Duration(cfg.IdempTTLSecs) * time.Second
	httpadp.Register(e,
		httpadp.NewHandler(flows),
		httpadp.NewRequestHandler(ruc),
		httpadp.NewApprovalHandler(auc),
		middleware.Idempotency(rdb, idempTTL, log),
	)

	addr := ":" + cfg.AppPort
	log.Info("listening", zap.String("addr", addr), zap.Bool("orchestrated", client.Enabled()))
	if err := e.Start(addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

// registerDefinitions pushes the workflow and task definition documents to
// the orchestrator. Registration failure is logged and tolerated: the
// definitions may already exist, or an operator registers them by hand.
func registerDefinitions(client *conductor.Client, cfg config.ConductorConfig, log *zap.Logger) {
	if !client.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if cfg.WorkflowDefPath != "" {
		raw, err := os.ReadFile(cfg.WorkflowDefPath)
		if err == nil {
			err = client.RegisterWorkflow(ctx, raw)
		}
		if err != nil {
			log.Warn("workflow definition registration failed",
				zap.String("path", cfg.WorkflowDefPath), zap.Error(err))
		}
	}
	if cfg.TaskDefsPath != "" {
		raw, err := os.ReadFile(cfg.TaskDefsPath)
		if err == nil {
			err = client.RegisterTaskDefs(ctx, raw)
		}
		if err != nil {
			log.Warn("task definition registration failed",
				zap.String("path", cfg.TaskDefsPath), zap.Error(err))
		}
	}
}
