// Package app wires the service together: config validation, store,
// directory, reply orchestration and the HTTP server lifecycle.
package app

import (
	"context"
	"fmt"
	"net/http"

	"chatledger/internal/sweep"
	"chatledger/pkg/chat"
	"chatledger/pkg/config"
	"chatledger/pkg/llm"
	"chatledger/pkg/logger"
	"chatledger/pkg/store"
	"chatledger/pkg/telemetry"
	"chatledger/pkg/validation"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff     config.EffectiveConfigResult
	version string

	st  *store.Store
	dir *chat.Directory
	orc *chat.Orchestrator

	srv *http.Server
}

// New initializes resources that do not require a running context: the
// store, the chat directory and the reply orchestrator. It does not
// start the sweeper or the HTTP server; call Run to start those and
// block until shutdown.
func New(eff config.EffectiveConfigResult, version string) (*App, error) {
	cfg := eff.Config
	if err := cfg.ValidateConfig(); err != nil {
		return nil, err
	}

	validation.SetRules(validation.Rules{
		MaxTextLen:  cfg.Limits.MaxTextLen,
		MaxTitleLen: cfg.Limits.MaxTitleLen,
	})

	dbPath := eff.DBPath
	if dbPath == "" {
		dbPath = "./.database"
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", dbPath, err)
	}
	telemetry.RegisterDBGauges(func() (uint64, uint64, uint64) {
		m := st.Metrics()
		return m.DiskBytes, m.WALBytes, m.MemtableBytes
	})

	ov := chat.NewOverlay()
	dir, err := chat.NewDirectory(st, ov)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	orc := chat.NewOrchestrator(dir, newGenerator(cfg), chat.OrchestratorConfig{
		Timeout:       cfg.Reply.Timeout.Duration(),
		HistoryWindow: cfg.Reply.HistoryWindow,
		FailureText:   cfg.Reply.FailureText,
	})

	return &App{eff: eff, version: version, st: st, dir: dir, orc: orc}, nil
}

// newGenerator selects the reply generator from config.
func newGenerator(cfg *config.Config) chat.Generator {
	if cfg.Reply.Provider == "openai" {
		logger.Info("reply_generator", "provider", "openai", "model", cfg.Reply.Model)
		return llm.NewClient(cfg.Reply.BaseURL, cfg.Reply.APIKey, cfg.Reply.Model, cfg.Reply.TokenBudget)
	}
	logger.Info("reply_generator", "provider", "canned")
	return &llm.Canned{}
}

// Run starts the sweeper and the HTTP server, and blocks until ctx is
// canceled or a fatal server error occurs. In-flight reply requests are
// drained before returning.
func (a *App) Run(ctx context.Context) error {
	sweepCancel, err := sweep.Start(ctx, a.eff.Config.Sweep, a.dir)
	if err != nil {
		return err
	}
	defer sweepCancel()

	a.printBanner()

	errCh := a.startHTTP()

	select {
	case <-ctx.Done():
		a.shutdownHTTP()
		a.orc.Drain()
		if err := a.st.Close(); err != nil {
			logger.Error("store_close_failed", "error", err)
		}
		return nil
	case err := <-errCh:
		a.orc.Drain()
		_ = a.st.Close()
		return err
	}
}
