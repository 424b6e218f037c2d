package main

import (
	"context"
	"log/slog"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/config"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/bootstrap"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/core"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/orchestrator"
)

// appRuntime is the part of the wired application the commands use.
type appRuntime interface {
	Runner() core.JobRunner
	Orchestrator() *orchestrator.Orchestrator
	ListRuns(ctx context.Context, opts model.RunListOptions) ([]*model.RunResult, error)
	Probes() []bootstrap.Probe
	Close() error
}

type wiredApp struct {
	app *bootstrap.App
}

func newApp(cfg config.AppConfig, logger *slog.Logger) (appRuntime, error) {
	app, err := bootstrap.NewApp(cfg, logger)
	if err != nil {
		return nil, err
	}
	return wiredApp{app: app}, nil
}

func (w wiredApp) Runner() core.JobRunner                   { return w.app.ETL }
func (w wiredApp) Orchestrator() *orchestrator.Orchestrator { return w.app.Orchestrator }
func (w wiredApp) Probes() []bootstrap.Probe                { return w.app.Probes() }
func (w wiredApp) Close() error                             { return w.app.Close() }

func (w wiredApp) ListRuns(ctx context.Context, opts model.RunListOptions) ([]*model.RunResult, error) {
	return w.app.Runs.List(ctx, opts)
}

// withApp connects, runs fn and closes the connections.
func withApp(cmdCtx *commandContext, fn func(app appRuntime) error) error {
	app, err := cmdCtx.NewApp(cmdCtx.Config, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("close connections failed", "error", closeErr)
		}
	}()
	return fn(app)
}
