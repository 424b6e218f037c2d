package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/bootstrap"
)

const defaultMigrationTimeout = 5 * time.Minute

type migrateOptions struct {
	Timeout time.Duration
}

func parseMigrateFlags(cmdCtx *commandContext, args []string) (migrateOptions, error) {
	fs := newFlagSet("migrate", cmdCtx.Stderr)
	var opts migrateOptions
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "maximum time to wait for migrations")
	if err := parseFlags(fs, args); err != nil {
		return opts, err
	}
	if opts.Timeout <= 0 {
		return opts, usagef("--timeout must be positive")
	}
	return opts, nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(cmdCtx, args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Warehouse,
		Logger:   cmdCtx.Logger,
		Label:    "warehouse",
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	cmdCtx.Logger.Info("running database migrations")

	applied, err := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger)
	if err != nil {
		return err
	}

	if len(applied) == 0 {
		return writeln(cmdCtx.Stdout, "warehouse schema is up to date")
	}
	for _, version := range applied {
		if err := writef(cmdCtx.Stdout, "applied %s\n", version); err != nil {
			return err
		}
	}
	return nil
}
