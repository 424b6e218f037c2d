// Command analytics-etl runs the AcmeShop analytics jobs by hand and inspects their state.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/config"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/bootstrap"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type commandFn func(cmdCtx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Stdout io.Writer
	Stderr io.Writer
	Now    func() time.Time
	// NewApp connects and wires the runtime; replaced in tests.
	NewApp func(cfg config.AppConfig, logger *slog.Logger) (appRuntime, error)
}

// usageError marks a bad invocation. It exits with status 2.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr)) //nolint:forbidigo // CLI must report its status to the scheduler
}

func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("analytics-etl", flag.ContinueOnError)
	global.SetOutput(stderr)
	verbose := global.Bool("v", false, "enable debug logging")
	jsonLogs := global.Bool("json-logs", false, "force JSON log output")
	global.Usage = func() { _ = printUsage(stderr) }

	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	rest := global.Args()
	if len(rest) == 0 {
		_ = printUsage(stderr)
		return exitUsage
	}

	cmdName := rest[0]
	cmd, ok := commands()[cmdName]
	if !ok {
		_ = writef(stderr, "unknown command %q\n\n", cmdName)
		_ = printUsage(stderr)
		return exitUsage
	}

	logger := bootstrap.InitLogger(bootstrap.LogOptionsFrom(config.LogConfig{}, *verbose, *jsonLogs))

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		return exitFailure
	}
	logger = bootstrap.InitLogger(bootstrap.LogOptionsFrom(cfg.Log, *verbose, *jsonLogs))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		Stdout: stdout,
		Stderr: stderr,
		Now:    func() time.Time { return time.Now().UTC() },
		NewApp: newApp,
	}

	runErr := cmd.run(cmdCtx, rest[1:])
	code := exitCode(runErr)
	switch code {
	case exitUsage:
		_ = writef(stderr, "%s: %v\n", cmdName, runErr)
	case exitFailure:
		logger.ErrorContext(ctx, "command failed", "command", cmdName, "error", runErr)
	}
	return code
}

func exitCode(err error) int {
	var usage usageError
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.As(err, &usage):
		return exitUsage
	default:
		return exitFailure
	}
}

func commands() map[string]command {
	return map[string]command{
		"run": {
			name:        "run",
			description: "Run one job or all jobs over a date window",
			run:         runJobs,
		},
		"trigger": {
			name:        "trigger",
			description: "Run a job for the day before a logical date (scheduler entry point)",
			run:         runTrigger,
		},
		"backfill": {
			name:        "backfill",
			description: "Re-process a date range for one job in batches",
			run:         runBackfill,
		},
		"status": {
			name:        "status",
			description: "Show configuration, feature flags and warnings",
			run:         runStatus,
		},
		"history": {
			name:        "history",
			description: "List recent runs from etl_runs",
			run:         runHistory,
		},
		"jobs": {
			name:        "jobs",
			description: "List the job catalog and the query each job routes to",
			run:         runListJobs,
		},
		"migrate": {
			name:        "migrate",
			description: "Run warehouse database migrations",
			run:         runMigrations,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: analytics-etl [-v] [--json-logs] <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-10s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

// newFlagSet returns a FlagSet whose parse errors surface as usage errors.
func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usageError{err: err}
	}
	return nil
}
