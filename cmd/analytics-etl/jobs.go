package main

import (
	"errors"
	"strings"
	"time"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/orchestrator"
)

const jobAll = "all"

type runOptions struct {
	Job       string
	StartDate string
	EndDate   string
	DaysBack  int
	DryRun    bool
}

type triggerOptions struct {
	Job         model.JobName
	LogicalDate time.Time
	DryRun      bool
}

type backfillOptions struct {
	Job       model.JobName
	Start     time.Time
	End       time.Time
	BatchDays int
	DryRun    bool
}

// splitPositional lets a positional argument come before or after the flags.
func splitPositional(args []string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return "", args
}

func positionalAfterFlags(name, positional string, extra []string) (string, error) {
	switch {
	case len(extra) == 0:
		return positional, nil
	case positional == "" && len(extra) == 1:
		return extra[0], nil
	default:
		return "", usagef("%s: unexpected arguments %v", name, extra)
	}
}

func parseRunFlags(cmdCtx *commandContext, args []string) (runOptions, error) {
	positional, rest := splitPositional(args)

	fs := newFlagSet("run", cmdCtx.Stderr)
	var opts runOptions
	fs.StringVar(&opts.StartDate, "start-date", "", "window start (YYYY-MM-DD); default end-date minus days-back")
	fs.StringVar(&opts.EndDate, "end-date", "", "window end, exclusive (YYYY-MM-DD); default today")
	fs.IntVar(&opts.DaysBack, "days-back", 1, "days to process when start-date is not set")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "extract and transform without writing to the warehouse")
	if err := parseFlags(fs, rest); err != nil {
		return opts, err
	}

	job, err := positionalAfterFlags("run", positional, fs.Args())
	if err != nil {
		return opts, err
	}
	opts.Job = job
	if opts.Job == "" {
		opts.Job = jobAll
	}
	if opts.Job != jobAll && !model.JobName(opts.Job).Valid() {
		return opts, usagef("unknown job %q (choose all or one of %s)", opts.Job, jobChoices())
	}
	return opts, nil
}

// resolveWindow defaults end to today (UTC midnight) and start to end minus DaysBack.
func resolveWindow(opts runOptions, now time.Time) (model.Window, error) {
	end := model.StartOfDay(now.UTC())
	if opts.EndDate != "" {
		parsed, err := model.ParseDate(opts.EndDate)
		if err != nil {
			return model.Window{}, usageError{err: err}
		}
		end = parsed
	}

	if opts.StartDate != "" {
		start, err := model.ParseDate(opts.StartDate)
		if err != nil {
			return model.Window{}, usageError{err: err}
		}
		// An inverted window reaches the runner, which rejects it as a parameter error.
		return model.Window{Start: start, End: end}, nil
	}

	if opts.DaysBack <= 0 {
		return model.Window{}, usagef("--days-back must be positive, got %d", opts.DaysBack)
	}
	return model.Window{Start: end.AddDate(0, 0, -opts.DaysBack), End: end}, nil
}

func runJobs(cmdCtx *commandContext, args []string) error {
	opts, err := parseRunFlags(cmdCtx, args)
	if err != nil {
		return err
	}
	window, err := resolveWindow(opts, cmdCtx.Now())
	if err != nil {
		return err
	}

	cmdCtx.Logger.InfoContext(cmdCtx.Ctx, "running etl",
		"job", opts.Job,
		"window", window.String(),
		"dry_run", opts.DryRun,
	)

	return withApp(cmdCtx, func(app appRuntime) error {
		if opts.Job == jobAll {
			results, runErr := app.Orchestrator().RunAll(cmdCtx.Ctx, window, opts.DryRun)
			if printErr := printRuns(cmdCtx.Stdout, results); printErr != nil {
				return errors.Join(runErr, printErr)
			}
			return runErr
		}

		result, runErr := app.Runner().Run(cmdCtx.Ctx, model.RunRequest{
			Job:    model.JobName(opts.Job),
			Window: window,
			DryRun: opts.DryRun,
		})
		if result != nil {
			if printErr := printRuns(cmdCtx.Stdout, []*model.RunResult{result}); printErr != nil {
				return errors.Join(runErr, printErr)
			}
		}
		return runErr
	})
}

func parseTriggerFlags(cmdCtx *commandContext, args []string) (triggerOptions, error) {
	positional, rest := splitPositional(args)

	fs := newFlagSet("trigger", cmdCtx.Stderr)
	var (
		opts    triggerOptions
		rawDate string
	)
	fs.StringVar(&rawDate, "logical-date", "", "scheduler logical date (YYYY-MM-DD); the day before it is processed")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "extract and transform without writing to the warehouse")
	if err := parseFlags(fs, rest); err != nil {
		return opts, err
	}

	job, err := parseJobArg("trigger", positional, fs.Args())
	if err != nil {
		return opts, err
	}
	opts.Job = job

	if rawDate == "" {
		return opts, usagef("--logical-date is required")
	}
	if opts.LogicalDate, err = model.ParseDate(rawDate); err != nil {
		return opts, usageError{err: err}
	}
	return opts, nil
}

func runTrigger(cmdCtx *commandContext, args []string) error {
	opts, err := parseTriggerFlags(cmdCtx, args)
	if err != nil {
		return err
	}

	return withApp(cmdCtx, func(app appRuntime) error {
		result, runErr := app.Orchestrator().Trigger(cmdCtx.Ctx, orchestrator.TriggerRequest{
			Job:         opts.Job,
			LogicalDate: opts.LogicalDate,
			DryRun:      opts.DryRun,
		})
		if result != nil {
			if printErr := printRuns(cmdCtx.Stdout, []*model.RunResult{result}); printErr != nil {
				return errors.Join(runErr, printErr)
			}
		}
		return runErr
	})
}

func parseBackfillFlags(cmdCtx *commandContext, args []string) (backfillOptions, error) {
	positional, rest := splitPositional(args)

	fs := newFlagSet("backfill", cmdCtx.Stderr)
	var (
		opts       backfillOptions
		start, end string
	)
	fs.StringVar(&start, "start-date", "", "backfill start (YYYY-MM-DD), required")
	fs.StringVar(&end, "end-date", "", "backfill end, exclusive (YYYY-MM-DD), required")
	fs.IntVar(&opts.BatchDays, "batch-days", orchestrator.DefaultBatchDays, "days per batch")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "extract and transform without writing to the warehouse")
	if err := parseFlags(fs, rest); err != nil {
		return opts, err
	}

	job, err := parseJobArg("backfill", positional, fs.Args())
	if err != nil {
		return opts, err
	}
	opts.Job = job

	if start == "" || end == "" {
		return opts, usagef("--start-date and --end-date are required")
	}
	if opts.Start, err = model.ParseDate(start); err != nil {
		return opts, usageError{err: err}
	}
	if opts.End, err = model.ParseDate(end); err != nil {
		return opts, usageError{err: err}
	}
	return opts, nil
}

func runBackfill(cmdCtx *commandContext, args []string) error {
	opts, err := parseBackfillFlags(cmdCtx, args)
	if err != nil {
		return err
	}

	return withApp(cmdCtx, func(app appRuntime) error {
		summary, runErr := app.Orchestrator().Backfill(cmdCtx.Ctx, orchestrator.BackfillRequest{
			Job:       opts.Job,
			Start:     opts.Start,
			End:       opts.End,
			BatchDays: opts.BatchDays,
			DryRun:    opts.DryRun,
		})
		if printErr := printBackfill(cmdCtx.Stdout, summary); printErr != nil {
			return errors.Join(runErr, printErr)
		}
		return runErr
	})
}

func parseJobArg(name, positional string, extra []string) (model.JobName, error) {
	raw, err := positionalAfterFlags(name, positional, extra)
	if err != nil {
		return "", err
	}
	if raw == "" {
		return "", usagef("%s: a job is required (one of %s)", name, jobChoices())
	}
	job := model.JobName(raw)
	if !job.Valid() {
		return "", usagef("unknown job %q (choose one of %s)", raw, jobChoices())
	}
	return job, nil
}

func jobChoices() string {
	names := model.AllJobNames()
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, string(n))
	}
	return strings.Join(out, ", ")
}
