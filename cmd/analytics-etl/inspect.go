package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jmespath-community/go-jmespath"
	"golang.org/x/sync/errgroup"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/config"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/bootstrap"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/data"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/router"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/queries"
)

const probeTimeout = 5 * time.Second

type statusOptions struct {
	JSON  bool
	Probe bool
}

type historyOptions struct {
	Job   model.JobName
	Limit int
	Query string
}

// probeResult is the outcome of one connectivity check.
type probeResult struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency"`
}

type statusReport struct {
	config.Summary
	Probes []probeResult `json:"probes,omitempty"`
}

func runStatus(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("status", cmdCtx.Stderr)
	var opts statusOptions
	fs.BoolVar(&opts.JSON, "json", false, "print the report as JSON")
	fs.BoolVar(&opts.Probe, "probe", false, "check warehouse, source and Redis connectivity")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	report := statusReport{Summary: cmdCtx.Config.Summarize()}

	var probeErr error
	if opts.Probe {
		probeErr = withApp(cmdCtx, func(app appRuntime) error {
			var err error
			report.Probes, err = runProbes(cmdCtx.Ctx, app.Probes())
			return err
		})
	}

	var printErr error
	if opts.JSON {
		printErr = printJSON(cmdCtx.Stdout, report)
	} else {
		printErr = printStatus(cmdCtx.Stdout, report)
	}
	return errors.Join(probeErr, printErr)
}

// runProbes checks every probe concurrently. All probes run to completion; the error
// is the first failure.
func runProbes(ctx context.Context, probes []bootstrap.Probe) ([]probeResult, error) {
	results := make([]probeResult, len(probes))

	var g errgroup.Group
	for i, p := range probes {
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
			defer cancel()

			started := time.Now()
			err := p.Check(probeCtx)
			results[i] = probeResult{Name: p.Name, OK: err == nil, Latency: time.Since(started).Round(time.Millisecond).String()}
			if err != nil {
				results[i].Error = err.Error()
				return fmt.Errorf("probe %s: %w", p.Name, err)
			}
			return nil
		})
	}
	return results, g.Wait()
}

func parseHistoryFlags(cmdCtx *commandContext, args []string) (historyOptions, error) {
	fs := newFlagSet("history", cmdCtx.Stderr)
	var (
		opts historyOptions
		job  string
	)
	fs.StringVar(&job, "job", "", "only runs of this job")
	fs.IntVar(&opts.Limit, "limit", data.DefaultRunListLimit, "maximum runs to list")
	fs.StringVar(&opts.Query, "query", "", "JMESPath expression applied to the JSON run list")
	if err := parseFlags(fs, args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, usagef("history: unexpected arguments %v", fs.Args())
	}
	if job != "" {
		opts.Job = model.JobName(job)
		if !opts.Job.Valid() {
			return opts, usagef("unknown job %q (choose one of %s)", job, jobChoices())
		}
	}
	if opts.Limit <= 0 {
		return opts, usagef("--limit must be positive, got %d", opts.Limit)
	}
	if opts.Query != "" {
		if _, err := jmespath.Compile(opts.Query); err != nil {
			return opts, usagef("invalid --query: %v", err)
		}
	}
	return opts, nil
}

func runHistory(cmdCtx *commandContext, args []string) error {
	opts, err := parseHistoryFlags(cmdCtx, args)
	if err != nil {
		return err
	}

	return withApp(cmdCtx, func(app appRuntime) error {
		runs, listErr := app.ListRuns(cmdCtx.Ctx, model.RunListOptions{Job: opts.Job, Limit: opts.Limit})
		if listErr != nil {
			return listErr
		}
		if opts.Query == "" {
			return printRuns(cmdCtx.Stdout, runs)
		}
		result, queryErr := queryRuns(runs, opts.Query)
		if queryErr != nil {
			return queryErr
		}
		return printJSON(cmdCtx.Stdout, result)
	})
}

// queryRuns evaluates expr against the JSON form of runs, so field names match `history` JSON.
func queryRuns(runs []*model.RunResult, expr string) (any, error) {
	raw, err := json.Marshal(runs)
	if err != nil {
		return nil, fmt.Errorf("encode runs: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode runs: %w", err)
	}
	result, err := jmespath.Search(expr, doc)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return result, nil
}

// jobRoute is one row of the jobs listing.
type jobRoute struct {
	Job      model.JobName
	Schedule string
	Targets  []string
	Flag     model.FlagName
	Variant  string
	Err      error
}

func routeJobs(flags model.FeatureFlagSet) ([]jobRoute, error) {
	registry, err := queries.Load()
	if err != nil {
		return nil, fmt.Errorf("load queries: %w", err)
	}
	r := router.New(registry)

	jobs := model.Jobs()
	out := make([]jobRoute, 0, len(jobs))
	for _, job := range jobs {
		row := jobRoute{Job: job.Name, Schedule: job.Schedule, Flag: job.RoutingFlag}
		for _, t := range job.Targets() {
			row.Targets = append(row.Targets, t.Name)
		}
		variant, routeErr := r.Route(job.Name, flags)
		row.Variant, row.Err = variant.Name, routeErr
		out = append(out, row)
	}
	return out, nil
}

func runListJobs(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("jobs", cmdCtx.Stderr)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	routes, err := routeJobs(cmdCtx.Config.Flags.Set())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmdCtx.Stdout, 0, 0, 2, ' ', 0)
	if err := writef(tw, "JOB\tSCHEDULE\tTARGETS\tROUTING FLAG\tQUERY\n"); err != nil {
		return err
	}
	var routeErrs []error
	for _, r := range routes {
		variant := r.Variant
		if r.Err != nil {
			variant = "error: " + r.Err.Error()
			routeErrs = append(routeErrs, r.Err)
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\n", r.Job, r.Schedule, joinNames(r.Targets), r.Flag, variant); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush jobs table: %w", err)
	}
	return errors.Join(routeErrs...)
}
