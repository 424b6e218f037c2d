package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/orchestrator"
	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/util"
)

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	if len(args) == 0 {
		_, err := fmt.Fprintln(w)
		return err
	}
	_, err := fmt.Fprintln(w, args...)
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func joinNames(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}

func printRuns(w io.Writer, runs []*model.RunResult) error {
	if len(runs) == 0 {
		return writeln(w, "(no runs)")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "RUN\tJOB\tSCHEMA\tWINDOW\tSTATUS\tEXTRACTED\tDEDUPED\tLOADED\tDURATION\tERROR\n"); err != nil {
		return err
	}
	for _, r := range runs {
		if r == nil {
			continue
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			shortID(r.ID),
			r.Job,
			orDash(string(r.SchemaVersion)),
			r.Window.String(),
			runStatus(r),
			r.RowsExtracted,
			r.RowsDeduplicated,
			r.RowsLoaded,
			util.FormatRunDuration(r.Duration()),
			orDash(r.Error),
		); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush runs table: %w", err)
	}
	return nil
}

func runStatus(r *model.RunResult) string {
	status := string(r.Status)
	if r.DryRun {
		status += " (dry-run)"
	}
	if r.Partial {
		status += " (partial)"
	}
	return status
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return orDash(id)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printBackfill(w io.Writer, summary orchestrator.BackfillSummary) error {
	if err := printRuns(w, summary.Results); err != nil {
		return err
	}
	if err := writef(w, "\nBackfill %s: %d batches, %d succeeded, %d failed\n",
		summary.Job, summary.Total, summary.Successful, summary.Failed); err != nil {
		return err
	}
	for _, window := range summary.FailedWindows {
		if err := writef(w, "  failed: %s\n", window.String()); err != nil {
			return err
		}
	}
	return nil
}

func printStatus(w io.Writer, report statusReport) error {
	s := report.Summary
	lines := []string{
		"=== AcmeShop Analytics ETL ===",
		"",
		"Configuration:",
		"  Environment:    " + s.Environment,
		"  Warehouse:      " + s.Warehouse,
		"  Source:         " + s.Source,
		fmt.Sprintf("  Redis lock:     %t (%s)", s.Redis.Enabled, s.Redis.Mode),
		fmt.Sprintf("  Batch size:     %d", s.BatchSize),
		"  Lock TTL:       " + s.LockTTL,
		"  Query timeout:  " + s.QueryTimeout,
		"  Token salt:     " + orDash(s.TokenSalt),
		"  Encryption key: " + orDash(s.EncryptionKey),
		fmt.Sprintf("  Metrics:        %t", s.Metrics),
		"  Notifications:  " + joinNames(s.Notifications),
		"",
		"Feature Flags:",
	}
	for _, line := range lines {
		if err := writeln(w, line); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(s.Flags))
	for name := range s.Flags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %s: %t\n", name, s.Flags[name]); err != nil {
			return err
		}
	}

	if len(s.Warnings) > 0 {
		if err := writeln(w); err != nil {
			return err
		}
		for _, warning := range s.Warnings {
			if err := writef(w, "WARNING: %s\n", warning); err != nil {
				return err
			}
		}
	}

	if len(report.Probes) > 0 {
		if err := writef(w, "\nConnectivity:\n"); err != nil {
			return err
		}
		for _, p := range report.Probes {
			state := "ok"
			if !p.OK {
				state = "FAILED: " + p.Error
			}
			if err := writef(w, "  %-10s %s (%s)\n", p.Name, state, p.Latency); err != nil {
				return err
			}
		}
	}
	return nil
}
