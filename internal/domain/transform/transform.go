// Package transform turns extracted aggregate rows into warehouse rows for each job.
package transform

import (
	"fmt"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
	apperrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/errors"
)

// Output holds the rows destined for one warehouse table.
type Output struct {
	Table model.TargetTable
	Rows  []model.ResultRow
}

// RowFunc maps one extracted row to one warehouse row.
type RowFunc func(row model.ResultRow, version model.SchemaVersion) model.ResultRow

var rowFuncs = map[model.JobName]RowFunc{
	model.JobUser:         userRow,
	model.JobOrder:        orderRow,
	model.JobPayment:      paymentRow,
	model.JobNotification: notificationRow,
}

// Apply transforms rows for job and returns one Output per target table, primary first.
func Apply(job model.AnalyticsJob, version model.SchemaVersion, rows []model.ResultRow) ([]Output, error) {
	fn, ok := rowFuncs[job.Name]
	if !ok {
		return nil, apperrors.ConfigurationField("job", fmt.Sprintf("no transform registered for job %q", job.Name))
	}
	if !version.Valid() {
		return nil, apperrors.Configurationf("unknown schema version %q", version)
	}

	primary := make([]model.ResultRow, 0, len(rows))
	for _, row := range rows {
		out := fn(row, version)
		out["schema_version"] = string(version)
		primary = append(primary, out)
	}

	outputs := []Output{{Table: job.Target, Rows: primary}}
	for _, tbl := range job.Secondary {
		agg, err := aggregate(tbl, primary, version)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, Output{Table: tbl, Rows: agg})
	}
	return outputs, nil
}

// GuardRows rejects rows whose columns break the exposure rules of version.
func GuardRows(version model.SchemaVersion, rows []model.ResultRow) error {
	seen := make(map[string]struct{})
	var cols []string
	for _, row := range rows {
		for col := range row {
			if _, ok := seen[col]; ok {
				continue
			}
			seen[col] = struct{}{}
			cols = append(cols, col)
		}
	}
	if err := model.CheckExposure(version, cols); err != nil {
		return fmt.Errorf("row guard: %w", err)
	}
	return nil
}

func aggregate(tbl model.TargetTable, rows []model.ResultRow, version model.SchemaVersion) ([]model.ResultRow, error) {
	switch tbl.Name {
	case "channel_analytics":
		return channelRows(rows, version), nil
	default:
		return nil, apperrors.Configurationf("no aggregation registered for table %q", tbl.Name)
	}
}
