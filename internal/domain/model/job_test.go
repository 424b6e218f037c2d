package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/errors"
)

func TestJobName_Valid(t *testing.T) {
	for _, n := range AllJobNames() {
		assert.True(t, n.Valid(), n)
	}
	assert.False(t, JobName("inventory").Valid())
	assert.False(t, JobName("").Valid())
}

func TestParseJobName(t *testing.T) {
	got, err := ParseJobName("  Payment ")
	require.NoError(t, err)
	assert.Equal(t, JobPayment, got)

	_, err = ParseJobName("inventory")
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
	assert.Equal(t, "job", apperrors.GetField(err))
	assert.Contains(t, err.Error(), "user, order, payment, notification")
}

func TestJobName_UnmarshalText(t *testing.T) {
	var n JobName
	require.NoError(t, n.UnmarshalText([]byte("order")))
	assert.Equal(t, JobOrder, n)
	assert.Error(t, n.UnmarshalText([]byte("bogus")))
}

func TestCatalog(t *testing.T) {
	jobs := Jobs()
	require.Len(t, jobs, 4)

	schedules := map[JobName]string{}
	for i, j := range jobs {
		assert.Equal(t, AllJobNames()[i], j.Name, "catalog is in run order")
		assert.Len(t, j.Variants, 2, "%s has one variant per schema version", j.Name)
		assert.NotEmpty(t, j.Target.KeyColumns)
		assert.NotContains(t, j.Target.KeyColumns, "schema_version")
		assert.Contains(t, j.Target.ValueColumns, "schema_version")
		schedules[j.Name] = j.Schedule
	}
	assert.Equal(t, map[JobName]string{
		JobUser:         "0 2 * * *",
		JobOrder:        "0 3 * * *",
		JobPayment:      "0 4 * * *",
		JobNotification: "0 5 * * *",
	}, schedules)
}

func TestJobs_ReturnsCopies(t *testing.T) {
	jobs := Jobs()
	jobs[1].DefaultParams["statuses"] = []string{"mutated"}

	order, err := LookupJob(JobOrder)
	require.NoError(t, err)
	assert.Equal(t, []string{"completed", "pending", "cancelled"}, order.DefaultParams["statuses"])
}

func TestLookupJob(t *testing.T) {
	n, err := LookupJob(JobNotification)
	require.NoError(t, err)
	assert.Equal(t, FlagV1Schema, n.RoutingFlag)
	targets := n.Targets()
	require.Len(t, targets, 2)
	assert.Equal(t, "notification_analytics", targets[0].Name)
	assert.Equal(t, "channel_analytics", targets[1].Name)

	p, err := LookupJob(JobPayment)
	require.NoError(t, err)
	assert.Equal(t, FlagLegacyPayments, p.RoutingFlag)

	_, err = LookupJob("nope")
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestTargetTables(t *testing.T) {
	var names []string
	for _, tbl := range TargetTables() {
		names = append(names, tbl.Name)
	}
	assert.Equal(t, []string{
		"user_analytics", "order_analytics", "payment_analytics",
		"notification_analytics", "channel_analytics",
	}, names)
}

func TestTargetTable_Columns(t *testing.T) {
	tbl := TargetTable{Name: "t", KeyColumns: []string{"a", "b"}, ValueColumns: []string{"c"}}
	assert.Equal(t, []string{"a", "b", "c"}, tbl.Columns())
}

func TestQueryVariant_MissingParams(t *testing.T) {
	v := QueryVariant{Params: []string{"start_date", "end_date", "statuses"}}

	assert.Empty(t, v.MissingParams(Params{"start_date": 1, "end_date": 2, "statuses": 3, "extra": 4}))
	assert.Equal(t, []string{"statuses"}, v.MissingParams(Params{"start_date": 1, "end_date": 2}))
	assert.Equal(t, []string{"end_date"}, v.MissingParams(Params{"start_date": 1, "end_date": nil, "statuses": 3}))
}

func TestParams_With(t *testing.T) {
	base := Params{"a": 1, "b": 2}
	got := base.With(Params{"b": 3, "c": 4})

	assert.Equal(t, Params{"a": 1, "b": 3, "c": 4}, got)
	assert.Equal(t, Params{"a": 1, "b": 2}, base)
	assert.Equal(t, []string{"a", "b", "c"}, got.Names())
	assert.Equal(t, Params{}, Params(nil).Clone())
}
