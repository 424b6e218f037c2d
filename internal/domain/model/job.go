// Package model defines the core types of the analytics ETL: job definitions, query variants,
// feature flags, result rows, time windows and run results.
package model

import (
	"fmt"
	"slices"
	"strings"

	apperrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/errors"
)

// JobName identifies one analytics job.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobName string

const (
	// JobUser aggregates registrations per day.
	JobUser JobName = "user"
	// JobOrder aggregates orders per day and status.
	JobOrder JobName = "order"
	// JobPayment aggregates payments per day and method.
	JobPayment JobName = "payment"
	// JobNotification aggregates notification engagement per day, channel and type.
	JobNotification JobName = "notification"
)

// AllJobNames returns every job in run order.
func AllJobNames() []JobName {
	return []JobName{JobUser, JobOrder, JobPayment, JobNotification}
}

// Valid returns true if the JobName is a known job.
func (n JobName) Valid() bool {
	return slices.Contains(AllJobNames(), n)
}

// UnmarshalText implements encoding.TextUnmarshaler for JobName.
func (n *JobName) UnmarshalText(text []byte) error {
	parsed, err := ParseJobName(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// ParseJobName normalises s and returns a ConfigurationError for unknown jobs.
func ParseJobName(s string) (JobName, error) {
	n := JobName(strings.ToLower(strings.TrimSpace(s)))
	if !n.Valid() {
		return "", apperrors.ConfigurationField("job", fmt.Sprintf("unknown job %q (available: %s)", s, jobList()))
	}
	return n, nil
}

func jobList() string {
	names := make([]string, 0, 4)
	for _, n := range AllJobNames() {
		names = append(names, string(n))
	}
	return strings.Join(names, ", ")
}

// TargetTable describes a warehouse table and its natural key.
type TargetTable struct {
	Name         string
	KeyColumns   []string
	ValueColumns []string
}

// Columns returns key columns followed by value columns.
func (t TargetTable) Columns() []string {
	cols := make([]string, 0, len(t.KeyColumns)+len(t.ValueColumns))
	cols = append(cols, t.KeyColumns...)
	return append(cols, t.ValueColumns...)
}

// AnalyticsJob is the static definition of one job.
type AnalyticsJob struct {
	Name        JobName
	Description string
	// Schedule is the cron expression the external orchestrator uses.
	Schedule string
	// RoutingFlag selects the v1 variant when enabled (subject to ENABLE_LEGACY_ETL).
	RoutingFlag FlagName
	// Variants maps each schema version to the name of its query asset.
	Variants      map[SchemaVersion]string
	Target        TargetTable
	Secondary     []TargetTable
	DefaultParams Params
}

// Targets returns the primary target followed by any secondary targets.
func (j AnalyticsJob) Targets() []TargetTable {
	return append([]TargetTable{j.Target}, j.Secondary...)
}

var (
	userTarget = TargetTable{
		Name:       "user_analytics",
		KeyColumns: []string{"registration_date"},
		ValueColumns: []string{
			"total_registrations", "verified_users", "premium_signups",
			"verification_rate", "schema_version",
		},
	}
	orderTarget = TargetTable{
		Name:         "order_analytics",
		KeyColumns:   []string{"order_date", "status"},
		ValueColumns: []string{"order_count", "total_revenue", "avg_order_value", "schema_version"},
	}
	paymentTarget = TargetTable{
		Name:       "payment_analytics",
		KeyColumns: []string{"payment_date", "payment_method"},
		ValueColumns: []string{
			"transaction_count", "total_amount", "successful_count", "failed_count",
			"success_rate", "avg_processing_time_ms", "schema_version",
		},
	}
	notificationTarget = TargetTable{
		Name:       "notification_analytics",
		KeyColumns: []string{"notification_date", "channel", "notification_type"},
		ValueColumns: []string{
			"total_sent", "delivered", "opened", "clicked", "bounced", "failed",
			"delivery_rate", "open_rate", "click_rate", "click_through_rate", "schema_version",
		},
	}
	channelTarget = TargetTable{
		Name:       "channel_analytics",
		KeyColumns: []string{"notification_date", "channel"},
		ValueColumns: []string{
			"total_sent", "delivered", "opened", "clicked",
			"delivery_rate", "open_rate", "click_rate", "click_through_rate", "schema_version",
		},
	}
)

func catalog() []AnalyticsJob {
	return []AnalyticsJob{
		{
			Name:        JobUser,
			Description: "Daily registration, verification and premium signup counts",
			Schedule:    "0 2 * * *",
			RoutingFlag: FlagV1Schema,
			Variants:    map[SchemaVersion]string{SchemaV1: "user_v1", SchemaV2: "user_v2"},
			Target:      userTarget,
		},
		{
			Name:        JobOrder,
			Description: "Daily order counts and revenue per status",
			Schedule:    "0 3 * * *",
			RoutingFlag: FlagV1Schema,
			Variants:    map[SchemaVersion]string{SchemaV1: "order_v1", SchemaV2: "order_v2"},
			Target:      orderTarget,
			DefaultParams: Params{
				"statuses": []string{"completed", "pending", "cancelled"},
			},
		},
		{
			Name:        JobPayment,
			Description: "Daily payment volume and success rate per payment method",
			Schedule:    "0 4 * * *",
			RoutingFlag: FlagLegacyPayments,
			Variants:    map[SchemaVersion]string{SchemaV1: "payment_v1", SchemaV2: "payment_v2"},
			Target:      paymentTarget,
		},
		{
			Name:        JobNotification,
			Description: "Daily notification delivery and engagement per channel and type",
			Schedule:    "0 5 * * *",
			RoutingFlag: FlagV1Schema,
			Variants: map[SchemaVersion]string{
				SchemaV1: "notification_v1",
				SchemaV2: "notification_v2",
			},
			Target:    notificationTarget,
			Secondary: []TargetTable{channelTarget},
			DefaultParams: Params{
				"channels": []string{"email", "sms", "push"},
			},
		},
	}
}

// Jobs returns a fresh copy of the job catalog in run order.
func Jobs() []AnalyticsJob {
	return catalog()
}

// LookupJob returns the definition of the named job.
func LookupJob(name JobName) (AnalyticsJob, error) {
	for _, j := range catalog() {
		if j.Name == name {
			return j, nil
		}
	}
	return AnalyticsJob{}, apperrors.ConfigurationField("job", fmt.Sprintf("unknown job %q", name))
}

// TargetTables returns every warehouse table written by any job.
func TargetTables() []TargetTable {
	var out []TargetTable
	for _, j := range catalog() {
		out = append(out, j.Targets()...)
	}
	return out
}
