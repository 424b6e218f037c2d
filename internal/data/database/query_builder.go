// Package database builds identifier-safe SQL for the warehouse repositories.
package database

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ConditionType is a comparison operator usable in a list query.
type ConditionType string

const (
	Equal              ConditionType = "="
	NotEqual           ConditionType = "!="
	GreaterThan        ConditionType = ">"
	LessThan           ConditionType = "<"
	LessThanOrEqual    ConditionType = "<="
	GreaterThanOrEqual ConditionType = ">="
	// Any matches a column against an array parameter.
	Any ConditionType = "ANY"

	defaultLimit = -1
)

// Condition compares one column with one bound value.
type Condition struct {
	Field string
	Type  ConditionType
	Value any
}

// WhereCond returns a condition on field.
func WhereCond(field string, condType ConditionType, value any) Condition {
	return Condition{Field: field, Type: condType, Value: value}
}

// ListQueryOptions describes a single-table SELECT.
type ListQueryOptions struct {
	Table      string
	Columns    []string
	Conditions []Condition
	OrderBy    string
	OrderDir   string
	Limit      int
}

// ListQueryOption mutates ListQueryOptions.
type ListQueryOption func(*ListQueryOptions)

// NewListQueryOptions returns options for table with opts applied.
func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	options := &ListQueryOptions{Table: table, Limit: defaultLimit}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithColumns sets the columns to select.
func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) { o.Columns = cols }
}

// WithCondition adds a single condition. Conditions with an empty field are dropped.
func WithCondition(cond Condition) ListQueryOption {
	return func(o *ListQueryOptions) { o.Conditions = append(o.Conditions, cond) }
}

// WithOrderBy sets the ordering column and direction.
func WithOrderBy(column, direction string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.OrderBy = column
		o.OrderDir = direction
	}
}

// WithLimit sets the limit. Accepts 0.
func WithLimit(limit int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// sanitizeIdentifier wraps a single string identifier for sanitization.
func sanitizeIdentifier(ident string) string {
	return pgx.Identifier{ident}.Sanitize()
}

// sanitizeQualifiedIdentifier sanitizes identifiers like "schema.table".
func sanitizeQualifiedIdentifier(ident string) string {
	return pgx.Identifier(strings.Split(ident, ".")).Sanitize()
}

func sanitizeAll(idents []string) []string {
	out := make([]string, len(idents))
	for i, id := range idents {
		out[i] = sanitizeIdentifier(id)
	}
	return out
}

// BuildListQuery constructs a SELECT and its positional arguments.
//
//	query, args := BuildListQuery(NewListQueryOptions("etl_runs",
//		WithColumns("id", "job_name"),
//		WithCondition(WhereCond("job_name", Equal, "user")),
//		WithOrderBy("started_at", "DESC"),
//		WithLimit(20),
//	))
func BuildListQuery(options *ListQueryOptions) (string, []any) {
	if options == nil {
		return "", nil
	}

	var query strings.Builder
	query.WriteString("SELECT ")
	if len(options.Columns) == 0 {
		query.WriteString("*")
	} else {
		query.WriteString(strings.Join(sanitizeAll(options.Columns), ", "))
	}
	query.WriteString(" FROM ")
	query.WriteString(sanitizeQualifiedIdentifier(options.Table))

	var (
		where []string
		args  []any
	)
	for _, cond := range options.Conditions {
		if cond.Field == "" {
			continue
		}
		args = append(args, cond.Value)
		field := sanitizeIdentifier(cond.Field)
		switch cond.Type {
		case Any:
			where = append(where, fmt.Sprintf("%s = ANY($%d)", field, len(args)))
		case NotEqual, GreaterThan, LessThan, LessThanOrEqual, GreaterThanOrEqual:
			where = append(where, fmt.Sprintf("%s %s $%d", field, cond.Type, len(args)))
		default:
			where = append(where, fmt.Sprintf("%s = $%d", field, len(args)))
		}
	}
	if len(where) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(where, " AND "))
	}

	if options.OrderBy != "" {
		query.WriteString(" ORDER BY ")
		query.WriteString(sanitizeQualifiedIdentifier(options.OrderBy))
		if dir := strings.ToUpper(options.OrderDir); dir == "ASC" || dir == "DESC" {
			query.WriteString(" ")
			query.WriteString(dir)
		}
	}
	if options.Limit != defaultLimit {
		args = append(args, options.Limit)
		fmt.Fprintf(&query, " LIMIT $%d", len(args))
	}
	return query.String(), args
}

// UpsertOptions describes an INSERT ... ON CONFLICT DO UPDATE for one row.
type UpsertOptions struct {
	Table        string
	KeyColumns   []string
	ValueColumns []string
	// TouchColumn, when set, is assigned now() on update.
	TouchColumn string
}

// BuildUpsert returns a single-row upsert with positional parameters for KeyColumns then ValueColumns.
func BuildUpsert(opts UpsertOptions) string {
	cols := append(append([]string{}, opts.KeyColumns...), opts.ValueColumns...)
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	sets := make([]string, 0, len(opts.ValueColumns)+1)
	for _, col := range opts.ValueColumns {
		c := sanitizeIdentifier(col)
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}
	if opts.TouchColumn != "" {
		sets = append(sets, sanitizeIdentifier(opts.TouchColumn)+" = now()")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) ",
		sanitizeQualifiedIdentifier(opts.Table),
		strings.Join(sanitizeAll(cols), ", "),
		strings.Join(placeholders, ", "),
		strings.Join(sanitizeAll(opts.KeyColumns), ", "),
	)
	if len(sets) == 0 {
		b.WriteString("DO NOTHING")
	} else {
		b.WriteString("DO UPDATE SET ")
		b.WriteString(strings.Join(sets, ", "))
	}
	return b.String()
}
