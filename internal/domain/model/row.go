package model

import (
	"fmt"
	"maps"
	"math"
	"math/big"
	"slices"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ResultRow is one row returned by a query or produced by a transform, keyed by column name.
type ResultRow map[string]any

// Clone returns a shallow copy of r.
func (r ResultRow) Clone() ResultRow {
	return maps.Clone(r)
}

// Columns returns the row's column names sorted.
func (r ResultRow) Columns() []string {
	return slices.Sorted(maps.Keys(r))
}

// Int64 converts the value at col to int64. Missing or NULL values yield 0.
func (r ResultRow) Int64(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case int16:
		return int64(v)
	case float64:
		return int64(v)
	case pgtype.Numeric:
		i, err := v.Int64Value()
		if err != nil || !i.Valid {
			return int64(r.Float64(col))
		}
		return i.Int64
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

// Float64 converts the value at col to float64. Missing or NULL values yield 0.
func (r ResultRow) Float64(col string) float64 {
	switch v := r[col].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case int:
		return float64(v)
	case pgtype.Numeric:
		f, err := v.Float64Value()
		if err != nil || !f.Valid {
			return 0
		}
		return f.Float64
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

// Numeric converts the value at col to an exact pgtype.Numeric. NULL stays invalid.
func (r ResultRow) Numeric(col string) pgtype.Numeric {
	switch v := r[col].(type) {
	case pgtype.Numeric:
		return v
	case int64:
		return pgtype.Numeric{Int: big.NewInt(v), Valid: true}
	case int32:
		return pgtype.Numeric{Int: big.NewInt(int64(v)), Valid: true}
	case int:
		return pgtype.Numeric{Int: big.NewInt(int64(v)), Valid: true}
	case float64:
		var n pgtype.Numeric
		if err := n.Scan(strconv.FormatFloat(v, 'f', -1, 64)); err != nil {
			return pgtype.Numeric{}
		}
		return n
	case string:
		var n pgtype.Numeric
		if err := n.Scan(v); err != nil {
			return pgtype.Numeric{}
		}
		return n
	default:
		return pgtype.Numeric{}
	}
}

// NullableFloat64 returns nil for a missing or NULL value, otherwise the float value.
func (r ResultRow) NullableFloat64(col string) any {
	v, ok := r[col]
	if !ok || v == nil {
		return nil
	}
	if n, isNum := v.(pgtype.Numeric); isNum && !n.Valid {
		return nil
	}
	return r.Float64(col)
}

// String converts the value at col to its text form. Missing or NULL values yield "".
func (r ResultRow) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.Format(DateLayout)
	case pgtype.Date:
		if !v.Valid {
			return ""
		}
		return v.Time.Format(DateLayout)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Round2 rounds f to two decimal places.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// Percent returns num/den*100 rounded to two places, or 0 when den is not positive.
func Percent(num, den int64) float64 {
	if den <= 0 {
		return 0
	}
	return Round2(float64(num) / float64(den) * 100)
}
