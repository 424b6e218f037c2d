package queries

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
	apperrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/errors"
)

func TestLoad_AllCatalogVariantsPresent(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	for _, job := range model.Jobs() {
		for version, name := range job.Variants {
			v, getErr := reg.Get(name)
			require.NoError(t, getErr, name)
			assert.Equal(t, job.Name, v.Job)
			assert.Equal(t, version, v.Version)
			assert.Contains(t, v.Params, "start_date")
			assert.Contains(t, v.Params, "end_date")
		}
	}
	assert.Len(t, reg.Variants(), 8)
}

func TestVariantsNeverInterpolate(t *testing.T) {
	reg := MustLoad()
	for _, v := range reg.Variants() {
		assert.NotContains(t, v.SQL, "%s", v.Name)
		assert.NotContains(t, v.SQL, "{", v.Name)
		assert.NotContains(t, v.SQL, "--", v.Name, "header should be stripped from the body")
	}
}

// Windows are cut at UTC midnight, so day buckets must not follow the session TimeZone.
func TestVariantsBucketDaysInUTC(t *testing.T) {
	reg := MustLoad()
	for _, v := range reg.Variants() {
		assert.NotContains(t, strings.ToUpper(v.SQL), "DATE(", v.Name)
		assert.Contains(t, v.SQL, "AT TIME ZONE 'UTC')::date", v.Name)
	}
}

func TestVariantExposure(t *testing.T) {
	reg := MustLoad()
	for _, v := range reg.Variants() {
		for _, col := range v.Columns {
			switch v.Version {
			case model.SchemaV1:
				assert.False(t, model.IsTokenColumn(col), "%s exposes token column %s", v.Name, col)
			case model.SchemaV2:
				assert.False(t, model.IsRawPIIColumn(col), "%s exposes raw PII column %s", v.Name, col)
			}
		}
		// Declared columns must actually be selected.
		for _, col := range v.Columns {
			assert.True(t, strings.Contains(v.SQL, col), "%s does not select %s", v.Name, col)
		}
	}
}

func TestJobSpecificParams(t *testing.T) {
	reg := MustLoad()

	order, err := reg.Get("order_v2")
	require.NoError(t, err)
	assert.Equal(t, []string{"start_date", "end_date", "statuses"}, order.Params)

	notif, err := reg.Get("notification_v1")
	require.NoError(t, err)
	assert.Equal(t, []string{"start_date", "end_date", "channels"}, notif.Params)

	payment, err := reg.Get("payment_v2")
	require.NoError(t, err)
	assert.Equal(t, []string{"start_date", "end_date"}, payment.Params)
}

func TestGet_Unknown(t *testing.T) {
	reg := MustLoad()
	_, err := reg.Get("billing_v2")
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantErr   bool
		wantParam []string
	}{
		{
			name: "valid",
			src: `-- name: custom
-- job: user
-- version: v2
-- columns: a, b
SELECT 1 AS a, 2 AS b WHERE x >= @start_date AND y < @end_date AND z = @start_date -- @ignored
`,
			wantParam: []string{"start_date", "end_date"},
		},
		{
			name:    "unknown job",
			src:     "-- job: billing\n-- version: v2\n-- columns: a\nSELECT 1",
			wantErr: true,
		},
		{
			name:    "missing columns",
			src:     "-- job: user\n-- version: v1\nSELECT 1",
			wantErr: true,
		},
		{
			name:    "v2 exposing email",
			src:     "-- job: user\n-- version: v2\n-- columns: email\nSELECT email FROM users_v2",
			wantErr: true,
		},
		{
			name:    "v1 exposing token",
			src:     "-- job: user\n-- version: v1\n-- columns: user_token\nSELECT user_token FROM users_legacy",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse("fallback", []byte(tt.src))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsConfiguration(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "custom", v.Name)
			assert.Equal(t, tt.wantParam, v.Params)
		})
	}
}

func TestPlaceholderNames_IgnoresEmailLikeText(t *testing.T) {
	got := PlaceholderNames("SELECT 1 WHERE a = @a_1 -- contact ops@example.com\nAND b = @b")
	assert.Equal(t, []string{"a_1", "b"}, got)
}
