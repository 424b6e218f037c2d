package pii

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
	apperrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/errors"
)

func newTestTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := NewTokenizer("test-salt")
	require.NoError(t, err)
	return tok
}

func TestTokenizer(t *testing.T) {
	tok := newTestTokenizer(t)

	token := tok.Tokenize("value", PrefixUser)
	assert.True(t, strings.HasPrefix(token, "usr_"))
	assert.Len(t, token, len("usr_")+16)
	assert.Equal(t, token, tok.Tokenize("value", PrefixUser), "tokens must be stable")
	assert.NotEqual(t, token, tok.Tokenize("other", PrefixUser))
	assert.Empty(t, tok.Tokenize("", PrefixUser))

	other, err := NewTokenizer("different-salt")
	require.NoError(t, err)
	assert.NotEqual(t, token, other.Tokenize("value", PrefixUser), "salt must change the token")
}

func TestTokenizer_Normalisation(t *testing.T) {
	tok := newTestTokenizer(t)

	assert.Equal(t, tok.Email("jane@example.com"), tok.Email("  Jane@Example.COM "))
	assert.Equal(t, tok.Phone("555-123-4567"), tok.Phone("(555) 123 4567"))
	assert.Equal(t, tok.Name("Jane Doe"), tok.Name(" jane doe"))
	assert.True(t, strings.HasPrefix(tok.Email("a@b.c"), "eml_"))
	assert.True(t, strings.HasPrefix(tok.Phone("1234"), "phn_"))
}

func TestNewTokenizer_RequiresSalt(t *testing.T) {
	_, err := NewTokenizer("  ")
	require.ErrorIs(t, err, ErrMissingSalt)
}

func TestMasking(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"email", MaskEmail("jane@example.com"), "j***@example.com"},
		{"email subdomain reduced", MaskEmail("jane@mail.example.co.uk"), "j***@example.co.uk"},
		{"email invalid", MaskEmail("not-an-email"), "***"},
		{"phone", MaskPhone("+1 (555) 123-4567"), "***-***-4567"},
		{"phone short", MaskPhone("12"), "***-***-****"},
		{"card", MaskCard("4111 1111 1111 1234"), "****-****-****-1234"},
		{"card short", MaskCard("12"), "****-****-****-****"},
		{"name", MaskName("Jane Doe"), "J*** D***"},
		{"name unicode", MaskName("Émile"), "É***"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestModeFor(t *testing.T) {
	mode := func(version model.SchemaVersion, flags model.FeatureFlagSet) Mode {
		t.Helper()
		m, err := ModeFor(version, flags)
		require.NoError(t, err)
		return m
	}

	flags := model.DefaultFlagValues()
	assert.Equal(t, ModeTokenize, mode(model.SchemaV2, flags))
	assert.Equal(t, ModeMask, mode(model.SchemaV1, flags))

	flags[model.FlagLegacyPII] = false
	assert.Equal(t, ModeRedact, mode(model.SchemaV1, flags))
	assert.Equal(t, ModeTokenize, mode(model.SchemaV2, flags))
}

func TestModeFor_MissingLegacyPIIFlag(t *testing.T) {
	flags := model.DefaultFlagValues()
	delete(flags, model.FlagLegacyPII)

	for _, version := range []model.SchemaVersion{model.SchemaV1, model.SchemaV2} {
		_, err := ModeFor(version, flags)
		require.Error(t, err, version)
		assert.True(t, apperrors.IsConfiguration(err), "got %v", err)
		assert.Equal(t, string(model.FlagLegacyPII), apperrors.GetField(err))
	}
}

func TestPolicy_TokenizeRemovesRawColumns(t *testing.T) {
	policy, err := NewPolicy(ModeTokenize, newTestTokenizer(t))
	require.NoError(t, err)

	row := model.ResultRow{
		"payment_method":  "card",
		"card_number":     "4111-1111-1111-1234",
		"billing_address": "1 Main St",
		"cardholder_name": "Jane Doe",
		"email":           "jane@example.com",
		"phone":           nil,
	}
	out := policy.Apply(row)

	for col := range out {
		assert.False(t, model.IsRawPIIColumn(col), "raw column %s survived tokenization", col)
	}
	assert.Equal(t, "card", out["payment_method"])
	assert.Equal(t, "1234", out["card_last_four"])
	assert.True(t, strings.HasPrefix(out["card_token"].(string), "crd_"))
	assert.True(t, strings.HasPrefix(out["billing_address_token"].(string), "adr_"))
	assert.True(t, strings.HasPrefix(out["cardholder_name_token"].(string), "nam_"))
	assert.True(t, strings.HasPrefix(out["email_token"].(string), "eml_"))
	assert.NoError(t, model.CheckExposure(model.SchemaV2, out.Columns()))

	assert.Equal(t, "4111-1111-1111-1234", row["card_number"], "input row must not be modified")
}

func TestPolicy_MaskAndRedactNeverProduceTokens(t *testing.T) {
	row := model.ResultRow{"email": "jane@example.com", "card_number": "4111111111111234", "status": "active"}

	mask, err := NewPolicy(ModeMask, nil)
	require.NoError(t, err)
	masked := mask.Apply(row)
	assert.Equal(t, "j***@example.com", masked["email"])
	assert.Equal(t, "****-****-****-1234", masked["card_number"])
	assert.NoError(t, model.CheckExposure(model.SchemaV1, masked.Columns()))

	redact, err := NewPolicy(ModeRedact, nil)
	require.NoError(t, err)
	redacted := redact.Apply(row)
	assert.Equal(t, Redacted, redacted["email"])
	assert.Equal(t, "active", redacted["status"])
	assert.NoError(t, model.CheckExposure(model.SchemaV1, redacted.Columns()))
}

func TestNewPolicy_TokenizeNeedsTokenizer(t *testing.T) {
	_, err := NewPolicy(ModeTokenize, nil)
	require.ErrorIs(t, err, ErrMissingSalt)
}

func TestRedact(t *testing.T) {
	row := model.ResultRow{"email": "a@b.c", "status": "x", "note": "secret"}

	assert.Equal(t, model.ResultRow{"email": Redacted, "status": "x", "note": "secret"}, Redact(row))
	assert.Equal(t, model.ResultRow{"email": "a@b.c", "status": "x", "note": Redacted}, Redact(row, "NOTE"))
}

func TestSafeFields(t *testing.T) {
	row := model.ResultRow{
		"channel":       "email",
		"total_sent":    int64(10),
		"delivery_rate": 90.0,
		"email":         "jane@example.com",
		"card_token":    "crd_abc",
	}
	assert.Equal(t, map[string]any{
		"channel":       "email",
		"total_sent":    int64(10),
		"delivery_rate": 90.0,
	}, SafeFields(row))
}
