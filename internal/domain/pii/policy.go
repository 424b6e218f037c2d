package pii

import (
	"strings"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
)

// Redacted replaces values removed by Redact.
const Redacted = "[REDACTED]"

// Mode selects how raw PII columns are handled.
type Mode string

const (
	// ModeTokenize replaces raw PII columns with <col>_token columns.
	ModeTokenize Mode = "tokenize"
	// ModeMask keeps the column and masks its value.
	ModeMask Mode = "mask"
	// ModeRedact keeps the column and replaces its value with [REDACTED].
	ModeRedact Mode = "redact"
)

// ModeFor returns the handling for rows of the given schema version.
// v2 rows are tokenized. v1 rows are masked when legacy PII handling is enabled, redacted otherwise.
// The legacy PII flag must be present in flags for every version.
func ModeFor(version model.SchemaVersion, flags model.FeatureFlagSet) (Mode, error) {
	legacy, err := flags.Lookup(model.FlagLegacyPII)
	if err != nil {
		return "", err
	}
	switch {
	case version == model.SchemaV2:
		return ModeTokenize, nil
	case legacy:
		return ModeMask, nil
	default:
		return ModeRedact, nil
	}
}

// Policy applies a Mode to result rows.
type Policy struct {
	mode      Mode
	tokenizer *Tokenizer
}

// NewPolicy builds a Policy. A tokenizer is required for ModeTokenize.
func NewPolicy(mode Mode, tokenizer *Tokenizer) (*Policy, error) {
	if mode == ModeTokenize && tokenizer == nil {
		return nil, ErrMissingSalt
	}
	return &Policy{mode: mode, tokenizer: tokenizer}, nil
}

// Mode returns the policy mode.
func (p *Policy) Mode() Mode { return p.mode }

// Apply returns a copy of row with every raw PII column handled. Non-PII columns are untouched.
func (p *Policy) Apply(row model.ResultRow) model.ResultRow {
	out := row.Clone()
	for col, val := range row {
		if !model.IsRawPIIColumn(col) {
			continue
		}
		s, _ := val.(string)
		switch p.mode {
		case ModeTokenize:
			delete(out, col)
			if s == "" {
				continue
			}
			p.tokenize(out, strings.ToLower(col), s)
		case ModeMask:
			if s != "" {
				out[col] = mask(strings.ToLower(col), s)
			}
		case ModeRedact:
			if val != nil {
				out[col] = Redacted
			}
		}
	}
	return out
}

func (p *Policy) tokenize(out model.ResultRow, col, s string) {
	switch col {
	case "card_number":
		out["card_token"] = p.tokenizer.Tokenize(s, PrefixCard)
		out["card_last_four"] = LastFour(s)
	case "email", "email_address":
		out[col+"_token"] = p.tokenizer.Email(s)
	case "phone", "phone_number":
		out[col+"_token"] = p.tokenizer.Phone(s)
	case "billing_address", "address", "street_address":
		out[col+"_token"] = p.tokenizer.Tokenize(s, PrefixAddress)
	case "name", "first_name", "last_name", "full_name", "cardholder_name":
		out[col+"_token"] = p.tokenizer.Name(s)
	default:
		out[col+"_token"] = p.tokenizer.Tokenize(s, "tok")
	}
}

func mask(col, s string) string {
	switch col {
	case "email", "email_address":
		return MaskEmail(s)
	case "phone", "phone_number":
		return MaskPhone(s)
	case "card_number":
		return MaskCard(s)
	case "name", "first_name", "last_name", "full_name", "cardholder_name":
		return MaskName(s)
	default:
		return Redacted
	}
}

// Redact replaces the values of fields (or every raw PII column when fields is empty).
func Redact(row model.ResultRow, fields ...string) model.ResultRow {
	out := row.Clone()
	for col, val := range row {
		if val == nil {
			continue
		}
		if len(fields) == 0 && model.IsRawPIIColumn(col) {
			out[col] = Redacted
			continue
		}
		for _, f := range fields {
			if strings.EqualFold(f, col) {
				out[col] = Redacted
			}
		}
	}
	return out
}

var safeFields = map[string]struct{}{
	"status": {}, "channel": {}, "notification_type": {}, "payment_method": {},
	"registration_date": {}, "order_date": {}, "payment_date": {}, "notification_date": {},
	"schema_version": {}, "country_code": {}, "signup_source": {}, "subscription_tier": {},
	"card_last_four": {},
}

// SafeFields projects row onto the whitelist of fields that may appear in logs.
// Count and rate columns are always safe.
func SafeFields(row model.ResultRow) map[string]any {
	out := make(map[string]any, len(row))
	for col, val := range row {
		if _, ok := safeFields[col]; ok || isMetricColumn(col) {
			out[col] = val
		}
	}
	return out
}

func isMetricColumn(col string) bool {
	for _, suffix := range []string{"_count", "_rate", "_sent", "_registrations", "_users", "_signups"} {
		if strings.HasSuffix(col, suffix) {
			return true
		}
	}
	switch col {
	case "delivered", "opened", "clicked", "bounced", "failed", "successful":
		return true
	}
	return false
}
