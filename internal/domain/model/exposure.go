package model

import (
	"fmt"
	"strings"

	apperrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/errors"
)

// rawPIIColumns are column names that carry untokenized personal data.
var rawPIIColumns = map[string]struct{}{
	"email": {}, "email_address": {}, "phone": {}, "phone_number": {},
	"name": {}, "first_name": {}, "last_name": {}, "full_name": {},
	"card_number": {}, "cardholder_name": {}, "billing_address": {},
	"address": {}, "street_address": {}, "ssn": {}, "date_of_birth": {},
	"ip_address": {},
}

// IsRawPIIColumn reports whether col names an untokenized PII field.
func IsRawPIIColumn(col string) bool {
	_, ok := rawPIIColumns[strings.ToLower(col)]
	return ok
}

// IsTokenColumn reports whether col carries a tokenized identifier.
func IsTokenColumn(col string) bool {
	return strings.HasSuffix(strings.ToLower(col), "_token")
}

// CheckExposure rejects v1 columns that carry tokens and v2 columns that carry raw PII.
func CheckExposure(version SchemaVersion, columns []string) error {
	for _, col := range columns {
		switch {
		case version == SchemaV1 && IsTokenColumn(col):
			return apperrors.ConfigurationField(col,
				fmt.Sprintf("v1 output must not expose tokenized identifier column %q", col))
		case version == SchemaV2 && IsRawPIIColumn(col):
			return apperrors.ConfigurationField(col,
				fmt.Sprintf("v2 output must not expose raw PII column %q", col))
		}
	}
	return nil
}
