package errors

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "configuration", err: apperrors.ConfigurationField("ENABLE_V1_SCHEMA", "missing"), want: "configuration"},
		{name: "wrapped parameter", err: fmt.Errorf("run user: %w", apperrors.Parameter("start_date", "missing")), want: "parameter"},
		{name: "database wrapping driver error", err: apperrors.Database(&net.OpError{Op: "dial"}, "connect"), want: "database"},
		{name: "plain driver error", err: fmt.Errorf("dial: %w", &net.OpError{Op: "dial"}), want: "net_operror"},
		{name: "context", err: context.DeadlineExceeded, want: "context_deadlineexceedederror"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
