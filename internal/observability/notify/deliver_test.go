package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	retryStep = time.Millisecond
	m.Run()
}

func TestRetry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 2, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = Retry(context.Background(), -1, func(context.Context) error {
		calls++
		return errors.New("down")
	})
	require.EqualError(t, err, "down")
	assert.Equal(t, 1, calls)
}

func TestRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	err := Retry(ctx, 5, func(context.Context) error {
		cancel()
		return errors.New("boom")
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestPostJSON(t *testing.T) {
	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		got, _ = io.ReadAll(r.Body)
		if string(got) == `{"fail":true}` {
			http.Error(w, "rejected", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	hc := HTTPClient(nil, time.Second)
	require.NoError(t, PostJSON(context.Background(), hc, srv.URL, "test", []byte(`{"ok":true}`)))
	assert.JSONEq(t, `{"ok":true}`, string(got))

	err := PostJSON(context.Background(), hc, srv.URL, "test", []byte(`{"fail":true}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "rejected")
}

func TestRunFailurePayload_DedupKey(t *testing.T) {
	assert.Equal(t, "etl:order:2024-03-01..2024-03-02",
		RunFailurePayload{RunID: "r1", Job: "order", Window: "2024-03-01..2024-03-02"}.DedupKey())
	assert.Equal(t, "etl:order:r1", RunFailurePayload{RunID: "r1", Job: "order"}.DedupKey())
	assert.Equal(t, "etl:r1", RunFailurePayload{RunID: "r1"}.DedupKey())
}

func TestFallback(t *testing.T) {
	assert.Equal(t, "x", Fallback("  ", "x"))
	assert.Equal(t, "y", Fallback("y", "x"))
}
