package notification

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifelink/blood-donor-matching-backend/internal/domain/errors"
	"github.com/lifelink/blood-donor-matching-backend/internal/infrastructure/config"
)

func newTestNotifier(t *testing.T, handler http.HandlerFunc) *httpNotifier {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	n := NewHTTPNotifier(config.NotificationConfig{
		BaseURL: srv.URL,
		Timeout: time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return n.(*httpNotifier)
}

func TestHTTPNotifier_Send(t *testing.T) {
	donorID := uuid.New()
	var got sendPayload

	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/notifications", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	})

	err := n.Send(context.Background(), donorID, []string{"push"}, "blood_request_alert",
		map[string]string{"blood_type": "O-", "distance_km": "4.20"})
	require.NoError(t, err)

	assert.Equal(t, donorID, got.DonorID)
	assert.Equal(t, []string{"push"}, got.Channels)
	assert.Equal(t, "blood_request_alert", got.Template)
	assert.Equal(t, "O-", got.Params["blood_type"])
}

func TestHTTPNotifier_RejectedSend(t *testing.T) {
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := n.Send(context.Background(), uuid.New(), []string{"sms"}, "blood_request_alert", nil)
	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err))
}
