package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lifelink/blood-donor-matching-backend/internal/domain/errors"
	"github.com/lifelink/blood-donor-matching-backend/internal/infrastructure/config"
	"github.com/lifelink/blood-donor-matching-backend/internal/service/matching"
)

// httpNotifier implements matching.Notifier against the downstream
// notification service, which owns template rendering and per-channel
// delivery. One POST per donor; the dispatcher handles batching and
// pacing.
type httpNotifier struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

func NewHTTPNotifier(cfg config.NotificationConfig, logger *slog.Logger) matching.Notifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpNotifier{
		client:  &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
		logger:  logger,
	}
}

type sendPayload struct {
	DonorID  uuid.UUID         `json:"donor_id"`
	Channels []string          `json:"channels"`
	Template string            `json:"template"`
	Params   map[string]string `json:"params"`
}

func (n *httpNotifier) Send(ctx context.Context, donorID uuid.UUID, channels []string, template string, params map[string]string) error {
	body, err := json.Marshal(sendPayload{
		DonorID:  donorID,
		Channels: channels,
		Template: template,
		Params:   params,
	})
	if err != nil {
		return fmt.Errorf("marshaling notification payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		n.baseURL+"/api/v1/notifications", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return errors.NewExternalError("notification", "send request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errors.NewExternalError("notification",
			fmt.Sprintf("send rejected with status %d", resp.StatusCode))
	}

	n.logger.DebugContext(ctx, "notification accepted",
		"donor_id", donorID,
		"channels", channels)
	return nil
}
