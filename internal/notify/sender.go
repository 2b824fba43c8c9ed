// Package notify delivers payment notifications: an outbox poller publishes
// pending rows to Kafka, a processor consumes them and posts the payload to
// the configured webhook with bounded parallelism and retry scheduling.
package notify

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"hotel-payment-service/internal/config"
)

const defaultSendTimeoutMs = 10_000

type Sender struct {
	client     *http.Client
	webhookURL string
	logger     *slog.Logger
}

func NewSender(cfg config.NotifySender, logger *slog.Logger) *Sender {
	timeout := cfg.TimeoutMs
	if timeout <= 0 {
		timeout = defaultSendTimeoutMs
	}
	return &Sender{
		client:     &http.Client{Timeout: time.Duration(timeout) * time.Millisecond},
		webhookURL: cfg.WebhookURL,
		logger:     logger,
	}
}

func (s *Sender) Send(ctx context.Context, payload string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBufferString(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	s.logger.InfoContext(ctx, "Sending notification", "url", s.webhookURL)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error sending notification", "error", err)
		return err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		s.logger.WarnContext(ctx, "Notification webhook returned error", "status", resp.Status)
		return errors.Errorf("error response: %s", resp.Status)
	}

	return nil
}
