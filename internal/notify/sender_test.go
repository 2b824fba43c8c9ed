package notify

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"

	"hotel-payment-service/internal/config"
)

func TestSender_Send(t *testing.T) {
	tests := []struct {
		name           string
		mockResponse   func()
		expectedError  bool
		expectedErrMsg string
	}{
		{
			name: "success",
			mockResponse: func() {
				gock.New("http://notifier.example.com").
					Post("/notifications").
					Reply(200).
					JSON(map[string]string{"status": "ok"})
			},
			expectedError: false,
		},
		{
			name: "error response",
			mockResponse: func() {
				gock.New("http://notifier.example.com").
					Post("/notifications").
					Reply(500).
					JSON(map[string]string{"error": "internal server error"})
			},
			expectedError:  true,
			expectedErrMsg: "error response",
		},
		{
			name: "timeout",
			mockResponse: func() {
				gock.New("http://notifier.example.com").
					Post("/notifications").
					Reply(200).
					Delay(2 * time.Second)
			},
			expectedError:  true,
			expectedErrMsg: "Client.Timeout exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer gock.Off()
			tt.mockResponse()

			sender := NewSender(config.NotifySender{
				WebhookURL: "http://notifier.example.com/notifications",
				TimeoutMs:  1000,
			}, slog.Default())

			err := sender.Send(context.Background(), `{"event":"payment.token_issued"}`)
			if tt.expectedError {
				assert.Error(t, err)
				if tt.expectedErrMsg != "" {
					assert.Contains(t, err.Error(), tt.expectedErrMsg)
				}
			} else {
				assert.NoError(t, err)
			}
			assert.True(t, gock.IsDone())
		})
	}
}
