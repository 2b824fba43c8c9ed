package payload

import (
	"time"

	"github.com/google/uuid"
)

// Payment notification events.
const (
	EventTokenIssued     = "payment.token_issued"
	EventPaymentVerified = "payment.verified"
)

// PaymentNotification is the JSON document delivered to the notification
// webhook (email/push fan-out happens downstream).
type PaymentNotification struct {
	PaymentID  uuid.UUID `json:"paymentId"`
	CompanyRef string    `json:"companyRef"`
	Event      string    `json:"event"`
	Status     string    `json:"status"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	TransToken string    `json:"transToken,omitempty"`
	TransRef   string    `json:"transRef,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
