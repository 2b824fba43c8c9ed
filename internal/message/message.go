package message

import (
	"github.com/google/uuid"
)

// Notification is the Kafka message carrying one outbox row to the delivery
// side. Payload is the serialized payload.PaymentNotification.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	PaymentID uuid.UUID `json:"paymentId"`
	Payload   string    `json:"payload"`
	Attempts  int       `json:"attempts"`
}
