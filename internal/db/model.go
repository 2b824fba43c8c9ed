package db

import (
	"time"

	"github.com/google/uuid"
)

// Payment statuses as recorded by the service.
const (
	PaymentStatusTokenIssued = "TOKEN_ISSUED"
	PaymentStatusPaid        = "PAID"
	PaymentStatusFailed      = "FAILED"
)

type PaymentEntity struct {
	ID                uuid.UUID
	CompanyRef        string
	Amount            float64
	Currency          string
	TransToken        *string
	TransRef          *string
	Status            string
	ResultCode        *string
	ResultExplanation *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	VerifiedAt        *time.Time
}

type NotificationEntity struct {
	ID               uuid.UUID
	PaymentID        uuid.UUID
	Payload          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ScheduledAt      *time.Time
	PublishedAt      *time.Time
	DeliveredAt      *time.Time
	PublishAttempts  int
	DeliveryAttempts int
	Error            *string
}

// CurrencySettingsEntity is the single administrator-maintained exchange rate
// document. It is overwritten in place, no history is kept.
type CurrencySettingsEntity struct {
	BaseCurrency  string
	ExchangeRates map[string]float64
	UpdatedAt     time.Time
}
