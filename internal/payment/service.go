// Package payment orchestrates token issue and verification: it validates
// requests, talks to the gateway, records the outcome and enqueues
// notifications.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"hotel-payment-service/internal/db"
	"hotel-payment-service/internal/gateway"
	"hotel-payment-service/internal/model"
	"hotel-payment-service/internal/payload"
)

// ValidationError rejects a request before it reaches the gateway.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payment request: %s", e.Reason)
}

type Service struct {
	gw            *gateway.Client
	payments      *db.PaymentRepository
	notifications *db.NotificationRepository
	ledger        string
	logger        *slog.Logger
}

func NewService(gw *gateway.Client, payments *db.PaymentRepository, notifications *db.NotificationRepository, ledger string, logger *slog.Logger) *Service {
	return &Service{
		gw:            gw,
		payments:      payments,
		notifications: notifications,
		ledger:        ledger,
		logger:        logger,
	}
}

// CreateToken requests a payment token from the gateway and records the
// payment. The charge is always denominated in the ledger currency.
func (s *Service) CreateToken(ctx context.Context, req model.TokenRequest) (*gateway.TokenResult, error) {
	gwReq := gateway.TokenRequest{
		Amount:             req.Amount,
		Currency:           s.ledger,
		CompanyRef:         req.CompanyRef,
		RedirectURL:        req.RedirectURL,
		BackURL:            req.BackURL,
		ServiceDescription: req.ServiceDescription,
		CustomerFirstName:  req.CustomerFirstName,
		CustomerLastName:   req.CustomerLastName,
		CustomerEmail:      req.CustomerEmail,
		CustomerPhone:      req.CustomerPhone,
		CustomerAddress:    req.CustomerAddress,
		CustomerCity:       req.CustomerCity,
		CustomerCountry:    req.CustomerCountry,
		CustomerZip:        req.CustomerZip,
	}

	if err := gwReq.Validate(); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	result, gwErr := s.gw.CreateToken(ctx, gwReq)

	entity := &db.PaymentEntity{
		ID:         uuid.New(),
		CompanyRef: req.CompanyRef,
		Amount:     req.Amount,
		Currency:   s.ledger,
		CreatedAt:  time.Now(),
	}

	if gwErr != nil {
		entity.Status = db.PaymentStatusFailed
		var rejected *gateway.RejectedError
		if errors.As(gwErr, &rejected) {
			entity.ResultCode = &rejected.Code
			entity.ResultExplanation = &rejected.Explanation
		}
		if _, err := s.payments.Create(ctx, entity); err != nil {
			s.logger.ErrorContext(ctx, "Error recording failed payment", "error", err)
		}
		return nil, gwErr
	}

	entity.Status = db.PaymentStatusTokenIssued
	entity.TransToken = &result.TransToken
	entity.TransRef = &result.TransRef

	if _, err := s.payments.Create(ctx, entity); err != nil {
		s.logger.ErrorContext(ctx, "Error recording payment", "error", err)
		return nil, err
	}

	s.enqueueNotification(ctx, entity, payload.EventTokenIssued)

	return result, nil
}

// VerifyToken asks the gateway for the transaction's state and, on a paid
// result, marks the recorded payment and enqueues a notification.
func (s *Service) VerifyToken(ctx context.Context, token string) (*gateway.VerifyResult, error) {
	result, err := s.gw.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if result.Result != gateway.ResultSuccess {
		return result, nil
	}

	if err := s.payments.UpdateVerifyResult(ctx, token, db.PaymentStatusPaid, result.Result, result.ResultExplanation, time.Now()); err != nil {
		s.logger.ErrorContext(ctx, "Error recording verify result", "error", err)
		return result, nil
	}

	entity, err := s.payments.GetByTransToken(ctx, token)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.ErrorContext(ctx, "Error loading payment for notification", "error", err)
		}
		return result, nil
	}

	s.enqueueNotification(ctx, entity, payload.EventPaymentVerified)

	return result, nil
}

// enqueueNotification writes an outbox row. Failures are logged, not
// surfaced: notification delivery must never fail the payment call.
func (s *Service) enqueueNotification(ctx context.Context, entity *db.PaymentEntity, event string) {
	notification := payload.PaymentNotification{
		PaymentID:  entity.ID,
		CompanyRef: entity.CompanyRef,
		Event:      event,
		Status:     entity.Status,
		Amount:     entity.Amount,
		Currency:   entity.Currency,
		OccurredAt: time.Now(),
	}
	if entity.TransToken != nil {
		notification.TransToken = *entity.TransToken
	}
	if entity.TransRef != nil {
		notification.TransRef = *entity.TransRef
	}

	payloadBytes, err := json.Marshal(notification)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error marshalling notification payload", "error", err)
		return
	}

	outboxEntity := &db.NotificationEntity{
		ID:        uuid.New(),
		PaymentID: entity.ID,
		Payload:   string(payloadBytes),
		CreatedAt: time.Now(),
	}

	if _, err := s.notifications.Create(ctx, outboxEntity); err != nil {
		s.logger.ErrorContext(ctx, "Error enqueueing notification", "error", err)
	}
}
