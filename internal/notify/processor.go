package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"hotel-payment-service/internal/config"
	"hotel-payment-service/internal/db"
	"hotel-payment-service/internal/logcontext"
	"hotel-payment-service/internal/message"
)

const (
	defaultParallelism         = 100
	defaultDeliveryDelayMs     = 10_000
	defaultMaxDeliveryAttempts = 3
)

var (
	processorDeliveredCounter   = metrics.GetOrCreateCounter(`notification_processor_total{result="delivered"}`)
	processorRescheduledCounter = metrics.GetOrCreateCounter(`notification_processor_total{result="rescheduled"}`)
	processorMaxAttemptsCounter = metrics.GetOrCreateCounter(`notification_processor_total{result="max_attempts_reached"}`)
	processorErrorCounter       = metrics.GetOrCreateCounter(`notification_processor_total{result="db_error"}`)
)

type Processor struct {
	repo        *db.NotificationRepository
	sender      *Sender
	sem         chan struct{}
	retryDelay  time.Duration
	maxAttempts int
	logger      *slog.Logger
}

func NewProcessor(cfg config.NotifyProcessor, repo *db.NotificationRepository, sender *Sender, logger *slog.Logger) *Processor {
	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}
	retryDelay := cfg.RescheduleDelayMs
	if retryDelay <= 0 {
		retryDelay = defaultDeliveryDelayMs
	}
	maxAttempts := cfg.MaxDeliveryAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxDeliveryAttempts
	}

	return &Processor{
		repo:        repo,
		sender:      sender,
		sem:         make(chan struct{}, parallelism),
		retryDelay:  time.Duration(retryDelay) * time.Millisecond,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Process delivers one notification message. Parallelism is bounded by the
// semaphore; the outbox row is locked for the duration of the attempt.
func (p *Processor) Process(ctx context.Context, msg message.Notification) error {
	p.sem <- struct{}{}
	go func() {
		defer func() { <-p.sem }()
		p.deliver(logcontext.AppendCtx(ctx, slog.String("id", msg.ID.String())), msg)
	}()

	return nil
}

func (p *Processor) deliver(ctx context.Context, msg message.Notification) {
	tx, err := p.repo.BeginTx(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "Error starting transaction", "error", err)
		processorErrorCounter.Inc()
		return
	}
	defer tx.Rollback(ctx)

	entity, err := p.repo.SelectForUpdateByID(ctx, tx, msg.ID)
	if err != nil {
		p.logger.ErrorContext(ctx, "Error selecting notification for update", "error", err)
		processorErrorCounter.Inc()
		return
	}

	if entity.DeliveredAt != nil {
		p.logger.InfoContext(ctx, "Notification already delivered, skipping")
		return
	}

	sendErr := p.sender.Send(ctx, entity.Payload)
	attempts := entity.DeliveryAttempts + 1

	switch {
	case sendErr == nil:
		err = p.repo.MarkDelivered(ctx, tx, msg.ID, attempts, time.Now())
		processorDeliveredCounter.Inc()
	case attempts >= p.maxAttempts:
		p.logger.WarnContext(ctx, "Max delivery attempts reached", "attempts", attempts)
		err = p.repo.MarkDeliveryFailed(ctx, tx, msg.ID, attempts, sendErr.Error())
		processorMaxAttemptsCounter.Inc()
	default:
		scheduledAt := time.Now().Add(time.Duration(attempts) * p.retryDelay)
		err = p.repo.RescheduleDelivery(ctx, tx, msg.ID, scheduledAt, attempts, sendErr.Error())
		processorRescheduledCounter.Inc()
	}

	if err != nil {
		p.logger.ErrorContext(ctx, "Error updating notification", "error", err)
		processorErrorCounter.Inc()
		return
	}

	if err := tx.Commit(ctx); err != nil {
		p.logger.ErrorContext(ctx, "Error committing transaction", "error", err)
		processorErrorCounter.Inc()
	}
}
