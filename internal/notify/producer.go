package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"hotel-payment-service/internal/config"
	"hotel-payment-service/internal/db"
	"hotel-payment-service/internal/logcontext"
	"hotel-payment-service/internal/message"
)

const (
	defaultPollingIntervalMs   = 500
	defaultFetchSize           = 200
	defaultRetryPublishDelayMs = 10_000
	defaultMaxPublishAttempts  = 3
)

var (
	producerErrorFetchingCounter = metrics.GetOrCreateCounter(`notification_producer_total{result="fetching_failed"}`)
	producerErrorKafkaCounter    = metrics.GetOrCreateCounter(`notification_producer_total{result="publish_failed"}`)
	producerErrorUpdateCounter   = metrics.GetOrCreateCounter(`notification_producer_total{result="db_update_failed"}`)
	producerSuccessCounter       = metrics.GetOrCreateCounter(`notification_producer_total{result="success"}`)

	producerProcessDurationHistogram = metrics.GetOrCreateHistogram(`notification_producer_duration_milliseconds`)

	producerMessagesPublishedCounter   = metrics.GetOrCreateCounter(`notification_producer_messages_total{result="published"}`)
	producerMessagesMaxAttemptsCounter = metrics.GetOrCreateCounter(`notification_producer_messages_total{result="max_attempts_reached"}`)
	producerMessagesRescheduledCounter = metrics.GetOrCreateCounter(`notification_producer_messages_total{result="rescheduled"}`)
)

// Producer polls the outbox and publishes due notifications to Kafka.
type Producer struct {
	repo               *db.NotificationRepository
	writer             *kafka.Writer
	pollingInterval    time.Duration
	fetchSize          int
	retryDelay         time.Duration
	maxPublishAttempts int
	logger             *slog.Logger
}

func NewProducer(cfg config.NotifyProducer, repo *db.NotificationRepository, writer *kafka.Writer, logger *slog.Logger) *Producer {
	pollingInterval := cfg.PollingIntervalMs
	if pollingInterval <= 0 {
		pollingInterval = defaultPollingIntervalMs
	}
	fetchSize := cfg.FetchSize
	if fetchSize <= 0 {
		fetchSize = defaultFetchSize
	}
	retryDelay := cfg.RescheduleDelayMs
	if retryDelay <= 0 {
		retryDelay = defaultRetryPublishDelayMs
	}
	maxPublishAttempts := cfg.MaxPublishAttempts
	if maxPublishAttempts <= 0 {
		maxPublishAttempts = defaultMaxPublishAttempts
	}

	return &Producer{
		repo:               repo,
		writer:             writer,
		pollingInterval:    time.Duration(pollingInterval) * time.Millisecond,
		fetchSize:          fetchSize,
		retryDelay:         time.Duration(retryDelay) * time.Millisecond,
		maxPublishAttempts: maxPublishAttempts,
		logger:             logger,
	}
}

func (p *Producer) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(p.pollingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.process(ctx)
			case <-ctx.Done():
				p.logger.InfoContext(ctx, "Context done, stopping producer")
				return
			}
		}
	}()
}

func (p *Producer) process(ctx context.Context) {
	startTime := time.Now()

	// runId correlates all logs of one poll cycle
	ctx = logcontext.AppendCtx(ctx, slog.String("runId", uuid.New().String()))

	tx, err := p.repo.BeginTx(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "Error starting transaction", "error", err)
		producerErrorFetchingCounter.Inc()
		return
	}
	defer tx.Rollback(ctx)

	notifications, err := p.repo.GetUnpublished(ctx, tx, p.fetchSize)
	if err != nil {
		p.logger.ErrorContext(ctx, "Error fetching unpublished notifications", "error", err)
		producerErrorFetchingCounter.Inc()
		return
	}

	if len(notifications) == 0 {
		producerSuccessCounter.Inc()
		return
	}

	kafkaMessages := p.toKafkaMessages(ctx, notifications)

	writeErr := p.writer.WriteMessages(ctx, kafkaMessages...)
	if writeErr != nil {
		p.logger.ErrorContext(ctx, "Error writing messages to Kafka", "error", writeErr)
		producerErrorKafkaCounter.Inc()
	}

	now := time.Now()
	for _, notification := range notifications {
		messageCtx := logcontext.AppendCtx(ctx, slog.String("id", notification.ID.String()))

		notification.PublishAttempts++

		if writeErr != nil {
			errMsg := writeErr.Error()
			notification.Error = &errMsg

			if notification.PublishAttempts >= p.maxPublishAttempts {
				p.logger.WarnContext(messageCtx, "Max publish attempts reached for notification")
				notification.ScheduledAt = nil

				producerMessagesMaxAttemptsCounter.Inc()
			} else {
				scheduledAt := now.Add(time.Duration(notification.PublishAttempts) * p.retryDelay)
				notification.ScheduledAt = &scheduledAt

				producerMessagesRescheduledCounter.Inc()
			}
		} else {
			publishedAt := now
			notification.PublishedAt = &publishedAt
			notification.Error = nil

			producerMessagesPublishedCounter.Inc()
		}

		if err := p.repo.Update(messageCtx, tx, notification); err != nil {
			p.logger.ErrorContext(messageCtx, "Error updating notification", "error", err)
			producerErrorUpdateCounter.Inc()
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		p.logger.ErrorContext(ctx, "Error committing transaction", "error", err)
		producerErrorUpdateCounter.Inc()
	} else {
		producerSuccessCounter.Inc()
	}

	producerProcessDurationHistogram.Update(float64(time.Since(startTime).Milliseconds()))
}

func (p *Producer) toKafkaMessages(ctx context.Context, notifications []*db.NotificationEntity) []kafka.Message {
	var kafkaMessages []kafka.Message

	for _, entity := range notifications {
		p.logger.DebugContext(ctx, "Preparing Kafka message for notification", "id", entity.ID)

		notification := message.Notification{
			ID:        entity.ID,
			PaymentID: entity.PaymentID,
			Payload:   entity.Payload,
			Attempts:  entity.DeliveryAttempts,
		}

		messageBytes, _ := json.Marshal(notification)

		kafkaMessages = append(kafkaMessages, kafka.Message{
			// payment ID as key keeps per-payment ordering
			Key:   []byte(entity.PaymentID.String()),
			Value: messageBytes,
		})
	}
	return kafkaMessages
}
