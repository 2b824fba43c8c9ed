package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/VictoriaMetrics/metrics"
	"github.com/segmentio/kafka-go"

	"hotel-payment-service/internal/message"
	"hotel-payment-service/internal/notify"
)

type Metrics struct {
	ReadErrorCounter      *metrics.Counter
	UnmarshalErrorCounter *metrics.Counter
	ProcessErrorCounter   *metrics.Counter
	SuccessCounter        *metrics.Counter
}

var notificationMetrics = Metrics{
	ReadErrorCounter:      metrics.GetOrCreateCounter(`kafka_reader_total{result="read_error",type="notification"}`),
	UnmarshalErrorCounter: metrics.GetOrCreateCounter(`kafka_reader_total{result="unmarshal_error",type="notification"}`),
	ProcessErrorCounter:   metrics.GetOrCreateCounter(`kafka_reader_total{result="process_error",type="notification"}`),
	SuccessCounter:        metrics.GetOrCreateCounter(`kafka_reader_total{result="success",type="notification"}`),
}

func NewReader(kafkaURL, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: strings.Split(kafkaURL, ","),
		GroupID: groupID,
		Topic:   topic,
	})
}

// ReadNotifications consumes notification messages and hands them to the
// delivery processor.
func ReadNotifications(reader *kafka.Reader, processor *notify.Processor, logger *slog.Logger) {
	readMessages(context.Background(), reader, logger, func(ctx context.Context, value []byte) error {
		var n message.Notification
		if err := json.Unmarshal(value, &n); err != nil {
			logger.ErrorContext(ctx, fmt.Sprintf("Error unmarshalling message: %v", err))
			notificationMetrics.UnmarshalErrorCounter.Inc()
			return err
		}
		return processor.Process(ctx, n)
	}, notificationMetrics)
}

func readMessages(ctx context.Context, reader *kafka.Reader, logger *slog.Logger, process func(context.Context, []byte) error, kafkaMetrics Metrics) {
	go func() {
		for {
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				logger.ErrorContext(ctx, fmt.Sprintf("Error reading message: %v", err))
				kafkaMetrics.ReadErrorCounter.Inc()
				continue
			}
			logger.InfoContext(ctx, fmt.Sprintf("Received message: %s from topic %s", string(m.Value), m.Topic))

			err = process(ctx, m.Value)
			if err != nil {
				logger.ErrorContext(ctx, fmt.Sprintf("Error processing message: %v", err))
				kafkaMetrics.ProcessErrorCounter.Inc()
				continue
			}
			kafkaMetrics.SuccessCounter.Inc()
		}
	}()
}
