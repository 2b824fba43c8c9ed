package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"hotel-payment-service/internal/cache"
	"hotel-payment-service/internal/config"
	"hotel-payment-service/internal/currency"
	"hotel-payment-service/internal/db"
	"hotel-payment-service/internal/gateway"
	"hotel-payment-service/internal/kafka"
	"hotel-payment-service/internal/logging"
	"hotel-payment-service/internal/metrics"
	"hotel-payment-service/internal/notify"
	"hotel-payment-service/internal/payment"
	"hotel-payment-service/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoadConfig(config.Get("CONFIG_PATH", "."))

	logger := logging.GetLogger(cfg.Logs)
	metrics.Setup(cfg.Metrics)

	connStr := db.GetConnStr(cfg.Database)
	db.RunMigrations(connStr, "migrations")

	dbpool, err := db.GetPool(connStr)
	if err != nil {
		log.Fatal(err)
	}
	defer dbpool.Close()

	paymentRepo := db.NewPaymentRepository(dbpool)
	settingsRepo := db.NewSettingsRepository(dbpool)
	notificationRepo := db.NewNotificationRepository(dbpool)

	settingsCache := cache.NewSettingsCache(cfg.Redis, settingsRepo, logger)
	converter := currency.NewConverter(cfg.Currency.Ledger)

	var paymentService *payment.Service
	gatewayCfg, err := gateway.ConfigFromEnv(cfg.Gateway)
	if err != nil {
		logger.Warn("Payment gateway credentials missing, payment endpoints disabled", "error", err)
	} else {
		gatewayClient := gateway.NewClient(gatewayCfg, logger)
		paymentService = payment.NewService(gatewayClient, paymentRepo, notificationRepo, converter.Ledger(), logger)
	}

	ctx := context.Background()

	notificationWriter := kafka.NewWriter(cfg.Kafka)
	defer notificationWriter.Close()

	producer := notify.NewProducer(cfg.Notify.Producer, notificationRepo, notificationWriter, logger)
	producer.Start(ctx)

	sender := notify.NewSender(cfg.Notify.Sender, logger)
	processor := notify.NewProcessor(cfg.Notify.Processor, notificationRepo, sender, logger)

	notificationReader := kafka.NewReader(cfg.Kafka.Broker.URL, cfg.Kafka.Topic.PaymentNotifications, cfg.Kafka.Reader.GroupID)
	defer notificationReader.Close()

	kafka.ReadNotifications(notificationReader, processor, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /liveness", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := server.NewHandler(paymentService, converter, settingsRepo, settingsCache, logger)
	handler.Register(mux)

	log.Fatal(http.ListenAndServe(":"+cfg.Server.Port, mux))
}
