package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"vinreport/internal/app/checkout"
	"vinreport/internal/config"
	"vinreport/internal/gateway"
	status_http "vinreport/internal/handler/http/status"
	tg_handler "vinreport/internal/handler/telegram"
	"vinreport/internal/infrastructure/database"
	kafka_infra "vinreport/internal/infrastructure/kafka"
	"vinreport/internal/ledger"
	"vinreport/internal/lookup"
	"vinreport/internal/outbox"
	"vinreport/internal/report"
	outbox_pg "vinreport/internal/repository/outbox_repo/postgres"
	purchases_pg "vinreport/internal/repository/purchases_repo/postgres"
	session_memory "vinreport/internal/repository/session_repo/memory"
	tg_transport "vinreport/internal/transport/telegram"
)

func ensureKafkaTopic(ctx context.Context, brokerURLs []string, topic string, logger *zap.Logger) error {
	conn, err := kafka.DialContext(ctx, "tcp", brokerURLs[0])
	if err != nil {
		return fmt.Errorf("failed to dial kafka broker for admin operations: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("failed to get kafka controller: %w", err)
	}
	controllerConn, err := kafka.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return fmt.Errorf("failed to dial kafka controller: %w", err)
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		if err == kafka.TopicAlreadyExists {
			logger.Info("Kafka topic already exists, skipping creation.", zap.String("topic", topic))
			return nil
		}
		return fmt.Errorf("failed to create Kafka topic: %w", err)
	}
	logger.Info("Kafka topic ensured successfully.", zap.String("topic", topic))
	return nil
}

func main() {
	// secrets live in a local .env during development; absence is fine
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.TimeKey = "timestamp"

	appLogger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	appLogger.Info("VIN Report Service starting...")

	appLogger.Info("Waiting for database to be available...")
	dbConfig := database.DBConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.Name,
		SSLMode:  cfg.DBConfig.SSLMode,
	}

	var db *sql.DB
	maxRetries := 10
	retryDelay := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = database.NewPostgresDB(dbConfig)
		if err == nil {
			appLogger.Info("Successfully connected to PostgreSQL database!")
			break
		}
		appLogger.Warn(fmt.Sprintf("Failed to connect to database (attempt %d/%d): %v. Retrying in %s...", i+1, maxRetries, err, retryDelay))
		time.Sleep(retryDelay)
	}

	if db == nil {
		appLogger.Fatal("Could not connect to database after multiple retries. Exiting.", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("Error closing database connection", zap.Error(err))
		} else {
			appLogger.Info("Database connection closed.")
		}
	}()

	appLogger.Info("Running database migrations...")
	m, err := migrate.New(cfg.MigrationsPath, cfg.GetDBMigrationConnectionString())
	if err != nil {
		appLogger.Fatal("Failed to create migrate instance", zap.Error(err))
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		appLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}
	appLogger.Info("Database migrations completed successfully (or no new migrations).")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = ensureKafkaTopic(ctx, cfg.GetKafkaBrokers(), cfg.KafkaPurchaseEventsTopic, appLogger)
	cancel()
	if err != nil {
		appLogger.Fatal("Failed to ensure Kafka topic", zap.Error(err))
	}

	purchaseRepository := purchases_pg.NewPurchaseRepository()
	outboxRepository := outbox_pg.NewOutboxRepository()
	sessionRepository := session_memory.NewSessionRepository()

	bot, err := tg_transport.NewBot(cfg.TelegramToken, cfg.PaymentProviderToken,
		appLogger.With(zap.String("component", "TelegramBot")))
	if err != nil {
		appLogger.Fatal("Failed to connect to Telegram", zap.Error(err))
	}
	if err := bot.DeleteWebhook(); err != nil {
		appLogger.Fatal("Failed to delete pre-existing webhook", zap.Error(err))
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	lookupClient := lookup.NewClient(cfg.LookupBaseURL, httpClient,
		appLogger.With(zap.String("component", "LookupClient")))
	reportClient := report.NewClient(cfg.ReportBaseURL, cfg.ReportAPIKey, httpClient,
		appLogger.With(zap.String("component", "ReportClient")))

	paymentGateway := gateway.New(bot, cfg.PriceMinorUnits, cfg.Currency,
		appLogger.With(zap.String("component", "PaymentGateway")))
	purchaseLedger := ledger.New(db, purchaseRepository, outboxRepository,
		appLogger.With(zap.String("component", "PurchaseLedger")))

	checkoutService := checkout.NewService(
		sessionRepository,
		lookupClient,
		reportClient,
		paymentGateway,
		purchaseLedger,
		bot,
		appLogger.With(zap.String("component", "CheckoutService")),
	)
	appLogger.Info("Checkout Service initialized.")

	updateHandler := tg_handler.NewHandler(checkoutService, bot,
		appLogger.With(zap.String("component", "TelegramHandler")))

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	status_http.RegisterRoutes(router, sessionRepository, purchaseRepository, db,
		appLogger.With(zap.String("component", "HTTPHandler")))

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: router,
	}
	appLogger.Info("HTTP server configured.")

	kafkaProducer := kafka_infra.NewProducer(
		cfg.GetKafkaBrokers(),
		cfg.KafkaPurchaseEventsTopic,
		appLogger.With(zap.String("component", "KafkaProducer")),
	)
	defer func() {
		if err := kafkaProducer.Close(); err != nil {
			appLogger.Error("Error closing Kafka producer", zap.Error(err))
		}
	}()

	outboxProcessor := outbox.NewProcessor(
		db,
		outboxRepository,
		kafkaProducer,
		cfg.OutboxPollInterval,
		cfg.OutboxPollTimeout,
		appLogger.With(zap.String("component", "OutboxProcessor")),
	)
	appLogger.Info("Outbox Processor initialized.")

	ctxMain, cancelMain := context.WithCancel(context.Background())

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		outboxProcessor.Start(ctxMain)
	}()

	go func() {
		appLogger.Info("Starting Telegram poller...")
		if err := bot.Poll(ctxMain, updateHandler); err != nil && err != context.Canceled {
			appLogger.Error("Telegram poller failed", zap.Error(err))
		}
		appLogger.Info("Telegram poller stopped.")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	appLogger.Info("Shutting down application...")

	cancelMain()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server graceful shutdown failed", zap.Error(err))
	} else {
		appLogger.Info("HTTP server gracefully shut down.")
	}

	appLogger.Info("Application gracefully shut down.")
}
