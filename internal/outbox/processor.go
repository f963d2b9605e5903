package outbox

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"vinreport/internal/domain"
	kafka_infra "vinreport/internal/infrastructure/kafka"
	"vinreport/internal/repository/outbox_repo"
)

const batchSize = 10

// Processor polls the outbox table and publishes pending purchase events to
// Kafka. A message is marked SENT only after the producer acknowledges the
// write; a failed publish leaves it PENDING for the next tick.
type Processor struct {
	db           *sql.DB
	outboxRepo   outbox_repo.OutboxRepository
	producer     kafka_infra.Producer
	pollInterval time.Duration
	pollTimeout  time.Duration
	logger       *zap.Logger
}

func NewProcessor(
	db *sql.DB,
	outboxRepo outbox_repo.OutboxRepository,
	producer kafka_infra.Producer,
	pollInterval time.Duration,
	pollTimeout time.Duration,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		db:           db,
		outboxRepo:   outboxRepo,
		producer:     producer,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
		logger:       logger,
	}
}

// Start blocks until ctx is cancelled, publishing pending messages every
// pollInterval.
func (p *Processor) Start(ctx context.Context) {
	p.logger.Info("Starting outbox processor", zap.Duration("poll_interval", p.pollInterval))
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox processor stopping")
			return
		case <-ticker.C:
			p.processPending(ctx)
		}
	}
}

func (p *Processor) processPending(ctx context.Context) {
	queryCtx, cancel := context.WithTimeout(ctx, p.pollTimeout)
	messages, err := p.outboxRepo.GetPendingMessages(queryCtx, p.db, batchSize)
	cancel()
	if err != nil {
		if err == sql.ErrNoRows {
			return
		}
		p.logger.Error("Failed to get pending outbox messages", zap.Error(err))
		return
	}
	if len(messages) == 0 {
		return
	}

	p.logger.Debug("Publishing pending outbox messages", zap.Int("count", len(messages)))
	for _, msg := range messages {
		if err := p.producer.Produce(ctx, msg.Key, msg.Payload); err != nil {
			p.logger.Error("Failed to publish outbox message, leaving it pending",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			continue
		}
		if err := p.outboxRepo.UpdateMessageStatusTx(ctx, p.db, msg.ID, domain.OutboxStatusSent); err != nil {
			p.logger.Error("Failed to mark outbox message as sent",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			continue
		}
		p.logger.Info("Outbox message published",
			zap.String("message_id", msg.ID),
			zap.String("message_type", msg.MessageType))
	}
}
