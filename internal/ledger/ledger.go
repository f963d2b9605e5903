package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vinreport/internal/domain"
	"vinreport/internal/domain/event"
	"vinreport/internal/repository/outbox_repo"
	"vinreport/internal/repository/purchases_repo"
	"vinreport/internal/util"
)

// Ledger records purchase outcomes durably. Every confirmed payment gets one
// purchase row keyed by the provider charge id, and every outcome gets an
// outbox message written in the same transaction so the Kafka event cannot be
// lost or published without its row.
type Ledger struct {
	db        *sql.DB
	purchases purchases_repo.PurchaseRepository
	outbox    outbox_repo.OutboxRepository
	logger    *zap.Logger
}

func New(db *sql.DB, purchases purchases_repo.PurchaseRepository, outbox outbox_repo.OutboxRepository, logger *zap.Logger) *Ledger {
	return &Ledger{db: db, purchases: purchases, outbox: outbox, logger: logger}
}

// Begin reserves the charge before any fulfillment side effect. It returns
// domain.ErrDuplicateCharge when the charge was already recorded, in which
// case the caller must not fulfill again.
func (l *Ledger) Begin(ctx context.Context, purchase *domain.Purchase) error {
	if err := l.purchases.CreateTx(ctx, l.db, purchase); err != nil {
		if err == domain.ErrDuplicateCharge {
			return err
		}
		return fmt.Errorf("failed to reserve purchase for charge %s: %w", purchase.ChargeID, err)
	}
	l.logger.Info("Purchase recorded",
		zap.String("purchase_id", purchase.ID),
		zap.Int64("chat_id", purchase.ChatID),
		zap.String("vin", purchase.VIN))
	return nil
}

// Complete marks the purchase fulfilled and enqueues the completed event.
func (l *Ledger) Complete(ctx context.Context, purchase *domain.Purchase) error {
	now := time.Now()
	payload, err := json.Marshal(event.PurchaseCompletedEvent{
		PurchaseID:  purchase.ID,
		ChatID:      purchase.ChatID,
		VIN:         purchase.VIN,
		ChargeID:    purchase.ChargeID,
		AmountMinor: purchase.AmountMinor,
		Currency:    purchase.Currency,
		Timestamp:   now,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal purchase completed event: %w", err)
	}
	return l.finish(ctx, purchase, domain.PurchaseStatusFulfilled, "", event.TypePurchaseCompleted, payload, now)
}

// Fail marks the purchase failed (payment captured, report not delivered) and
// enqueues the failed event.
func (l *Ledger) Fail(ctx context.Context, purchase *domain.Purchase, reason string) error {
	now := time.Now()
	payload, err := json.Marshal(event.PurchaseFailedEvent{
		PurchaseID:  purchase.ID,
		ChatID:      purchase.ChatID,
		VIN:         purchase.VIN,
		ChargeID:    purchase.ChargeID,
		AmountMinor: purchase.AmountMinor,
		Currency:    purchase.Currency,
		Reason:      reason,
		Timestamp:   now,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal purchase failed event: %w", err)
	}
	return l.finish(ctx, purchase, domain.PurchaseStatusFailed, reason, event.TypePurchaseFailed, payload, now)
}

func (l *Ledger) finish(ctx context.Context, purchase *domain.Purchase, status domain.PurchaseStatus, failReason, messageType string, eventPayload []byte, now time.Time) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for purchase %s: %w", purchase.ID, err)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := l.purchases.UpdateStatusTx(ctx, tx, purchase.ID, status, failReason); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update purchase %s to %s: %w", purchase.ID, status, err)
	}

	msg := &domain.OutboxMessage{
		ID:          util.GenerateUUID(),
		PurchaseID:  purchase.ID,
		MessageType: messageType,
		Key:         fmt.Sprintf("%d", purchase.ChatID),
		Payload:     eventPayload,
		Status:      domain.OutboxStatusPending,
		CreatedAt:   now,
	}
	if err := l.outbox.CreateMessageTx(ctx, tx, msg); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create outbox message for purchase %s: %w", purchase.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction for purchase %s: %w", purchase.ID, err)
	}

	l.logger.Info("Purchase outcome recorded",
		zap.String("purchase_id", purchase.ID),
		zap.String("status", string(status)),
		zap.String("message_type", messageType))
	return nil
}
