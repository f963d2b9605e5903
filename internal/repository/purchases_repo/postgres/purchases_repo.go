package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vinreport/internal/domain"
)

type PurchaseRepository struct{}

func NewPurchaseRepository() *PurchaseRepository {
	return &PurchaseRepository{}
}

// CreateTx inserts a purchase row. The unique charge_id constraint is the
// idempotency guard: a second insert for the same provider charge returns
// domain.ErrDuplicateCharge and writes nothing.
func (r *PurchaseRepository) CreateTx(ctx context.Context, querier domain.Querier, purchase *domain.Purchase) error {
	query := `
		INSERT INTO purchases (id, chat_id, vin, charge_id, payload, amount_minor, currency, status, fail_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (charge_id) DO NOTHING
	`
	res, err := querier.ExecContext(ctx, query,
		purchase.ID,
		purchase.ChatID,
		purchase.VIN,
		purchase.ChargeID,
		purchase.Payload,
		purchase.AmountMinor,
		purchase.Currency,
		purchase.Status,
		purchase.FailReason,
		purchase.CreatedAt,
		purchase.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create purchase: %w", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for purchase insert: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrDuplicateCharge
	}
	return nil
}

func (r *PurchaseRepository) GetByChargeIDTx(ctx context.Context, querier domain.Querier, chargeID string) (*domain.Purchase, error) {
	query := `
		SELECT id, chat_id, vin, charge_id, payload, amount_minor, currency, status, fail_reason, created_at, updated_at
		FROM purchases
		WHERE charge_id = $1
	`
	purchase := &domain.Purchase{}
	err := querier.QueryRowContext(ctx, query, chargeID).Scan(
		&purchase.ID,
		&purchase.ChatID,
		&purchase.VIN,
		&purchase.ChargeID,
		&purchase.Payload,
		&purchase.AmountMinor,
		&purchase.Currency,
		&purchase.Status,
		&purchase.FailReason,
		&purchase.CreatedAt,
		&purchase.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get purchase by charge id %s: %w", chargeID, err)
	}
	return purchase, nil
}

func (r *PurchaseRepository) UpdateStatusTx(ctx context.Context, querier domain.Querier, id string, status domain.PurchaseStatus, failReason string) error {
	query := `
		UPDATE purchases
		SET status = $1, fail_reason = $2, updated_at = $3
		WHERE id = $4
	`
	res, err := querier.ExecContext(ctx, query, string(status), failReason, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update purchase status %s: %w", id, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for purchase status update: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("purchase with id %s not found for status update", id)
	}
	return nil
}

func (r *PurchaseRepository) ListByChatTx(ctx context.Context, querier domain.Querier, chatID int64) ([]domain.Purchase, error) {
	query := `
		SELECT id, chat_id, vin, charge_id, payload, amount_minor, currency, status, fail_reason, created_at, updated_at
		FROM purchases
		WHERE chat_id = $1
		ORDER BY created_at DESC
	`
	rows, err := querier.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases for chat %d: %w", chatID, err)
	}
	defer rows.Close()

	var purchases []domain.Purchase
	for rows.Next() {
		p := domain.Purchase{}
		if err := rows.Scan(
			&p.ID,
			&p.ChatID,
			&p.VIN,
			&p.ChargeID,
			&p.Payload,
			&p.AmountMinor,
			&p.Currency,
			&p.Status,
			&p.FailReason,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchases: %w", err)
	}
	return purchases, nil
}
