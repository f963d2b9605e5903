package purchases_repo

import (
	"context"

	"vinreport/internal/domain"
)

type PurchaseRepository interface {
	CreateTx(ctx context.Context, querier domain.Querier, purchase *domain.Purchase) error
	GetByChargeIDTx(ctx context.Context, querier domain.Querier, chargeID string) (*domain.Purchase, error)
	UpdateStatusTx(ctx context.Context, querier domain.Querier, id string, status domain.PurchaseStatus, failReason string) error
	ListByChatTx(ctx context.Context, querier domain.Querier, chatID int64) ([]domain.Purchase, error)
}
