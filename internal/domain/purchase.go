package domain

import (
	"errors"
	"time"
)

type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "PENDING"
	PurchaseStatusFulfilled PurchaseStatus = "FULFILLED"
	PurchaseStatusFailed    PurchaseStatus = "FAILED"
)

var ErrDuplicateCharge = errors.New("purchase already recorded for this charge")

// Purchase is the durable ledger row written for every confirmed payment.
// ChargeID is the payment provider's unique charge identifier and is the
// idempotency key: a redelivered successful-payment event maps onto the same
// row and triggers no second fulfillment.
type Purchase struct {
	ID          string
	ChatID      int64
	VIN         string
	ChargeID    string
	Payload     string
	AmountMinor int64
	Currency    string
	Status      PurchaseStatus
	FailReason  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
