package event

import "time"

const (
	TypePurchaseCompleted = "purchase.completed"
	TypePurchaseFailed    = "purchase.failed"
)

// PurchaseCompletedEvent is published after a report has been fetched and
// delivered for a paid purchase.
type PurchaseCompletedEvent struct {
	PurchaseID  string    `json:"purchase_id"`
	ChatID      int64     `json:"chat_id"`
	VIN         string    `json:"vin"`
	ChargeID    string    `json:"charge_id"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
	Timestamp   time.Time `json:"timestamp"`
}

// PurchaseFailedEvent is published when payment was captured but the report
// could not be fetched or delivered.
type PurchaseFailedEvent struct {
	PurchaseID  string    `json:"purchase_id"`
	ChatID      int64     `json:"chat_id"`
	VIN         string    `json:"vin"`
	ChargeID    string    `json:"charge_id"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
	Reason      string    `json:"reason"`
	Timestamp   time.Time `json:"timestamp"`
}
