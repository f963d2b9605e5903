package domain

import "time"

type TransactionStatus string

const (
	StatusIdle             TransactionStatus = "IDLE"
	StatusVerified         TransactionStatus = "VERIFIED"
	StatusInvoiceSent      TransactionStatus = "INVOICE_SENT"
	StatusPaymentConfirmed TransactionStatus = "PAYMENT_CONFIRMED"
	StatusFulfilled        TransactionStatus = "FULFILLED"
)

// Transaction is the per-chat record driving the purchase flow. VIN is empty
// until a lookup succeeds; a later successful lookup overwrites it regardless
// of the current status (last lookup wins).
type Transaction struct {
	ChatID    int64
	VIN       string
	Status    TransactionStatus
	UpdatedAt time.Time
}

// HasVIN reports whether a verified VIN is on record for this chat.
func (t *Transaction) HasVIN() bool {
	return t.VIN != ""
}
