package gateway

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"vinreport/internal/domain"
)

const (
	invoiceTitle = "Vehicle History Report"

	// RejectReason is the fixed user-facing string returned with every
	// refused pre-checkout query.
	RejectReason = "Payment error, please try again later."
)

// Invoicer is the transport primitive that delivers an invoice to a chat.
type Invoicer interface {
	SendInvoice(ctx context.Context, invoice domain.Invoice) error
}

// Gateway issues invoices for verified VINs and authorizes pre-checkout
// queries against the payload namespace.
type Gateway struct {
	invoicer    Invoicer
	amountMinor int64
	currency    string
	logger      *zap.Logger
}

func New(invoicer Invoicer, amountMinor int64, currency string, logger *zap.Logger) *Gateway {
	return &Gateway{invoicer: invoicer, amountMinor: amountMinor, currency: currency, logger: logger}
}

func (g *Gateway) AmountMinor() int64 { return g.amountMinor }

func (g *Gateway) Currency() string { return g.currency }

// IssueInvoice builds the invoice for the chat's verified VIN and dispatches
// it through the transport.
func (g *Gateway) IssueInvoice(ctx context.Context, chatID int64, vin string) error {
	invoice := domain.Invoice{
		ChatID:      chatID,
		Title:       invoiceTitle,
		Description: fmt.Sprintf("Report for VIN %s", vin),
		Payload:     domain.BuildPayload(chatID, vin),
		Currency:    g.currency,
		AmountMinor: g.amountMinor,
	}
	if err := g.invoicer.SendInvoice(ctx, invoice); err != nil {
		return fmt.Errorf("failed to send invoice for chat %d: %w", chatID, err)
	}
	g.logger.Info("Invoice sent", zap.Int64("chat_id", chatID), zap.String("vin", vin))
	return nil
}

// AuthorizePreCheckout accepts the query iff the payload carries this
// service's namespace. This is the sole gate against forged or unrelated
// payment claims; it fails closed on anything else. The identity embedded in
// the payload is not re-verified against the requester (the VIN delivered at
// fulfillment comes from the session record), but a mismatch is logged.
func (g *Gateway) AuthorizePreCheckout(chatID int64, payload string) (bool, string) {
	if !domain.PayloadInNamespace(payload) {
		g.logger.Warn("Rejected pre-checkout with foreign payload",
			zap.Int64("chat_id", chatID),
			zap.String("payload", payload))
		return false, RejectReason
	}
	if embeddedChat, _, err := domain.ParsePayload(payload); err == nil && embeddedChat != chatID {
		g.logger.Warn("Pre-checkout payload issued for a different chat",
			zap.Int64("chat_id", chatID),
			zap.Int64("payload_chat_id", embeddedChat))
	}
	return true, ""
}
