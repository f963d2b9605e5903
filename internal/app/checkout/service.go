package checkout

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vinreport/internal/domain"
	"vinreport/internal/repository/session_repo"
	"vinreport/internal/util"
	"vinreport/internal/vin"
)

// User-facing texts. Sent verbatim; the transport renders markdown.
const (
	msgGreeting     = "Hello! 🚗 Send me a VIN number, and I will check it. After that, you can purchase a vehicle history report."
	msgInvalidVIN   = "❌ Error! VIN must be **17 characters** long."
	msgCheckingVIN  = "🔍 Checking VIN..."
	msgVINNotFound  = "❌ VIN not found. Please check and try again."
	msgBuyNoVIN     = "⚠️ Please send a VIN for verification first!"
	msgGenerating   = "📑 Generating report..."
	msgPaymentNoVIN = "⚠️ Error: VIN not found. Please try again."
	msgReportFailed = "❌ Report retrieval error. Please contact support."
)

// Messenger is the transport's outbound text/document surface.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error
}

// VINLookup reports whether the lookup service knows a VIN.
type VINLookup interface {
	Lookup(ctx context.Context, vin string) (bool, error)
}

// ReportFetcher retrieves the report document for a verified VIN.
type ReportFetcher interface {
	Fetch(ctx context.Context, vin string) ([]byte, error)
}

// PaymentGateway issues invoices and authorizes pre-checkout queries.
type PaymentGateway interface {
	IssueInvoice(ctx context.Context, chatID int64, vin string) error
	AuthorizePreCheckout(chatID int64, payload string) (bool, string)
	AmountMinor() int64
	Currency() string
}

// PurchaseRecorder persists purchase outcomes. Begin must return
// domain.ErrDuplicateCharge for an already-recorded charge.
type PurchaseRecorder interface {
	Begin(ctx context.Context, purchase *domain.Purchase) error
	Complete(ctx context.Context, purchase *domain.Purchase) error
	Fail(ctx context.Context, purchase *domain.Purchase, reason string) error
}

// Service is the per-chat transaction state machine. It sequences VIN
// verification, invoice issuance, payment authorization and report
// fulfillment; every error it can handle is answered with a user-facing
// message rather than propagated.
type Service interface {
	Greet(ctx context.Context, chatID int64) error
	SubmitVIN(ctx context.Context, chatID int64, raw string) error
	Buy(ctx context.Context, chatID int64) error
	AuthorizePreCheckout(chatID int64, payload string) (bool, string)
	ConfirmPayment(ctx context.Context, chatID int64, chargeID, payload string, amountMinor int64, currency string) error
}

type service struct {
	sessions session_repo.Repository
	lookup   VINLookup
	reports  ReportFetcher
	gateway  PaymentGateway
	recorder PurchaseRecorder
	msgr     Messenger
	logger   *zap.Logger
}

func NewService(
	sessions session_repo.Repository,
	lookup VINLookup,
	reports ReportFetcher,
	gateway PaymentGateway,
	recorder PurchaseRecorder,
	msgr Messenger,
	logger *zap.Logger,
) Service {
	return &service{
		sessions: sessions,
		lookup:   lookup,
		reports:  reports,
		gateway:  gateway,
		recorder: recorder,
		msgr:     msgr,
		logger:   logger,
	}
}

func (s *service) Greet(ctx context.Context, chatID int64) error {
	return s.msgr.SendText(ctx, chatID, msgGreeting)
}

// SubmitVIN handles an inbound text as a VIN submission. An invalid format is
// rejected before any network call; a successful lookup overwrites whatever
// VIN was on record, regardless of the current status (last lookup wins).
func (s *service) SubmitVIN(ctx context.Context, chatID int64, raw string) error {
	v, err := vin.Validate(raw)
	if err != nil {
		return s.msgr.SendText(ctx, chatID, msgInvalidVIN)
	}

	if err := s.msgr.SendText(ctx, chatID, msgCheckingVIN); err != nil {
		return err
	}

	found, err := s.lookup.Lookup(ctx, v)
	if err != nil {
		s.logger.Error("VIN lookup failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return s.msgr.SendText(ctx, chatID, msgVINNotFound)
	}
	if !found {
		return s.msgr.SendText(ctx, chatID, msgVINNotFound)
	}

	if _, err := s.sessions.Update(ctx, chatID, func(txn *domain.Transaction) error {
		txn.VIN = v
		txn.Status = domain.StatusVerified
		return nil
	}); err != nil {
		return fmt.Errorf("failed to store verified VIN for chat %d: %w", chatID, err)
	}
	s.logger.Info("VIN verified", zap.Int64("chat_id", chatID), zap.String("vin", v))

	prompt := fmt.Sprintf("✅ VIN found! 🚗\n\n💰 Report price: **%s**\n\nPress /buy to purchase.",
		formatPrice(s.gateway.AmountMinor(), s.gateway.Currency()))
	return s.msgr.SendText(ctx, chatID, prompt)
}

// Buy issues the invoice for the chat's verified VIN. Without one the user is
// told to submit a VIN first and no invoice is sent.
func (s *service) Buy(ctx context.Context, chatID int64) error {
	txn, err := s.sessions.Get(ctx, chatID)
	if err != nil {
		return fmt.Errorf("failed to load session for chat %d: %w", chatID, err)
	}
	if !txn.HasVIN() {
		return s.msgr.SendText(ctx, chatID, msgBuyNoVIN)
	}

	if err := s.gateway.IssueInvoice(ctx, chatID, txn.VIN); err != nil {
		return err
	}

	if _, err := s.sessions.Update(ctx, chatID, func(txn *domain.Transaction) error {
		txn.Status = domain.StatusInvoiceSent
		return nil
	}); err != nil {
		return fmt.Errorf("failed to mark invoice sent for chat %d: %w", chatID, err)
	}
	return nil
}

// AuthorizePreCheckout is a side check, not a state change.
func (s *service) AuthorizePreCheckout(chatID int64, payload string) (bool, string) {
	return s.gateway.AuthorizePreCheckout(chatID, payload)
}

// ConfirmPayment fulfills a captured payment: the report is fetched for the
// VIN currently in the session record (never the one embedded in the invoice
// payload) and sent as a document. The provider charge id makes fulfillment
// idempotent; a redelivered payment event sends nothing twice.
func (s *service) ConfirmPayment(ctx context.Context, chatID int64, chargeID, payload string, amountMinor int64, currency string) error {
	txn, err := s.sessions.Get(ctx, chatID)
	if err != nil {
		return fmt.Errorf("failed to load session for chat %d: %w", chatID, err)
	}
	if !txn.HasVIN() {
		s.logger.Error("Successful payment without a VIN on record", zap.Int64("chat_id", chatID), zap.String("charge_id", chargeID))
		return s.msgr.SendText(ctx, chatID, msgPaymentNoVIN)
	}

	if _, embeddedVIN, err := domain.ParsePayload(payload); err == nil && embeddedVIN != txn.VIN {
		s.logger.Warn("Invoice payload VIN differs from session VIN, fulfilling the session VIN",
			zap.Int64("chat_id", chatID),
			zap.String("payload_vin", embeddedVIN),
			zap.String("session_vin", txn.VIN))
	}

	now := time.Now()
	purchase := &domain.Purchase{
		ID:          util.GenerateUUID(),
		ChatID:      chatID,
		VIN:         txn.VIN,
		ChargeID:    chargeID,
		Payload:     payload,
		AmountMinor: amountMinor,
		Currency:    currency,
		Status:      domain.PurchaseStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	// The duplicate check runs before any session mutation so a redelivered
	// payment event leaves a fulfilled session fulfilled.
	if err := s.recorder.Begin(ctx, purchase); err != nil {
		if err == domain.ErrDuplicateCharge {
			s.logger.Info("Duplicate successful-payment event, skipping fulfillment",
				zap.Int64("chat_id", chatID), zap.String("charge_id", chargeID))
			return nil
		}
		return err
	}

	if _, err := s.sessions.Update(ctx, chatID, func(txn *domain.Transaction) error {
		txn.Status = domain.StatusPaymentConfirmed
		return nil
	}); err != nil {
		return fmt.Errorf("failed to mark payment confirmed for chat %d: %w", chatID, err)
	}

	if err := s.msgr.SendText(ctx, chatID, msgGenerating); err != nil {
		return err
	}

	data, err := s.reports.Fetch(ctx, txn.VIN)
	if err != nil {
		s.logger.Error("Report fetch failed after payment",
			zap.Int64("chat_id", chatID), zap.String("vin", txn.VIN), zap.Error(err))
		if failErr := s.recorder.Fail(ctx, purchase, err.Error()); failErr != nil {
			s.logger.Error("Failed to record failed purchase", zap.String("purchase_id", purchase.ID), zap.Error(failErr))
		}
		return s.msgr.SendText(ctx, chatID, msgReportFailed)
	}

	filename := fmt.Sprintf("vin_report_%s.html", txn.VIN)
	caption := fmt.Sprintf("🚗 **Vehicle History Report for VIN %s**", txn.VIN)
	if err := s.msgr.SendDocument(ctx, chatID, filename, data, caption); err != nil {
		if failErr := s.recorder.Fail(ctx, purchase, "document delivery failed"); failErr != nil {
			s.logger.Error("Failed to record failed purchase", zap.String("purchase_id", purchase.ID), zap.Error(failErr))
		}
		return fmt.Errorf("failed to deliver report for chat %d: %w", chatID, err)
	}

	if err := s.recorder.Complete(ctx, purchase); err != nil {
		// The user already has the report; the ledger row stays PENDING.
		s.logger.Error("Failed to record completed purchase", zap.String("purchase_id", purchase.ID), zap.Error(err))
	}

	if _, err := s.sessions.Update(ctx, chatID, func(txn *domain.Transaction) error {
		txn.Status = domain.StatusFulfilled
		return nil
	}); err != nil {
		return fmt.Errorf("failed to mark purchase fulfilled for chat %d: %w", chatID, err)
	}
	s.logger.Info("Report delivered",
		zap.Int64("chat_id", chatID), zap.String("vin", txn.VIN), zap.String("purchase_id", purchase.ID))
	return nil
}

// formatPrice renders a minor-unit amount in the invoice currency. USD gets
// its symbol; other ISO codes are appended after the amount.
func formatPrice(amountMinor int64, currency string) string {
	amount := fmt.Sprintf("%d.%02d", amountMinor/100, amountMinor%100)
	if currency == "USD" {
		return "$" + amount
	}
	return amount + " " + currency
}
