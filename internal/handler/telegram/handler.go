package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"vinreport/internal/app/checkout"
)

// PreCheckoutAnswerer answers the payment provider's final authorization
// request.
type PreCheckoutAnswerer interface {
	AnswerPreCheckout(queryID string, ok bool, errorMessage string) error
}

// Handler routes inbound Telegram updates to the checkout service: plain text
// is a VIN submission, /buy requests an invoice, a pre-checkout query is
// authorized against the invoice payload and a successful payment triggers
// fulfillment.
type Handler struct {
	service  checkout.Service
	answerer PreCheckoutAnswerer
	logger   *zap.Logger
}

func NewHandler(service checkout.Service, answerer PreCheckoutAnswerer, logger *zap.Logger) *Handler {
	return &Handler{service: service, answerer: answerer, logger: logger}
}

func (h *Handler) Handle(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.PreCheckoutQuery != nil:
		h.handlePreCheckout(update.PreCheckoutQuery)
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	}
}

func (h *Handler) handlePreCheckout(query *tgbotapi.PreCheckoutQuery) {
	ok, reason := h.service.AuthorizePreCheckout(query.From.ID, query.InvoicePayload)
	if err := h.answerer.AnswerPreCheckout(query.ID, ok, reason); err != nil {
		h.logger.Error("Failed to answer pre-checkout query",
			zap.String("query_id", query.ID),
			zap.Error(err))
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	var err error
	switch {
	case msg.SuccessfulPayment != nil:
		sp := msg.SuccessfulPayment
		err = h.service.ConfirmPayment(ctx, chatID,
			sp.TelegramPaymentChargeID, sp.InvoicePayload,
			int64(sp.TotalAmount), sp.Currency)
	case msg.IsCommand():
		switch msg.Command() {
		case "start":
			err = h.service.Greet(ctx, chatID)
		case "buy":
			err = h.service.Buy(ctx, chatID)
		default:
			// unknown commands are ignored
			return
		}
	case msg.Text != "":
		err = h.service.SubmitVIN(ctx, chatID, msg.Text)
	default:
		return
	}

	if err != nil {
		h.logger.Error("Failed to handle Telegram message",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}
