package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"vinreport/internal/domain"
)

// Bot wraps the Telegram API behind the outbound primitives the rest of the
// service uses: text, invoice, document and pre-checkout answer.
type Bot struct {
	api           *tgbotapi.BotAPI
	providerToken string
	logger        *zap.Logger
}

func NewBot(token, providerToken string, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	logger.Info("Connected to Telegram", zap.String("username", api.Self.UserName))
	return &Bot{api: api, providerToken: providerToken, logger: logger}, nil
}

// DeleteWebhook removes any webhook registration so long polling does not
// conflict with a previously configured push delivery.
func (b *Bot) DeleteWebhook() error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	return nil
}

func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return nil
}

func (b *Bot) SendInvoice(ctx context.Context, invoice domain.Invoice) error {
	cfg := tgbotapi.NewInvoice(
		invoice.ChatID,
		invoice.Title,
		invoice.Description,
		invoice.Payload,
		b.providerToken,
		"",
		invoice.Currency,
		[]tgbotapi.LabeledPrice{{Label: invoice.Title, Amount: int(invoice.AmountMinor)}},
	)
	if _, err := b.api.Send(cfg); err != nil {
		return fmt.Errorf("failed to send invoice to chat %d: %w", invoice.ChatID, err)
	}
	return nil
}

func (b *Bot) SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: filename, Bytes: data})
	doc.Caption = caption
	doc.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(doc); err != nil {
		return fmt.Errorf("failed to send document to chat %d: %w", chatID, err)
	}
	return nil
}

func (b *Bot) AnswerPreCheckout(queryID string, ok bool, errorMessage string) error {
	cfg := tgbotapi.PreCheckoutConfig{
		PreCheckoutQueryID: queryID,
		OK:                 ok,
		ErrorMessage:       errorMessage,
	}
	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("failed to answer pre-checkout query %s: %w", queryID, err)
	}
	return nil
}

// UpdateHandler processes one inbound Telegram update.
type UpdateHandler interface {
	Handle(ctx context.Context, update tgbotapi.Update)
}

// Poll long-polls Telegram and dispatches updates through a per-chat worker,
// so updates from the same chat are handled strictly in arrival order while
// different chats proceed concurrently. Blocks until ctx is cancelled.
func (b *Bot) Poll(ctx context.Context, handler UpdateHandler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	d := newDispatcher(handler)
	defer d.stop()

	b.logger.Info("Polling Telegram for updates")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, open := <-updates:
			if !open {
				return nil
			}
			d.dispatch(ctx, update)
		}
	}
}
