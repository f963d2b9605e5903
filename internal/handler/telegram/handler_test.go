package telegram

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type call struct {
	name    string
	chatID  int64
	payload string
	text    string
}

type fakeService struct {
	calls       []call
	precheckOK  bool
	precheckMsg string
}

func (s *fakeService) Greet(ctx context.Context, chatID int64) error {
	s.calls = append(s.calls, call{name: "greet", chatID: chatID})
	return nil
}

func (s *fakeService) SubmitVIN(ctx context.Context, chatID int64, raw string) error {
	s.calls = append(s.calls, call{name: "submit", chatID: chatID, text: raw})
	return nil
}

func (s *fakeService) Buy(ctx context.Context, chatID int64) error {
	s.calls = append(s.calls, call{name: "buy", chatID: chatID})
	return nil
}

func (s *fakeService) AuthorizePreCheckout(chatID int64, payload string) (bool, string) {
	s.calls = append(s.calls, call{name: "precheckout", chatID: chatID, payload: payload})
	return s.precheckOK, s.precheckMsg
}

func (s *fakeService) ConfirmPayment(ctx context.Context, chatID int64, chargeID, payload string, amountMinor int64, currency string) error {
	s.calls = append(s.calls, call{name: "confirm", chatID: chatID, payload: payload})
	return nil
}

type fakeAnswerer struct {
	queryID string
	ok      bool
	reason  string
}

func (a *fakeAnswerer) AnswerPreCheckout(queryID string, ok bool, errorMessage string) error {
	a.queryID = queryID
	a.ok = ok
	a.reason = errorMessage
	return nil
}

func message(chatID int64, text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
	}
	if len(text) > 0 && text[0] == '/' {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	}
	return msg
}

func TestHandle_TextIsVINSubmission(t *testing.T) {
	svc := &fakeService{}
	h := NewHandler(svc, &fakeAnswerer{}, zap.NewNop())

	h.Handle(context.Background(), tgbotapi.Update{Message: message(5, "1HGCM82633A004352")})

	assert.Equal(t, []call{{name: "submit", chatID: 5, text: "1HGCM82633A004352"}}, svc.calls)
}

func TestHandle_Commands(t *testing.T) {
	svc := &fakeService{}
	h := NewHandler(svc, &fakeAnswerer{}, zap.NewNop())
	ctx := context.Background()

	h.Handle(ctx, tgbotapi.Update{Message: message(5, "/start")})
	h.Handle(ctx, tgbotapi.Update{Message: message(5, "/buy")})
	h.Handle(ctx, tgbotapi.Update{Message: message(5, "/unknown")})

	assert.Equal(t, []call{{name: "greet", chatID: 5}, {name: "buy", chatID: 5}}, svc.calls)
}

func TestHandle_PreCheckoutAnswered(t *testing.T) {
	svc := &fakeService{precheckOK: false, precheckMsg: "Payment error, please try again later."}
	ans := &fakeAnswerer{}
	h := NewHandler(svc, ans, zap.NewNop())

	h.Handle(context.Background(), tgbotapi.Update{PreCheckoutQuery: &tgbotapi.PreCheckoutQuery{
		ID:             "q-1",
		From:           &tgbotapi.User{ID: 5},
		InvoicePayload: "other_payment_123",
	}})

	assert.Equal(t, []call{{name: "precheckout", chatID: 5, payload: "other_payment_123"}}, svc.calls)
	assert.Equal(t, "q-1", ans.queryID)
	assert.False(t, ans.ok)
	assert.Equal(t, "Payment error, please try again later.", ans.reason)
}

func TestHandle_SuccessfulPayment(t *testing.T) {
	svc := &fakeService{}
	h := NewHandler(svc, &fakeAnswerer{}, zap.NewNop())

	msg := message(5, "")
	msg.SuccessfulPayment = &tgbotapi.SuccessfulPayment{
		Currency:                "USD",
		TotalAmount:             299,
		InvoicePayload:          "vin_report_5_1HGCM82633A004352",
		TelegramPaymentChargeID: "charge-1",
	}
	h.Handle(context.Background(), tgbotapi.Update{Message: msg})

	assert.Equal(t, []call{{name: "confirm", chatID: 5, payload: "vin_report_5_1HGCM82633A004352"}}, svc.calls)
}
