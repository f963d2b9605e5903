package telegram

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingHandler parks the first Handle call on gate and records the text of
// every completed invocation.
type blockingHandler struct {
	gate    chan struct{}
	started chan struct{}
	first   sync.Once

	mu      sync.Mutex
	handled []string
}

func (h *blockingHandler) Handle(_ context.Context, update tgbotapi.Update) {
	h.first.Do(func() {
		close(h.started)
		<-h.gate
	})
	h.mu.Lock()
	h.handled = append(h.handled, update.Message.Text)
	h.mu.Unlock()
}

func (h *blockingHandler) snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.handled...)
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: chatID},
			Text: text,
		},
	}
}

// A /buy arriving right after a VIN submission must wait for the VIN handler
// to finish, even when the lookup it performs is slow.
func TestDispatcher_SameChatUpdatesHandledInArrivalOrder(t *testing.T) {
	h := &blockingHandler{gate: make(chan struct{}), started: make(chan struct{})}
	d := newDispatcher(h)

	d.dispatch(context.Background(), textUpdate(42, "1HGCM82633A004352"))
	select {
	case <-h.started:
	case <-time.After(time.Second):
		t.Fatal("first handler never started")
	}

	d.dispatch(context.Background(), textUpdate(42, "/buy"))
	time.Sleep(20 * time.Millisecond)
	require.Empty(t, h.snapshot(), "/buy ran before the VIN submission finished")

	close(h.gate)
	d.stop()

	assert.Equal(t, []string{"1HGCM82633A004352", "/buy"}, h.snapshot())
}

func TestDispatcher_OtherChatsProceedWhileOneIsBlocked(t *testing.T) {
	h := &blockingHandler{gate: make(chan struct{}), started: make(chan struct{})}
	d := newDispatcher(h)

	d.dispatch(context.Background(), textUpdate(42, "1HGCM82633A004352"))
	select {
	case <-h.started:
	case <-time.After(time.Second):
		t.Fatal("first handler never started")
	}

	d.dispatch(context.Background(), textUpdate(7, "/start"))
	assert.Eventually(t, func() bool {
		s := h.snapshot()
		return len(s) == 1 && s[0] == "/start"
	}, time.Second, 5*time.Millisecond, "second chat stalled behind the first")

	close(h.gate)
	d.stop()
}

func TestUpdateChatID(t *testing.T) {
	assert.Equal(t, int64(42), updateChatID(textUpdate(42, "hi")))
	assert.Equal(t, int64(42), updateChatID(tgbotapi.Update{
		PreCheckoutQuery: &tgbotapi.PreCheckoutQuery{From: &tgbotapi.User{ID: 42}},
	}))
	assert.Equal(t, int64(0), updateChatID(tgbotapi.Update{}))
}
