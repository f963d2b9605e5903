package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// dispatcher fans updates out to one worker goroutine per chat. A handler
// invocation for a chat finishes before the next update for that chat is
// handled, so a payment confirmation can never overtake the invoice request
// that preceded it.
type dispatcher struct {
	handler UpdateHandler

	mu     sync.Mutex
	queues map[int64]chan tgbotapi.Update
	wg     sync.WaitGroup
}

func newDispatcher(handler UpdateHandler) *dispatcher {
	return &dispatcher{
		handler: handler,
		queues:  make(map[int64]chan tgbotapi.Update),
	}
}

// dispatch enqueues the update for its chat, starting a worker on the chat's
// first update. Blocks only when that chat's queue is full.
func (d *dispatcher) dispatch(ctx context.Context, update tgbotapi.Update) {
	key := updateChatID(update)

	d.mu.Lock()
	q, ok := d.queues[key]
	if !ok {
		q = make(chan tgbotapi.Update, 32)
		d.queues[key] = q
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for upd := range q {
				d.handler.Handle(ctx, upd)
			}
		}()
	}
	d.mu.Unlock()

	q <- update
}

// stop closes all queues and waits for in-flight handlers to drain.
func (d *dispatcher) stop() {
	d.mu.Lock()
	for _, q := range d.queues {
		close(q)
	}
	d.queues = make(map[int64]chan tgbotapi.Update)
	d.mu.Unlock()
	d.wg.Wait()
}

// updateChatID extracts the chat the update belongs to. Messages carry it on
// the chat itself; pre-checkout queries only carry the paying user, whose ID
// equals the private chat ID.
func updateChatID(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil:
		return update.Message.Chat.ID
	case update.PreCheckoutQuery != nil:
		return update.PreCheckoutQuery.From.ID
	}
	return 0
}
