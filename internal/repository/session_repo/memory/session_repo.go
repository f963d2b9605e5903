package memory

import (
	"context"
	"sync"
	"time"

	"vinreport/internal/domain"
)

type entry struct {
	mu  sync.Mutex
	txn domain.Transaction
}

// SessionRepository is an in-memory keyed map of transaction records with
// per-key read-modify-write atomicity. Records are created lazily on first
// access and never expire.
type SessionRepository struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{entries: make(map[int64]*entry)}
}

func (r *SessionRepository) entryFor(chatID int64) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[chatID]
	if !ok {
		e = &entry{txn: domain.Transaction{ChatID: chatID, Status: domain.StatusIdle}}
		r.entries[chatID] = e
	}
	return e
}

func (r *SessionRepository) Get(ctx context.Context, chatID int64) (domain.Transaction, error) {
	e := r.entryFor(chatID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.txn, nil
}

// Update applies fn to the chat's record while holding that chat's lock. If fn
// returns an error the record is left untouched.
func (r *SessionRepository) Update(ctx context.Context, chatID int64, fn func(*domain.Transaction) error) (domain.Transaction, error) {
	e := r.entryFor(chatID)
	e.mu.Lock()
	defer e.mu.Unlock()

	updated := e.txn
	if err := fn(&updated); err != nil {
		return e.txn, err
	}
	updated.ChatID = chatID
	updated.UpdatedAt = time.Now()
	e.txn = updated
	return updated, nil
}
