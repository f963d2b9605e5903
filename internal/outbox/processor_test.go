package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"vinreport/internal/domain"
)

type fakeOutboxRepo struct {
	mu       sync.Mutex
	pending  []domain.OutboxMessage
	statuses map[string]domain.OutboxMessageStatus
}

func (r *fakeOutboxRepo) CreateMessageTx(ctx context.Context, querier domain.Querier, msg *domain.OutboxMessage) error {
	return nil
}

func (r *fakeOutboxRepo) GetPendingMessages(ctx context.Context, querier domain.Querier, limit int) ([]domain.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.OutboxMessage
	for _, msg := range r.pending {
		if r.statuses[msg.ID] == domain.OutboxStatusPending {
			out = append(out, msg)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeOutboxRepo) UpdateMessageStatusTx(ctx context.Context, querier domain.Querier, id string, status domain.OutboxMessageStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[id] = status
	return nil
}

type fakeProducer struct {
	mu       sync.Mutex
	err      error
	produced []string
}

func (p *fakeProducer) Produce(ctx context.Context, key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.produced = append(p.produced, string(value))
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func newFakeRepo(ids ...string) *fakeOutboxRepo {
	repo := &fakeOutboxRepo{statuses: make(map[string]domain.OutboxMessageStatus)}
	for _, id := range ids {
		repo.pending = append(repo.pending, domain.OutboxMessage{
			ID:      id,
			Key:     "1",
			Payload: []byte(`{"purchase_id":"` + id + `"}`),
			Status:  domain.OutboxStatusPending,
		})
		repo.statuses[id] = domain.OutboxStatusPending
	}
	return repo
}

func runOneTick(t *testing.T, repo *fakeOutboxRepo, producer *fakeProducer) {
	t.Helper()
	p := NewProcessor(nil, repo, producer, 5*time.Millisecond, time.Second, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	p.Start(ctx)
}

func TestProcessor_PublishesPendingAndMarksSent(t *testing.T) {
	repo := newFakeRepo("m-1", "m-2")
	producer := &fakeProducer{}

	runOneTick(t, repo, producer)

	assert.Len(t, producer.produced, 2)
	assert.Equal(t, domain.OutboxStatusSent, repo.statuses["m-1"])
	assert.Equal(t, domain.OutboxStatusSent, repo.statuses["m-2"])
}

func TestProcessor_FailedPublishLeavesMessagePending(t *testing.T) {
	repo := newFakeRepo("m-1")
	producer := &fakeProducer{err: errors.New("broker down")}

	runOneTick(t, repo, producer)

	assert.Empty(t, producer.produced)
	assert.Equal(t, domain.OutboxStatusPending, repo.statuses["m-1"])
}
