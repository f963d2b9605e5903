package status_http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vinreport/internal/domain"
	"vinreport/internal/repository/session_repo/memory"
)

type fakePurchases struct {
	byChat map[int64][]domain.Purchase
}

func (f *fakePurchases) CreateTx(ctx context.Context, querier domain.Querier, purchase *domain.Purchase) error {
	return nil
}

func (f *fakePurchases) GetByChargeIDTx(ctx context.Context, querier domain.Querier, chargeID string) (*domain.Purchase, error) {
	return nil, nil
}

func (f *fakePurchases) UpdateStatusTx(ctx context.Context, querier domain.Querier, id string, status domain.PurchaseStatus, failReason string) error {
	return nil
}

func (f *fakePurchases) ListByChatTx(ctx context.Context, querier domain.Querier, chatID int64) ([]domain.Purchase, error) {
	return f.byChat[chatID], nil
}

func newTestRouter(t *testing.T, sessions *memory.SessionRepository, purchases *fakePurchases) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	RegisterRoutes(r, sessions, purchases, nil, zap.NewNop())
	return r
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, memory.NewSessionRepository(), &fakePurchases{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetSession(t *testing.T) {
	sessions := memory.NewSessionRepository()
	_, err := sessions.Update(context.Background(), 42, func(txn *domain.Transaction) error {
		txn.VIN = "1HGCM82633A004352"
		txn.Status = domain.StatusVerified
		return nil
	})
	require.NoError(t, err)

	router := newTestRouter(t, sessions, &fakePurchases{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/42", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.ChatID)
	assert.Equal(t, "1HGCM82633A004352", resp.VIN)
	assert.Equal(t, string(domain.StatusVerified), resp.Status)
}

func TestGetSession_BadChatID(t *testing.T) {
	router := newTestRouter(t, memory.NewSessionRepository(), &fakePurchases{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPurchases(t *testing.T) {
	purchases := &fakePurchases{byChat: map[int64][]domain.Purchase{
		42: {{
			ID:          "p-1",
			ChatID:      42,
			VIN:         "1HGCM82633A004352",
			ChargeID:    "charge-1",
			AmountMinor: 299,
			Currency:    "USD",
			Status:      domain.PurchaseStatusFulfilled,
			CreatedAt:   time.Now(),
		}},
	}}

	router := newTestRouter(t, memory.NewSessionRepository(), purchases)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/purchases/42", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []PurchaseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "charge-1", resp[0].ChargeID)
	assert.Equal(t, string(domain.PurchaseStatusFulfilled), resp[0].Status)
}

func TestListPurchases_EmptyIsJSONArray(t *testing.T) {
	router := newTestRouter(t, memory.NewSessionRepository(), &fakePurchases{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/purchases/42", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
