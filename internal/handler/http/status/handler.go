package status_http

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"vinreport/internal/repository/purchases_repo"
	"vinreport/internal/repository/session_repo"
)

// StatusHandler exposes a read-only operator view of sessions and recorded
// purchases.
type StatusHandler struct {
	sessions  session_repo.Repository
	purchases purchases_repo.PurchaseRepository
	db        *sql.DB
	logger    *zap.Logger
}

func NewStatusHandler(sessions session_repo.Repository, purchases purchases_repo.PurchaseRepository, db *sql.DB, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{sessions: sessions, purchases: purchases, db: db, logger: logger}
}

type SessionResponse struct {
	ChatID    int64  `json:"chat_id"`
	VIN       string `json:"vin,omitempty"`
	Status    string `json:"status"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type PurchaseResponse struct {
	ID          string `json:"id"`
	ChatID      int64  `json:"chat_id"`
	VIN         string `json:"vin"`
	ChargeID    string `json:"charge_id"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	FailReason  string `json:"fail_reason,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func (h *StatusHandler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	chatID, ok := parseChatID(w, r)
	if !ok {
		return
	}

	txn, err := h.sessions.Get(r.Context(), chatID)
	if err != nil {
		h.logger.Error("Failed to load session", zap.Int64("chat_id", chatID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := SessionResponse{
		ChatID: txn.ChatID,
		VIN:    txn.VIN,
		Status: string(txn.Status),
	}
	if !txn.UpdatedAt.IsZero() {
		resp.UpdatedAt = txn.UpdatedAt.Format(time.RFC3339)
	}
	writeJSON(w, h.logger, resp)
}

func (h *StatusHandler) ListPurchasesHandler(w http.ResponseWriter, r *http.Request) {
	chatID, ok := parseChatID(w, r)
	if !ok {
		return
	}

	purchases, err := h.purchases.ListByChatTx(r.Context(), h.db, chatID)
	if err != nil {
		h.logger.Error("Failed to list purchases", zap.Int64("chat_id", chatID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]PurchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		resp = append(resp, PurchaseResponse{
			ID:          p.ID,
			ChatID:      p.ChatID,
			VIN:         p.VIN,
			ChargeID:    p.ChargeID,
			AmountMinor: p.AmountMinor,
			Currency:    p.Currency,
			Status:      string(p.Status),
			FailReason:  p.FailReason,
			CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, h.logger, resp)
}

func parseChatID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	chatIDStr := chi.URLParam(r, "chatID")
	chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid chat ID format", http.StatusBadRequest)
		return 0, false
	}
	return chatID, true
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to write JSON response", zap.Error(err))
	}
}
