package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/crypto"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/ledger"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/store"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt input limit
)

// CreateUserRequest is the registration request body.
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateUser registers a user with a bcrypt-hashed password.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decode(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	username := sanitizeName(req.Username, maxUsernameLength)
	if len(username) < minUsernameLength {
		h.Error(w, http.StatusBadRequest, "username must be at least 3 characters")
		return
	}
	if len(req.Password) < minPasswordLength || len(req.Password) > maxPasswordLength {
		h.Error(w, http.StatusBadRequest, "password must be 8 to 72 characters")
		return
	}

	existing, err := h.store.GetUserByUsername(r.Context(), username)
	if err != nil {
		h.fail(w, r, err, "database error")
		return
	}
	if existing != nil {
		h.Error(w, http.StatusConflict, "username already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.fail(w, r, err, "failed to create user")
		return
	}

	user := &models.User{
		ID:           crypto.NewID(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, store.ErrDuplicate) {
			h.Error(w, http.StatusConflict, "username already exists")
			return
		}
		h.fail(w, r, err, "failed to create user")
		return
	}

	h.JSON(w, http.StatusCreated, user)
}

// UserTransactions lists a user's purchases, newest first.
func (h *Handler) UserTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	txs, err := h.store.ListTransactions(r.Context(), models.TransactionFilter{
		UserID: user.ID,
		Limit:  queryLimit(r, 50),
	})
	if err != nil {
		h.fail(w, r, err, "Failed to fetch transactions")
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	h.JSON(w, http.StatusOK, txs)
}

func (h *Handler) loadUser(w http.ResponseWriter, r *http.Request, id string) (*models.User, bool) {
	user, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "database error")
		return nil, false
	}
	if user == nil {
		h.Error(w, http.StatusNotFound, "user not found")
		return nil, false
	}
	return user, true
}

// PurchaseRequest records an off-ledger token purchase.
type PurchaseRequest struct {
	UserID string `json:"userId"`
	Amount string `json:"amount"`
	Chain  string `json:"chain"`
}

// CreatePurchase records a pending purchase for a user.
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := decode(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	amount, err := ledger.ParseAmount(req.Amount)
	if err != nil || amount.IsZero() {
		h.Error(w, http.StatusBadRequest, "amount must be a positive integer")
		return
	}
	chain := sanitizeName(req.Chain, 32)
	if chain == "" {
		h.Error(w, http.StatusBadRequest, "chain is required")
		return
	}
	if chain == ledger.Chain {
		h.Error(w, http.StatusBadRequest, "purchases cannot target the internal ledger")
		return
	}

	user, ok := h.loadUser(w, r, req.UserID)
	if !ok {
		return
	}

	tx := &models.Transaction{
		ID:        crypto.NewSortableID(),
		UserID:    &user.ID,
		Type:      "purchase",
		Amount:    amount.Dec(),
		Currency:  ledger.Currency,
		Status:    models.TxPending,
		Chain:     chain,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.CreateTransaction(r.Context(), tx); err != nil {
		h.fail(w, r, err, "failed to record purchase")
		return
	}
	h.JSON(w, http.StatusCreated, tx)
}

// UpdateStatusRequest changes a transaction's status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateTransactionStatus moves a purchase between pending, completed and failed.
// Ledger rows are immutable.
func (h *Handler) UpdateTransactionStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := decode(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	switch req.Status {
	case models.TxPending, models.TxCompleted, models.TxFailed:
	default:
		h.Error(w, http.StatusBadRequest, "status must be pending, completed or failed")
		return
	}

	id := chi.URLParam(r, "id")
	tx, err := h.store.GetTransaction(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "database error")
		return
	}
	if tx == nil {
		h.Error(w, http.StatusNotFound, "transaction not found")
		return
	}
	if tx.Chain == ledger.Chain {
		h.Error(w, http.StatusConflict, "ledger transactions are immutable")
		return
	}

	updated, err := h.store.UpdateTransactionStatus(r.Context(), id, req.Status)
	if err != nil {
		h.fail(w, r, err, "failed to update transaction")
		return
	}
	if updated == nil {
		h.Error(w, http.StatusNotFound, "transaction not found")
		return
	}
	h.JSON(w, http.StatusOK, updated)
}
