package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/api/middleware"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/ledger"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/metrics"
)

// LedgerRequest is the body of a signed ledger write. Fields not used by
// an operation are ignored. Amounts are base-unit decimal strings.
type LedgerRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

// RevertResponse describes a rejected ledger operation.
type RevertResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// LedgerInfo returns the token's global state.
func (h *Handler) LedgerInfo(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, h.ledger.Info())
}

// Balance returns an account balance.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	addr, err := ledger.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		h.revert(w, "balance", err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]string{
		"address": string(addr),
		"balance": h.ledger.BalanceOf(addr).Dec(),
	})
}

// Allowance returns what spender may move on owner's behalf.
func (h *Handler) Allowance(w http.ResponseWriter, r *http.Request) {
	owner, err := ledger.ParseAddress(chi.URLParam(r, "owner"))
	if err != nil {
		h.revert(w, "allowance", err)
		return
	}
	spender, err := ledger.ParseAddress(chi.URLParam(r, "spender"))
	if err != nil {
		h.revert(w, "allowance", err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]string{
		"owner":     string(owner),
		"spender":   string(spender),
		"allowance": h.ledger.Allowance(owner, spender).Dec(),
	})
}

// LedgerEvents lists recent ledger events, newest first.
func (h *Handler) LedgerEvents(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, h.ledger.Events(queryLimit(r, 50)))
}

// ledgerOp runs one signed ledger write.
type ledgerOp func(r *http.Request, caller ledger.Address, req LedgerRequest) (ledger.Event, error)

// LedgerWrite adapts op into a handler that decodes the body, runs op as the
// signing wallet and broadcasts the resulting event.
func (h *Handler) LedgerWrite(name string, op ledgerOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.GetCallerFromContext(r.Context())
		if caller == nil {
			h.Error(w, http.StatusUnauthorized, "signature required")
			return
		}

		var req LedgerRequest
		if err := decode(r, &req); err != nil {
			h.Error(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		ev, err := op(r, ledger.Address(caller.Address), req)
		if err != nil {
			h.revert(w, name, err)
			return
		}

		metrics.LedgerOperations.WithLabelValues(name, "ok").Inc()
		h.logger.Info().
			Str("op", name).
			Str("caller", caller.Address).
			Uint64("seq", ev.Seq).
			Msg("Ledger operation committed")
		h.hub.Broadcast("ledger_"+string(ev.Kind), ev)
		h.JSON(w, http.StatusOK, ev)
	}
}

// revert maps a ledger error to a status code and a machine-readable code.
func (h *Handler) revert(w http.ResponseWriter, op string, err error) {
	code := ledger.Code(err)
	if code == "" {
		metrics.LedgerOperations.WithLabelValues(op, "error").Inc()
		h.logger.Error().Err(err).Str("op", op).Msg("Ledger operation failed")
		h.Error(w, http.StatusInternalServerError, "ledger operation failed")
		return
	}
	metrics.LedgerOperations.WithLabelValues(op, code).Inc()

	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, ledger.ErrPaused), errors.Is(err, ledger.ErrAlreadyPaused), errors.Is(err, ledger.ErrNotPaused):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrInvalidAddress), errors.Is(err, ledger.ErrInvalidAmount):
		status = http.StatusBadRequest
	}
	h.JSON(w, status, RevertResponse{Error: err.Error(), Code: code})
}

func parseTarget(s string, amount string) (ledger.Address, *uint256.Int, error) {
	addr, err := ledger.ParseAddress(s)
	if err != nil {
		return "", nil, err
	}
	v, err := ledger.ParseAmount(amount)
	if err != nil {
		return "", nil, err
	}
	return addr, v, nil
}

// Mint creates tokens. Owner only.
func (h *Handler) Mint(r *http.Request, caller ledger.Address, req LedgerRequest) (ledger.Event, error) {
	to, amount, err := parseTarget(req.To, req.Amount)
	if err != nil {
		return ledger.Event{}, err
	}
	return h.ledger.Mint(r.Context(), caller, to, amount)
}

// Burn destroys tokens from the caller's balance.
func (h *Handler) Burn(r *http.Request, caller ledger.Address, req LedgerRequest) (ledger.Event, error) {
	amount, err := ledger.ParseAmount(req.Amount)
	if err != nil {
		return ledger.Event{}, err
	}
	return h.ledger.Burn(r.Context(), caller, amount)
}

// Transfer moves tokens from the caller.
func (h *Handler) Transfer(r *http.Request, caller ledger.Address, req LedgerRequest) (ledger.Event, error) {
	to, amount, err := parseTarget(req.To, req.Amount)
	if err != nil {
		return ledger.Event{}, err
	}
	return h.ledger.Transfer(r.Context(), caller, to, amount)
}

// Approve sets the caller's allowance for a spender.
func (h *Handler) Approve(r *http.Request, caller ledger.Address, req LedgerRequest) (ledger.Event, error) {
	spender, amount, err := parseTarget(req.Spender, req.Amount)
	if err != nil {
		return ledger.Event{}, err
	}
	return h.ledger.Approve(r.Context(), caller, spender, amount)
}

// TransferFrom moves tokens on behalf of from using the caller's allowance.
func (h *Handler) TransferFrom(r *http.Request, caller ledger.Address, req LedgerRequest) (ledger.Event, error) {
	from, err := ledger.ParseAddress(req.From)
	if err != nil {
		return ledger.Event{}, err
	}
	to, amount, err := parseTarget(req.To, req.Amount)
	if err != nil {
		return ledger.Event{}, err
	}
	return h.ledger.TransferFrom(r.Context(), caller, from, to, amount)
}

// Pause halts transfers. Owner only.
func (h *Handler) Pause(r *http.Request, caller ledger.Address, _ LedgerRequest) (ledger.Event, error) {
	return h.ledger.Pause(r.Context(), caller)
}

// Unpause resumes transfers. Owner only.
func (h *Handler) Unpause(r *http.Request, caller ledger.Address, _ LedgerRequest) (ledger.Event, error) {
	return h.ledger.Unpause(r.Context(), caller)
}
