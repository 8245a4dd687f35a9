package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/boardroom"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/ledger"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/store"
)

// Realtime is the listener fan-out. It serves the upgrade endpoint itself.
type Realtime interface {
	http.Handler
	Count() int
	Broadcast(event string, data any)
}

// Deps are the services shared by all HTTP handlers. Redis is optional.
type Deps struct {
	Store     store.DataStore
	Redis     *store.RedisStore
	Boardroom *boardroom.Service
	Ledger    *ledger.Ledger
	Hub       Realtime
	Logger    zerolog.Logger
}

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store     store.DataStore
	redis     *store.RedisStore
	boardroom *boardroom.Service
	ledger    *ledger.Ledger
	hub       Realtime
	logger    zerolog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		store:     d.Store,
		redis:     d.Redis,
		boardroom: d.Boardroom,
		ledger:    d.Ledger,
		hub:       d.Hub,
		logger:    d.Logger.With().Str("component", "http").Logger(),
	}
}

// JSON sends a JSON response with the given status code. A value that
// cannot be encoded is logged and answered with a 500.
func (h *Handler) JSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		h.logger.Error().Err(err).Int("status", status).Msg("failed to encode response")
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal server error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		h.logger.Debug().Err(err).Msg("failed to write response")
	}
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// fail logs err and sends a 500 with a generic message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	h.logger.Error().Err(err).Str("path", r.URL.Path).Msg(message)
	h.Error(w, http.StatusInternalServerError, message)
}

// decode reads a JSON body into v. An empty body leaves v unchanged.
func decode(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

const maxListLimit = 100

// queryLimit parses ?limit=, clamped to [1, maxListLimit].
func queryLimit(r *http.Request, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}

// sanitizeName trims and limits name to max bytes, removing control characters.
func sanitizeName(name string, max int) string {
	name = strings.TrimSpace(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	if len(name) > max {
		name = name[:max]
	}
	return name
}
