package middleware

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/crypto"
)

// Signed request headers.
const (
	HeaderKey       = "X-UPX-Key"
	HeaderNonce     = "X-UPX-Nonce"
	HeaderTimestamp = "X-UPX-Timestamp"
	HeaderSignature = "X-UPX-Signature"
)

const minNonceLength = 24

type contextKey string

const CallerContextKey contextKey = "caller"

// Caller is the wallet that signed a request.
type Caller struct {
	Address   string
	PublicKey ed25519.PublicKey
}

// NonceStore records single-use nonces. UseNonce returns false when the
// nonce was already used within scope.
type NonceStore interface {
	UseNonce(ctx context.Context, scope, nonce string, ttl time.Duration) (bool, error)
}

// AuthMiddleware handles signature verification for ledger writes.
type AuthMiddleware struct {
	nonces NonceStore
	window time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// NewAuthMiddleware creates a new auth middleware. A nil nonces falls back
// to an in-process nonce set.
func NewAuthMiddleware(nonces NonceStore, logger zerolog.Logger) *AuthMiddleware {
	if nonces == nil {
		nonces = NewMemoryNonces()
	}
	return &AuthMiddleware{
		nonces: nonces,
		window: 30 * time.Second,
		now:    time.Now,
		logger: logger,
	}
}

// RequireAuth middleware verifies Ed25519 signatures on requests.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(HeaderKey)
		nonce := r.Header.Get(HeaderNonce)
		timestamp := r.Header.Get(HeaderTimestamp)
		signature := r.Header.Get(HeaderSignature)

		if key == "" || nonce == "" || timestamp == "" || signature == "" {
			jsonError(w, http.StatusUnauthorized, "missing auth headers")
			return
		}

		ts, err := strconv.ParseInt(timestamp, 10, 64)
		if err != nil {
			jsonError(w, http.StatusUnauthorized, "invalid timestamp format")
			return
		}
		if !m.isTimestampValid(ts) {
			jsonError(w, http.StatusUnauthorized, "timestamp expired or too far in future")
			return
		}

		if len(nonce) < minNonceLength {
			jsonError(w, http.StatusUnauthorized, "nonce must be at least 24 characters")
			return
		}

		pubkey, err := crypto.ValidatePublicKey(key)
		if err != nil {
			jsonError(w, http.StatusUnauthorized, "invalid public key")
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "failed to read request body")
			return
		}
		r.Body = io.NopCloser(bytes.NewBuffer(body))

		signedData := crypto.SignaturePayload(sha256Hex(body), nonce, ts)
		if err := crypto.VerifySignature(pubkey, signedData, signature); err != nil {
			m.logger.Warn().
				Str("type", "security").
				Str("event", "bad_signature").
				Str("ip", RealIP(r)).
				Str("endpoint", r.URL.Path).
				Msg("signature verification failed")
			jsonError(w, http.StatusUnauthorized, "invalid signature")
			return
		}

		address := crypto.AddressFromPublicKey(pubkey)
		fresh, err := m.nonces.UseNonce(r.Context(), address, nonce, 3*m.window)
		if err != nil {
			m.logger.Error().Err(err).Msg("nonce check failed")
			jsonError(w, http.StatusServiceUnavailable, "nonce check unavailable")
			return
		}
		if !fresh {
			jsonError(w, http.StatusUnauthorized, "nonce already used")
			return
		}

		ctx := context.WithValue(r.Context(), CallerContextKey, &Caller{Address: address, PublicKey: pubkey})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Only accept timestamps from the past (within window).
func (m *AuthMiddleware) isTimestampValid(ts int64) bool {
	now := m.now().UnixMilli()
	return ts > now-m.window.Milliseconds() && ts <= now
}

// GetCallerFromContext retrieves the signing wallet from the request context.
func GetCallerFromContext(ctx context.Context) *Caller {
	caller, ok := ctx.Value(CallerContextKey).(*Caller)
	if !ok {
		return nil
	}
	return caller
}

// MemoryNonces is an in-process NonceStore used when Redis is not configured.
type MemoryNonces struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

// NewMemoryNonces creates an empty nonce set.
func NewMemoryNonces() *MemoryNonces {
	return &MemoryNonces{seen: make(map[string]time.Time), now: time.Now}
}

// UseNonce marks nonce as used within scope until ttl elapses.
func (n *MemoryNonces) UseNonce(_ context.Context, scope, nonce string, ttl time.Duration) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	for k, exp := range n.seen {
		if now.After(exp) {
			delete(n.seen, k)
		}
	}

	k := scope + ":" + nonce
	if _, used := n.seen[k]; used {
		return false, nil
	}
	n.seen[k] = now.Add(ttl)
	return true, nil
}

func sha256Hex(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
