package middleware

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/crypto"
)

const testNonce = "0123456789abcdef01234567"

func signedRequest(t *testing.T, priv ed25519.PrivateKey, body, nonce string, ts int64) *http.Request {
	t.Helper()
	pub := priv.Public().(ed25519.PublicKey)
	payload := crypto.SignaturePayload(sha256Hex([]byte(body)), nonce, ts)

	r := httptest.NewRequest(http.MethodPost, "/api/ledger/transfer", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set(HeaderKey, base64.StdEncoding.EncodeToString(pub))
	r.Header.Set(HeaderNonce, nonce)
	r.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
	r.Header.Set(HeaderSignature, base64.StdEncoding.EncodeToString(ed25519.Sign(priv, payload)))
	return r
}

func newKey(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub, priv
}

func TestRequireAuth(t *testing.T) {
	pub, priv := newKey(t)
	auth := NewAuthMiddleware(nil, zerolog.Nop())

	var caller *Caller
	h := auth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller = GetCallerFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	now := time.Now().UnixMilli()
	body := `{"to":"0x1111111111111111111111111111111111111111","amount":"1"}`

	w := httptest.NewRecorder()
	h.ServeHTTP(w, signedRequest(t, priv, body, testNonce, now))
	require.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, caller)
	assert.Equal(t, crypto.AddressFromPublicKey(pub), caller.Address)

	// Replaying the same nonce fails.
	w = httptest.NewRecorder()
	h.ServeHTTP(w, signedRequest(t, priv, body, testNonce, now))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "nonce already used")
}

func TestRequireAuthRejects(t *testing.T) {
	_, priv := newKey(t)
	_, other := newKey(t)
	now := time.Now().UnixMilli()
	body := `{"amount":"1"}`

	tests := []struct {
		name    string
		req     func() *http.Request
		wantMsg string
	}{
		{
			name: "missing headers",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/ledger/burn", strings.NewReader(body))
			},
			wantMsg: "missing auth headers",
		},
		{
			name:    "expired timestamp",
			req:     func() *http.Request { return signedRequest(t, priv, body, testNonce, now-time.Minute.Milliseconds()) },
			wantMsg: "timestamp expired",
		},
		{
			name:    "future timestamp",
			req:     func() *http.Request { return signedRequest(t, priv, body, testNonce, now+time.Minute.Milliseconds()) },
			wantMsg: "timestamp expired",
		},
		{
			name:    "short nonce",
			req:     func() *http.Request { return signedRequest(t, priv, body, "short", now) },
			wantMsg: "at least 24",
		},
		{
			name: "tampered body",
			req: func() *http.Request {
				r := signedRequest(t, priv, body, testNonce, now)
				r.Body = http.NoBody
				return r
			},
			wantMsg: "invalid signature",
		},
		{
			name: "key mismatch",
			req: func() *http.Request {
				r := signedRequest(t, priv, body, testNonce, now)
				r.Header.Set(HeaderKey, base64.StdEncoding.EncodeToString(other.Public().(ed25519.PublicKey)))
				return r
			},
			wantMsg: "invalid signature",
		},
		{
			name: "garbage key",
			req: func() *http.Request {
				r := signedRequest(t, priv, body, testNonce, now)
				r.Header.Set(HeaderKey, "not-a-key")
				return r
			},
			wantMsg: "invalid public key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := NewAuthMiddleware(nil, zerolog.Nop())
			h := auth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, tt.req())
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantMsg)
		})
	}
}

func TestMemoryNoncesExpire(t *testing.T) {
	n := NewMemoryNonces()
	now := time.Now()
	n.now = func() time.Time { return now }

	ok, err := n.UseNonce(t.Context(), "a", "n1", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = n.UseNonce(t.Context(), "a", "n1", time.Second)
	assert.False(t, ok)

	ok, _ = n.UseNonce(t.Context(), "b", "n1", time.Second)
	assert.True(t, ok, "nonces are scoped per wallet")

	now = now.Add(2 * time.Second)
	ok, _ = n.UseNonce(t.Context(), "a", "n1", time.Second)
	assert.True(t, ok)
}

func TestValidateRequest(t *testing.T) {
	h := ValidateRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		method string
		target string
		body   string
		ct     string
		want   int
	}{
		{"plain get", http.MethodGet, "/api/agents", "", "", http.StatusOK},
		{"json post", http.MethodPost, "/api/meetings/ask", `{"message":"hi"}`, "application/json", http.StatusOK},
		{"empty post", http.MethodPost, "/api/meetings/daily/run", "", "", http.StatusOK},
		{"form post", http.MethodPost, "/api/meetings/ask", "message=hi", "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"traversal", http.MethodGet, "/api/../etc/passwd", "", "", http.StatusBadRequest},
		{"script query", http.MethodGet, "/api/agents?q=<script>", "", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, "/", strings.NewReader(tt.body))
			r.URL.Path, r.URL.RawQuery, _ = strings.Cut(tt.target, "?")
			if tt.ct != "" {
				r.Header.Set("Content-Type", tt.ct)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, "default-src 'none'", w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "connect-src 'self' ws: wss:")
}

func TestMaxBodySize(t *testing.T) {
	h := MaxBodySize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"username":"x"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRealIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.1.2.3:5555"
	assert.Equal(t, "10.1.2.3", RealIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", RealIP(r))

	r.Header.Set("Fly-Client-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", RealIP(r))
}

func TestFindLimit(t *testing.T) {
	rl := NewRateLimiter(nil, zerolog.Nop(), RateLimiterConfig{Whitelist: []string{"10.0.0.1", "192.168.0.0/16", "bad/cidr"}})

	tests := []struct {
		method, path, want string
	}{
		{http.MethodPost, "/api/meetings/ask", "POST /api/meetings/ask"},
		{http.MethodPost, "/api/meetings/daily/run", "POST /api/meetings/"},
		{http.MethodPost, "/api/ledger/mint", "POST /api/ledger/"},
		{http.MethodGet, "/api/ledger/events", "GET /api/ledger"},
		{http.MethodGet, "/api/agents", "GET /api/"},
		{http.MethodGet, "/ws", ""},
	}
	for _, tt := range tests {
		limit, pattern := rl.findLimit(httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.want, pattern, tt.path)
		assert.Equal(t, tt.want != "", limit != nil, tt.path)
	}

	assert.True(t, rl.isWhitelisted("10.0.0.1"))
	assert.True(t, rl.isWhitelisted("192.168.4.4"))
	assert.False(t, rl.isWhitelisted("172.16.0.1"))
}
