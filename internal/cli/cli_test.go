package cli

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/crypto"
)

func setupWallet(t *testing.T) {
	t.Helper()
	t.Setenv("UNITYPAY_CONFIG", t.TempDir())
	t.Setenv("UNITYPAY_PASSPHRASE", "")
	t.Setenv("UNITYPAY_URL", "")

	cmd := RootCmd("test")
	cmd.SetArgs([]string{"keygen"})
	require.NoError(t, cmd.Execute())
}

func TestKeygenRefusesOverwrite(t *testing.T) {
	setupWallet(t)

	cmd := RootCmd("test")
	cmd.SetArgs([]string{"keygen"})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	cmd = RootCmd("test")
	cmd.SetArgs([]string{"keygen", "--force"})
	assert.NoError(t, cmd.Execute())
}

func TestSignPrintsVerifiableHeaders(t *testing.T) {
	setupWallet(t)
	body := `{"to":"0x0000000000000000000000000000000000000001","amount":"1"}`

	var out bytes.Buffer
	cmd := RootCmd("test")
	cmd.SetArgs([]string{"sign"})
	cmd.SetIn(strings.NewReader(body))
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())

	headers := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		k, v, ok := strings.Cut(line, ": ")
		require.True(t, ok, line)
		headers[k] = v
	}
	require.Len(t, headers, 4)

	pub, err := crypto.ValidatePublicKey(headers["X-UPX-Key"])
	require.NoError(t, err)
	ts, err := strconv.ParseInt(headers["X-UPX-Timestamp"], 10, 64)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), time.UnixMilli(ts), 5*time.Second)

	sum := sha256.Sum256([]byte(body))
	hash := hex.EncodeToString(sum[:])
	payload := crypto.SignaturePayload(hash, headers["X-UPX-Nonce"], ts)
	assert.NoError(t, crypto.VerifySignature(pub, payload, headers["X-UPX-Signature"]))
}

func TestSignWithoutWallet(t *testing.T) {
	t.Setenv("UNITYPAY_CONFIG", t.TempDir())

	cmd := RootCmd("test")
	cmd.SetArgs([]string{"sign"})
	cmd.SetIn(strings.NewReader("{}"))
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upx keygen")
}

func TestTransferSendsBaseUnits(t *testing.T) {
	setupWallet(t)

	var got map[string]string
	var key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ledger/transfer", r.URL.Path)
		key = r.Header.Get("X-UPX-Key")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"seq":2,"id":"01J","kind":"transfer","from":"0x1111111111111111111111111111111111111111","to":"` +
			got["to"] + `","amount":"` + got["amount"] + `","timestamp":"2045-01-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	to := "0x2222222222222222222222222222222222222222"
	cmd := RootCmd("test")
	cmd.SetArgs([]string{"--url", srv.URL, "ledger", "transfer", to, "2.5"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, to, got["to"])
	assert.Equal(t, "2500000000000000000", got["amount"])
	_, err := base64.StdEncoding.DecodeString(key)
	assert.NoError(t, err)
}

func TestTransferRawAmount(t *testing.T) {
	setupWallet(t)

	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"caller is not the owner","code":"Unauthorized"}`))
	}))
	defer srv.Close()

	cmd := RootCmd("test")
	cmd.SetArgs([]string{"--url", srv.URL, "ledger", "mint", "--raw", "0x2222222222222222222222222222222222222222", "42"})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Equal(t, "42", got["amount"])
}
