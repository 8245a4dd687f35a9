// Package unitypay provides a client for the UnityPay Prime Brain API.
package unitypay

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/crypto"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/ledger"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"
)

// DefaultURL is used when no base URL is given.
const DefaultURL = "http://localhost:8080"

// Client is a UnityPay API client. Ledger writes need a loaded wallet.
type Client struct {
	BaseURL    string
	ConfigDir  string
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
	HTTPClient *http.Client
}

// NewClient creates a new client. The wallet directory comes from
// UNITYPAY_CONFIG, defaulting to ~/.unitypay.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}

	configDir := os.Getenv("UNITYPAY_CONFIG")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".unitypay")
	}

	return &Client{
		BaseURL:    baseURL,
		ConfigDir:  configDir,
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
	// Code names the ledger revert, if any.
	Code string `json:"code"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("unitypay error %d: %s (%s)", e.StatusCode, e.Message, e.Code)
	}
	return fmt.Sprintf("unitypay error %d: %s", e.StatusCode, e.Message)
}

// SignHeaders creates authentication headers for body.
func (c *Client) SignHeaders(body []byte) (http.Header, error) {
	if c.PrivateKey == nil {
		return nil, errors.New("no wallet loaded")
	}
	hash := sha256.Sum256(body)

	nonceBytes := make([]byte, 16) // 32 hex chars
	if _, err := rand.Read(nonceBytes); err != nil {
		return nil, err
	}
	nonce := hex.EncodeToString(nonceBytes)
	ts := time.Now().UnixMilli()

	sig := ed25519.Sign(c.PrivateKey, crypto.SignaturePayload(hex.EncodeToString(hash[:]), nonce, ts))

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("X-UPX-Key", base64.StdEncoding.EncodeToString(c.PublicKey))
	headers.Set("X-UPX-Nonce", nonce)
	headers.Set("X-UPX-Timestamp", strconv.FormatInt(ts, 10))
	headers.Set("X-UPX-Signature", base64.StdEncoding.EncodeToString(sig))
	return headers, nil
}

// do performs a request and decodes a JSON response into out when non-nil.
func (c *Client) do(method, path string, in, out any, signed bool) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return err
		}
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if signed {
		if req.Header, err = c.SignHeaders(body); err != nil {
			return err
		}
	} else if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(respBody, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

func limitQuery(path string, limit int) string {
	if limit <= 0 {
		return path
	}
	return path + "?limit=" + strconv.Itoa(limit)
}

// HealthResponse is the service status.
type HealthResponse struct {
	Status           string `json:"status"`
	Service          string `json:"service"`
	Version          string `json:"version"`
	Timestamp        string `json:"timestamp"`
	Agents           int    `json:"agents"`
	ConnectedClients int    `json:"connectedClients"`
}

// Health checks the server.
func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do(http.MethodGet, "/api/health", nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Agents lists the agent catalog.
func (c *Client) Agents() ([]models.NanoAgent, error) {
	var resp []models.NanoAgent
	err := c.do(http.MethodGet, "/api/agents", nil, &resp, false)
	return resp, err
}

// MeetingTypes lists the meeting cadences.
func (c *Client) MeetingTypes() ([]models.MeetingTypeInfo, error) {
	var resp []models.MeetingTypeInfo
	err := c.do(http.MethodGet, "/api/meetings/types", nil, &resp, false)
	return resp, err
}

// Meeting returns the latest report of a type, generated on first request.
func (c *Client) Meeting(t string) (*models.MeetingReport, error) {
	var resp models.MeetingReport
	if err := c.do(http.MethodGet, "/api/meetings/"+url.PathEscape(t), nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunMeeting forces a new report.
func (c *Client) RunMeeting(t string) (*models.MeetingReport, error) {
	var resp models.MeetingReport
	if err := c.do(http.MethodPost, "/api/meetings/"+url.PathEscape(t)+"/run", nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MeetingHistory lists recent reports across all types.
func (c *Client) MeetingHistory(limit int) ([]models.MeetingReport, error) {
	var resp []models.MeetingReport
	err := c.do(http.MethodGet, limitQuery("/api/meetings/history", limit), nil, &resp, false)
	return resp, err
}

// AskResponse is an agent's answer.
type AskResponse struct {
	Response  string `json:"response"`
	AgentName string `json:"agentName"`
	AgentID   string `json:"agentId"`
	MessageID string `json:"messageId"`
}

// Ask sends a chat message to the agents.
func (c *Client) Ask(message string) (*AskResponse, error) {
	var resp AskResponse
	if err := c.do(http.MethodPost, "/api/meetings/ask", map[string]string{"message": message}, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChatHistory returns the chat, oldest first.
func (c *Client) ChatHistory() ([]models.ChatMessage, error) {
	var resp []models.ChatMessage
	err := c.do(http.MethodGet, "/api/chat/history", nil, &resp, false)
	return resp, err
}

// ClearChat deletes the chat history.
func (c *Client) ClearChat() error {
	return c.do(http.MethodDelete, "/api/chat/history", nil, nil, false)
}

// AuditResponse is a completed audit.
type AuditResponse struct {
	Report    string    `json:"report"`
	Timestamp time.Time `json:"timestamp"`
}

// RunAudit runs a security audit.
func (c *Client) RunAudit() (*AuditResponse, error) {
	var resp AuditResponse
	if err := c.do(http.MethodPost, "/api/audit/run", nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AuditLogs lists stored audits.
func (c *Client) AuditLogs(limit int) ([]models.AuditLog, error) {
	var resp []models.AuditLog
	err := c.do(http.MethodGet, limitQuery("/api/audit/logs", limit), nil, &resp, false)
	return resp, err
}

// CreateUser registers a user.
func (c *Client) CreateUser(username, password string) (*models.User, error) {
	var resp models.User
	in := map[string]string{"username": username, "password": password}
	if err := c.do(http.MethodPost, "/api/users", in, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UserTransactions lists a user's purchases.
func (c *Client) UserTransactions(userID string) ([]models.Transaction, error) {
	var resp []models.Transaction
	err := c.do(http.MethodGet, "/api/users/"+url.PathEscape(userID)+"/transactions", nil, &resp, false)
	return resp, err
}

// CreatePurchase records a pending purchase.
func (c *Client) CreatePurchase(userID, amount, chain string) (*models.Transaction, error) {
	var resp models.Transaction
	in := map[string]string{"userId": userID, "amount": amount, "chain": chain}
	if err := c.do(http.MethodPost, "/api/purchases", in, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateTransactionStatus changes a purchase's status.
func (c *Client) UpdateTransactionStatus(id, status string) (*models.Transaction, error) {
	var resp models.Transaction
	if err := c.do(http.MethodPatch, "/api/transactions/"+url.PathEscape(id), map[string]string{"status": status}, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LedgerInfo returns the token's global state.
func (c *Client) LedgerInfo() (*ledger.Info, error) {
	var resp ledger.Info
	if err := c.do(http.MethodGet, "/api/ledger", nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Balance returns an address's balance in base units.
func (c *Client) Balance(address string) (string, error) {
	var resp struct {
		Balance string `json:"balance"`
	}
	err := c.do(http.MethodGet, "/api/ledger/balances/"+url.PathEscape(address), nil, &resp, false)
	return resp.Balance, err
}

// Allowance returns what spender may move for owner, in base units.
func (c *Client) Allowance(owner, spender string) (string, error) {
	var resp struct {
		Allowance string `json:"allowance"`
	}
	err := c.do(http.MethodGet, "/api/ledger/allowances/"+url.PathEscape(owner)+"/"+url.PathEscape(spender), nil, &resp, false)
	return resp.Allowance, err
}

// LedgerEvents lists recent ledger events, newest first.
func (c *Client) LedgerEvents(limit int) ([]ledger.Event, error) {
	var resp []ledger.Event
	err := c.do(http.MethodGet, limitQuery("/api/ledger/events", limit), nil, &resp, false)
	return resp, err
}

func (c *Client) ledgerWrite(op string, in map[string]string) (*ledger.Event, error) {
	if in == nil {
		in = map[string]string{}
	}
	var ev ledger.Event
	if err := c.do(http.MethodPost, "/api/ledger/"+op, in, &ev, true); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Mint creates amount base units for to. Owner only.
func (c *Client) Mint(to, amount string) (*ledger.Event, error) {
	return c.ledgerWrite("mint", map[string]string{"to": to, "amount": amount})
}

// Burn destroys amount of the wallet's own tokens.
func (c *Client) Burn(amount string) (*ledger.Event, error) {
	return c.ledgerWrite("burn", map[string]string{"amount": amount})
}

// Transfer sends amount to to.
func (c *Client) Transfer(to, amount string) (*ledger.Event, error) {
	return c.ledgerWrite("transfer", map[string]string{"to": to, "amount": amount})
}

// Approve lets spender move up to amount of the wallet's tokens.
func (c *Client) Approve(spender, amount string) (*ledger.Event, error) {
	return c.ledgerWrite("approve", map[string]string{"spender": spender, "amount": amount})
}

// TransferFrom moves amount from from to to using the wallet's allowance.
func (c *Client) TransferFrom(from, to, amount string) (*ledger.Event, error) {
	return c.ledgerWrite("transfer-from", map[string]string{"from": from, "to": to, "amount": amount})
}

// Pause halts transfers. Owner only.
func (c *Client) Pause() (*ledger.Event, error) {
	return c.ledgerWrite("pause", nil)
}

// Unpause resumes transfers. Owner only.
func (c *Client) Unpause() (*ledger.Event, error) {
	return c.ledgerWrite("unpause", nil)
}
