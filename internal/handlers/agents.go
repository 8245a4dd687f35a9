package handlers

import (
	"net/http"
	"time"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/boardroom"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"
)

// Agents returns the agent catalog.
func (h *Handler) Agents(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, boardroom.Catalog())
}

// Portfolio is the dashboard wallet summary.
type Portfolio struct {
	TotalValue    string  `json:"totalValue"`
	UPXBalance    string  `json:"upxBalance"`
	UPXValue      string  `json:"upxValue"`
	Change24h     float64 `json:"change24h"`
	WalletAddress string  `json:"walletAddress"`
}

// Portfolio returns the demo wallet summary. The figures are static.
func (h *Handler) Portfolio(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, Portfolio{
		TotalValue:    "$12,450.00",
		UPXBalance:    "45,000 UPX",
		UPXValue:      "$9,000.00",
		Change24h:     5.2,
		WalletAddress: "0x742d35Cc6634C0532925a3b844Bc9e7595f6aa45",
	})
}

// DemoTransactions returns the static dashboard transaction list.
func (h *Handler) DemoTransactions(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	h.JSON(w, http.StatusOK, []models.Transaction{
		{ID: "1", Type: "purchase", Amount: "5000", Currency: "UPX", Status: models.TxCompleted, TxHash: "0xabc...123", Chain: "Ethereum", CreatedAt: now},
		{ID: "2", Type: "transfer", Amount: "1000", Currency: "UPX", Status: models.TxCompleted, TxHash: "0xdef...456", Chain: "Polygon", CreatedAt: now.Add(-24 * time.Hour)},
		{ID: "3", Type: "purchase", Amount: "2500", Currency: "UPX", Status: models.TxPending, Chain: "Ethereum", CreatedAt: now.Add(-48 * time.Hour)},
	})
}
