package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/api/middleware"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/handlers"
)

const maxBodyBytes = 64 * 1024

// Options configures the router beyond the handler dependencies.
type Options struct {
	RateLimit middleware.RateLimiterConfig
	// StaticDir holds a prebuilt dashboard bundle. Empty disables it.
	StaticDir string
}

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, deps handlers.Deps, opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(maxBodyBytes))
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting needs Redis
	var nonces middleware.NonceStore
	if deps.Redis != nil {
		limiter := middleware.NewRateLimiter(deps.Redis.Client(), logger, opts.RateLimit)
		r.Use(limiter.Middleware)
		nonces = deps.Redis
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept", "Content-Type",
			middleware.HeaderKey, middleware.HeaderNonce, middleware.HeaderTimestamp, middleware.HeaderSignature,
		},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(deps)
	auth := middleware.NewAuthMiddleware(nonces, logger)

	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/ws", deps.Hub)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", h.Root)
		r.Get("/health", h.Health)
		r.Get("/agents", h.Agents)
		r.Get("/portfolio", h.Portfolio)
		r.Get("/transactions", h.DemoTransactions)

		r.Route("/meetings", func(r chi.Router) {
			r.Get("/types", h.MeetingTypes)
			r.Get("/history", h.MeetingHistory)
			r.Post("/ask", h.Ask)
			r.Get("/{type}", h.GetMeeting)
			r.Post("/{type}/run", h.RunMeeting)
		})

		r.Get("/chat/history", h.ChatHistory)
		r.Delete("/chat/history", h.ClearChat)

		r.Post("/audit/run", h.RunAudit)
		r.Get("/audit/logs", h.AuditLogs)

		r.Post("/users", h.CreateUser)
		r.Get("/users/{id}/transactions", h.UserTransactions)
		r.Post("/purchases", h.CreatePurchase)
		r.Patch("/transactions/{id}", h.UpdateTransactionStatus)

		r.Route("/ledger", func(r chi.Router) {
			r.Get("/", h.LedgerInfo)
			r.Get("/balances/{address}", h.Balance)
			r.Get("/allowances/{owner}/{spender}", h.Allowance)
			r.Get("/events", h.LedgerEvents)

			// Writes require a wallet signature
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth)

				r.Post("/mint", h.LedgerWrite("mint", h.Mint))
				r.Post("/burn", h.LedgerWrite("burn", h.Burn))
				r.Post("/transfer", h.LedgerWrite("transfer", h.Transfer))
				r.Post("/approve", h.LedgerWrite("approve", h.Approve))
				r.Post("/transfer-from", h.LedgerWrite("transfer_from", h.TransferFrom))
				r.Post("/pause", h.LedgerWrite("pause", h.Pause))
				r.Post("/unpause", h.LedgerWrite("unpause", h.Unpause))
			})
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			h.Error(w, http.StatusNotFound, "not found")
		})
	})

	if dir := opts.StaticDir; dir != "" {
		if _, err := os.Stat(filepath.Join(dir, "index.html")); err == nil {
			r.Get("/*", spaHandler(dir))
		} else {
			logger.Warn().Str("dir", dir).Msg("static dir has no index.html, dashboard disabled")
		}
	}

	return r
}

// spaHandler serves files from dir and falls back to index.html so
// client-side routes resolve.
func spaHandler(dir string) http.HandlerFunc {
	fs := http.FileServer(http.Dir(dir))
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(r.URL.Path, "/")))
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		fs.ServeHTTP(w, r)
	}
}
