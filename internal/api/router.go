// Package api exposes conversations and ledgers over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/plata/internal/api/handlers"
	"github.com/dvloznov/plata/internal/api/middleware"
)

// Handlers groups the endpoint handlers the router dispatches to.
type Handlers struct {
	Conversations *handlers.ConversationsHandler
	Ledgers       *handlers.LedgersHandler
	Jobs          *handlers.JobsHandler
}

// NewRouter registers every route and wraps them in the middleware chain.
func NewRouter(h Handlers, token string, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/conversations/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		h.Conversations.PostMessage(w, r, r.PathValue("id"))
	})

	mux.HandleFunc("GET /api/ledgers", h.Ledgers.ListAccounts)
	mux.HandleFunc("GET /api/ledgers/{account}/balance", func(w http.ResponseWriter, r *http.Request) {
		h.Ledgers.GetBalance(w, r, r.PathValue("account"))
	})
	mux.HandleFunc("GET /api/ledgers/{account}/movements", func(w http.ResponseWriter, r *http.Request) {
		h.Ledgers.ListMovements(w, r, r.PathValue("account"))
	})
	mux.HandleFunc("POST /api/ledgers/{account}/export", func(w http.ResponseWriter, r *http.Request) {
		h.Ledgers.ExportLedger(w, r, r.PathValue("account"))
	})

	mux.HandleFunc("GET /api/jobs", h.Jobs.ListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.Jobs.GetJob(w, r, r.PathValue("id"))
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.Auth(token)(mux),
				),
			),
		),
	)
}
