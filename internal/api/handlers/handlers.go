package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/plata/internal/api/middleware"
	"github.com/dvloznov/plata/internal/domain"
	"github.com/dvloznov/plata/internal/jobs"
	"github.com/dvloznov/plata/internal/ledger"
	"github.com/dvloznov/plata/internal/rowstore"
)

// maxMessageBytes bounds the body of a conversation message.
const maxMessageBytes = 4 << 10

// ConversationsHandler feeds HTTP messages through the turn dispatcher.
type ConversationsHandler struct {
	submitter jobs.Submitter
	log       zerolog.Logger
}

// NewConversationsHandler creates a new conversations handler.
func NewConversationsHandler(submitter jobs.Submitter, log zerolog.Logger) *ConversationsHandler {
	return &ConversationsHandler{submitter: submitter, log: log}
}

// PostMessage handles POST /api/conversations/{id}/messages
func (h *ConversationsHandler) PostMessage(w http.ResponseWriter, r *http.Request, conversationID string) {
	ctx := r.Context()

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	turn := &jobs.TurnJob{
		ConversationID: conversationID,
		Text:           req.Text,
	}
	job, err := h.submitter.Submit(ctx, turn)
	if err != nil {
		h.log.Error().Err(err).Str("conversation_id", conversationID).Str("job_id", turn.JobID).Msg("Failed to submit turn")
		if turn.JobID == "" {
			middleware.WriteError(w, http.StatusServiceUnavailable, "Conversation is not available right now")
			return
		}
		// The turn was accepted and may still run; its outcome is at /api/jobs/{id}.
		middleware.WriteJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"error":           "Conversation is not available right now",
			"job_id":          turn.JobID,
			"conversation_id": conversationID,
		})
		return
	}
	if job.Status == jobs.JobStatusFailed || job.Reply == nil {
		h.log.Error().Str("job_id", job.JobID).Str("error", job.Error).Msg("Turn failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to process message")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":          job.JobID,
		"conversation_id": conversationID,
		"reply":           job.Reply,
		"text":            job.Reply.Text(),
	})
}

// Exporter uploads a ledger snapshot and returns where it went.
type Exporter interface {
	Export(ctx context.Context, ledger string, rows [][]string) (string, error)
}

// LedgersHandler serves balance, history and export of configured accounts.
type LedgersHandler struct {
	ledgers      *ledger.Service
	accounts     domain.Accounts
	historyLimit int
	exporter     Exporter
	log          zerolog.Logger
}

// NewLedgersHandler creates a new ledgers handler. exporter may be nil.
func NewLedgersHandler(ledgers *ledger.Service, accounts domain.Accounts, historyLimit int, exporter Exporter, log zerolog.Logger) *LedgersHandler {
	return &LedgersHandler{
		ledgers:      ledgers,
		accounts:     accounts,
		historyLimit: historyLimit,
		exporter:     exporter,
		log:          log,
	}
}

// ListAccounts handles GET /api/ledgers
func (h *LedgersHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": h.accounts,
		"count":    len(h.accounts),
	})
}

// GetBalance handles GET /api/ledgers/{account}/balance
func (h *LedgersHandler) GetBalance(w http.ResponseWriter, r *http.Request, selector string) {
	acc, ok := h.account(w, selector)
	if !ok {
		return
	}

	balance, err := h.ledgers.Balance(r.Context(), acc.Ledger)
	if err != nil {
		h.storeError(w, err, acc, "Failed to read balance")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"account":      acc.Name,
		"ledger":       acc.Ledger,
		"balance":      balance.Total.String(),
		"formatted":    ledger.FormatMoney(balance.Total),
		"rows_counted": balance.Counted,
		"rows_skipped": balance.Skipped,
	})
}

// ListMovements handles GET /api/ledgers/{account}/movements?limit=N
func (h *LedgersHandler) ListMovements(w http.ResponseWriter, r *http.Request, selector string) {
	acc, ok := h.account(w, selector)
	if !ok {
		return
	}

	limit := h.historyLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n <= 0 {
			middleware.WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.ledgers.Recent(r.Context(), acc.Ledger, limit)
	if err != nil {
		h.storeError(w, err, acc, "Failed to read movements")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"account":   acc.Name,
		"movements": entries,
		"count":     len(entries),
	})
}

// ExportLedger handles POST /api/ledgers/{account}/export
func (h *LedgersHandler) ExportLedger(w http.ResponseWriter, r *http.Request, selector string) {
	if h.exporter == nil {
		middleware.WriteError(w, http.StatusNotImplemented, "Export is not configured")
		return
	}
	acc, ok := h.account(w, selector)
	if !ok {
		return
	}

	rows, err := h.ledgers.Snapshot(r.Context(), acc.Ledger)
	if err != nil {
		h.storeError(w, err, acc, "Failed to read ledger")
		return
	}
	uri, err := h.exporter.Export(r.Context(), acc.Ledger, rows)
	if err != nil {
		h.log.Error().Err(err).Str("ledger", acc.Ledger).Msg("Failed to export ledger")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to export ledger")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"account": acc.Name,
		"uri":     uri,
		"rows":    len(rows) - 1,
	})
}

func (h *LedgersHandler) account(w http.ResponseWriter, selector string) (domain.Account, bool) {
	if acc, ok := h.accounts.Lookup(selector); ok {
		return acc, true
	}
	if acc, ok := h.accounts.ByName(strings.TrimSpace(selector)); ok {
		return acc, true
	}
	middleware.WriteError(w, http.StatusNotFound, "Account not found")
	return domain.Account{}, false
}

// storeError maps an unreachable store to 503 so it is never mistaken for an
// empty ledger.
func (h *LedgersHandler) storeError(w http.ResponseWriter, err error, acc domain.Account, msg string) {
	h.log.Error().Err(err).Str("ledger", acc.Ledger).Msg(msg)
	if errors.Is(err, rowstore.ErrUnavailable) {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Ledger is unavailable")
		return
	}
	middleware.WriteError(w, http.StatusInternalServerError, msg)
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		h.log.Debug().Err(err).Str("job_id", jobID).Msg("Job lookup failed")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		ConversationID: query.Get("conversation_id"),
		Status:         jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
