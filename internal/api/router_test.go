package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/plata/internal/api/handlers"
	"github.com/dvloznov/plata/internal/app"
	"github.com/dvloznov/plata/internal/config"
	"github.com/dvloznov/plata/internal/rowstore"
)

// MockExporter is a mock implementation of handlers.Exporter.
type MockExporter struct {
	ExportFunc func(ctx context.Context, ledger string, rows [][]string) (string, error)
}

func (m *MockExporter) Export(ctx context.Context, ledger string, rows [][]string) (string, error) {
	return m.ExportFunc(ctx, ledger, rows)
}

func newTestServer(t *testing.T, store rowstore.RowStore, exporter handlers.Exporter, token string) (*app.App, http.Handler) {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Backend = config.BackendMemory
	a := app.NewWithStore(cfg, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, a.Start(ctx))

	log := zerolog.Nop()
	router := NewRouter(Handlers{
		Conversations: handlers.NewConversationsHandler(a.Queue, log),
		Ledgers:       handlers.NewLedgersHandler(a.Ledgers, cfg.Accounts, cfg.HistoryLimit, exporter, log),
		Jobs:          handlers.NewJobsHandler(a.Jobs, log),
	}, token, log)
	return a, router
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func TestRouter_Health(t *testing.T) {
	_, h := newTestServer(t, rowstore.NewMemory(), nil, "secret")

	rec, body := do(t, h, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_AuthRequired(t *testing.T) {
	_, h := newTestServer(t, rowstore.NewMemory(), nil, "secret")

	rec, _ := do(t, h, http.MethodGet, "/api/ledgers", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/ledgers", nil)
	req.Header.Set("Authorization", "Bearer secret")
	ok := httptest.NewRecorder()
	h.ServeHTTP(ok, req)
	assert.Equal(t, http.StatusOK, ok.Code)
}

func TestRouter_ConversationRecordsMovement(t *testing.T) {
	a, h := newTestServer(t, rowstore.NewMemory(), nil, "")

	var last map[string]interface{}
	for _, text := range []string{"1", "2", "1", "salary", "12000", "2024-06-01"} {
		rec, body := do(t, h, http.MethodPost, "/api/conversations/web-1/messages", `{"text":"`+text+`"}`)
		require.Equal(t, http.StatusOK, rec.Code, text)
		last = body
	}

	assert.Equal(t, "web-1", last["conversation_id"])
	assert.Contains(t, last["text"], "$12,000")

	rows, err := a.Store.ReadAllRows(context.Background(), "Negocios")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Credit", "salary", "12000", "2024-06-01"}, rows[1])

	rec, jobsBody := do(t, h, http.MethodGet, "/api/jobs?conversation_id=web-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(6), jobsBody["count"])

	jobID := last["job_id"].(string)
	rec, job := do(t, h, http.MethodGet, "/api/jobs/"+jobID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completed", job["status"])
}

func TestRouter_ConversationBadBody(t *testing.T) {
	_, h := newTestServer(t, rowstore.NewMemory(), nil, "")

	rec, body := do(t, h, http.MethodPost, "/api/conversations/web-1/messages", `{"text":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", body["error"])
}

func TestRouter_Balance(t *testing.T) {
	store := rowstore.NewMemory()
	ctx := context.Background()
	require.NoError(t, store.AppendRow(ctx, "Negocios", []string{"Credit", "salary", "5000", "2024-06-01"}))
	require.NoError(t, store.AppendRow(ctx, "Negocios", []string{"Debit", "rent", "2000", "2024-06-02"}))
	require.NoError(t, store.AppendRow(ctx, "Negocios", []string{"Credit", "junk", "abc", "2024-06-03"}))
	_, h := newTestServer(t, store, nil, "")

	rec, body := do(t, h, http.MethodGet, "/api/ledgers/Business/balance", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Business", body["account"])
	assert.Equal(t, "Negocios", body["ledger"])
	assert.Equal(t, "3000", body["balance"])
	assert.Equal(t, "$3,000", body["formatted"])
	assert.Equal(t, float64(2), body["rows_counted"])
	assert.Equal(t, float64(1), body["rows_skipped"])
}

func TestRouter_BalanceByPosition(t *testing.T) {
	_, h := newTestServer(t, rowstore.NewMemory(), nil, "")

	rec, body := do(t, h, http.MethodGet, "/api/ledgers/1/balance", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Personal", body["account"])
	assert.Equal(t, "$0", body["formatted"])
}

func TestRouter_UnknownAccount(t *testing.T) {
	_, h := newTestServer(t, rowstore.NewMemory(), nil, "")

	rec, _ := do(t, h, http.MethodGet, "/api/ledgers/Savings/balance", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_UnavailableLedger(t *testing.T) {
	_, h := newTestServer(t, rowstore.NewStrictMemory("Personal-Cris"), nil, "")

	rec, body := do(t, h, http.MethodGet, "/api/ledgers/Business/balance", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Ledger is unavailable", body["error"])
}

func TestRouter_Movements(t *testing.T) {
	store := rowstore.NewMemory()
	ctx := context.Background()
	for _, d := range []string{"first", "second", "third"} {
		require.NoError(t, store.AppendRow(ctx, "Personal-Cris", []string{"Debit", d, "10", "2024-06-01"}))
	}
	_, h := newTestServer(t, store, nil, "")

	rec, body := do(t, h, http.MethodGet, "/api/ledgers/Personal/movements?limit=2", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["count"])
	movements := body["movements"].([]interface{})
	assert.Equal(t, "third", movements[0].(map[string]interface{})["description"])
	assert.Equal(t, "second", movements[1].(map[string]interface{})["description"])

	rec, _ = do(t, h, http.MethodGet, "/api/ledgers/Personal/movements?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Export(t *testing.T) {
	store := rowstore.NewMemory()
	require.NoError(t, store.AppendRow(context.Background(), "Negocios", []string{"Credit", "salary", "5000", "2024-06-01"}))
	var exported [][]string
	exporter := &MockExporter{
		ExportFunc: func(ctx context.Context, ledger string, rows [][]string) (string, error) {
			exported = rows
			return "gs://bucket/exports/" + ledger + ".csv", nil
		},
	}
	_, h := newTestServer(t, store, exporter, "")

	rec, body := do(t, h, http.MethodPost, "/api/ledgers/Business/export", "")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "gs://bucket/exports/Negocios.csv", body["uri"])
	assert.Equal(t, float64(1), body["rows"])
	require.Len(t, exported, 2)
}

func TestRouter_ExportFailure(t *testing.T) {
	exporter := &MockExporter{
		ExportFunc: func(ctx context.Context, ledger string, rows [][]string) (string, error) {
			return "", errors.New("bucket gone")
		},
	}
	_, h := newTestServer(t, rowstore.NewMemory(), exporter, "")

	rec, _ := do(t, h, http.MethodPost, "/api/ledgers/Business/export", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRouter_ExportNotConfigured(t *testing.T) {
	_, h := newTestServer(t, rowstore.NewMemory(), nil, "")

	rec, _ := do(t, h, http.MethodPost, "/api/ledgers/Business/export", "")

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestRouter_UnknownJob(t *testing.T) {
	_, h := newTestServer(t, rowstore.NewMemory(), nil, "")

	rec, _ := do(t, h, http.MethodGet, "/api/jobs/missing", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
