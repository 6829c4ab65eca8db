package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/dvloznov/plata/internal/ledger"
	"github.com/dvloznov/plata/internal/rowstore"
)

const testSpreadsheet = "sheet-1"

// fakeSheets serves the subset of the values API the store uses.
type fakeSheets struct {
	mu      sync.Mutex
	tabs    map[string][][]interface{}
	queries []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prefix := "/v4/spreadsheets/" + testSpreadsheet + "/values/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
		return
	}
	rng := strings.TrimPrefix(r.URL.Path, prefix)
	appending := strings.HasSuffix(rng, ":append")
	rng = strings.TrimSuffix(rng, ":append")

	tab := strings.Trim(rng[:strings.LastIndex(rng, "!")], "'")
	rows, ok := f.tabs[tab]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"Unable to parse range"}}`))
		return
	}

	switch {
	case r.Method == http.MethodPost && appending:
		f.queries = append(f.queries, r.URL.RawQuery)
		var body struct {
			Values [][]interface{} `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.tabs[tab] = append(rows, body.Values...)
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"range": rng, "values": rows})
	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

func newTestStore(t *testing.T, fake *fakeSheets) *RowStore {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := NewRowStore(context.Background(), testSpreadsheet, "",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return store
}

func TestRowStore_AppendThenRead(t *testing.T) {
	fake := &fakeSheets{tabs: map[string][][]interface{}{
		"Personal-Cris": {{"direction", "description", "amount", "date"}},
	}}
	store := newTestStore(t, fake)
	ctx := context.Background()

	require.NoError(t, store.AppendRow(ctx, "Personal-Cris", []string{"Credit", "coffee", "5000", "2024-01-01"}))
	require.NoError(t, store.AppendRow(ctx, "Personal-Cris", []string{"Debit", "book", "2000", "2024-01-02"}))

	rows, err := store.ReadAllRows(ctx, "Personal-Cris")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Debit", "book", "2000", "2024-01-02"}, rows[2])
	assert.Equal(t, "3000", ledger.ComputeBalance(rows).Total.String())

	require.NotEmpty(t, fake.queries)
	assert.Contains(t, fake.queries[0], "valueInputOption=RAW")
	assert.Contains(t, fake.queries[0], "insertDataOption=INSERT_ROWS")
}

func TestRowStore_MissingTabIsUnavailable(t *testing.T) {
	store := newTestStore(t, &fakeSheets{tabs: map[string][][]interface{}{}})
	ctx := context.Background()

	_, err := store.ReadAllRows(ctx, "Negocios")
	assert.ErrorIs(t, err, rowstore.ErrUnavailable)

	err = store.AppendRow(ctx, "Negocios", []string{"Credit", "x", "1", "2024-01-01"})
	assert.ErrorIs(t, err, rowstore.ErrUnavailable)

	var storeErr *rowstore.Error
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "Negocios", storeErr.Ledger)
}

func TestNewRowStore_RequiresSpreadsheet(t *testing.T) {
	_, err := NewRowStore(context.Background(), "", "")
	assert.Error(t, err)
}

func TestA1Range(t *testing.T) {
	assert.Equal(t, "'Personal-Cris'!A:D", a1Range("Personal-Cris", "A:D"))
	assert.Equal(t, "'Bob''s'!A1:D1", a1Range("Bob's", "A1:D1"))
}

func TestToStrings(t *testing.T) {
	got := toStrings([][]interface{}{{"Credit", "x", float64(5000)}, {}})
	assert.Equal(t, [][]string{{"Credit", "x", "5000"}, {}}, got)
}
