// Package sheets stores ledgers as worksheet tabs of one Google spreadsheet.
// Each ledger name is a tab title and row 1 of every tab is the header.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/dvloznov/plata/internal/domain"
	"github.com/dvloznov/plata/internal/rowstore"
)

const (
	valueInputRaw = "RAW"
	insertRows    = "INSERT_ROWS"
	ledgerColumns = "A:D"
	headerColumns = "A1:D1"
)

// RowStore reads and appends rows through the Sheets v4 values API.
type RowStore struct {
	service       *sheets.Service
	spreadsheetID string
}

// NewRowStore connects to the spreadsheet. credentialsJSON is the content of
// a service account key; when empty, application default credentials are
// used. Extra client options are appended last.
func NewRowStore(ctx context.Context, spreadsheetID, credentialsJSON string, opts ...option.ClientOption) (*RowStore, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("NewRowStore: spreadsheet ID is required")
	}

	clientOpts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if credentialsJSON != "" {
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("NewRowStore: creating sheets service: %w", err)
	}
	return &RowStore{service: service, spreadsheetID: spreadsheetID}, nil
}

// AppendRow appends columns after the last row of the ledger's tab.
func (s *RowStore) AppendRow(ctx context.Context, ledger string, columns []string) error {
	values := &sheets.ValueRange{Values: [][]interface{}{toCells(columns)}}

	_, err := s.service.Spreadsheets.Values.
		Append(s.spreadsheetID, a1Range(ledger, ledgerColumns), values).
		ValueInputOption(valueInputRaw).
		InsertDataOption(insertRows).
		Context(ctx).
		Do()
	if err != nil {
		return rowstore.Unavailable("append", ledger, fmt.Errorf("AppendRow: %w", err))
	}
	return nil
}

// ReadAllRows returns every row of the ledger's tab, header first.
func (s *RowStore) ReadAllRows(ctx context.Context, ledger string) ([][]string, error) {
	resp, err := s.service.Spreadsheets.Values.
		Get(s.spreadsheetID, a1Range(ledger, ledgerColumns)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, rowstore.Unavailable("read", ledger, fmt.Errorf("ReadAllRows: %w", err))
	}
	return toStrings(resp.Values), nil
}

// EnsureLedger adds the ledger's tab when it is missing and writes the header
// into an empty tab.
func (s *RowStore) EnsureLedger(ctx context.Context, ledger string) error {
	doc, err := s.service.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return rowstore.Unavailable("ensure", ledger, fmt.Errorf("EnsureLedger: reading spreadsheet: %w", err))
	}

	if !hasTab(doc, ledger) {
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: ledger},
				},
			}},
		}
		if _, err := s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return rowstore.Unavailable("ensure", ledger, fmt.Errorf("EnsureLedger: adding tab: %w", err))
		}
	}

	resp, err := s.service.Spreadsheets.Values.
		Get(s.spreadsheetID, a1Range(ledger, headerColumns)).
		Context(ctx).
		Do()
	if err != nil {
		return rowstore.Unavailable("ensure", ledger, fmt.Errorf("EnsureLedger: reading header: %w", err))
	}
	if len(resp.Values) > 0 {
		return nil
	}

	header := &sheets.ValueRange{Values: [][]interface{}{toCells(domain.Header)}}
	_, err = s.service.Spreadsheets.Values.
		Update(s.spreadsheetID, a1Range(ledger, headerColumns), header).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	if err != nil {
		return rowstore.Unavailable("ensure", ledger, fmt.Errorf("EnsureLedger: writing header: %w", err))
	}
	return nil
}

func hasTab(doc *sheets.Spreadsheet, title string) bool {
	for _, sh := range doc.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return true
		}
	}
	return false
}

// a1Range quotes the tab title so names with spaces or dashes resolve.
func a1Range(tab, cells string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'!" + cells
}

func toCells(columns []string) []interface{} {
	cells := make([]interface{}, len(columns))
	for i, c := range columns {
		cells[i] = c
	}
	return cells
}

// toStrings flattens API cell values. Trailing empty cells are omitted by
// the API, so rows may be shorter than the header.
func toStrings(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, v := range values {
		row := make([]string, len(v))
		for j, cell := range v {
			row[j] = fmt.Sprint(cell)
		}
		rows[i] = row
	}
	return rows
}

var (
	_ rowstore.RowStore    = (*RowStore)(nil)
	_ rowstore.Initializer = (*RowStore)(nil)
)
