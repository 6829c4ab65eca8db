package bigquery

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/plata/internal/domain"
	"github.com/dvloznov/plata/internal/rowstore"
)

// RowStore keeps every ledger in a single BigQuery table. It holds a shared
// client for the lifetime of the process.
type RowStore struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	table     string
	now       func() time.Time
}

// NewRowStore creates a RowStore on projectID.datasetID.table.
func NewRowStore(ctx context.Context, projectID, datasetID, table string) (*RowStore, error) {
	if projectID == "" || datasetID == "" {
		return nil, fmt.Errorf("NewRowStore: project and dataset are required")
	}
	if table == "" {
		table = DefaultTable
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRowStore: creating client: %w", err)
	}
	return &RowStore{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
		table:     table,
		now:       time.Now,
	}, nil
}

// Close closes the BigQuery client connection.
func (s *RowStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// AppendRow inserts one movement row through the streaming inserter.
func (s *RowStore) AppendRow(ctx context.Context, ledger string, columns []string) error {
	row, err := columnsToRow(ledger, columns, s.now(), uuid.New().String())
	if err != nil {
		return fmt.Errorf("AppendRow: %w", err)
	}

	table := s.client.DatasetInProject(s.projectID, s.datasetID).Table(s.table)
	if err := table.Inserter().Put(ctx, []*MovementRow{row}); err != nil {
		return rowstore.Unavailable("append", ledger, fmt.Errorf("AppendRow: inserting row: %w", err))
	}
	return nil
}

// ReadAllRows returns the ledger in insertion order with the header first.
func (s *RowStore) ReadAllRows(ctx context.Context, ledger string) ([][]string, error) {
	query := fmt.Sprintf(`
		SELECT
			ledger,
			row_id,
			direction,
			description,
			amount,
			movement_date,
			created_ts
		FROM `+"`%s.%s.%s`"+`
		WHERE ledger = @ledger
		ORDER BY created_ts, row_id
	`, s.projectID, s.datasetID, s.table)

	q := s.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "ledger", Value: ledger},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, rowstore.Unavailable("read", ledger, fmt.Errorf("ReadAllRows: reading query: %w", err))
	}

	rows := [][]string{append([]string(nil), domain.Header...)}
	for {
		var r MovementRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, rowstore.Unavailable("read", ledger, fmt.Errorf("ReadAllRows: iterating: %w", err))
		}
		rows = append(rows, rowToColumns(&r))
	}
	return rows, nil
}

// EnsureLedger creates the movements table if it does not exist yet. All
// ledgers share it, so there is nothing per-ledger to prepare.
func (s *RowStore) EnsureLedger(ctx context.Context, ledger string) error {
	table := s.client.DatasetInProject(s.projectID, s.datasetID).Table(s.table)
	err := table.Create(ctx, &bigquery.TableMetadata{
		Name:   s.table,
		Schema: movementsSchema,
		Clustering: &bigquery.Clustering{
			Fields: []string{"ledger"},
		},
	})
	if err == nil || isAlreadyExists(err) {
		return nil
	}
	return rowstore.Unavailable("ensure", ledger, fmt.Errorf("EnsureLedger: creating table: %w", err))
}

func isAlreadyExists(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict
}

// columnsToRow converts [direction, description, amount, date] into a row.
func columnsToRow(ledger string, columns []string, now time.Time, rowID string) (*MovementRow, error) {
	if len(columns) < len(domain.Header) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(domain.Header), len(columns))
	}

	amount, ok := new(big.Rat).SetString(strings.ReplaceAll(strings.TrimSpace(columns[2]), ",", ""))
	if !ok {
		return nil, fmt.Errorf("amount %q is not numeric", columns[2])
	}

	var date bigquery.NullDate
	if s := strings.TrimSpace(columns[3]); s != "" {
		d, err := civil.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("date %q: %w", columns[3], err)
		}
		date = bigquery.NullDate{Date: d, Valid: true}
	}

	return &MovementRow{
		Ledger:       ledger,
		RowID:        rowID,
		Direction:    columns[0],
		Description:  columns[1],
		Amount:       amount,
		MovementDate: date,
		CreatedTS:    now.UTC(),
	}, nil
}

// rowToColumns renders a row the way it was appended.
func rowToColumns(r *MovementRow) []string {
	date := ""
	if r.MovementDate.Valid {
		date = r.MovementDate.Date.String()
	}
	return []string{r.Direction, r.Description, amountString(r.Amount), date}
}

// amountString renders NUMERIC values without a fractional part when they
// are whole.
func amountString(r *big.Rat) string {
	if r == nil {
		return ""
	}
	if r.IsInt() {
		return r.Num().String()
	}
	return r.FloatString(2)
}

var (
	_ rowstore.RowStore    = (*RowStore)(nil)
	_ rowstore.Initializer = (*RowStore)(nil)
)
