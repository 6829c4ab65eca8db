// Package azuretables stores ledgers in an Azure Storage table. Each ledger is
// a partition; row keys sort in append order.
package azuretables

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/google/uuid"

	"github.com/dvloznov/plata/internal/domain"
	"github.com/dvloznov/plata/internal/logger"
	"github.com/dvloznov/plata/internal/rowstore"
)

// DefaultTable is used when no table name is configured.
const DefaultTable = "movements"

// movementEntity is the stored shape of one ledger row. Amount stays a string
// so values read back exactly as written.
type movementEntity struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
	Direction    string `json:"Direction"`
	Description  string `json:"Description"`
	Amount       string `json:"Amount"`
	Date         string `json:"Date"`
}

// RowStore keeps every ledger in one table.
type RowStore struct {
	serviceClient *aztables.ServiceClient
	table         string
	now           func() time.Time
}

// NewRowStore connects to the table service at serviceURL. An http:// URL is
// treated as Azurite and uses its shared key; anything else uses the default
// Azure credential chain.
func NewRowStore(ctx context.Context, serviceURL, table string) (*RowStore, error) {
	if serviceURL == "" {
		return nil, fmt.Errorf("NewRowStore: table service URL is required")
	}
	if table == "" {
		table = DefaultTable
	}

	log := logger.FromContext(ctx)
	var client *aztables.ServiceClient
	if isLocal(serviceURL) {
		log.Info().Str("table_url", serviceURL).Msg("Using Azurite credentials for table store")
		cred, err := aztables.NewSharedKeyCredential(azuriteAccountName, azuriteAccountKey)
		if err != nil {
			return nil, fmt.Errorf("NewRowStore: shared key credential: %w", err)
		}
		client, err = aztables.NewServiceClientWithSharedKey(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("NewRowStore: service client with shared key: %w", err)
		}
	} else {
		log.Info().Str("table_url", serviceURL).Msg("Using default Azure credentials for table store")
		cred, err := newDefaultAzureCredential()
		if err != nil {
			return nil, fmt.Errorf("NewRowStore: default azure credential: %w", err)
		}
		client, err = aztables.NewServiceClient(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("NewRowStore: service client: %w", err)
		}
	}

	return &RowStore{serviceClient: client, table: table, now: time.Now}, nil
}

func (s *RowStore) client() *aztables.Client {
	return s.serviceClient.NewClient(s.table)
}

// AppendRow adds one entity to the ledger's partition.
func (s *RowStore) AppendRow(ctx context.Context, ledger string, columns []string) error {
	entity, err := encodeEntity(ledger, rowKey(s.now(), uuid.New()), columns)
	if err != nil {
		return fmt.Errorf("AppendRow: %w", err)
	}
	if _, err := s.client().AddEntity(ctx, entity, nil); err != nil {
		return rowstore.Unavailable("append", ledger, fmt.Errorf("AppendRow: adding entity: %w", err))
	}
	return nil
}

// ReadAllRows lists the ledger's partition. The service returns entities
// ordered by RowKey, which is append order.
func (s *RowStore) ReadAllRows(ctx context.Context, ledger string) ([][]string, error) {
	filter := partitionFilter(ledger)
	pager := s.client().NewListEntitiesPager(&aztables.ListEntitiesOptions{
		Filter: &filter,
	})

	rows := [][]string{append([]string(nil), domain.Header...)}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, rowstore.Unavailable("read", ledger, fmt.Errorf("ReadAllRows: listing entities: %w", err))
		}
		for _, raw := range resp.Entities {
			row, err := decodeEntity(raw)
			if err != nil {
				// Kept as an empty row so the aggregator counts it as malformed.
				rows = append(rows, []string{})
				continue
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// EnsureLedger creates the table if needed. Partitions need no setup.
func (s *RowStore) EnsureLedger(ctx context.Context, ledger string) error {
	_, err := s.serviceClient.CreateTable(ctx, s.table, nil)
	if err == nil {
		return nil
	}
	var azErr *azcore.ResponseError
	if errors.As(err, &azErr) && azErr.ErrorCode == "TableAlreadyExists" {
		return nil
	}
	return rowstore.Unavailable("ensure", ledger, fmt.Errorf("EnsureLedger: creating table %s: %w", s.table, err))
}

// rowKey is a zero-padded nanosecond timestamp so keys sort chronologically,
// with a random suffix for appends in the same nanosecond.
func rowKey(t time.Time, id uuid.UUID) string {
	return fmt.Sprintf("%020d-%s", t.UnixNano(), id.String()[:8])
}

func partitionFilter(ledger string) string {
	return fmt.Sprintf("PartitionKey eq '%s'", strings.ReplaceAll(ledger, "'", "''"))
}

func encodeEntity(ledger, key string, columns []string) ([]byte, error) {
	if len(columns) < len(domain.Header) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(domain.Header), len(columns))
	}
	return json.Marshal(movementEntity{
		PartitionKey: ledger,
		RowKey:       key,
		Direction:    columns[0],
		Description:  columns[1],
		Amount:       columns[2],
		Date:         columns[3],
	})
}

func decodeEntity(raw []byte) ([]string, error) {
	var e movementEntity
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	return []string{e.Direction, e.Description, e.Amount, e.Date}, nil
}

var (
	_ rowstore.RowStore    = (*RowStore)(nil)
	_ rowstore.Initializer = (*RowStore)(nil)
)
