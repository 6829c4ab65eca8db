package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
)

// DefaultTable is the table movements are stored in when none is configured.
const DefaultTable = "movements"

// MovementRow is one ledger row. All ledgers share the table and are told
// apart by Ledger.
type MovementRow struct {
	Ledger string `bigquery:"ledger"` // REQUIRED
	RowID  string `bigquery:"row_id"` // REQUIRED

	Direction   string `bigquery:"direction"`   // REQUIRED
	Description string `bigquery:"description"` // NULLABLE

	Amount       *big.Rat          `bigquery:"amount"`        // REQUIRED NUMERIC
	MovementDate bigquery.NullDate `bigquery:"movement_date"` // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// movementsSchema is used when EnsureLedger has to create the table.
var movementsSchema = bigquery.Schema{
	{Name: "ledger", Type: bigquery.StringFieldType, Required: true},
	{Name: "row_id", Type: bigquery.StringFieldType, Required: true},
	{Name: "direction", Type: bigquery.StringFieldType, Required: true},
	{Name: "description", Type: bigquery.StringFieldType},
	{Name: "amount", Type: bigquery.NumericFieldType, Required: true},
	{Name: "movement_date", Type: bigquery.DateFieldType},
	{Name: "created_ts", Type: bigquery.TimestampFieldType, Required: true},
}
