package debt

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"
)

// bcvRateTable is the master table holding the BCV exchange-rate history.
const bcvRateTable = "vzla_bcv_tasas"

// storedRateColumns matches the rate-sheet header family so a store-sourced
// table flows through BuildRateTable unchanged.
var storedRateColumns = []string{"FECHA", "VES/USD", "COP/USD", "EUR/USD"}

// LoadStoredRates reads the BCV rate history from the analytical store into
// the same table shape as an uploaded rate sheet. Unlike the area directory
// this does not degrade: without rates the run is meaningless.
func LoadStoredRates(ctx context.Context, db *sql.DB) (*Table, error) {
	if db == nil {
		return nil, fmt.Errorf("rate store not configured")
	}
	rows, err := db.QueryContext(ctx,
		`SELECT fecha, ves_usd, cop_usd, eur_usd FROM vzla_bcv_tasas ORDER BY fecha`)
	if err != nil {
		return nil, fmt.Errorf("query stored rates: %w", err)
	}
	defer rows.Close()
	t := NewTable(storedRateColumns)
	for rows.Next() {
		var fecha time.Time
		var ves, cop, eur sql.NullFloat64
		if err := rows.Scan(&fecha, &ves, &cop, &eur); err != nil {
			return nil, fmt.Errorf("scan stored rate: %w", err)
		}
		t.AddRow(storedRateCells(fecha, ves, cop, eur))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read stored rates: %w", err)
	}
	if t.RowCount() == 0 {
		return nil, fmt.Errorf("rate store %s is empty", bcvRateTable)
	}
	log.Printf("[DEBT-RATES] %d stored rate rows loaded from %s", t.RowCount(), bcvRateTable)
	return t, nil
}

// storedRateCells maps one scanned row to table cells, nil for SQL NULLs so
// the resolver's null-rate rule applies to store-sourced rates too.
func storedRateCells(fecha time.Time, vals ...sql.NullFloat64) []interface{} {
	cells := make([]interface{}, 0, len(vals)+1)
	cells = append(cells, fecha)
	for _, v := range vals {
		if v.Valid {
			cells = append(cells, v.Float64)
		} else {
			cells = append(cells, nil)
		}
	}
	return cells
}
