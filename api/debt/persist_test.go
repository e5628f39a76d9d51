package debt

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAnalyticalRecordsColumnsAndTimestamp(t *testing.T) {
	orders := ordersFixture(map[string]interface{}{
		ColNumeroOC:    "OC-1",
		ColDivisa:      "VES",
		ColSolicitante: "JPEREZ",
	})
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	columns, records := BuildAnalyticalRecords(orders, now)
	require.Len(t, records, 1)
	require.Equal(t, len(columns), len(records[0]))

	// every target is namespaced, timestamp last
	for _, c := range columns {
		assert.True(t, len(c) > len("vzla_deuda_"), c)
		assert.Contains(t, c, "vzla_deuda_")
	}
	assert.Equal(t, analyticalTimestampField, columns[len(columns)-1])
	assert.Equal(t, now, records[0][len(records[0])-1])
}

func TestBuildAnalyticalRecordsSkipsAbsentColumns(t *testing.T) {
	orders := NewTable([]string{ColNumeroOC, ColDivisa})
	orders.AddRow([]interface{}{"OC-1", "USD"})

	columns, records := BuildAnalyticalRecords(orders, time.Now())
	assert.Equal(t, []string{
		"vzla_deuda_orden_compra",
		"vzla_deuda_divisa",
		analyticalTimestampField,
	}, columns)
	assert.Equal(t, "OC-1", records[0][0])
	assert.Equal(t, "USD", records[0][1])
}

func TestBuildAnalyticalRecordsCoercion(t *testing.T) {
	orders := NewTable([]string{ColNumeroOC, ColImporte, ColFechaOrden, ColTasa})
	orders.AddRow([]interface{}{
		decimal.RequireFromString("12345"), // identifier arrives numeric
		"1,500.75",
		"05/01/2026",
		decimal.RequireFromString("36.18"),
	})
	orders.AddRow([]interface{}{nil, "no numero", "sin fecha", nil})

	columns, records := BuildAnalyticalRecords(orders, time.Now())
	require.Equal(t, 5, len(columns))
	require.Len(t, records, 2)

	// identifiers forced to text, amounts to float64, dates to time.Time
	assert.Equal(t, "12345", records[0][0])
	assert.Equal(t, 1500.75, records[0][1])
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), records[0][2].(time.Time).UTC())
	assert.Equal(t, 36.18, records[0][3])

	// unusable values persist as nulls
	assert.Nil(t, records[1][0])
	assert.Nil(t, records[1][1])
	assert.Nil(t, records[1][2])
	assert.Nil(t, records[1][3])
}

func TestBuildAnalyticalRecordsEmptyTable(t *testing.T) {
	orders := NewTable(OrderColumns)
	columns, records := BuildAnalyticalRecords(orders, time.Now())
	assert.NotEmpty(t, columns)
	assert.Empty(t, records)
}
