package debt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderHeaderRow() []string {
	return append([]string(nil), OrderColumns...)
}

func TestDetectOrderHeaderRowWithPreamble(t *testing.T) {
	grid := [][]string{
		{"Reporte de Ordenes de Compra"},
		{"Generado: 01/08/2026"},
		orderHeaderRow(),
		{"OC-1", "Proveedor A"},
	}
	assert.Equal(t, 2, DetectOrderHeaderRow(grid))
}

func TestDetectOrderHeaderRowCaseAndSpacing(t *testing.T) {
	row := orderHeaderRow()
	row[0] = "  numero_oc  "
	row[3] = "divisa"
	grid := [][]string{{"titulo"}, row}
	assert.Equal(t, 1, DetectOrderHeaderRow(grid))
}

func TestDetectOrderHeaderRowRequiresFullSet(t *testing.T) {
	// 15 of 16 columns is not a header match
	grid := [][]string{orderHeaderRow()[:15]}
	assert.Equal(t, 0, DetectOrderHeaderRow(grid))
	assert.False(t, rowMatchesHeader(grid[0], OrderColumns, len(OrderColumns)))
}

func TestDetectOrderHeaderRowBeyondScanDepth(t *testing.T) {
	grid := [][]string{
		{"a"}, {"b"}, {"c"}, {"d"}, {"e"},
		orderHeaderRow(), // row 5, past the scan window
	}
	assert.Equal(t, 0, DetectOrderHeaderRow(grid))
}

func TestDetectRateHeaderRowPartialMatch(t *testing.T) {
	grid := [][]string{
		{"Tasas de cambio"},
		{"FECHA", "VES/USD", "COP/USD", "OTRA COLUMNA"},
		{"01/01/2026", "50", "4000", "x"},
	}
	assert.Equal(t, 1, DetectRateHeaderRow(grid))
}

func TestDetectRateHeaderRowTooFewHits(t *testing.T) {
	grid := [][]string{
		{"FECHA", "VALOR"}, // only one known column
	}
	assert.Equal(t, 0, DetectRateHeaderRow(grid))
}

func TestValidateOrderColumnsExactMatch(t *testing.T) {
	assert.NoError(t, ValidateOrderColumns(orderHeaderRow()))
}

func TestValidateOrderColumnsMissingAndExtra(t *testing.T) {
	cols := orderHeaderRow()[:14]
	cols = append(cols, "COLUMNA_RARA", "OTRA_MAS")
	err := ValidateOrderColumns(cols)
	require.Error(t, err)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{ColAprobador, ColFechaCierre}, schemaErr.Missing)
	assert.Equal(t, []string{"COLUMNA_RARA", "OTRA_MAS"}, schemaErr.Extra)
	assert.Contains(t, err.Error(), ColAprobador)
	assert.Contains(t, err.Error(), "COLUMNA_RARA")
}

func TestValidateOrderColumnsOrderInsensitive(t *testing.T) {
	cols := orderHeaderRow()
	cols[0], cols[15] = cols[15], cols[0]
	assert.NoError(t, ValidateOrderColumns(cols))
}
