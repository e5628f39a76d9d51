package debt

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func xlsxFromGrid(tb testing.TB, sheets map[string][][]interface{}, order []string) []byte {
	f := excelize.NewFile()
	for i, name := range order {
		if i == 0 {
			require.NoError(tb, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(tb, err)
		}
		for r, row := range sheets[name] {
			for c, v := range row {
				if v == nil {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(tb, err)
				require.NoError(tb, f.SetCellValue(name, cell, v))
			}
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(tb, err)
	return buf.Bytes()
}

func headerAsCells(cols []string) []interface{} {
	out := make([]interface{}, len(cols))
	for i, c := range cols {
		out[i] = c
	}
	return out
}

func TestReadOrdersTableFromXlsx(t *testing.T) {
	grid := [][]interface{}{
		{"Reporte de Ordenes de Compra"},
		headerAsCells(OrderColumns),
		{"OC-1", "Proveedor A", "Caracas", "VES", "2", "100", "0", "40", "05/01/2026", "UN", "Tornillos", "6101", "JPEREZ", "ABIERTO", "MROJAS", ""},
		{},
		{"OC-2", "Proveedor B", "Valencia", "USD", "1", "75", "0", "", "20/09/2026", "UN", "Cajas", "6102", "NADIE", "ABIERTO", "MROJAS", ""},
	}
	data := xlsxFromGrid(t, map[string][][]interface{}{"Hoja1": grid}, []string{"Hoja1"})

	table, err := ReadOrdersTable(data, "ordenes.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 2, table.RowCount())
	assert.Equal(t, "OC-1", cellAt(table, 0, ColNumeroOC))
	assert.Equal(t, "USD", cellAt(table, 1, ColDivisa))
}

func TestReadOrdersTableSchemaMismatch(t *testing.T) {
	grid := [][]interface{}{
		{"NUMERO_OC", "PROVEEDOR"},
		{"OC-1", "Proveedor A"},
	}
	data := xlsxFromGrid(t, map[string][][]interface{}{"Hoja1": grid}, []string{"Hoja1"})

	_, err := ReadOrdersTable(data, "ordenes.xlsx")
	require.Error(t, err)
	var schemaErr *SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestReadOrdersTableFromCSV(t *testing.T) {
	var b strings.Builder
	b.WriteString(strings.Join(OrderColumns, ","))
	b.WriteString("\n")
	b.WriteString("OC-1,Proveedor A,Caracas,VES,2,100,0,40,05/01/2026,UN,Tornillos,6101,JPEREZ,ABIERTO,MROJAS,\n")

	table, err := ReadOrdersTable([]byte(b.String()), "ordenes.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, table.RowCount())
	assert.Equal(t, "VES", cellAt(table, 0, ColDivisa))
}

func TestReadOrdersTableUnsupportedExtension(t *testing.T) {
	_, err := ReadOrdersTable([]byte("x"), "ordenes.pdf")
	assert.Error(t, err)
}

func TestReadRateTablePrefersSecondSheet(t *testing.T) {
	cover := [][]interface{}{{"Resumen"}}
	rates := [][]interface{}{
		{"FECHA", "VES/USD", "COP/USD", "EUR/USD"},
		{"01/01/2026", 50.0, 4000.0, 0.9},
	}
	data := xlsxFromGrid(t, map[string][][]interface{}{
		"Portada": cover,
		"Tasa":    rates,
	}, []string{"Portada", "Tasa"})

	table, err := ReadRateTable(data, "tasa.xlsx")
	require.NoError(t, err)
	require.Equal(t, 1, table.RowCount())
	assert.True(t, table.HasColumn("VES/USD"))
}

func TestReadRateTableSingleSheetFallback(t *testing.T) {
	rates := [][]interface{}{
		{"FECHA", "VES/USD", "COP/USD", "EUR/USD"},
		{"01/01/2026", 50.0, 4000.0, 0.9},
	}
	data := xlsxFromGrid(t, map[string][][]interface{}{"Tasa": rates}, []string{"Tasa"})

	table, err := ReadRateTable(data, "tasa.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 1, table.RowCount())
}

func TestBuildResultWorkbook(t *testing.T) {
	orders := ordersFixture(map[string]interface{}{
		ColNumeroOC: "OC-1", ColDivisa: "VES", ColEstadoCierre: "ABIERTO",
	})
	rates := rateSheet([]interface{}{"01/01/2026", "50", "4000", "0.9"})

	f, err := BuildResultWorkbook(orders, rates)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ordersSheetName, rateSheetName}, f.GetSheetList())

	v, err := f.GetCellValue(ordersSheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, ColNumeroOC, v)

	v, err = f.GetCellValue(ordersSheetName, "A2")
	require.NoError(t, err)
	assert.Equal(t, "OC-1", v)

	v, err = f.GetCellValue(rateSheetName, "B1")
	require.NoError(t, err)
	assert.Equal(t, "VES/USD", v)

	// header band styled and widths fitted
	style, err := f.GetCellStyle(ordersSheetName, "A1")
	require.NoError(t, err)
	assert.NotZero(t, style)
	w, err := f.GetColWidth(ordersSheetName, "A")
	require.NoError(t, err)
	assert.Greater(t, w, float64(len(ColNumeroOC)))
	assert.LessOrEqual(t, w, float64(maxColumnWidth))
}

func TestResultFileName(t *testing.T) {
	now := time.Date(2026, 3, 5, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "resultado_deuda_5_3_2026.xlsx", ResultFileName(now))
	assert.Equal(t, fmt.Sprintf("resultado_deuda_%d_%d_%d.xlsx", 14, 11, 2026),
		ResultFileName(time.Date(2026, 11, 14, 0, 0, 0, 0, time.UTC)))
}
