package debt

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/shakinm/xlsReader/xls"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	ordersSheetName = "Ordenes de Compra"
	rateSheetName   = "Tasa"

	headerFillColor = "4472C4"
	maxColumnWidth  = 50
)

func fileExt(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// parseGrid reads one sheet of an uploaded spreadsheet into a raw string grid.
// sheetIndex applies to Excel formats; CSV has a single implicit sheet.
func parseGrid(data []byte, filename string, sheetIndex int) ([][]string, error) {
	switch fileExt(filename) {
	case ".xlsx":
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("open xlsx: %w", err)
		}
		defer f.Close()
		sheet := f.GetSheetName(sheetIndex)
		if sheet == "" {
			return nil, fmt.Errorf("xlsx has no sheet at index %d", sheetIndex)
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read xlsx rows: %w", err)
		}
		return rows, nil
	case ".xls":
		wb, err := xls.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("open xls: %w", err)
		}
		sheet, err := wb.GetSheet(sheetIndex)
		if err != nil || sheet == nil {
			return nil, fmt.Errorf("xls has no sheet at index %d", sheetIndex)
		}
		var rows [][]string
		for _, xlsRow := range sheet.GetRows() {
			var cells []string
			for _, col := range xlsRow.GetCols() {
				cells = append(cells, col.GetString())
			}
			rows = append(rows, cells)
		}
		return rows, nil
	case ".csv":
		r := csv.NewReader(bytes.NewReader(data))
		r.FieldsPerRecord = -1
		rows, err := r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		return rows, nil
	default:
		return nil, errors.New("unsupported file type: " + filename)
	}
}

// allEmptyRow reports whether every cell in the row is empty or whitespace.
func allEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// gridToTable turns a detected header row plus the rows beneath it into a
// Table with canonical column names. Fully-empty rows are dropped.
func gridToTable(grid [][]string, headerRow int) *Table {
	if headerRow >= len(grid) {
		return NewTable(nil)
	}
	t := NewTable(grid[headerRow])
	for i := headerRow + 1; i < len(grid); i++ {
		if allEmptyRow(grid[i]) {
			continue
		}
		cells := make([]interface{}, len(grid[i]))
		for j, c := range grid[i] {
			c = strings.TrimSpace(c)
			if c == "" {
				continue
			}
			cells[j] = c
		}
		t.AddRow(cells)
	}
	return t
}

// ReadOrdersTable parses the purchase-order upload: header auto-detection over
// the first rows, canonical column names, strict schema validation.
func ReadOrdersTable(data []byte, filename string) (*Table, error) {
	grid, err := parseGrid(data, filename, 0)
	if err != nil {
		return nil, err
	}
	headerRow := DetectOrderHeaderRow(grid)
	if headerRow == 0 && (len(grid) == 0 || !rowMatchesHeader(grid[0], OrderColumns, len(OrderColumns))) {
		logHeaderFallback("orders")
	} else {
		describeDetection("orders", headerRow)
	}
	t := gridToTable(grid, headerRow)
	if err := ValidateOrderColumns(t.Columns); err != nil {
		return nil, err
	}
	log.Printf("[DEBT-WORKBOOK] orders file read, %d rows", t.RowCount())
	return t, nil
}

// ReadRateTable parses the exchange-rate upload. The rate report keeps its
// data on the second sheet when one exists; detection is partial because the
// sheet carries extra pair columns.
func ReadRateTable(data []byte, filename string) (*Table, error) {
	grid, err := parseGrid(data, filename, 1)
	if err != nil {
		// single-sheet workbooks and CSVs land here
		grid, err = parseGrid(data, filename, 0)
		if err != nil {
			return nil, err
		}
	}
	headerRow := DetectRateHeaderRow(grid)
	if headerRow == 0 && (len(grid) == 0 || !rowMatchesHeader(grid[0], rateSheetColumns, rateHeaderMinHits)) {
		logHeaderFallback("rate")
	} else {
		describeDetection("rate", headerRow)
	}
	t := gridToTable(grid, headerRow)
	log.Printf("[DEBT-WORKBOOK] rate file read, %d rows, %d columns", t.RowCount(), len(t.Columns))
	return t, nil
}

func cellValueForSheet(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case decimal.Decimal:
		f, _ := t.Float64()
		return f
	case time.Time:
		return t
	default:
		return t
	}
}

// BuildResultWorkbook serializes the enriched orders and the raw rate table to
// a two-sheet workbook with the report styling: filled header band, bold white
// text, frozen header row, fitted column widths capped at 50 characters and
// thin borders on populated cells.
func BuildResultWorkbook(orders, rates *Table) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ordersSheetName); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(rateSheetName); err != nil {
		return nil, err
	}

	thin := []excelize.Border{
		{Type: "left", Style: 1, Color: "000000"},
		{Type: "right", Style: 1, Color: "000000"},
		{Type: "top", Style: 1, Color: "000000"},
		{Type: "bottom", Style: 1, Color: "000000"},
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFillColor}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thin,
	})
	if err != nil {
		return nil, err
	}
	cellStyle, err := f.NewStyle(&excelize.Style{Border: thin})
	if err != nil {
		return nil, err
	}

	for _, s := range []struct {
		name  string
		table *Table
	}{
		{ordersSheetName, orders},
		{rateSheetName, rates},
	} {
		if err := writeStyledSheet(f, s.name, s.table, headerStyle, cellStyle); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func writeStyledSheet(f *excelize.File, sheet string, t *Table, headerStyle, cellStyle int) error {
	widths := make([]int, len(t.Columns))
	for j, col := range t.Columns {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
		widths[j] = len(col)
	}
	for i, row := range t.Rows {
		for j := range t.Columns {
			var v interface{}
			if j < len(row) {
				v = row[j]
			}
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, cellValueForSheet(v)); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, cell, cell, cellStyle); err != nil {
				return err
			}
			if l := len(cellString(v)); l > widths[j] {
				widths[j] = l
			}
		}
	}
	if len(t.Columns) > 0 {
		last, err := excelize.CoordinatesToCellName(len(t.Columns), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return err
		}
	}
	for j := range t.Columns {
		name, err := excelize.ColumnNumberToName(j + 1)
		if err != nil {
			return err
		}
		w := widths[j] + 2
		if w > maxColumnWidth {
			w = maxColumnWidth
		}
		if err := f.SetColWidth(sheet, name, name, float64(w)); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// ResultFileName builds the dated workbook name used for storage.
func ResultFileName(now time.Time) string {
	return fmt.Sprintf("resultado_deuda_%d_%d_%d.xlsx", now.Day(), int(now.Month()), now.Year())
}
