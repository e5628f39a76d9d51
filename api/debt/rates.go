package debt

import (
	"log"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Rate column keys inside the lookup table. DEFAULT is the last-resort column
// picked by substring when no explicit pair column exists.
const (
	rateKeyVES     = "VES"
	rateKeyCOP     = "COP"
	rateKeyEUR     = "EUR"
	rateKeyDefault = "DEFAULT"
)

type rateEntry struct {
	date  time.Time
	rates map[string]decimal.Decimal
}

// RateTable is the immutable date-sorted lookup built once per run and shared
// read-only across all per-row resolutions.
type RateTable struct {
	entries []rateEntry
	hasKey  map[string]bool
}

var rateDateColumnHints = []string{"FECHA", "DATE", "FECHA_CAMBIO", "FECHA_TASA"}

var rateColumnPatterns = map[string][]string{
	rateKeyVES: {"VES/USD", "VES_USD"},
	rateKeyCOP: {"COP/USD", "COP_USD"},
	rateKeyEUR: {"EUR/USD", "EUR_USD"},
}

// findRateDateColumn picks the rate sheet's date column by substring family,
// falling back to the first column with a warning.
func findRateDateColumn(t *Table) int {
	for i, col := range t.Columns {
		up := NormalizeHeader(col)
		for _, hint := range rateDateColumnHints {
			if strings.Contains(up, hint) {
				return i
			}
		}
	}
	if len(t.Columns) == 0 {
		return -1
	}
	log.Printf("[DEBT-RATES] no explicit date column found in rate sheet, using %q", t.Columns[0])
	return 0
}

// findRateColumns maps currency keys to column indexes. When no explicit pair
// column matches, any column mentioning USD, TASA or CAMBIO becomes the
// DEFAULT rate column.
func findRateColumns(t *Table) map[string]int {
	cols := make(map[string]int)
	for key, patterns := range rateColumnPatterns {
		for i, col := range t.Columns {
			up := NormalizeHeader(col)
			matched := false
			for _, p := range patterns {
				if strings.Contains(up, p) {
					cols[key] = i
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
	}
	if len(cols) == 0 {
		for i, col := range t.Columns {
			up := NormalizeHeader(col)
			if strings.Contains(up, "USD") || strings.Contains(up, "TASA") || strings.Contains(up, "CAMBIO") {
				cols[rateKeyDefault] = i
				log.Printf("[DEBT-RATES] using fallback rate column %q", col)
				break
			}
		}
	}
	return cols
}

// BuildRateTable turns the raw rate sheet into the sorted lookup structure.
// Rows lacking a parseable date are discarded. The sort is stable so that
// among duplicate dates the last file row wins during prior-date lookup.
func BuildRateTable(t *Table) *RateTable {
	rt := &RateTable{hasKey: make(map[string]bool)}
	if t == nil || len(t.Columns) == 0 {
		return rt
	}
	dateIdx := findRateDateColumn(t)
	if dateIdx < 0 {
		return rt
	}
	rateCols := findRateColumns(t)
	for key := range rateCols {
		rt.hasKey[key] = true
	}
	for _, row := range t.Rows {
		if dateIdx >= len(row) {
			continue
		}
		d, ok := toDate(row[dateIdx])
		if !ok {
			continue
		}
		entry := rateEntry{date: truncateDay(d), rates: make(map[string]decimal.Decimal)}
		for key, idx := range rateCols {
			if idx >= len(row) {
				continue
			}
			if v, ok := toDecimal(row[idx]); ok {
				entry.rates[key] = v
			}
		}
		rt.entries = append(rt.entries, entry)
	}
	sort.SliceStable(rt.entries, func(i, j int) bool {
		return rt.entries[i].date.Before(rt.entries[j].date)
	})
	return rt
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Len returns the number of usable rate observations.
func (rt *RateTable) Len() int {
	return len(rt.entries)
}

// rateKeyFor picks the lookup column for a normalized currency. Non-VES/COP/EUR
// currencies fall through the priority order VES→COP→EUR→DEFAULT; the chosen
// column is informational for those rows; the enricher only divides for
// VES/COP/EUR or the best-effort branch.
func (rt *RateTable) rateKeyFor(currency string) (string, bool) {
	switch currency {
	case rateKeyVES, rateKeyCOP, rateKeyEUR:
		return currency, true
	}
	for _, key := range []string{rateKeyVES, rateKeyCOP, rateKeyEUR, rateKeyDefault} {
		if rt.hasKey[key] {
			return key, true
		}
	}
	return "", false
}

// Resolve returns the applicable rate for an order date and currency, nil when
// none applies. Exact date match first; otherwise the chronologically last
// entry at or before the order date stands in; rates are not published daily,
// so the most recent known rate applies. Never a future date.
func (rt *RateTable) Resolve(orderDate time.Time, currency string) *decimal.Decimal {
	if orderDate.IsZero() || len(rt.entries) == 0 {
		return nil
	}
	key, ok := rt.rateKeyFor(NormalizeHeader(currency))
	if !ok {
		return nil
	}
	day := truncateDay(orderDate)

	// exact date match: with duplicate dates the last row wins
	for i := len(rt.entries) - 1; i >= 0; i-- {
		if rt.entries[i].date.Equal(day) {
			if v, ok := rt.entries[i].rates[key]; ok {
				out := v
				return &out
			}
			break
		}
	}

	// closest prior date: only the chronologically last entry at or before the
	// order date stands in; a null rate there is a miss, not a cue to keep
	// scanning further back
	for i := len(rt.entries) - 1; i >= 0; i-- {
		if !rt.entries[i].date.After(day) {
			if v, ok := rt.entries[i].rates[key]; ok {
				out := v
				return &out
			}
			return nil
		}
	}
	return nil
}
