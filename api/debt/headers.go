package debt

import (
	"log"
	"sort"
	"strings"
)

// SchemaError is the fatal error for a table whose columns do not match the
// expected schema. Missing and Extra are canonical names, sorted.
type SchemaError struct {
	Missing []string
	Extra   []string
}

func (e *SchemaError) Error() string {
	parts := []string{"schema mismatch"}
	if len(e.Missing) > 0 {
		parts = append(parts, "missing columns: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "unexpected columns: "+strings.Join(e.Extra, ", "))
	}
	return strings.Join(parts, "; ")
}

func missingColumnsError(cols ...string) *SchemaError {
	return &SchemaError{Missing: cols}
}

// DetectHeaderRow scans at most maxRows rows of a raw, header-less grid for
// the row containing the expected column names. Cells are normalized
// (uppercase, trimmed) before matching. minHits == len(expected) means full
// containment; a smaller minHits allows partial matches for files that carry
// extra unrelated columns. Returns 0 when no row qualifies; the caller treats
// the first row as header and must log the degrade.
func DetectHeaderRow(grid [][]string, expected []string, maxRows, minHits int) int {
	want := make(map[string]bool, len(expected))
	for _, c := range expected {
		want[NormalizeHeader(c)] = true
	}
	if minHits <= 0 || minHits > len(want) {
		minHits = len(want)
	}
	for i := 0; i < maxRows && i < len(grid); i++ {
		hits := 0
		seen := make(map[string]bool)
		for _, cell := range grid[i] {
			n := NormalizeHeader(cell)
			if want[n] && !seen[n] {
				seen[n] = true
				hits++
			}
		}
		if hits >= minHits {
			return i
		}
	}
	return 0
}

// rowMatchesHeader reports whether one grid row satisfies the same criterion
// DetectHeaderRow uses; lets callers tell a genuine row-0 match apart from the
// fallback.
func rowMatchesHeader(row []string, expected []string, minHits int) bool {
	want := make(map[string]bool, len(expected))
	for _, c := range expected {
		want[NormalizeHeader(c)] = true
	}
	if minHits <= 0 || minHits > len(want) {
		minHits = len(want)
	}
	hits := 0
	seen := make(map[string]bool)
	for _, cell := range row {
		n := NormalizeHeader(cell)
		if want[n] && !seen[n] {
			seen[n] = true
			hits++
		}
	}
	return hits >= minHits
}

// DetectOrderHeaderRow finds the purchase-order header (full 16-column
// containment) within the first five rows.
func DetectOrderHeaderRow(grid [][]string) int {
	return DetectHeaderRow(grid, OrderColumns, orderHeaderScanRows, len(OrderColumns))
}

// DetectRateHeaderRow finds the rate-sheet header (at least three known
// columns) within the first ten rows.
func DetectRateHeaderRow(grid [][]string) int {
	return DetectHeaderRow(grid, rateSheetColumns, rateHeaderScanRows, rateHeaderMinHits)
}

// ValidateOrderColumns checks the loaded table against the canonical
// purchase-order schema. Exact set equality passes; anything else is a
// *SchemaError naming the missing and unexpected columns. Downstream stages
// assume canonical names, so callers must abort on error.
func ValidateOrderColumns(cols []string) error {
	want := make(map[string]bool, len(OrderColumns))
	for _, c := range OrderColumns {
		want[NormalizeHeader(c)] = true
	}
	got := make(map[string]bool, len(cols))
	for _, c := range cols {
		got[NormalizeHeader(c)] = true
	}
	var missing, extra []string
	for c := range want {
		if !got[c] {
			missing = append(missing, c)
		}
	}
	for c := range got {
		if !want[c] {
			extra = append(extra, c)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return &SchemaError{Missing: missing, Extra: extra}
}

// logHeaderFallback is the warning-level boundary log for silent header
// degrades required when detection returns 0 without a real match.
func logHeaderFallback(kind string) {
	log.Printf("[DEBT-HEADERS] no header row detected in %s file, falling back to first row", kind)
}

// describeDetection logs where a header was found, mirroring the upload
// handlers' diagnostic style.
func describeDetection(kind string, row int) {
	log.Printf("[DEBT-HEADERS] %s header detected at row %d", kind, row+1)
}
