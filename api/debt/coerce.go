package debt

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func cleanAmount(s string) string {
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimSpace(s)
}

// toDecimal is the single numeric-coercion point for every stage. Anything it
// cannot read comes back as (zero, false) and the caller writes a nil cell.
func toDecimal(v interface{}) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return t, true
	case float64:
		return decimal.NewFromFloat(t), true
	case float32:
		return decimal.NewFromFloat32(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case string:
		s := cleanAmount(t)
		if s == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// toDate coerces a cell to a date. Strings go through the layered layout list
// with an Excel serial fallback; zero times count as unparseable.
func toDate(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t, true
	case string:
		d := tryParseDateWithExcelSerial(t)
		if d.IsZero() {
			return time.Time{}, false
		}
		return d, true
	case float64:
		d, err := excelSerialToDate(t)
		if err != nil {
			return time.Time{}, false
		}
		return d, true
	default:
		return time.Time{}, false
	}
}

// parseDate tries the date layouts seen in order-report exports. dd/mm/yyyy
// variants MUST come before mm/dd/yyyy to avoid misparsing Latin-American dates.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date string")
	}
	layouts := []string{
		// dd/mm/yyyy variants - MUST BE FIRST
		"02/01/2006", "02/01/06", "2/1/2006", "2/1/06",
		"02-01-2006", "2-1-2006",
		"02/01/2006 15:04:05", "02/01/2006 15:04",
		// ISO and Excel-rendered layouts
		"2006-01-02", "2006-01-02 15:04:05", time.RFC3339,
		"2006-01-02T15:04:05", "2006-01-02T15:04",
		"2006/01/02", "2006.01.02",
		// dd-Mon-yy variants
		"02-Jan-06", "02-Jan-2006", "02/Jan/06", "02/Jan/2006",
		// mm/dd/yyyy variants - AFTER dd/mm/yyyy
		"01/02/2006", "1/2/2006", "01/02/06", "1/2/06",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("could not parse date: " + s)
}

// tryParseDateWithExcelSerial first attempts normal string parsing, then falls
// back to Excel serial date numbers.
func tryParseDateWithExcelSerial(s string) time.Time {
	if t, err := parseDate(s); err == nil && !t.IsZero() {
		return t
	}
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if t, serr := excelSerialToDate(f); serr == nil {
			return t
		}
	}
	return time.Time{}
}

// excelSerialToDate converts an Excel serial date (possibly with fractional day
// time) into a time.Time. The 1899-12-30 base already absorbs Excel's phantom
// 1900-02-29, so post-1900 serials convert with plain day arithmetic.
func excelSerialToDate(f float64) (time.Time, error) {
	if f <= 0 {
		return time.Time{}, errors.New("excel serial out of range")
	}
	days := int(f)
	frac := f - float64(days)
	base := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	d := base.AddDate(0, 0, days)
	d = d.Add(time.Duration(frac * float64(24*time.Hour)))
	return d, nil
}

// cellString renders a cell for normalized text comparisons (closure state,
// currency, requester).
func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.Format("2006-01-02")
	case decimal.Decimal:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
