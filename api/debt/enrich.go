package debt

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// FilterClosed drops every row whose normalized closure state equals CERRADO.
// Row order is preserved and the stage is idempotent. Fatal when the closure
// column is absent.
func FilterClosed(t *Table) error {
	idx := t.ColIndex(ColEstadoCierre)
	if idx < 0 {
		return missingColumnsError(ColEstadoCierre)
	}
	before := len(t.Rows)
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		state := NormalizeHeader(cellString(row[idx]))
		if state != closedState {
			kept = append(kept, row)
		}
	}
	t.Rows = kept
	log.Printf("[DEBT-ENRICH] closed orders filtered: removed %d, remaining %d", before-len(t.Rows), len(t.Rows))
	return nil
}

// FiscalYear is the pure Sep–Aug fiscal-year function. Months after August
// open the "Y-(Y+1)" period; January through August close the "(Y-1)-Y" one.
func FiscalYear(d time.Time) string {
	year, month := d.Year(), int(d.Month())
	if month > 8 {
		return fmt.Sprintf("%d-%d", year, year+1)
	}
	return fmt.Sprintf("%d-%d", year-1, year)
}

// AddFiscalYear appends AÑO FISCAL derived from the order date. Unparseable
// dates yield a nil fiscal year; a missing date column is fatal.
func AddFiscalYear(t *Table) error {
	idx := t.ColIndex(ColFechaOrden)
	if idx < 0 {
		return missingColumnsError(ColFechaOrden)
	}
	values := make([]interface{}, len(t.Rows))
	computed := 0
	for i, row := range t.Rows {
		if d, ok := toDate(row[idx]); ok {
			values[i] = FiscalYear(d)
			computed++
		}
	}
	t.AddColumn(ColAnoFiscal, values)
	log.Printf("[DEBT-ENRICH] fiscal years computed: %d/%d", computed, len(t.Rows))
	return nil
}

// AddRate appends TASA resolved per row from (order date, currency). A missing
// currency column is tolerated: every rate goes null instead of aborting,
// unlike the other stages.
func AddRate(t *Table, rt *RateTable) error {
	divisaIdx := t.ColIndex(ColDivisa)
	if divisaIdx < 0 {
		log.Printf("[DEBT-ENRICH] no %s column, rate cannot be determined; TASA set to null", ColDivisa)
		t.AddColumn(ColTasa, make([]interface{}, len(t.Rows)))
		return nil
	}
	dateIdx := t.ColIndex(ColFechaOrden)
	values := make([]interface{}, len(t.Rows))
	found := 0
	for i, row := range t.Rows {
		var orderDate time.Time
		if dateIdx >= 0 {
			orderDate, _ = toDate(row[dateIdx])
		}
		currency := cellString(row[divisaIdx])
		if rate := rt.Resolve(orderDate, currency); rate != nil {
			values[i] = *rate
			found++
		}
	}
	t.AddColumn(ColTasa, values)
	log.Printf("[DEBT-ENRICH] rates resolved: %d/%d", found, len(t.Rows))
	return nil
}

// AddArea appends AREA from the requester directory. Misses and an empty
// directory degrade to null; a missing requester column is fatal.
func AddArea(t *Table, dir AreaDirectory) error {
	idx := t.ColIndex(ColSolicitante)
	if idx < 0 {
		return missingColumnsError(ColSolicitante)
	}
	values := make([]interface{}, len(t.Rows))
	found := 0
	for i, row := range t.Rows {
		if area, ok := dir.Lookup(cellString(row[idx])); ok {
			values[i] = area
			found++
		}
	}
	t.AddColumn(ColArea, values)
	log.Printf("[DEBT-ENRICH] areas matched: %d/%d", found, len(t.Rows))
	return nil
}

// convertToUSD applies the currency rules shared by the order and associated
// amount stages. USD amounts pass through untouched, never divided, whatever
// the rate holds. VES/COP/EUR divide by a usable non-zero rate. Any other
// currency divides best-effort when such a rate exists, else null.
func convertToUSD(amount decimal.Decimal, currency string, rateCell interface{}) interface{} {
	cur := NormalizeHeader(currency)
	if cur == "USD" {
		return amount
	}
	rate, ok := toDecimal(rateCell)
	usable := ok && !rate.IsZero()
	switch cur {
	case "VES", "COP", "EUR":
		if !usable {
			return nil
		}
		return amount.Div(rate)
	default:
		if usable {
			return amount.Div(rate)
		}
		return nil
	}
}

// addAmountPair derives <local> = PRICE_OVERRIDE × <operand> and its USD
// counterpart for one operand column, appending both.
func (t *Table) addAmountPair(operandCol, localCol, usdCol string) error {
	required := []string{ColPriceOverride, operandCol, ColDivisa, ColTasa}
	var missing []string
	for _, c := range required {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return missingColumnsError(missing...)
	}
	overrideIdx := t.ColIndex(ColPriceOverride)
	operandIdx := t.ColIndex(operandCol)
	divisaIdx := t.ColIndex(ColDivisa)
	tasaIdx := t.ColIndex(ColTasa)

	local := make([]interface{}, len(t.Rows))
	usd := make([]interface{}, len(t.Rows))
	localCount, usdCount := 0, 0
	for i, row := range t.Rows {
		override, okO := toDecimal(row[overrideIdx])
		operand, okA := toDecimal(row[operandIdx])
		if !okO || !okA {
			continue
		}
		amount := override.Mul(operand)
		local[i] = amount
		localCount++
		if v := convertToUSD(amount, cellString(row[divisaIdx]), row[tasaIdx]); v != nil {
			usd[i] = v
			usdCount++
		}
	}
	t.AddColumn(localCol, local)
	t.AddColumn(usdCol, usd)
	log.Printf("[DEBT-ENRICH] %s computed: %d/%d, %s computed: %d/%d",
		localCol, localCount, len(t.Rows), usdCol, usdCount, len(t.Rows))
	return nil
}

// AddOrderAmounts appends MONTO OC and MONTO OC USD.
func AddOrderAmounts(t *Table) error {
	return t.addAmountPair(ColImporte, ColMontoOC, ColMontoOCUSD)
}

// AddAssociatedAmounts appends MONTO OC ASOCIADO and MONTO OC ASOCIADO USD.
func AddAssociatedAmounts(t *Table) error {
	return t.addAmountPair(ColImporteAsociado, ColMontoOCAsociado, ColMontoOCAsociadoUSD)
}

// AddNetDebt appends MONTO REAL DEUDA = MONTO OC USD − MONTO OC ASOCIADO USD.
// A single null operand counts as zero; both null means no data, and the
// result stays null rather than reading as settled debt.
func AddNetDebt(t *Table) error {
	usdIdx := t.ColIndex(ColMontoOCUSD)
	assocIdx := t.ColIndex(ColMontoOCAsociadoUSD)
	var missing []string
	if usdIdx < 0 {
		missing = append(missing, ColMontoOCUSD)
	}
	if assocIdx < 0 {
		missing = append(missing, ColMontoOCAsociadoUSD)
	}
	if len(missing) > 0 {
		return missingColumnsError(missing...)
	}
	values := make([]interface{}, len(t.Rows))
	computed := 0
	for i, row := range t.Rows {
		montoUSD, okU := toDecimal(row[usdIdx])
		assocUSD, okA := toDecimal(row[assocIdx])
		if !okU && !okA {
			continue
		}
		if !okU {
			montoUSD = decimal.Zero
		}
		if !okA {
			assocUSD = decimal.Zero
		}
		values[i] = montoUSD.Sub(assocUSD)
		computed++
	}
	t.AddColumn(ColMontoRealDeuda, values)
	log.Printf("[DEBT-ENRICH] net debt computed: %d/%d", computed, len(t.Rows))
	return nil
}

// EnrichOrders runs the full pipeline over a validated orders table in fixed
// stage order. The table is mutated in place; structural errors abort with no
// partial result, per-row misses degrade to nulls.
func EnrichOrders(orders *Table, rates *Table, dir AreaDirectory) error {
	if err := FilterClosed(orders); err != nil {
		return err
	}
	if err := AddFiscalYear(orders); err != nil {
		return err
	}
	rt := BuildRateTable(rates)
	if err := AddRate(orders, rt); err != nil {
		return err
	}
	if err := AddArea(orders, dir); err != nil {
		return err
	}
	if err := AddOrderAmounts(orders); err != nil {
		return err
	}
	if err := AddAssociatedAmounts(orders); err != nil {
		return err
	}
	return AddNetDebt(orders)
}
