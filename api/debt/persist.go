package debt

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const analyticalTable = "vzla_deuda_ordenes"

type fieldKind int

const (
	kindText fieldKind = iota
	kindNumber
	kindDate
)

type analyticalField struct {
	source string
	target string
	kind   fieldKind
}

// analyticalFields is the fixed flattening of an enriched row into namespaced
// store fields. Identifier and free-text fields are forced to text so the
// store never has to infer types from mixed batches; amounts and dates keep
// their native types.
var analyticalFields = []analyticalField{
	{ColNumeroOC, "vzla_deuda_orden_compra", kindText},
	{ColProveedor, "vzla_deuda_proveedor", kindText},
	{ColSucursal, "vzla_deuda_sucursal", kindText},
	{ColDivisa, "vzla_deuda_divisa", kindText},
	{ColPriceOverride, "vzla_deuda_price_override", kindNumber},
	{ColImporte, "vzla_deuda_importe", kindNumber},
	{ColImporteRecibido, "vzla_deuda_importe_recibido", kindNumber},
	{ColImporteAsociado, "vzla_deuda_importe_asociado", kindNumber},
	{ColFechaOrden, "vzla_deuda_fecha_orden", kindDate},
	{ColUnidadMedida, "vzla_deuda_unidad_medida", kindText},
	{ColDescripcion, "vzla_deuda_descripcion", kindText},
	{ColCuentaCargo, "vzla_deuda_cuenta_cargo", kindText},
	{ColSolicitante, "vzla_deuda_solicitante", kindText},
	{ColEstadoCierre, "vzla_deuda_estado_cierre", kindText},
	{ColAprobador, "vzla_deuda_aprobador", kindText},
	{ColFechaCierre, "vzla_deuda_fecha_cierre", kindDate},
	{ColAnoFiscal, "vzla_deuda_fiscal_year", kindText},
	{ColTasa, "vzla_deuda_tasa", kindNumber},
	{ColArea, "vzla_deuda_area", kindText},
	{ColMontoOC, "vzla_deuda_monto_oc", kindNumber},
	{ColMontoOCUSD, "vzla_deuda_monto_oc_usd", kindNumber},
	{ColMontoOCAsociado, "vzla_deuda_monto_oc_asociado", kindNumber},
	{ColMontoOCAsociadoUSD, "vzla_deuda_monto_oc_asociado_usd", kindNumber},
	{ColMontoRealDeuda, "vzla_deuda_monto_real_deuda", kindNumber},
}

const analyticalTimestampField = "vzla_deuda_timestamp"

func coerceAnalyticalValue(v interface{}, kind fieldKind) interface{} {
	if v == nil {
		return nil
	}
	switch kind {
	case kindText:
		s := cellString(v)
		if s == "" {
			return nil
		}
		return s
	case kindNumber:
		d, ok := toDecimal(v)
		if !ok {
			return nil
		}
		f, _ := d.Float64()
		return f
	case kindDate:
		t, ok := toDate(v)
		if !ok {
			return nil
		}
		return t
	}
	return nil
}

// BuildAnalyticalRecords flattens the enriched table into the persisted record
// schema: namespaced field names in fixed order (columns present in the table
// only) plus one injected processing timestamp per record.
func BuildAnalyticalRecords(t *Table, now time.Time) ([]string, [][]interface{}) {
	type boundField struct {
		analyticalField
		idx int
	}
	var bound []boundField
	columns := make([]string, 0, len(analyticalFields)+1)
	for _, fld := range analyticalFields {
		if idx := t.ColIndex(fld.source); idx >= 0 {
			bound = append(bound, boundField{fld, idx})
			columns = append(columns, fld.target)
		}
	}
	columns = append(columns, analyticalTimestampField)

	records := make([][]interface{}, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]interface{}, 0, len(bound)+1)
		for _, fld := range bound {
			var v interface{}
			if fld.idx < len(row) {
				v = row[fld.idx]
			}
			rec = append(rec, coerceAnalyticalValue(v, fld.kind))
		}
		rec = append(rec, now)
		records[i] = rec
	}
	return columns, records
}

// PersistEnrichedOrders appends the enriched rows to the analytical table.
// Runs after the enrichment result is final; a failure here never rolls the
// result back.
func PersistEnrichedOrders(ctx context.Context, pool *pgxpool.Pool, t *Table) (int64, error) {
	if pool == nil {
		return 0, fmt.Errorf("analytical store not configured")
	}
	columns, records := BuildAnalyticalRecords(t, time.Now().UTC())
	n, err := pool.CopyFrom(ctx, pgx.Identifier{analyticalTable}, columns, pgx.CopyFromRows(records))
	if err != nil {
		return 0, fmt.Errorf("persist enriched orders: %w", err)
	}
	log.Printf("[DEBT-PERSIST] %d rows appended to %s", n, analyticalTable)
	return n, nil
}
