package debt

// Canonical purchase-order columns, as exported by the order report. Header
// detection and schema validation compare against this exact 16-column set.
const (
	ColNumeroOC        = "NUMERO_OC"
	ColProveedor       = "PROVEEDOR"
	ColSucursal        = "SUCURSAL"
	ColDivisa          = "DIVISA"
	ColPriceOverride   = "PRICE_OVERRIDE"
	ColImporte         = "IMPORTE"
	ColImporteRecibido = "IMPORTE_RECIBIDO"
	ColImporteAsociado = "IMPORTE_ASOCIADO"
	ColFechaOrden      = "FECHA_ORDEN"
	ColUnidadMedida    = "UNIDAD_MEDIDA"
	ColDescripcion     = "DESCRIPCION"
	ColCuentaCargo     = "CUENTA_CARGO"
	ColSolicitante     = "SOLICITANTE"
	ColEstadoCierre    = "ESTADO_CIERRE"
	ColAprobador       = "APROBADOR"
	ColFechaCierre     = "FECHA_CIERRE"
)

// Derived columns, appended in this order by the enrichment pipeline.
const (
	ColAnoFiscal          = "AÑO FISCAL"
	ColTasa               = "TASA"
	ColArea               = "AREA"
	ColMontoOC            = "MONTO OC"
	ColMontoOCUSD         = "MONTO OC USD"
	ColMontoOCAsociado    = "MONTO OC ASOCIADO"
	ColMontoOCAsociadoUSD = "MONTO OC ASOCIADO USD"
	ColMontoRealDeuda     = "MONTO REAL DEUDA"
)

// OrderColumns lists the expected order-report schema in file order.
var OrderColumns = []string{
	ColNumeroOC,
	ColProveedor,
	ColSucursal,
	ColDivisa,
	ColPriceOverride,
	ColImporte,
	ColImporteRecibido,
	ColImporteAsociado,
	ColFechaOrden,
	ColUnidadMedida,
	ColDescripcion,
	ColCuentaCargo,
	ColSolicitante,
	ColEstadoCierre,
	ColAprobador,
	ColFechaCierre,
}

// rateSheetColumns are the headers expected in the rate workbook. Detection is
// partial: a row matching at least three of these is taken as the header.
var rateSheetColumns = []string{
	"FECHA", "VES/USD", "VES/EUR", "COP/USD", "EUR/USD", "COP/VES", "VES/COF",
}

const (
	closedState = "CERRADO"

	// Header scan depth per file kind.
	orderHeaderScanRows = 5
	rateHeaderScanRows  = 10
	rateHeaderMinHits   = 3
)
