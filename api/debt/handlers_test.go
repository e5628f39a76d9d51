package debt

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartUpload(tb testing.TB, files map[string][]byte) *http.Request {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for field, data := range files {
		part, err := w.CreateFormFile(field, field+".xlsx")
		require.NoError(tb, err)
		_, err = part.Write(data)
		require.NoError(tb, err)
	}
	require.NoError(tb, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/debt/generar-deuda", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func ordersUploadBytes(tb testing.TB) []byte {
	grid := [][]interface{}{
		headerAsCells(OrderColumns),
		{"OC-1", "Proveedor A", "Caracas", "VES", "2", "100", "0", "40", "05/01/2026", "UN", "Tornillos", "6101", "JPEREZ", "ABIERTO", "MROJAS", ""},
		{"OC-2", "Proveedor B", "Caracas", "VES", "1", "500", "0", "", "05/01/2026", "UN", "Clavos", "6101", "JPEREZ", "CERRADO", "MROJAS", ""},
	}
	return xlsxFromGrid(tb, map[string][][]interface{}{"Hoja1": grid}, []string{"Hoja1"})
}

func ratesUploadBytes(tb testing.TB) []byte {
	grid := [][]interface{}{
		{"FECHA", "VES/USD", "COP/USD", "EUR/USD"},
		{"01/01/2026", 50.0, 4000.0, 0.9},
	}
	return xlsxFromGrid(tb, map[string][][]interface{}{"Tasa": grid}, []string{"Tasa"})
}

func TestRunEnrichmentFromMultipart(t *testing.T) {
	req := multipartUpload(t, map[string][]byte{
		"ordenes_compra": ordersUploadBytes(t),
		"tasa":           ratesUploadBytes(t),
	})

	var steps []string
	orders, rates, err := runEnrichment(context.Background(), nil, req, false, func(step, message string) {
		steps = append(steps, step)
	})
	require.NoError(t, err)
	require.NotNil(t, rates)

	// closed order dropped, rate resolved from the prior date
	require.Equal(t, 1, orders.RowCount())
	assert.Equal(t, "50", decAt(t, orders, 0, ColTasa).String())
	assert.Equal(t, "4", decAt(t, orders, 0, ColMontoOCUSD).String())
	assert.Equal(t, []string{"leyendo_ordenes", "leyendo_tasa", "procesando", "procesado"}, steps)
}

func TestRunEnrichmentFieldNames(t *testing.T) {
	// clients of the service being replaced send "ordenes_compra"; the old
	// short field name must not be accepted silently
	req := multipartUpload(t, map[string][]byte{
		"ordenes": ordersUploadBytes(t),
		"tasa":    ratesUploadBytes(t),
	})
	_, _, err := runEnrichment(context.Background(), nil, req, false, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ordenes_compra")
}

func TestRunEnrichmentMissingFile(t *testing.T) {
	req := multipartUpload(t, map[string][]byte{
		"ordenes_compra": ordersUploadBytes(t),
	})
	_, _, err := runEnrichment(context.Background(), nil, req, false, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tasa")
}

func TestRunEnrichmentStoreRatesWithoutDB(t *testing.T) {
	// rates-from-store mode needs no "tasa" part but does need the store
	req := multipartUpload(t, map[string][]byte{
		"ordenes_compra": ordersUploadBytes(t),
	})
	_, _, err := runEnrichment(context.Background(), nil, req, true, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate store")
}

func TestRunEnrichmentBadSchema(t *testing.T) {
	grid := [][]interface{}{
		{"NUMERO_OC", "PROVEEDOR"},
		{"OC-1", "Proveedor A"},
	}
	req := multipartUpload(t, map[string][]byte{
		"ordenes_compra": xlsxFromGrid(t, map[string][][]interface{}{"Hoja1": grid}, []string{"Hoja1"}),
		"tasa":           ratesUploadBytes(t),
	})
	_, _, err := runEnrichment(context.Background(), nil, req, false, nil)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestPersistRunWithoutStore(t *testing.T) {
	// no configured pool skips the persist step without flagging an error
	orders := NewTable([]string{ColNumeroOC})
	orders.AddRow([]interface{}{"OC-1"})
	var s RunSummary
	persistRun(context.Background(), nil, orders, &s, nil)
	assert.Zero(t, s.PersistedRows)
	assert.Empty(t, s.PersistError)
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	Health()(rec, httptest.NewRequest(http.MethodGet, "/debt/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var payload map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&payload))
	assert.Equal(t, "healthy", payload["status"])
}

func TestWriteJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSONError(rec, http.StatusBadRequest, assert.AnError)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "\"success\":false"))
}

func TestNonNullCount(t *testing.T) {
	orders := NewTable([]string{ColTasa})
	orders.AddRow([]interface{}{"50"})
	orders.AddRow([]interface{}{nil})
	orders.AddRow([]interface{}{"55"})
	assert.Equal(t, 2, nonNullCount(orders, ColTasa))
	assert.Equal(t, 0, nonNullCount(orders, "NO_EXISTE"))
}

func TestSummarize(t *testing.T) {
	orders := NewTable([]string{ColTasa, ColArea})
	orders.AddRow([]interface{}{"50", "Compras"})
	orders.AddRow([]interface{}{nil, nil})
	s := summarize("run-1", orders)
	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, 2, s.Rows)
	assert.Equal(t, 1, s.RatesResolved)
	assert.Equal(t, 1, s.AreasMatched)
	assert.Equal(t, 1, s.NonNullCounts[ColTasa])
	assert.Equal(t, 0, s.NonNullCounts[ColMontoRealDeuda])
}
