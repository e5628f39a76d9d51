package debt

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const maxUploadBytes = 32 << 20

// RunSummary is the JSON payload returned after a pipeline run.
type RunSummary struct {
	RunID         string         `json:"run_id"`
	Rows          int            `json:"rows"`
	RatesResolved int            `json:"rates_resolved"`
	AreasMatched  int            `json:"areas_matched"`
	NonNullCounts map[string]int `json:"non_null_counts"`
	RatesSource   string         `json:"rates_source,omitempty"`
	FileName      string         `json:"file_name,omitempty"`
	FileURL       string         `json:"file_url,omitempty"`
	UploadError   string         `json:"upload_error,omitempty"`
	PersistedRows int64          `json:"persisted_rows,omitempty"`
	PersistError  string         `json:"persist_error,omitempty"`
}

// derivedColumns are the pipeline outputs reported in the run summary.
var derivedColumns = []string{
	ColAnoFiscal, ColTasa, ColArea,
	ColMontoOC, ColMontoOCUSD, ColMontoOCAsociado, ColMontoOCAsociadoUSD,
	ColMontoRealDeuda,
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]interface{}{"success": false, "error": err.Error()})
}

func nonNullCount(t *Table, col string) int {
	idx := t.ColIndex(col)
	if idx < 0 {
		return 0
	}
	n := 0
	for _, row := range t.Rows {
		if idx < len(row) && row[idx] != nil {
			n++
		}
	}
	return n
}

// readUploadPart pulls one named multipart file into memory.
func readUploadPart(r *http.Request, field string) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("file %q required in form", field)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("read %q: %w", field, err)
	}
	return data, header.Filename, nil
}

// runEnrichment parses the uploads and runs the core pipeline. With
// ratesFromStore only the orders file is uploaded and the rate history comes
// from the analytical store. emit reports stage progress; pass nil for the
// plain JSON endpoints.
func runEnrichment(ctx context.Context, db *sql.DB, r *http.Request, ratesFromStore bool, emit func(step, message string)) (*Table, *Table, error) {
	if emit == nil {
		emit = func(string, string) {}
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, nil, fmt.Errorf("parse multipart form: %w", err)
	}
	ordersData, ordersName, err := readUploadPart(r, "ordenes_compra")
	if err != nil {
		return nil, nil, err
	}

	emit("leyendo_ordenes", "Leyendo archivo de Ordenes de Compra")
	orders, err := ReadOrdersTable(ordersData, ordersName)
	if err != nil {
		return nil, nil, err
	}

	var rates *Table
	if ratesFromStore {
		emit("leyendo_tasa", "Consultando tasas BCV del almacen analitico")
		rates, err = LoadStoredRates(ctx, db)
		if err != nil {
			return nil, nil, err
		}
	} else {
		ratesData, ratesName, err := readUploadPart(r, "tasa")
		if err != nil {
			return nil, nil, err
		}
		emit("leyendo_tasa", "Leyendo archivo de Tasa")
		rates, err = ReadRateTable(ratesData, ratesName)
		if err != nil {
			return nil, nil, err
		}
	}

	emit("procesando", "Aplicando transformaciones")
	dir := areaDirectoryForRun(ctx, db)
	if err := EnrichOrders(orders, rates, dir); err != nil {
		return nil, nil, err
	}
	emit("procesado", fmt.Sprintf("Procesamiento completado, %d filas", orders.RowCount()))
	return orders, rates, nil
}

// buildAndStoreWorkbook serializes the result workbook and pushes it to the
// object store. The enrichment result is already final; a storage failure is
// reported, never propagated as a pipeline failure.
func buildAndStoreWorkbook(ctx context.Context, orders, rates *Table, summary *RunSummary, emit func(step, message string)) error {
	if emit == nil {
		emit = func(string, string) {}
	}
	emit("generando_archivo", "Generando archivo de resultado")
	wb, err := BuildResultWorkbook(orders, rates)
	if err != nil {
		return fmt.Errorf("build result workbook: %w", err)
	}
	buf, err := wb.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("serialize result workbook: %w", err)
	}
	summary.FileName = ResultFileName(time.Now())
	emit("subiendo_archivo", "Subiendo archivo al almacenamiento")
	url, err := uploadResultToS3(ctx, summary.FileName, buf.Bytes())
	if err != nil {
		log.Printf("[DEBT-UPLOAD] result upload failed: %v", err)
		summary.UploadError = err.Error()
		return nil
	}
	summary.FileURL = url
	return nil
}

func summarize(runID string, orders *Table) RunSummary {
	counts := make(map[string]int, len(derivedColumns))
	for _, col := range derivedColumns {
		counts[col] = nonNullCount(orders, col)
	}
	return RunSummary{
		RunID:         runID,
		Rows:          orders.RowCount(),
		RatesResolved: counts[ColTasa],
		AreasMatched:  counts[ColArea],
		NonNullCounts: counts,
	}
}

// persistRun appends the run to the analytical store, folding failures into
// the summary. A nil pool means no store is configured and the step is
// skipped; the enrichment result stands either way.
func persistRun(ctx context.Context, pool *pgxpool.Pool, orders *Table, summary *RunSummary, emit func(step, message string)) {
	if pool == nil {
		log.Printf("[DEBT-PERSIST] analytical store not configured, skipping persist")
		return
	}
	if emit != nil {
		emit("persistiendo", "Guardando en la tabla analitica")
	}
	n, err := PersistEnrichedOrders(ctx, pool, orders)
	if err != nil {
		log.Printf("[DEBT-PERSIST] analytical persist failed: %v", err)
		summary.PersistError = err.Error()
		return
	}
	summary.PersistedRows = n
}

// GenerateDebt handles POST /debt/generar-deuda: run the pipeline from the two
// uploaded files, append to the analytical store, store the styled workbook,
// return the run summary.
func GenerateDebt(db *sql.DB, pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		runID := uuid.New().String()
		orders, rates, err := runEnrichment(ctx, db, r, false, nil)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err)
			return
		}
		summary := summarize(runID, orders)
		persistRun(ctx, pool, orders, &summary, nil)
		if err := buildAndStoreWorkbook(ctx, orders, rates, &summary, nil); err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "summary": summary})
	}
}

// GenerateDebtFromStore handles POST /debt/generar-deuda-bq: same pipeline,
// but only the orders file is uploaded and the rate history comes from the
// vzla_bcv_tasas master table.
func GenerateDebtFromStore(db *sql.DB, pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		runID := uuid.New().String()
		orders, rates, err := runEnrichment(ctx, db, r, true, nil)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err)
			return
		}
		summary := summarize(runID, orders)
		summary.RatesSource = bcvRateTable
		persistRun(ctx, pool, orders, &summary, nil)
		if err := buildAndStoreWorkbook(ctx, orders, rates, &summary, nil); err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "summary": summary})
	}
}

// ListResultFiles handles GET /debt/archivos.
func ListResultFiles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := listStoredResults(r.Context())
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "files": files})
	}
}

// Health handles GET /debt/health.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"service": "deuda_vzla",
		})
	}
}
