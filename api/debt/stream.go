package debt

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type streamEvent struct {
	Step    string      `json:"step"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Summary *RunSummary `json:"summary,omitempty"`
}

// GenerateDebtStream handles POST /debt/generar-deuda/stream and its
// generar-deuda-bq sibling. It runs the same pipeline as the plain endpoints
// but pushes per-stage progress to the client as server-sent events, ending
// with either a "completado" event carrying the run summary or an "error"
// event. With ratesFromStore the rate history comes from the vzla_bcv_tasas
// master table instead of an upload.
func GenerateDebtStream(db *sql.DB, pool *pgxpool.Pool, ratesFromStore bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		send := func(ev streamEvent) {
			payload, err := json.Marshal(ev)
			if err != nil {
				log.Printf("[DEBT-STREAM] marshal event: %v", err)
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
		emit := func(step, message string) {
			send(streamEvent{Step: step, Message: message})
		}

		ctx := r.Context()
		runID := uuid.New().String()
		emit("inicio", "Iniciando generacion de deuda")

		orders, rates, err := runEnrichment(ctx, db, r, ratesFromStore, emit)
		if err != nil {
			send(streamEvent{Step: "error", Error: err.Error()})
			return
		}
		summary := summarize(runID, orders)
		if ratesFromStore {
			summary.RatesSource = bcvRateTable
		}
		persistRun(ctx, pool, orders, &summary, emit)

		if err := buildAndStoreWorkbook(ctx, orders, rates, &summary, emit); err != nil {
			send(streamEvent{Step: "error", Error: err.Error()})
			return
		}

		send(streamEvent{
			Step:    "completado",
			Message: fmt.Sprintf("Deuda generada %s", time.Now().Format("02/01/2006 15:04:05")),
			Summary: &summary,
		})
	}
}
