package debt

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
)

// corsMiddleware mirrors the permissive policy of the original web frontend.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func StartDebtService(db *sql.DB, pool *pgxpool.Pool) {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/debt/health", Health()).Methods("GET")
	router.HandleFunc("/debt/generar-deuda", GenerateDebt(db, pool)).Methods("POST")
	router.HandleFunc("/debt/generar-deuda-bq", GenerateDebtFromStore(db, pool)).Methods("POST")
	router.HandleFunc("/debt/generar-deuda/stream", GenerateDebtStream(db, pool, false)).Methods("POST")
	router.HandleFunc("/debt/generar-deuda-bq/stream", GenerateDebtStream(db, pool, true)).Methods("POST")
	router.HandleFunc("/debt/archivos", ListResultFiles()).Methods("GET")

	log.Println("Debt Service started on :7143")
	err := http.ListenAndServe(":7143", router)
	if err != nil {
		log.Fatalf("Debt Service failed: %v", err)
	}
}
