package debt

import (
	"DeudaVzla/internal/serviceiface"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DebtService struct {
	config map[string]interface{}
	db     *sql.DB
	pool   *pgxpool.Pool
}

func NewDebtService(cfg map[string]interface{}, db *sql.DB, pool *pgxpool.Pool) serviceiface.Service {
	return &DebtService{config: cfg, db: db, pool: pool}
}

func (s *DebtService) Name() string {
	return "debt"
}

func (s *DebtService) Start() error {
	go StartDebtService(s.db, s.pool)
	return nil
}

func (s *DebtService) Stop() error {
	// Implement stop logic if needed
	return nil
}
