package jobs

import (
	"database/sql"
	"fmt"
	"log"

	"DeudaVzla/internal/logger"
	"DeudaVzla/internal/serviceiface"
)

type CronService struct {
	config map[string]interface{}
	db     *sql.DB
}

func NewCronService(cfg map[string]interface{}, db *sql.DB) serviceiface.Service {
	return &CronService{
		config: cfg,
		db:     db,
	}
}

func (s *CronService) Name() string {
	return "cron"
}

func (s *CronService) Start() error {
	log.Println("🚀 Starting cron service...")

	areaConfig := NewDefaultAreaRefreshConfig()

	// Override refresh config from services.yaml if provided
	if s.config != nil {
		if schedule, ok := s.config["area_refresh_schedule"].(string); ok && schedule != "" {
			areaConfig.Schedule = schedule
		}
		if tz, ok := s.config["timezone"].(string); ok && tz != "" {
			areaConfig.TimeZone = tz
		}
	}

	err := RunAreaRefresher(areaConfig, s.db)
	if err != nil {
		return fmt.Errorf("failed to start area refresher: %v", err)
	}

	logger.GlobalLogger.LogAudit("Cron service started with area directory refresher")
	log.Println("Cron service started — Area Refresher scheduled")

	return nil
}

func (s *CronService) Stop() error {
	// The cron jobs are managed internally by RunAreaRefresher
	log.Println("Cron service stopped.")
	return nil
}
