package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"DeudaVzla/api/debt"
	"DeudaVzla/internal/config"
	"DeudaVzla/internal/logger"

	"github.com/robfig/cron/v3"
)

// AreaRefreshConfig controls the scheduled refresh of the solicitante → area
// directory cache.
type AreaRefreshConfig struct {
	Schedule   string
	TimeZone   string
	MaxRetries int
	RetryDelay time.Duration
}

func NewDefaultAreaRefreshConfig() *AreaRefreshConfig {
	return &AreaRefreshConfig{
		Schedule:   config.DefaultAreaRefreshSchedule,
		TimeZone:   config.DefaultTimeZone,
		MaxRetries: config.AreaRefreshMaxRetries,
		RetryDelay: 2 * time.Second,
	}
}

// RetryWithBackoff retries an operation with exponential backoff.
func RetryWithBackoff(maxRetries int, delay time.Duration, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := delay * time.Duration(1<<uint(attempt-1))
			time.Sleep(backoff)
		}

		lastErr = operation()
		if lastErr == nil {
			return nil
		}

		logger.GlobalLogger.LogAudit(fmt.Sprintf("Attempt %d failed: %v", attempt+1, lastErr))
	}

	return fmt.Errorf("failed after %d attempts: %v", maxRetries+1, lastErr)
}

// RunAreaRefresher primes the area cache once and schedules periodic refreshes.
func RunAreaRefresher(cfg *AreaRefreshConfig, db *sql.DB) error {
	if cfg.Schedule == "" {
		cfg.Schedule = config.DefaultAreaRefreshSchedule
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = config.DefaultTimeZone
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = config.AreaRefreshMaxRetries
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid timezone for area refresher: %v", err)
	}

	refresh := func() error {
		n := debt.RefreshAreaCache(context.Background(), db)
		if n == 0 {
			return fmt.Errorf("area directory refresh returned no mappings")
		}
		logger.GlobalLogger.LogAudit(fmt.Sprintf("Area directory refreshed, %d mappings", n))
		return nil
	}

	// Prime the cache at startup so the first run does not hit the DB cold.
	if err := RetryWithBackoff(cfg.MaxRetries, cfg.RetryDelay, refresh); err != nil {
		logger.GlobalLogger.LogAudit(fmt.Sprintf("Initial area directory load failed: %v", err))
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.Schedule, func() {
		logger.GlobalLogger.LogAudit(fmt.Sprintf("Running area directory refresh at %s", time.Now().In(loc)))
		if err := RetryWithBackoff(cfg.MaxRetries, cfg.RetryDelay, refresh); err != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Area directory refresh failed: %v", err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule area refresh cron job: %v", err)
	}

	c.Start()
	logger.GlobalLogger.LogAudit("Area directory refresh scheduled for " + cfg.Schedule + " (" + cfg.TimeZone + ")")
	return nil
}
