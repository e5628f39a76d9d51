package config

const (
	DefaultTimeZone = "America/Caracas"

	// Area directory refresh
	DefaultAreaRefreshSchedule = "0 * * * *" // hourly
	AreaRefreshMaxRetries      = 3
)
