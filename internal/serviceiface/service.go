package serviceiface

// Service is the unit the app manager starts and stops in sequence: the
// logger, the cron refresher, the debt pipeline server and the gateway.
type Service interface {
	Name() string
	Start() error
	Stop() error
}
