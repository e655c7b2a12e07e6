package config

import (
	"github.com/spf13/viper"
)

// Periodic comparison of local job state with the escrow contract
type Reconciler struct {
	// Is the reconciler running as part of the server
	Enabled bool

	// Cron schedule of reconciliation passes
	Schedule string

	// Num of jobs fetched from the database at once
	BatchSize int

	// Num of workers checking jobs in parallel
	NumWorkers int

	// Max num of jobs waiting for a worker
	WorkerQueueSize int

	// Max contract reads per second
	RequestsPerSecond int
}

func setReconcilerDefaults() {
	viper.SetDefault("Reconciler.Enabled", "false")
	viper.SetDefault("Reconciler.Schedule", "@every 5m")
	viper.SetDefault("Reconciler.BatchSize", "100")
	viper.SetDefault("Reconciler.NumWorkers", "4")
	viper.SetDefault("Reconciler.WorkerQueueSize", "20")
	viper.SetDefault("Reconciler.RequestsPerSecond", "10")
}
