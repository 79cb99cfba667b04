package config

import "runtime"

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Name:                   "default",
			BranchingFactor:        32,
			RetentionQueueCapacity: 500,
			RetentionQueueScan:     0,
			Compression:            "none",
			CheckpointEvery:        0,
			ParallelLookupChunk:    256,
			ParallelLookupWorkers:  runtime.NumCPU(),
		},
		Store: StoreConfig{
			Backend:       "file",
			Path:          "stratum.db",
			ReadOnly:      false,
			SyncOnCommit:  true,
			ReadCacheSize: "64MB",
		},
		Logging: LogConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}
