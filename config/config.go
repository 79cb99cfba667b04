// Package config provides configuration parsing and validation for StratumDB.
package config

// Config holds the complete engine configuration.
type Config struct {
	Index   IndexConfig   `json:"index"`
	Store   StoreConfig   `json:"store"`
	Logging LogConfig     `json:"logging"`
	Metrics MetricsConfig `json:"metrics"`
}

// IndexConfig holds the B+ tree configuration.
type IndexConfig struct {
	Name                   string `json:"name"`
	BranchingFactor        int    `json:"branchingFactor"`
	RetentionQueueCapacity int    `json:"retentionQueueCapacity"`
	RetentionQueueScan     int    `json:"retentionQueueScan"`
	// Compression is "none" or "snappy".
	Compression string `json:"compression"`
	// CheckpointEvery is the number of mutations between automatic
	// checkpoints. Zero disables them.
	CheckpointEvery       int `json:"checkpointEvery"`
	ParallelLookupChunk   int `json:"parallelLookupChunk"`
	ParallelLookupWorkers int `json:"parallelLookupWorkers"`
}

// StoreConfig holds the backing store configuration.
type StoreConfig struct {
	// Backend is "file" or "memory".
	Backend      string `json:"backend"`
	Path         string `json:"path"`
	ReadOnly     bool   `json:"readOnly"`
	SyncOnCommit bool   `json:"syncOnCommit"`
	// ReadCacheSize bounds the record cache, e.g. "64MB". Empty or "0"
	// disables it.
	ReadCacheSize string `json:"readCacheSize"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	Output string `json:"output"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool `json:"enabled"`
}
