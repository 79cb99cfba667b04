package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig validates the configuration and returns a list of validation errors.
// An empty slice indicates the configuration is valid.
func ValidateConfig(config *Config) []error {
	var errs []error
	errs = append(errs, validateIndexConfig(&config.Index)...)
	errs = append(errs, validateStoreConfig(&config.Store)...)
	errs = append(errs, validateLogConfig(&config.Logging)...)
	return errs
}

func validateIndexConfig(config *IndexConfig) []error {
	var errs []error

	if config.Name == "" {
		errs = append(errs, ValidationError{
			Field:   "index.name",
			Message: "index name is required",
		})
	}
	// zero means the tree default
	if config.BranchingFactor != 0 && config.BranchingFactor < 3 {
		errs = append(errs, ValidationError{
			Field:   "index.branchingFactor",
			Message: "must be at least 3",
		})
	}
	if config.RetentionQueueCapacity != 0 && config.RetentionQueueCapacity < 2 {
		errs = append(errs, ValidationError{
			Field:   "index.retentionQueueCapacity",
			Message: "must be at least 2",
		})
	}
	if config.RetentionQueueScan < 0 {
		errs = append(errs, ValidationError{
			Field:   "index.retentionQueueScan",
			Message: "must be non-negative",
		})
	}
	switch strings.ToLower(config.Compression) {
	case "", "none", "snappy":
	default:
		errs = append(errs, ValidationError{
			Field:   "index.compression",
			Message: "must be none or snappy",
		})
	}
	if config.CheckpointEvery < 0 {
		errs = append(errs, ValidationError{
			Field:   "index.checkpointEvery",
			Message: "must be non-negative",
		})
	}
	if config.ParallelLookupChunk < 0 || config.ParallelLookupWorkers < 0 {
		errs = append(errs, ValidationError{
			Field:   "index.parallelLookup",
			Message: "chunk size and workers must be non-negative",
		})
	}
	return errs
}

func validateStoreConfig(config *StoreConfig) []error {
	var errs []error

	switch config.Backend {
	case "file":
		if config.Path == "" {
			errs = append(errs, ValidationError{
				Field:   "store.path",
				Message: "path is required for the file backend",
			})
		}
	case "memory":
		if config.ReadOnly {
			errs = append(errs, ValidationError{
				Field:   "store.readOnly",
				Message: "a memory store cannot be opened read-only",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "store.backend",
			Message: "must be file or memory",
		})
	}

	if _, err := config.ReadCacheBytes(); err != nil {
		errs = append(errs, ValidationError{
			Field:   "store.readCacheSize",
			Message: err.Error(),
		})
	}
	return errs
}

// validateLogConfig validates logging configuration.
func validateLogConfig(config *LogConfig) []error {
	var errs []error

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if config.Level != "" && !validLevels[strings.ToLower(config.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: "must be debug, info, warn, or error",
		})
	}

	validFormats := map[string]bool{"console": true, "json": true}
	if config.Format != "" && !validFormats[strings.ToLower(config.Format)] {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: "must be console or json",
		})
	}
	return errs
}
