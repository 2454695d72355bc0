package config

import "runtime"

// Worker count resolution chain (highest priority first):
//   1. CLI flag (--workers)
//   2. Environment variable (PARREDUCE_WORKERS)
//   3. Hardware estimation (this file)

// ApplyAdaptiveDefaults fills options left at their zero value with values
// derived from the host.
func ApplyAdaptiveDefaults(cfg AppConfig) AppConfig {
	if cfg.Workers == 0 {
		cfg.Workers = EstimateWorkers()
	}
	return cfg
}

// EstimateWorkers returns the default worker count: one per logical CPU.
func EstimateWorkers() int {
	return max(runtime.NumCPU(), 1)
}
