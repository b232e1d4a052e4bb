package config

import "fmt"

// Validate rejects configurations that would make a run meaningless.
func Validate(cfg *Config) error {
	if cfg.Runs < 1 {
		return fmt.Errorf("runs must be at least 1, got %d", cfg.Runs)
	}
	if cfg.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}
	if cfg.RetryAttempts < 1 {
		return fmt.Errorf("retry_attempts must be at least 1, got %d", cfg.RetryAttempts)
	}
	if cfg.IterationTimeout < 0 {
		return fmt.Errorf("iteration_timeout must not be negative")
	}
	switch cfg.OutputFormat {
	case "", "auto", "text", "markdown", "json":
	default:
		return fmt.Errorf("invalid output format %q (want auto, text, markdown, or json)", cfg.OutputFormat)
	}
	return nil
}
