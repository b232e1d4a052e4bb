package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Runs:          1,
		Concurrency:   2,
		RetryAttempts: 1,
		OutputFormat:  "auto",
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))

	cfg := validConfig()
	cfg.Runs = 0
	assert.ErrorContains(t, Validate(cfg), "runs must be at least 1")

	cfg = validConfig()
	cfg.Concurrency = -1
	assert.ErrorContains(t, Validate(cfg), "concurrency must be at least 1")

	cfg = validConfig()
	cfg.RetryAttempts = 0
	assert.ErrorContains(t, Validate(cfg), "retry_attempts must be at least 1")

	cfg = validConfig()
	cfg.IterationTimeout = -1
	assert.ErrorContains(t, Validate(cfg), "iteration_timeout")

	cfg = validConfig()
	cfg.OutputFormat = "xml"
	assert.ErrorContains(t, Validate(cfg), `invalid output format "xml"`)

	for _, format := range []string{"", "auto", "text", "markdown", "json"} {
		cfg = validConfig()
		cfg.OutputFormat = format
		assert.NoError(t, Validate(cfg), format)
	}
}
