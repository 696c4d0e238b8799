package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RETRY_BASE_DELAY_SECONDS", "")
	t.Setenv("TASK_MAX_RETRIES", "")

	cfg := Load()

	assert.Equal(t, 2*time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, "postgres", cfg.Database.Driver)
}

func TestLoad_RetryOverrides(t *testing.T) {
	t.Setenv("RETRY_BASE_DELAY_SECONDS", "0.5")
	t.Setenv("TASK_MAX_RETRIES", "3")
	t.Setenv("WORKER_CONCURRENCY", "0")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := Load()

	assert.Equal(t, 500*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, 1, cfg.Worker.Concurrency)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}
