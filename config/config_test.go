package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadEnvDefaults(t *testing.T) {
	cfg := LoadEnv()
	require.Equal(t, 30*time.Second, cfg.Sync.PollInterval)
	require.Equal(t, 5, cfg.Sync.BatchLimit)
	require.Equal(t, 50, cfg.Catalog.BroadFetchThreshold)
	require.Equal(t, 5*time.Minute, cfg.Catalog.CacheTTL)
	require.Equal(t, 10*time.Second, cfg.Catalog.SingleRequestTimeout)
	require.Equal(t, 30*time.Second, cfg.Catalog.MutationTimeout)
	require.Equal(t, 60*time.Second, cfg.AI.GenerationTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SYNC_POLL_INTERVAL", "45s")
	t.Setenv("CATALOG_SINGLE_TIMEOUT", "12")
	t.Setenv("CATALOG_MUTATION_TIMEOUT", "1m")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("ELASTICSEARCH_ENABLED", "false")

	cfg := LoadEnv()
	require.Equal(t, 45*time.Second, cfg.Sync.PollInterval)
	require.Equal(t, 12*time.Second, cfg.Catalog.SingleRequestTimeout)
	require.Equal(t, time.Minute, cfg.Catalog.MutationTimeout)
	require.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	require.False(t, cfg.Elastic.Enabled)
}
