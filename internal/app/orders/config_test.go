package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/order-saga/internal/platform/messaging/transport"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_PORT", "GRPC_PORT", "EVENT_TRANSPORT", "PRODUCT_CACHE_TTL", "REDIS_ADDR", "KAFKA_BROKERS"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 8080, cfg.HTTPPortNumber)
	assert.Equal(t, "9090", cfg.GRPCPort)
	assert.Equal(t, transport.KindRabbitMQ, cfg.Transport.Kind)
	assert.Equal(t, 5*time.Second, cfg.ProductLookupTimeout)
	assert.False(t, cfg.CacheEnabled())
}

func TestLoadConfig_Validation(t *testing.T) {
	t.Setenv("EVENT_TRANSPORT", "kafka")
	t.Setenv("KAFKA_BROKERS", "")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("EVENT_TRANSPORT", "memory")
	t.Setenv("HTTP_PORT", "http")
	_, err = LoadConfig()
	require.Error(t, err)

	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("PRODUCT_CACHE_TTL", "30s")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.CacheEnabled())
}
