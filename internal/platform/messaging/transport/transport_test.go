package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/order-saga/internal/platform/messaging"
	"github.com/Apurer/order-saga/internal/platform/messaging/kafka"
	"github.com/Apurer/order-saga/internal/platform/messaging/memory"
	"github.com/Apurer/order-saga/internal/platform/observability"
)

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindRabbitMQ, kind)

	kind, err = ParseKind(" Kafka ")
	require.NoError(t, err)
	assert.Equal(t, KindKafka, kind)

	_, err = ParseKind("sqs")
	require.Error(t, err)
}

func TestOpen_MemorySharesBus(t *testing.T) {
	bus := memory.NewBus(nil)
	settings := Settings{Kind: KindMemory, Bus: bus}
	logger := observability.DiscardLogger()

	pub, closePub, err := OpenPublisher(context.Background(), settings, logger)
	require.NoError(t, err)
	defer closePub()
	sub, closeSub, err := OpenSubscriber(context.Background(), settings, messaging.NewDispatcher(messaging.DefaultRetryPolicy()), logger)
	require.NoError(t, err)
	defer closeSub()

	assert.Same(t, bus, pub)
	assert.Same(t, bus, sub)
}

func TestOpen_KafkaWithoutBrokers(t *testing.T) {
	logger := observability.DiscardLogger()

	_, _, err := OpenSubscriber(context.Background(), Settings{Kind: KindKafka}, messaging.NewDispatcher(messaging.DefaultRetryPolicy()), logger)
	require.ErrorIs(t, err, kafka.ErrDisabled)
}

func TestOpen_RabbitRequiresURL(t *testing.T) {
	_, _, err := OpenPublisher(context.Background(), Settings{Kind: KindRabbitMQ}, observability.DiscardLogger())
	require.Error(t, err)
}
