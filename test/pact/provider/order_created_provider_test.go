//go:build pact
// +build pact

package provider_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pact-foundation/pact-go/v2/message"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/order-saga/internal/domains/orders/adapters/events"
	ordersmemory "github.com/Apurer/order-saga/internal/domains/orders/adapters/memory"
	ordersapp "github.com/Apurer/order-saga/internal/domains/orders/application"
	"github.com/Apurer/order-saga/internal/domains/orders/ports"
	"github.com/Apurer/order-saga/internal/platform/messaging"
	"github.com/Apurer/order-saga/internal/shared/contracts"
	pacttest "github.com/Apurer/order-saga/test/pact"
)

type fixedCatalog struct{}

func (fixedCatalog) GetProduct(_ context.Context, id string) (ports.Product, error) {
	if id != pacttest.ExampleProductID {
		return ports.Product{}, ports.ErrProductNotFound
	}
	return ports.Product{ID: id, Name: "Pact Widget", Price: decimal.NewFromInt(125)}, nil
}

// capturingPublisher keeps the last envelope the order service emitted.
type capturingPublisher struct {
	mu   sync.Mutex
	last messaging.Message
}

func (p *capturingPublisher) Publish(_ context.Context, msg messaging.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = msg
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func (p *capturingPublisher) Last() messaging.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func TestOrderCreatedProviderPact(t *testing.T) {
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	channel := &capturingPublisher{}
	created, _ := time.Parse(time.RFC3339, pacttest.ExampleCreatedAt)
	service := ordersapp.NewService(ordersmemory.NewRepository(), fixedCatalog{}, events.NewPublisher(channel),
		ordersapp.WithClock(func() time.Time { return created }),
		ordersapp.WithIDGenerator(func() string { return pacttest.ExampleOrderID }),
	)

	handlers := message.Handlers{
		pacttest.OrderCreatedDescription: func([]models.ProviderState) (message.Body, message.Metadata, error) {
			msg := channel.Last()
			var body map[string]any
			if err := json.Unmarshal(msg.Body, &body); err != nil {
				return nil, nil, err
			}
			return body, message.Metadata{"contentType": "application/json", "eventName": msg.Name}, nil
		},
	}
	stateHandlers := models.StateHandlers{
		pacttest.StateOrderPlaced: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			if !setup {
				return nil, nil
			}
			_, err := service.CreateOrder(context.Background(), ports.CreateOrderCommand{
				Items: []ports.OrderItemInput{{ProductID: pacttest.ExampleProductID, Quantity: 2}},
			})
			return nil, err
		},
	}

	verifier := pactprovider.NewVerifier()
	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		MessageHandlers: handlers,
		StateHandlers:   stateHandlers,
	})
	require.NoError(t, err)
	require.Equal(t, contracts.OrderCreatedEventName, channel.Last().Name)
}
