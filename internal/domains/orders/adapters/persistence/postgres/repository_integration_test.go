//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/order-saga/internal/domains/orders/domain"
	"github.com/Apurer/order-saga/internal/domains/orders/ports"
	"github.com/Apurer/order-saga/internal/platform/migrations"
)

func setupOrdersPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("orders_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, migrations.Run(db, migrations.Orders))

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}
	return db, cleanup
}

func sampleOrder(t *testing.T, id string) *domain.Order {
	t.Helper()
	a, err := domain.NewLine("product-a", "Product A", 2, decimal.RequireFromString("100.00"))
	require.NoError(t, err)
	b, err := domain.NewLine("product-b", "Product B", 1, decimal.RequireFromString("200.50"))
	require.NoError(t, err)
	order, err := domain.NewOrder(id, time.Now().UTC().Truncate(time.Microsecond), []domain.Line{a, b})
	require.NoError(t, err)
	return order
}

func TestRepository_SaveAndGetByID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	order := sampleOrder(t, "11111111-1111-1111-1111-111111111111")

	require.NoError(t, repo.Save(ctx, order))

	fetched, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, fetched.Status)
	require.Len(t, fetched.Lines, 2)
	assert.Equal(t, "Product A", fetched.Lines[0].ProductName)
	assert.Equal(t, "400.50", fetched.Total().StringFixed(2))
}

func TestRepository_MarkPaidKeepsLines(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	order := sampleOrder(t, "22222222-2222-2222-2222-222222222222")
	require.NoError(t, repo.Save(ctx, order))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loaded, err := repo.GetByID(ctx, order.ID)
			if err != nil {
				return
			}
			loaded.MarkPaid()
			_ = repo.Save(ctx, loaded)
		}()
	}
	wg.Wait()

	fetched, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, fetched.Status)
	assert.Len(t, fetched.Lines, 2)
}

func TestRepository_GetByIDNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	_, err := NewRepository(db).GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_ListOldestFirst(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	first := sampleOrder(t, "33333333-3333-3333-3333-333333333333")
	second := sampleOrder(t, "44444444-4444-4444-4444-444444444444")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Save(ctx, second))
	require.NoError(t, repo.Save(ctx, first))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
}
