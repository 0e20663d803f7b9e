//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Apurer/order-saga/internal/domains/products/domain"
	"github.com/Apurer/order-saga/internal/domains/products/ports"
	"github.com/Apurer/order-saga/internal/platform/migrations"
	platformpostgres "github.com/Apurer/order-saga/internal/platform/postgres"
)

func setupProductsPostgres(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("products_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := platformpostgres.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, migrations.Run(db, migrations.Products))
	return NewRepository(db)
}

func TestRepository_CreateAndList(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	repo := setupProductsPostgres(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, name := range []string{"Lamp", "Desk"} {
		product, err := domain.NewProduct(name+"-id", name, decimal.RequireFromString("10.50"), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, product))
	}

	fetched, err := repo.GetByID(ctx, "Lamp-id")
	require.NoError(t, err)
	assert.True(t, fetched.Price.Equal(decimal.RequireFromString("10.5")))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Lamp", list[0].Name)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_DuplicateNameRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	repo := setupProductsPostgres(t)
	ctx := context.Background()

	first, _ := domain.NewProduct("p-1", "Monitor", decimal.NewFromInt(200), time.Now())
	second, _ := domain.NewProduct("p-2", "monitor", decimal.NewFromInt(150), time.Now())
	require.NoError(t, repo.Create(ctx, first))
	assert.ErrorIs(t, repo.Create(ctx, second), ports.ErrDuplicateName)
}
