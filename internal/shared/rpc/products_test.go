package rpc

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestProductSnapshot_PreservesPricePrecision(t *testing.T) {
	created := time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)
	info := ProductInfo{ID: "p-1", Name: "Keyboard", Price: decimal.RequireFromString("19.99"), CreatedAt: created}

	wire, err := EncodeProduct(info)
	require.NoError(t, err)

	decoded, err := DecodeProduct(wire)
	require.NoError(t, err)
	require.Equal(t, "p-1", decoded.ID)
	require.Equal(t, "Keyboard", decoded.Name)
	require.True(t, decoded.Price.Equal(info.Price))
	require.True(t, decoded.CreatedAt.Equal(created))
}
