package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/invorya/ledger-api/internal/application/ledger"
	"github.com/invorya/ledger-api/internal/domain/entity"
	"github.com/invorya/ledger-api/pkg/logger"
)

func TestReconciliacion_SinDerivaNoTocaNada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, productID, warehouseA, 10, 5)

	rc := ledger.NewReconciler(f.store.MovementRepo(), f.store.BalanceRepo(), logger.Nop())
	drift, err := rc.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, drift)
}

func TestReconciliacion_CorrigeSaldoCorrupto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, productID, warehouseA, 10, 5)

	// Corromper la materialización por fuera del camino de escritura (simula
	// un bug o una intervención manual en la tabla).
	err := f.store.BalanceRepo().Upsert(ctx, &entity.Balance{
		ProductID:   productID,
		WarehouseID: warehouseA,
		Quantity:    decimal.NewFromInt(999),
		UpdatedAt:   time.Now(),
	})
	require.NoError(t, err)
	requireDecimalEq(t, 999, f.balance(t, productID, warehouseA, ""))

	rc := ledger.NewReconciler(f.store.MovementRepo(), f.store.BalanceRepo(), logger.Nop())
	drift, err := rc.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, drift)

	// El log gana: el saldo vuelve al valor re-sumado.
	requireDecimalEq(t, 10, f.balance(t, productID, warehouseA, ""))

	// Segunda pasada: ya no hay deriva.
	drift, err = rc.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, drift)
}
