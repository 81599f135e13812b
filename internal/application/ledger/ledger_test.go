package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/invorya/ledger-api/internal/application/ledger"
	"github.com/invorya/ledger-api/internal/domain/entity"
	"github.com/invorya/ledger-api/internal/infrastructure/memlock"
	"github.com/invorya/ledger-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: motor completo sobre el store en memoria + guard en proceso
// ──────────────────────────────────────────────────────────────────────────────

const (
	testUser    = "00000000-0000-0000-0000-0000000000aa"
	productID   = "prod-1"
	batchProdID = "prod-lote"
	warehouseA  = "wh-a"
	warehouseB  = "wh-b"
	supplierID  = "sup-1"
	customerID  = "cus-1"
	lockTimeout = 2 * time.Second
)

type fixture struct {
	store       *memory.Store
	receiving   *ledger.ReceivingUseCase
	sales       *ledger.SalesUseCase
	adjustments *ledger.AdjustmentUseCase
	transfers   *ledger.TransferUseCase
	projector   *ledger.BalanceProjector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	guard := memlock.New(lockTimeout)

	store.SeedProduct(entity.Product{
		ID: productID, SKU: "SKU-1", Name: "Tornillo",
		Price:   decimal.NewFromInt(100),
		TaxRate: decimal.NewFromFloat(0.19),
		Active:  true,
	})
	store.SeedProduct(entity.Product{
		ID: batchProdID, SKU: "SKU-L", Name: "Reactivo",
		Price:        decimal.NewFromInt(500),
		TaxRate:      decimal.NewFromFloat(0.19),
		TrackBatches: true,
		Active:       true,
	})
	store.SeedWarehouse(entity.Warehouse{ID: warehouseA, Name: "Principal", Active: true})
	store.SeedWarehouse(entity.Warehouse{ID: warehouseB, Name: "Sucursal", Active: true})
	store.SeedSupplier(entity.Supplier{ID: supplierID, Name: "Proveedor SA", Active: true})
	store.SeedCustomer(entity.Customer{ID: customerID, Name: "Cliente SA", Active: true})

	return &fixture{
		store: store,
		receiving: ledger.NewReceivingUseCase(store, guard, nil,
			store.ReceivingRepo(), store.ProductRepo(), store.WarehouseRepo(), store.SupplierRepo()),
		sales: ledger.NewSalesUseCase(store, guard, nil,
			store.SalesRepo(), store.ProductRepo(), store.WarehouseRepo(), store.CustomerRepo()),
		adjustments: ledger.NewAdjustmentUseCase(store, guard, nil,
			store.AdjustmentRepo(), store.ProductRepo(), store.WarehouseRepo()),
		transfers: ledger.NewTransferUseCase(store, guard, nil,
			store.TransferRepo(), store.ProductRepo(), store.WarehouseRepo()),
		projector: ledger.NewBalanceProjector(store.BalanceRepo(), store.MovementRepo(), nil, 0),
	}
}

// receive crea y aprueba un GRN de una línea; deja stock disponible.
func (f *fixture) receive(t *testing.T, prodID, whID string, qty, cost int64) *entity.ReceivingDocument {
	t.Helper()
	ctx := context.Background()
	doc, err := f.receiving.Create(ctx, testUser, ledger.CreateGRNInput{
		SupplierID:  supplierID,
		WarehouseID: whID,
		Items: []ledger.GRNItemInput{{
			ProductID: prodID,
			Quantity:  decimal.NewFromInt(qty),
			UnitCost:  decimal.NewFromInt(cost),
		}},
	})
	require.NoError(t, err)
	approved, err := f.receiving.Approve(ctx, doc.ID, testUser)
	require.NoError(t, err)
	return approved
}

func (f *fixture) balance(t *testing.T, prodID, whID, batchID string) decimal.Decimal {
	t.Helper()
	qty, err := f.projector.GetBalance(context.Background(), prodID, whID, batchID)
	require.NoError(t, err)
	return qty
}

func (f *fixture) replay(t *testing.T, prodID, whID, batchID string) decimal.Decimal {
	t.Helper()
	qty, err := f.projector.Replay(context.Background(), prodID, whID, batchID)
	require.NoError(t, err)
	return qty
}

func requireDecimalEq(t *testing.T, expected int64, actual decimal.Decimal) {
	t.Helper()
	require.True(t, actual.Equal(decimal.NewFromInt(expected)),
		"se esperaba %d, se obtuvo %s", expected, actual.String())
}
