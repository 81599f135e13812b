package ledger_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invorya/ledger-api/internal/application/ledger"
	"github.com/invorya/ledger-api/internal/domain"
	"github.com/invorya/ledger-api/internal/domain/entity"
	"github.com/invorya/ledger-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Ciclo GRN: create → approve / cancel
// ──────────────────────────────────────────────────────────────────────────────

func TestGRN_CrearQuedaEnBorradorSinMovimientos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.receiving.Create(ctx, testUser, ledger.CreateGRNInput{
		SupplierID:  supplierID,
		WarehouseID: warehouseA,
		Items: []ledger.GRNItemInput{{
			ProductID: productID,
			Quantity:  decimal.NewFromInt(10),
			UnitCost:  decimal.NewFromInt(5),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.GRNStatusDraft, doc.Status)
	assert.Equal(t, "GRN-000001", doc.DocumentNumber)

	// Un borrador no toca ni el log ni los saldos.
	assert.Equal(t, 0, f.store.MovementCount())
	requireDecimalEq(t, 0, f.balance(t, productID, warehouseA, ""))
}

func TestGRN_AprobarEmiteUnReceiptPorItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.receiving.Create(ctx, testUser, ledger.CreateGRNInput{
		SupplierID:  supplierID,
		WarehouseID: warehouseA,
		Items: []ledger.GRNItemInput{
			{ProductID: productID, Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(5)},
			{ProductID: batchProdID, BatchID: "L-01", Quantity: decimal.NewFromInt(3), UnitCost: decimal.NewFromInt(50)},
		},
	})
	require.NoError(t, err)

	approved, err := f.receiving.Approve(ctx, doc.ID, testUser)
	require.NoError(t, err)
	assert.Equal(t, entity.GRNStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, testUser, approved.ApprovedBy)

	assert.Equal(t, 2, f.store.MovementCount())
	requireDecimalEq(t, 10, f.balance(t, productID, warehouseA, ""))
	requireDecimalEq(t, 3, f.balance(t, batchProdID, warehouseA, "L-01"))

	// Cada RECEIPT referencia a su GRN de origen.
	movs, err := f.store.MovementRepo().List(ctx, repository.MovementFilter{Kind: entity.KindReceipt}, 10, 0)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, entity.RefGRN, m.ReferenceType)
		assert.Equal(t, doc.ID, m.ReferenceID)
		assert.NotEmpty(t, m.MovementNumber)
	}
}

func TestGRN_DobleAprobacionNoDuplicaStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := f.receive(t, productID, warehouseA, 10, 5)

	// La re-aprobación se rechaza como transición ilegal y no re-emite nada.
	_, err := f.receiving.Approve(ctx, doc.ID, testUser)
	require.ErrorIs(t, err, domain.ErrInvalidState)

	assert.Equal(t, 1, f.store.MovementCount())
	requireDecimalEq(t, 10, f.balance(t, productID, warehouseA, ""))
}

func TestGRN_CancelarBorradorNoEmiteMovimientos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.receiving.Create(ctx, testUser, ledger.CreateGRNInput{
		SupplierID:  supplierID,
		WarehouseID: warehouseA,
		Items:       []ledger.GRNItemInput{{ProductID: productID, Quantity: decimal.NewFromInt(4)}},
	})
	require.NoError(t, err)

	cancelled, err := f.receiving.Cancel(ctx, doc.ID, testUser)
	require.NoError(t, err)
	assert.Equal(t, entity.GRNStatusCancelled, cancelled.Status)
	assert.Equal(t, 0, f.store.MovementCount())

	// CANCELLED es terminal: no se puede aprobar después.
	_, err = f.receiving.Approve(ctx, doc.ID, testUser)
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestGRN_SinItemsSeRechaza(t *testing.T) {
	f := newFixture(t)

	_, err := f.receiving.Create(context.Background(), testUser, ledger.CreateGRNInput{
		SupplierID:  supplierID,
		WarehouseID: warehouseA,
	})
	require.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestGRN_CantidadNoPositivaSeRechaza(t *testing.T) {
	f := newFixture(t)

	_, err := f.receiving.Create(context.Background(), testUser, ledger.CreateGRNInput{
		SupplierID:  supplierID,
		WarehouseID: warehouseA,
		Items:       []ledger.GRNItemInput{{ProductID: productID, Quantity: decimal.NewFromInt(-3)}},
	})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestGRN_ProductoConLoteExigeLote(t *testing.T) {
	f := newFixture(t)

	_, err := f.receiving.Create(context.Background(), testUser, ledger.CreateGRNInput{
		SupplierID:  supplierID,
		WarehouseID: warehouseA,
		Items:       []ledger.GRNItemInput{{ProductID: batchProdID, Quantity: decimal.NewFromInt(1)}},
	})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestGRN_ProveedorInexistente(t *testing.T) {
	f := newFixture(t)

	_, err := f.receiving.Create(context.Background(), testUser, ledger.CreateGRNInput{
		SupplierID:  "sup-fantasma",
		WarehouseID: warehouseA,
		Items:       []ledger.GRNItemInput{{ProductID: productID, Quantity: decimal.NewFromInt(1)}},
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Costo promedio ponderado
// ──────────────────────────────────────────────────────────────────────────────

func TestGRN_ActualizaCostoPromedioPonderado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, productID, warehouseA, 10, 10)
	f.receive(t, productID, warehouseA, 10, 20)

	// (10*10 + 10*20) / 20 = 15
	p, err := f.store.ProductRepo().GetByID(ctx, productID)
	require.NoError(t, err)
	requireDecimalEq(t, 15, p.Cost)
}

func TestGRN_DosLineasDelMismoProductoPromedianEnOrden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.receiving.Create(ctx, testUser, ledger.CreateGRNInput{
		SupplierID:  supplierID,
		WarehouseID: warehouseA,
		Items: []ledger.GRNItemInput{
			{ProductID: productID, Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(10)},
			{ProductID: productID, Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(30)},
		},
	})
	require.NoError(t, err)
	_, err = f.receiving.Approve(ctx, doc.ID, testUser)
	require.NoError(t, err)

	// La segunda línea promedia sobre las 10 unidades que la primera ya dejó
	// en el saldo: (10*10 + 10*30) / 20 = 20, no 30.
	p, err := f.store.ProductRepo().GetByID(ctx, productID)
	require.NoError(t, err)
	requireDecimalEq(t, 20, p.Cost)
	requireDecimalEq(t, 20, f.balance(t, productID, warehouseA, ""))
}
