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
	"github.com/invorya/ledger-api/internal/infrastructure/memlock"
)

// ──────────────────────────────────────────────────────────────────────────────
// Ventas
// ──────────────────────────────────────────────────────────────────────────────

func TestVenta_DescuentaStockYCalculaTotales(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, productID, warehouseA, 10, 5)

	order, err := f.sales.CreateSalesOrder(ctx, testUser, ledger.CreateSalesOrderInput{
		CustomerID:  customerID,
		WarehouseID: warehouseA,
		Lines: []ledger.SalesLineInput{{
			ProductID: productID,
			Quantity:  decimal.NewFromInt(4),
			UnitPrice: decimal.NewFromInt(100),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.SalesOrderStatusConfirmed, order.Status)
	assert.Equal(t, "SO-000001", order.OrderNumber)

	// neto 400, IVA 19% = 76, total 476
	requireDecimalEq(t, 400, order.NetTotal)
	requireDecimalEq(t, 76, order.TaxTotal)
	requireDecimalEq(t, 476, order.GrandTotal)

	requireDecimalEq(t, 6, f.balance(t, productID, warehouseA, ""))
	requireDecimalEq(t, 6, f.replay(t, productID, warehouseA, ""))
}

func TestVenta_StockInsuficienteRechazaLaOrdenCompleta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, productID, warehouseA, 6, 5)
	before := f.store.MovementCount()

	_, err := f.sales.CreateSalesOrder(ctx, testUser, ledger.CreateSalesOrderInput{
		CustomerID:  customerID,
		WarehouseID: warehouseA,
		Lines: []ledger.SalesLineInput{{
			ProductID: productID,
			Quantity:  decimal.NewFromInt(7),
		}},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// El rechazo incluye disponible y solicitado.
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	requireDecimalEq(t, 6, stockErr.Available)
	requireDecimalEq(t, 7, stockErr.Requested)

	// Nada quedó escrito: ni orden, ni movimientos, ni saldo tocado.
	assert.Equal(t, before, f.store.MovementCount())
	requireDecimalEq(t, 6, f.balance(t, productID, warehouseA, ""))
}

func TestVenta_LoteMultilineaEsTodoONada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, productID, warehouseA, 10, 5)
	before := f.store.MovementCount()

	// La primera línea tiene stock de sobra; la segunda no. Ningún ISSUE debe
	// quedar en el log.
	_, err := f.sales.CreateSalesOrder(ctx, testUser, ledger.CreateSalesOrderInput{
		CustomerID:  customerID,
		WarehouseID: warehouseA,
		Lines: []ledger.SalesLineInput{
			{ProductID: productID, Quantity: decimal.NewFromInt(2)},
			{ProductID: productID, Quantity: decimal.NewFromInt(20)},
		},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, before, f.store.MovementCount())
	requireDecimalEq(t, 10, f.balance(t, productID, warehouseA, ""))
}

// interceptGuard ejecuta un callback justo antes de la primera adquisición;
// permite intercalar una operación entre la validación de un workflow y su
// transacción.
type interceptGuard struct {
	inner  ledger.Guard
	before func()
}

func (g *interceptGuard) Acquire(ctx context.Context, keys ...entity.BalanceKey) (func(), error) {
	if g.before != nil {
		fn := g.before
		g.before = nil
		fn()
	}
	return g.inner.Acquire(ctx, keys...)
}

func TestVenta_ValoraElIssueConElCostoVigenteAlConfirmar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, productID, warehouseA, 10, 10) // costo promedio 10

	// Una recepción confirma entre la validación de la venta y su transacción:
	// el promedio sube a (10*10 + 10*30) / 20 = 20 mientras la venta está en
	// vuelo, y el ISSUE debe valorarse a ese promedio, no al leído antes.
	guard := &interceptGuard{
		inner:  memlock.New(lockTimeout),
		before: func() { f.receive(t, productID, warehouseA, 10, 30) },
	}
	sales := ledger.NewSalesUseCase(f.store, guard, nil,
		f.store.SalesRepo(), f.store.ProductRepo(), f.store.WarehouseRepo(), f.store.CustomerRepo())

	_, err := sales.CreateSalesOrder(ctx, testUser, ledger.CreateSalesOrderInput{
		CustomerID:  customerID,
		WarehouseID: warehouseA,
		Lines:       []ledger.SalesLineInput{{ProductID: productID, Quantity: decimal.NewFromInt(4)}},
	})
	require.NoError(t, err)

	movs, err := f.store.MovementRepo().List(ctx, repository.MovementFilter{Kind: entity.KindIssue}, 10, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	requireDecimalEq(t, 20, movs[0].UnitCost)
}

func TestVenta_PrecioCeroTomaPrecioDeLista(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, productID, warehouseA, 10, 5)

	order, err := f.sales.CreateSalesOrder(ctx, testUser, ledger.CreateSalesOrderInput{
		CustomerID:  customerID,
		WarehouseID: warehouseA,
		Lines:       []ledger.SalesLineInput{{ProductID: productID, Quantity: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)
	requireDecimalEq(t, 100, order.Lines[0].UnitPrice)
}

func TestVenta_TarifaDeImpuestoQuedaCongelada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, productID, warehouseA, 10, 5)

	order, err := f.sales.CreateSalesOrder(ctx, testUser, ledger.CreateSalesOrderInput{
		CustomerID:  customerID,
		WarehouseID: warehouseA,
		Lines:       []ledger.SalesLineInput{{ProductID: productID, Quantity: decimal.NewFromInt(4)}},
	})
	require.NoError(t, err)

	// Cambia la tarifa del maestro después de confirmar la orden.
	f.store.SeedProduct(entity.Product{
		ID: productID, SKU: "SKU-1", Name: "Tornillo",
		Price:   decimal.NewFromInt(100),
		TaxRate: decimal.NewFromFloat(0.50),
		Active:  true,
	})

	// La orden histórica conserva la tarifa con que nació.
	stored, err := f.store.SalesRepo().GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)
	require.True(t, stored.Lines[0].TaxRate.Equal(decimal.NewFromFloat(0.19)))
	requireDecimalEq(t, 76, stored.TaxTotal)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ajustes
// ──────────────────────────────────────────────────────────────────────────────

func TestAjuste_PositivoYNegativo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, productID, warehouseA, 10, 5)

	up, err := f.adjustments.CreateAdjustment(ctx, testUser, ledger.AdjustmentInput{
		ProductID:   productID,
		WarehouseID: warehouseA,
		Delta:       decimal.NewFromInt(5),
		Reason:      "conteo físico: sobrante",
	})
	require.NoError(t, err)
	assert.Equal(t, "ADJ-000001", up.DocumentNumber)
	requireDecimalEq(t, 15, f.balance(t, productID, warehouseA, ""))

	_, err = f.adjustments.CreateAdjustment(ctx, testUser, ledger.AdjustmentInput{
		ProductID:   productID,
		WarehouseID: warehouseA,
		Delta:       decimal.NewFromInt(-3),
		Reason:      "merma",
	})
	require.NoError(t, err)
	requireDecimalEq(t, 12, f.balance(t, productID, warehouseA, ""))

	// El signo vive en el tipo, la cantidad es siempre positiva.
	movs, err := f.store.MovementRepo().List(ctx, repository.MovementFilter{Kind: entity.KindAdjustmentOut}, 10, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	requireDecimalEq(t, 3, movs[0].Quantity)
}

func TestAjuste_DeltaCeroSeRechaza(t *testing.T) {
	f := newFixture(t)

	_, err := f.adjustments.CreateAdjustment(context.Background(), testUser, ledger.AdjustmentInput{
		ProductID:   productID,
		WarehouseID: warehouseA,
		Delta:       decimal.Zero,
		Reason:      "nada",
	})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestAjuste_SinMotivoSeRechaza(t *testing.T) {
	f := newFixture(t)

	_, err := f.adjustments.CreateAdjustment(context.Background(), testUser, ledger.AdjustmentInput{
		ProductID:   productID,
		WarehouseID: warehouseA,
		Delta:       decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestAjuste_NegativoNoPuedeDejarSaldoNegativo(t *testing.T) {
	f := newFixture(t)

	f.receive(t, productID, warehouseA, 2, 5)

	_, err := f.adjustments.CreateAdjustment(context.Background(), testUser, ledger.AdjustmentInput{
		ProductID:   productID,
		WarehouseID: warehouseA,
		Delta:       decimal.NewFromInt(-5),
		Reason:      "merma",
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	requireDecimalEq(t, 2, f.balance(t, productID, warehouseA, ""))
}

// ──────────────────────────────────────────────────────────────────────────────
// Traslados
// ──────────────────────────────────────────────────────────────────────────────

func TestTraslado_ConservaElStockTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, productID, warehouseA, 10, 5)

	tr, err := f.transfers.CreateTransfer(ctx, testUser, ledger.TransferInput{
		ProductID:       productID,
		FromWarehouseID: warehouseA,
		ToWarehouseID:   warehouseB,
		Quantity:        decimal.NewFromInt(4),
	})
	require.NoError(t, err)
	assert.Equal(t, "TR-000001", tr.DocumentNumber)

	requireDecimalEq(t, 6, f.balance(t, productID, warehouseA, ""))
	requireDecimalEq(t, 4, f.balance(t, productID, warehouseB, ""))

	// El par OUT/IN comparte TransactionID: es una sola operación lógica.
	outs, err := f.store.MovementRepo().List(ctx, repository.MovementFilter{Kind: entity.KindTransferOut}, 10, 0)
	require.NoError(t, err)
	ins, err := f.store.MovementRepo().List(ctx, repository.MovementFilter{Kind: entity.KindTransferIn}, 10, 0)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	require.Len(t, ins, 1)
	assert.Equal(t, outs[0].TransactionID, ins[0].TransactionID)
	assert.Equal(t, warehouseB, outs[0].CounterWarehouseID)
	assert.Equal(t, warehouseA, ins[0].CounterWarehouseID)
}

func TestTraslado_SinStockEnOrigenNoEscribeNada(t *testing.T) {
	f := newFixture(t)

	f.receive(t, productID, warehouseA, 3, 5)
	before := f.store.MovementCount()

	_, err := f.transfers.CreateTransfer(context.Background(), testUser, ledger.TransferInput{
		ProductID:       productID,
		FromWarehouseID: warehouseA,
		ToWarehouseID:   warehouseB,
		Quantity:        decimal.NewFromInt(5),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// Ni la pata OUT ni la IN quedaron en el log.
	require.Equal(t, before, f.store.MovementCount())
	requireDecimalEq(t, 3, f.balance(t, productID, warehouseA, ""))
	requireDecimalEq(t, 0, f.balance(t, productID, warehouseB, ""))
}

func TestTraslado_MismaBodegaSeRechaza(t *testing.T) {
	f := newFixture(t)

	_, err := f.transfers.CreateTransfer(context.Background(), testUser, ledger.TransferInput{
		ProductID:       productID,
		FromWarehouseID: warehouseA,
		ToWarehouseID:   warehouseA,
		Quantity:        decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, domain.ErrValidation)
}

// ──────────────────────────────────────────────────────────────────────────────
// Lecturas
// ──────────────────────────────────────────────────────────────────────────────

func TestSaldo_ClaveSinMovimientosEsCeroNoError(t *testing.T) {
	f := newFixture(t)

	requireDecimalEq(t, 0, f.balance(t, "prod-jamas-visto", warehouseA, ""))
	requireDecimalEq(t, 0, f.replay(t, "prod-jamas-visto", warehouseA, ""))
}

func TestSaldo_MaterializadoYReplaySiempreCoinciden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, productID, warehouseA, 10, 5)
	_, err := f.sales.CreateSalesOrder(ctx, testUser, ledger.CreateSalesOrderInput{
		CustomerID:  customerID,
		WarehouseID: warehouseA,
		Lines:       []ledger.SalesLineInput{{ProductID: productID, Quantity: decimal.NewFromInt(4)}},
	})
	require.NoError(t, err)
	_, err = f.transfers.CreateTransfer(ctx, testUser, ledger.TransferInput{
		ProductID:       productID,
		FromWarehouseID: warehouseA,
		ToWarehouseID:   warehouseB,
		Quantity:        decimal.NewFromInt(2),
	})
	require.NoError(t, err)

	for _, wh := range []string{warehouseA, warehouseB} {
		mat := f.balance(t, productID, wh, "")
		rep := f.replay(t, productID, wh, "")
		require.True(t, mat.Equal(rep), "bodega %s: materializado %s != replay %s", wh, mat, rep)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo completo
// ──────────────────────────────────────────────────────────────────────────────

func TestFlujo_RecibirVenderYRechazarSobreventa(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Recibir 10, vender 4: quedan 6.
	f.receive(t, productID, warehouseA, 10, 5)
	_, err := f.sales.CreateSalesOrder(ctx, testUser, ledger.CreateSalesOrderInput{
		CustomerID:  customerID,
		WarehouseID: warehouseA,
		Lines:       []ledger.SalesLineInput{{ProductID: productID, Quantity: decimal.NewFromInt(4)}},
	})
	require.NoError(t, err)

	// Intentar vender 10: rechazada con disponible 6 / solicitado 10.
	_, err = f.sales.CreateSalesOrder(ctx, testUser, ledger.CreateSalesOrderInput{
		CustomerID:  customerID,
		WarehouseID: warehouseA,
		Lines:       []ledger.SalesLineInput{{ProductID: productID, Quantity: decimal.NewFromInt(10)}},
	})
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	requireDecimalEq(t, 6, stockErr.Available)
	requireDecimalEq(t, 10, stockErr.Requested)

	// El log quedó con exactamente dos movimientos: el RECEIPT y el ISSUE.
	require.Equal(t, 2, f.store.MovementCount())
	requireDecimalEq(t, 6, f.balance(t, productID, warehouseA, ""))
	requireDecimalEq(t, 6, f.replay(t, productID, warehouseA, ""))
}
