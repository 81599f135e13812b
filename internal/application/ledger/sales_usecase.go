package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invorya/ledger-api/internal/domain"
	"github.com/invorya/ledger-api/internal/domain/entity"
	"github.com/invorya/ledger-api/internal/domain/repository"
)

// SalesUseCase crea una orden de venta y descuenta el stock en una sola
// transacción: valida saldo por línea y emite un ISSUE por cada una. Sin
// cumplimiento parcial: si alguna línea no tiene stock, la orden completa se
// rechaza.
type SalesUseCase struct {
	txRunner      TxRunner
	guard         Guard
	cache         BalanceCache // opcional
	salesRepo     repository.SalesOrderRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	customerRepo  repository.CustomerRepository
}

// NewSalesUseCase construye el caso de uso. cache puede ser nil.
func NewSalesUseCase(
	txRunner TxRunner,
	guard Guard,
	cache BalanceCache,
	salesRepo repository.SalesOrderRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	customerRepo repository.CustomerRepository,
) *SalesUseCase {
	return &SalesUseCase{
		txRunner:      txRunner,
		guard:         guard,
		cache:         cache,
		salesRepo:     salesRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		customerRepo:  customerRepo,
	}
}

// SalesLineInput línea de venta. UnitPrice en cero toma el precio de lista
// del producto.
type SalesLineInput struct {
	ProductID string
	BatchID   string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// CreateSalesOrderInput entrada de CreateSalesOrder.
type CreateSalesOrderInput struct {
	CustomerID  string
	WarehouseID string
	Lines       []SalesLineInput
}

// CreateSalesOrder valida maestros y líneas, congela la tarifa de impuesto de
// cada producto en la orden, y confirma orden + movimientos ISSUE como unidad
// atómica bajo el guard de las claves afectadas.
func (uc *SalesUseCase) CreateSalesOrder(ctx context.Context, userID string, in CreateSalesOrderInput) (*entity.SalesOrder, error) {
	if in.CustomerID == "" || in.WarehouseID == "" {
		return nil, fmt.Errorf("%w: cliente y bodega son obligatorios", domain.ErrValidation)
	}
	if len(in.Lines) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	if cust, err := uc.customerRepo.GetByID(ctx, in.CustomerID); err != nil || cust == nil {
		return nil, domain.ErrNotFound
	}
	if wh, err := uc.warehouseRepo.GetByID(ctx, in.WarehouseID); err != nil || wh == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	order := &entity.SalesOrder{
		ID:          uuid.New().String(),
		CustomerID:  in.CustomerID,
		WarehouseID: in.WarehouseID,
		Status:      entity.SalesOrderStatusConfirmed,
		CreatedAt:   now,
		CreatedBy:   userID,
	}
	for _, l := range in.Lines {
		if l.ProductID == "" {
			return nil, fmt.Errorf("%w: línea sin producto", domain.ErrValidation)
		}
		if !l.Quantity.GreaterThan(decimal.Zero) {
			return nil, fmt.Errorf("%w: la cantidad vendida debe ser positiva", domain.ErrValidation)
		}
		if l.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: el precio unitario no puede ser negativo", domain.ErrValidation)
		}
		product, err := uc.productRepo.GetByID(ctx, l.ProductID)
		if err != nil || product == nil {
			return nil, domain.ErrNotFound
		}
		batchID, err := batchFor(product, l.BatchID)
		if err != nil {
			return nil, err
		}
		price := l.UnitPrice
		if price.IsZero() {
			price = product.Price
		}
		order.Lines = append(order.Lines, entity.SalesLine{
			ID:        uuid.New().String(),
			ProductID: l.ProductID,
			BatchID:   batchID,
			Quantity:  l.Quantity,
			UnitPrice: price,
			TaxRate:   product.TaxRate, // congelada: cambios futuros no tocan esta orden
		})
	}
	order.ComputeTotals()

	keys := order.BalanceKeys()
	release, err := uc.guard.Acquire(ctx, keys...)
	if err != nil {
		return nil, err
	}
	defer release()

	err = uc.txRunner.Run(ctx, func(r TxRepos) error {
		num, err := r.Sales.NextOrderNumber(ctx)
		if err != nil {
			return err
		}
		order.OrderNumber = num
		if err := r.Sales.Create(ctx, order); err != nil {
			return err
		}
		movs := make([]*entity.StockMovement, 0, len(order.Lines))
		for _, l := range order.Lines {
			// Valoración del ISSUE al costo promedio vigente al confirmar,
			// leído dentro de la transacción: una recepción que confirme entre
			// la validación y este punto ya queda reflejada.
			product, err := r.Products.GetByID(ctx, l.ProductID)
			if err != nil || product == nil {
				return domain.ErrNotFound
			}
			movs = append(movs, &entity.StockMovement{
				TransactionID: order.ID,
				Kind:          entity.KindIssue,
				ProductID:     l.ProductID,
				BatchID:       l.BatchID,
				WarehouseID:   order.WarehouseID,
				Quantity:      l.Quantity,
				UnitCost:      product.Cost,
				ReferenceType: entity.RefSalesOrder,
				ReferenceID:   order.ID,
				OccurredAt:    now,
				CreatedBy:     userID,
			})
		}
		_, err = appendBatch(ctx, r, movs)
		return err
	})
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		_ = uc.cache.Invalidate(ctx, keys...)
	}
	return order, nil
}
