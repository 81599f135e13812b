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

// AdjustmentUseCase ajustes de inventario. Delta positivo emite
// ADJUSTMENT_IN; negativo emite ADJUSTMENT_OUT con el mismo chequeo de stock
// insuficiente que una venta.
type AdjustmentUseCase struct {
	txRunner      TxRunner
	guard         Guard
	cache         BalanceCache // opcional
	adjRepo       repository.AdjustmentRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
}

// NewAdjustmentUseCase construye el caso de uso. cache puede ser nil.
func NewAdjustmentUseCase(
	txRunner TxRunner,
	guard Guard,
	cache BalanceCache,
	adjRepo repository.AdjustmentRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
) *AdjustmentUseCase {
	return &AdjustmentUseCase{
		txRunner:      txRunner,
		guard:         guard,
		cache:         cache,
		adjRepo:       adjRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
	}
}

// AdjustmentInput entrada de CreateAdjustment.
type AdjustmentInput struct {
	ProductID   string
	WarehouseID string
	BatchID     string
	Delta       decimal.Decimal // con signo; nunca cero
	Reason      string
}

// CreateAdjustment crea el documento de ajuste y su movimiento en una sola
// transacción.
func (uc *AdjustmentUseCase) CreateAdjustment(ctx context.Context, userID string, in AdjustmentInput) (*entity.Adjustment, error) {
	if in.ProductID == "" || in.WarehouseID == "" {
		return nil, fmt.Errorf("%w: producto y bodega son obligatorios", domain.ErrValidation)
	}
	if in.Delta.IsZero() {
		return nil, fmt.Errorf("%w: el delta de ajuste no puede ser cero", domain.ErrValidation)
	}
	if in.Reason == "" {
		return nil, fmt.Errorf("%w: todo ajuste lleva motivo", domain.ErrValidation)
	}
	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil || product == nil {
		return nil, domain.ErrNotFound
	}
	if wh, err := uc.warehouseRepo.GetByID(ctx, in.WarehouseID); err != nil || wh == nil {
		return nil, domain.ErrNotFound
	}
	batchID, err := batchFor(product, in.BatchID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	adj := &entity.Adjustment{
		ID:          uuid.New().String(),
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		BatchID:     batchID,
		Delta:       in.Delta,
		Reason:      in.Reason,
		CreatedAt:   now,
		CreatedBy:   userID,
	}

	key := adj.BalanceKey()
	release, err := uc.guard.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	defer release()

	err = uc.txRunner.Run(ctx, func(r TxRepos) error {
		num, err := r.Adjustments.NextDocumentNumber(ctx)
		if err != nil {
			return err
		}
		adj.DocumentNumber = num
		if err := r.Adjustments.Create(ctx, adj); err != nil {
			return err
		}
		_, err = appendBatch(ctx, r, []*entity.StockMovement{{
			TransactionID: adj.ID,
			Kind:          adj.Kind(),
			ProductID:     adj.ProductID,
			BatchID:       adj.BatchID,
			WarehouseID:   adj.WarehouseID,
			Quantity:      adj.Delta.Abs(),
			UnitCost:      product.Cost,
			ReferenceType: entity.RefAdjustment,
			ReferenceID:   adj.ID,
			OccurredAt:    now,
			CreatedBy:     userID,
		}})
		return err
	})
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		_ = uc.cache.Invalidate(ctx, key)
	}
	return adj, nil
}
