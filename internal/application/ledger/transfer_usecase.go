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

// TransferUseCase traslados entre bodegas: un TRANSFER_OUT en origen y un
// TRANSFER_IN en destino como par atómico, jamás como dos operaciones
// confirmables por separado. El guard adquiere ambas claves en el orden
// global, lo que evita el deadlock entre traslados en direcciones opuestas.
type TransferUseCase struct {
	txRunner      TxRunner
	guard         Guard
	cache         BalanceCache // opcional
	transferRepo  repository.TransferRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
}

// NewTransferUseCase construye el caso de uso. cache puede ser nil.
func NewTransferUseCase(
	txRunner TxRunner,
	guard Guard,
	cache BalanceCache,
	transferRepo repository.TransferRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
) *TransferUseCase {
	return &TransferUseCase{
		txRunner:      txRunner,
		guard:         guard,
		cache:         cache,
		transferRepo:  transferRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
	}
}

// TransferInput entrada de CreateTransfer.
type TransferInput struct {
	ProductID       string
	BatchID         string
	FromWarehouseID string
	ToWarehouseID   string
	Quantity        decimal.Decimal
}

// CreateTransfer valida, bloquea ambas claves y emite el par OUT/IN con el
// mismo TransactionID dentro de una sola transacción.
func (uc *TransferUseCase) CreateTransfer(ctx context.Context, userID string, in TransferInput) (*entity.TransferOrder, error) {
	if in.ProductID == "" || in.FromWarehouseID == "" || in.ToWarehouseID == "" {
		return nil, fmt.Errorf("%w: producto, origen y destino son obligatorios", domain.ErrValidation)
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		return nil, fmt.Errorf("%w: origen y destino no pueden ser la misma bodega", domain.ErrValidation)
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: la cantidad a trasladar debe ser positiva", domain.ErrValidation)
	}
	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil || product == nil {
		return nil, domain.ErrNotFound
	}
	if wh, err := uc.warehouseRepo.GetByID(ctx, in.FromWarehouseID); err != nil || wh == nil {
		return nil, domain.ErrNotFound
	}
	if wh, err := uc.warehouseRepo.GetByID(ctx, in.ToWarehouseID); err != nil || wh == nil {
		return nil, domain.ErrNotFound
	}
	batchID, err := batchFor(product, in.BatchID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	tr := &entity.TransferOrder{
		ID:              uuid.New().String(),
		ProductID:       in.ProductID,
		BatchID:         batchID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Quantity:        in.Quantity,
		CreatedAt:       now,
		CreatedBy:       userID,
	}

	keys := []entity.BalanceKey{tr.SourceKey(), tr.DestinationKey()}
	release, err := uc.guard.Acquire(ctx, keys...)
	if err != nil {
		return nil, err
	}
	defer release()

	txID := uuid.New().String()
	err = uc.txRunner.Run(ctx, func(r TxRepos) error {
		num, err := r.Transfers.NextDocumentNumber(ctx)
		if err != nil {
			return err
		}
		tr.DocumentNumber = num
		if err := r.Transfers.Create(ctx, tr); err != nil {
			return err
		}
		// La pata OUT va primero: valida el saldo del origen antes de abonar
		// el destino.
		_, err = appendBatch(ctx, r, []*entity.StockMovement{
			{
				TransactionID:      txID,
				Kind:               entity.KindTransferOut,
				ProductID:          tr.ProductID,
				BatchID:            tr.BatchID,
				WarehouseID:        tr.FromWarehouseID,
				CounterWarehouseID: tr.ToWarehouseID,
				Quantity:           tr.Quantity,
				UnitCost:           product.Cost,
				ReferenceType:      entity.RefTransfer,
				ReferenceID:        tr.ID,
				OccurredAt:         now,
				CreatedBy:          userID,
			},
			{
				TransactionID:      txID,
				Kind:               entity.KindTransferIn,
				ProductID:          tr.ProductID,
				BatchID:            tr.BatchID,
				WarehouseID:        tr.ToWarehouseID,
				CounterWarehouseID: tr.FromWarehouseID,
				Quantity:           tr.Quantity,
				UnitCost:           product.Cost,
				ReferenceType:      entity.RefTransfer,
				ReferenceID:        tr.ID,
				OccurredAt:         now,
				CreatedBy:          userID,
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		_ = uc.cache.Invalidate(ctx, keys...)
	}
	return tr, nil
}
