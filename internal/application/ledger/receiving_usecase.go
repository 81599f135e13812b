package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invorya/ledger-api/internal/domain"
	"github.com/invorya/ledger-api/internal/domain/entity"
	ledgerdom "github.com/invorya/ledger-api/internal/domain/ledger"
	"github.com/invorya/ledger-api/internal/domain/repository"
)

// ReceivingUseCase ciclo de vida del GRN: create (DRAFT), approve (emite los
// RECEIPT, una sola vez) y cancel. La aprobación es el único origen de stock
// nuevo en todo el sistema.
type ReceivingUseCase struct {
	txRunner      TxRunner
	guard         Guard
	cache         BalanceCache // opcional
	grnRepo       repository.ReceivingRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	supplierRepo  repository.SupplierRepository
}

// NewReceivingUseCase construye el caso de uso. cache puede ser nil.
func NewReceivingUseCase(
	txRunner TxRunner,
	guard Guard,
	cache BalanceCache,
	grnRepo repository.ReceivingRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	supplierRepo repository.SupplierRepository,
) *ReceivingUseCase {
	return &ReceivingUseCase{
		txRunner:      txRunner,
		guard:         guard,
		cache:         cache,
		grnRepo:       grnRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		supplierRepo:  supplierRepo,
	}
}

// GRNItemInput línea de entrada para crear un GRN.
type GRNItemInput struct {
	ProductID string
	BatchID   string
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
}

// CreateGRNInput entrada de Create.
type CreateGRNInput struct {
	SupplierID  string
	WarehouseID string
	Items       []GRNItemInput
}

// Create valida maestros e ítems y persiste el documento en DRAFT. No toca el
// log de movimientos.
func (uc *ReceivingUseCase) Create(ctx context.Context, userID string, in CreateGRNInput) (*entity.ReceivingDocument, error) {
	if in.SupplierID == "" || in.WarehouseID == "" {
		return nil, fmt.Errorf("%w: proveedor y bodega son obligatorios", domain.ErrValidation)
	}
	if len(in.Items) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	if sup, err := uc.supplierRepo.GetByID(ctx, in.SupplierID); err != nil || sup == nil {
		return nil, domain.ErrNotFound
	}
	if wh, err := uc.warehouseRepo.GetByID(ctx, in.WarehouseID); err != nil || wh == nil {
		return nil, domain.ErrNotFound
	}

	items := make([]entity.ReceivingItem, 0, len(in.Items))
	for _, it := range in.Items {
		if it.ProductID == "" {
			return nil, fmt.Errorf("%w: ítem sin producto", domain.ErrValidation)
		}
		if !it.Quantity.GreaterThan(decimal.Zero) {
			return nil, fmt.Errorf("%w: la cantidad recibida debe ser positiva", domain.ErrValidation)
		}
		if it.UnitCost.IsNegative() {
			return nil, fmt.Errorf("%w: el costo unitario no puede ser negativo", domain.ErrValidation)
		}
		product, err := uc.productRepo.GetByID(ctx, it.ProductID)
		if err != nil || product == nil {
			return nil, domain.ErrNotFound
		}
		batchID, err := batchFor(product, it.BatchID)
		if err != nil {
			return nil, err
		}
		items = append(items, entity.ReceivingItem{
			ID:        uuid.New().String(),
			ProductID: it.ProductID,
			BatchID:   batchID,
			Quantity:  it.Quantity,
			UnitCost:  it.UnitCost,
		})
	}

	doc := &entity.ReceivingDocument{
		ID:          uuid.New().String(),
		SupplierID:  in.SupplierID,
		WarehouseID: in.WarehouseID,
		Status:      entity.GRNStatusDraft,
		Items:       items,
		CreatedAt:   time.Now(),
		CreatedBy:   userID,
	}

	err := uc.txRunner.Run(ctx, func(r TxRepos) error {
		num, err := r.Receiving.NextDocumentNumber(ctx)
		if err != nil {
			return err
		}
		doc.DocumentNumber = num
		return r.Receiving.Create(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Approve transición DRAFT→APPROVED. En una sola unidad atómica: marca el
// documento aprobado (rechazando cualquier re-aprobación), emite un RECEIPT
// por ítem referenciando al GRN y actualiza el costo promedio del producto.
// Al confirmar, el stock queda disponible de inmediato para salidas.
func (uc *ReceivingUseCase) Approve(ctx context.Context, grnID, userID string) (*entity.ReceivingDocument, error) {
	doc, err := uc.grnRepo.GetByID(ctx, grnID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	// Chequeo rápido fuera de la transacción; la barrera definitiva es el
	// update condicional dentro de ella.
	if err := doc.CanApprove(); err != nil {
		return nil, err
	}

	keys := doc.BalanceKeys()
	release, err := uc.guard.Acquire(ctx, keys...)
	if err != nil {
		return nil, err
	}
	defer release()

	now := time.Now()
	txID := uuid.New().String()
	err = uc.txRunner.Run(ctx, func(r TxRepos) error {
		if err := r.Receiving.Approve(ctx, doc.ID, userID, now); err != nil {
			return err
		}
		for _, it := range doc.Items {
			// Costo promedio ponderado con el saldo previo a esta entrada. El
			// anexo de cada línea actualiza la fila de saldo, así que una línea
			// posterior del mismo producto promedia sobre lo ya recibido.
			product, err := r.Products.GetByID(ctx, it.ProductID)
			if err != nil || product == nil {
				return domain.ErrNotFound
			}
			bal, err := r.Balances.GetForUpdate(ctx, entity.BalanceKey{
				ProductID: it.ProductID, WarehouseID: doc.WarehouseID, BatchID: it.BatchID,
			})
			if err != nil {
				return err
			}
			newCost := ledgerdom.WeightedAverageCost(bal.Quantity, product.Cost, it.Quantity, it.UnitCost)
			if err := r.Products.UpdateCost(ctx, it.ProductID, newCost); err != nil {
				return err
			}
			if _, err := appendBatch(ctx, r, []*entity.StockMovement{{
				TransactionID: txID,
				Kind:          entity.KindReceipt,
				ProductID:     it.ProductID,
				BatchID:       it.BatchID,
				WarehouseID:   doc.WarehouseID,
				Quantity:      it.Quantity,
				UnitCost:      it.UnitCost,
				ReferenceType: entity.RefGRN,
				ReferenceID:   doc.ID,
				OccurredAt:    now,
				CreatedBy:     userID,
			}}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		_ = uc.cache.Invalidate(ctx, keys...)
	}
	doc.Status = entity.GRNStatusApproved
	doc.ApprovedAt = &now
	doc.ApprovedBy = userID
	return doc, nil
}

// Cancel transición DRAFT→CANCELLED. No emite movimientos; evita borradores
// huérfanos sin destino.
func (uc *ReceivingUseCase) Cancel(ctx context.Context, grnID, userID string) (*entity.ReceivingDocument, error) {
	doc, err := uc.grnRepo.GetByID(ctx, grnID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	now := time.Now()
	err = uc.txRunner.Run(ctx, func(r TxRepos) error {
		return r.Receiving.Cancel(ctx, doc.ID, userID, now)
	})
	if err != nil {
		return nil, err
	}
	doc.Status = entity.GRNStatusCancelled
	doc.CancelledAt = &now
	doc.CancelledBy = userID
	return doc, nil
}

// List lista GRNs, opcionalmente por estado (cabeceras, sin ítems).
func (uc *ReceivingUseCase) List(ctx context.Context, status entity.GRNStatus, limit, offset int) ([]*entity.ReceivingDocument, error) {
	return uc.grnRepo.List(ctx, status, limit, offset)
}

// Get devuelve un GRN por id (para la capa API).
func (uc *ReceivingUseCase) Get(ctx context.Context, grnID string) (*entity.ReceivingDocument, error) {
	doc, err := uc.grnRepo.GetByID(ctx, grnID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}
