package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invorya/ledger-api/internal/domain"
	"github.com/invorya/ledger-api/internal/domain/entity"
)

// Camino único de escritura del log de movimientos. appendBatch es
// deliberadamente no exportado: solo los workflows de este paquete pueden
// anexar, nada fuera de ellos tiene acceso al camino de escritura.

// validateMovement reglas de forma de un movimiento antes de persistir.
func validateMovement(m *entity.StockMovement) error {
	if !m.Kind.Valid() {
		return fmt.Errorf("%w: tipo de movimiento desconocido %q", domain.ErrValidation, m.Kind)
	}
	if m.ProductID == "" || m.WarehouseID == "" {
		return fmt.Errorf("%w: producto y bodega son obligatorios", domain.ErrValidation)
	}
	if !m.Quantity.GreaterThan(decimal.Zero) {
		return fmt.Errorf("%w: la cantidad debe ser positiva", domain.ErrValidation)
	}
	if m.ReferenceType == "" || m.ReferenceID == "" {
		return fmt.Errorf("%w: todo movimiento referencia su documento de origen", domain.ErrValidation)
	}
	switch m.Kind {
	case entity.KindTransferOut, entity.KindTransferIn:
		if m.CounterWarehouseID == "" {
			return fmt.Errorf("%w: un traslado lleva la bodega contraparte", domain.ErrValidation)
		}
		if m.CounterWarehouseID == m.WarehouseID {
			return fmt.Errorf("%w: origen y destino no pueden ser la misma bodega", domain.ErrValidation)
		}
	default:
		if m.CounterWarehouseID != "" {
			return fmt.Errorf("%w: solo los traslados llevan bodega contraparte", domain.ErrValidation)
		}
	}
	return nil
}

// appendBatch anexa un lote de movimientos como todo-o-nada dentro de la
// transacción en curso y mantiene el saldo materializado en la misma unidad
// atómica. Valida el lote completo antes de escribir nada; cualquier débito
// que dejaría un saldo negativo aborta con *domain.InsufficientStockError y
// el rollback del TxRunner garantiza que el log queda intacto.
func appendBatch(ctx context.Context, r TxRepos, movs []*entity.StockMovement) ([]*entity.StockMovement, error) {
	if len(movs) == 0 {
		return nil, fmt.Errorf("%w: lote de movimientos vacío", domain.ErrValidation)
	}
	for _, m := range movs {
		if err := validateMovement(m); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	for _, m := range movs {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		num, err := r.Movements.NextMovementNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("numerar movimiento: %w", err)
		}
		m.MovementNumber = num
		m.RecordedAt = now
		if m.OccurredAt.IsZero() {
			m.OccurredAt = now
		}

		// Fila de saldo bloqueada (FOR UPDATE): segunda línea de defensa
		// contra carreras además del Guard por clave.
		bal, err := r.Balances.GetForUpdate(ctx, m.BalanceKey())
		if err != nil {
			return nil, err
		}
		newQty := bal.Quantity.Add(m.Signed())
		if newQty.IsNegative() {
			return nil, &domain.InsufficientStockError{
				ProductID:   m.ProductID,
				WarehouseID: m.WarehouseID,
				BatchID:     m.BatchID,
				Available:   bal.Quantity,
				Requested:   m.Quantity,
			}
		}
		bal.Quantity = newQty
		bal.UpdatedAt = now
		if err := r.Balances.Upsert(ctx, bal); err != nil {
			return nil, err
		}
		if err := r.Movements.Create(ctx, m); err != nil {
			return nil, err
		}
	}
	return movs, nil
}

// batchFor lote para productos con lote: exige BatchID; para el resto lo
// fuerza a vacío (decisión única por producto, no por llamada).
func batchFor(p *entity.Product, batchID string) (string, error) {
	if p.TrackBatches {
		if batchID == "" {
			return "", fmt.Errorf("%w: el producto %s exige lote", domain.ErrValidation, p.ID)
		}
		return batchID, nil
	}
	return "", nil
}
