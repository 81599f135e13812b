package repository

import (
	"context"

	"github.com/invorya/ledger-api/internal/domain/entity"
)

// BalanceRepository puerto del saldo materializado por clave. El valor es una
// optimización derivada del log, nunca una segunda fuente de verdad.
type BalanceRepository interface {
	// Get devuelve el saldo de la clave; clave sin movimientos = saldo cero,
	// no error.
	Get(ctx context.Context, key entity.BalanceKey) (*entity.Balance, error)

	// GetForUpdate igual que Get pero bloqueando la fila (SELECT FOR UPDATE)
	// dentro de la transacción en curso. Crea la fila en cero si no existe,
	// para que el bloqueo sea efectivo.
	GetForUpdate(ctx context.Context, key entity.BalanceKey) (*entity.Balance, error)

	Upsert(ctx context.Context, b *entity.Balance) error
	ListByWarehouse(ctx context.Context, warehouseID string, limit, offset int) ([]*entity.Balance, error)

	// ListAll todas las filas materializadas (para reconciliación).
	ListAll(ctx context.Context) ([]*entity.Balance, error)
}
