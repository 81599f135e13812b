package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invorya/ledger-api/internal/domain/entity"
	"github.com/invorya/ledger-api/internal/domain/repository"
)

// BalanceProjector lecturas de saldo para la capa API. Lee el saldo
// materializado con una caché opcional delante; las escrituras del motor
// nunca pasan por aquí.
type BalanceProjector struct {
	balances  repository.BalanceRepository
	movements repository.MovementRepository
	cache     BalanceCache // opcional (nil = sin caché)
	cacheTTL  time.Duration
}

// NewBalanceProjector construye el proyector. cache puede ser nil.
func NewBalanceProjector(
	balances repository.BalanceRepository,
	movements repository.MovementRepository,
	cache BalanceCache,
	cacheTTL time.Duration,
) *BalanceProjector {
	return &BalanceProjector{balances: balances, movements: movements, cache: cache, cacheTTL: cacheTTL}
}

// GetBalance saldo actual de la clave. Clave sin movimientos = 0, no error.
func (p *BalanceProjector) GetBalance(ctx context.Context, productID, warehouseID, batchID string) (decimal.Decimal, error) {
	key := entity.BalanceKey{ProductID: productID, WarehouseID: warehouseID, BatchID: batchID}
	if p.cache != nil {
		if qty, ok, err := p.cache.Get(ctx, key); err == nil && ok {
			return qty, nil
		}
		// Error o miss de caché: caer a la BD; la caché es solo optimización.
	}
	bal, err := p.balances.Get(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	if p.cache != nil {
		_ = p.cache.Set(ctx, key, bal.Quantity, p.cacheTTL)
	}
	return bal.Quantity, nil
}

// ListByWarehouse saldos materializados de una bodega (paginado).
func (p *BalanceProjector) ListByWarehouse(ctx context.Context, warehouseID string, limit, offset int) ([]*entity.Balance, error) {
	return p.balances.ListByWarehouse(ctx, warehouseID, limit, offset)
}

// Replay re-suma el log completo para la clave, ignorando la materialización.
// Es el valor de referencia contra el que se reconcilia el saldo.
func (p *BalanceProjector) Replay(ctx context.Context, productID, warehouseID, batchID string) (decimal.Decimal, error) {
	return p.movements.SumByKey(ctx, entity.BalanceKey{ProductID: productID, WarehouseID: warehouseID, BatchID: batchID})
}

// MovementQuery consulta de solo lectura del log (auditoría). No existe
// ningún punto de entrada de borrado o actualización.
type MovementQuery struct {
	movements repository.MovementRepository
}

// NewMovementQuery construye la consulta.
func NewMovementQuery(movements repository.MovementRepository) *MovementQuery {
	return &MovementQuery{movements: movements}
}

// List página de movimientos según filtro, más el total.
func (q *MovementQuery) List(ctx context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, int, error) {
	movs, err := q.movements.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := q.movements.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return movs, total, nil
}
