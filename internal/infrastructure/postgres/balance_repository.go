package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/invorya/ledger-api/internal/domain/entity"
	"github.com/invorya/ledger-api/internal/domain/repository"
)

var _ repository.BalanceRepository = (*BalanceRepo)(nil)

// BalanceRepo adaptador PostgreSQL del saldo materializado.
type BalanceRepo struct {
	q Querier
}

// NewBalanceRepository construye el adaptador.
func NewBalanceRepository(q Querier) *BalanceRepo {
	return &BalanceRepo{q: q}
}

func scanBalance(row pgx.Row) (*entity.Balance, error) {
	var b entity.Balance
	if err := row.Scan(&b.ProductID, &b.WarehouseID, &b.BatchID, &b.Quantity, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// Get devuelve el saldo de la clave; si no hay fila devuelve saldo cero.
func (r *BalanceRepo) Get(ctx context.Context, key entity.BalanceKey) (*entity.Balance, error) {
	query := `
		SELECT product_id, warehouse_id, batch_id, quantity, updated_at
		FROM stock_balances
		WHERE product_id = $1 AND warehouse_id = $2 AND batch_id = $3`
	b, err := scanBalance(r.q.QueryRow(ctx, query, key.ProductID, key.WarehouseID, key.BatchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zeroBalance(key), nil
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return b, nil
}

// GetForUpdate bloquea la fila de saldo dentro de la transacción en curso.
// Inserta la fila en cero primero (ON CONFLICT DO NOTHING) para que el FOR
// UPDATE tenga fila que bloquear aun en la primera entrada de la clave.
func (r *BalanceRepo) GetForUpdate(ctx context.Context, key entity.BalanceKey) (*entity.Balance, error) {
	seed := `
		INSERT INTO stock_balances (product_id, warehouse_id, batch_id, quantity, updated_at)
		VALUES ($1, $2, $3, 0, now())
		ON CONFLICT (product_id, warehouse_id, batch_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, seed, key.ProductID, key.WarehouseID, key.BatchID); err != nil {
		return nil, fmt.Errorf("seed balance row: %w", err)
	}

	query := `
		SELECT product_id, warehouse_id, batch_id, quantity, updated_at
		FROM stock_balances
		WHERE product_id = $1 AND warehouse_id = $2 AND batch_id = $3
		FOR UPDATE`
	b, err := scanBalance(r.q.QueryRow(ctx, query, key.ProductID, key.WarehouseID, key.BatchID))
	if err != nil {
		return nil, fmt.Errorf("lock balance: %w", err)
	}
	return b, nil
}

// Upsert escribe el saldo de la clave.
func (r *BalanceRepo) Upsert(ctx context.Context, b *entity.Balance) error {
	query := `
		INSERT INTO stock_balances (product_id, warehouse_id, batch_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (product_id, warehouse_id, batch_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	if _, err := r.q.Exec(ctx, query, b.ProductID, b.WarehouseID, b.BatchID, b.Quantity); err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}
	return nil
}

// ListByWarehouse saldos de una bodega, ordenados por producto y lote.
func (r *BalanceRepo) ListByWarehouse(ctx context.Context, warehouseID string, limit, offset int) ([]*entity.Balance, error) {
	query := `
		SELECT product_id, warehouse_id, batch_id, quantity, updated_at
		FROM stock_balances
		WHERE warehouse_id = $1
		ORDER BY product_id, batch_id
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, warehouseID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()
	return collectBalances(rows)
}

// ListAll todas las filas materializadas (para reconciliación).
func (r *BalanceRepo) ListAll(ctx context.Context) ([]*entity.Balance, error) {
	query := `
		SELECT product_id, warehouse_id, batch_id, quantity, updated_at
		FROM stock_balances
		ORDER BY product_id, warehouse_id, batch_id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all balances: %w", err)
	}
	defer rows.Close()
	return collectBalances(rows)
}

func collectBalances(rows pgx.Rows) ([]*entity.Balance, error) {
	var list []*entity.Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

func zeroBalance(key entity.BalanceKey) *entity.Balance {
	return &entity.Balance{ProductID: key.ProductID, WarehouseID: key.WarehouseID, BatchID: key.BatchID}
}
