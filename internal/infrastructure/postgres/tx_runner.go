package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invorya/ledger-api/internal/application/ledger"
	"github.com/invorya/ledger-api/internal/domain"
)

// Ensure TxRunner implements ledger.TxRunner.
var _ ledger.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL con repos
// atados a la tx. Es la unidad atómica del motor: un GRN de 5 ítems escribe
// sus 5 movimientos, el saldo y el estado del documento aquí dentro, o nada.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace
// Commit o Rollback. Fallas de begin/commit salen como
// *domain.TransactionError: el caller puede asumir cero efecto parcial.
func (r *TxRunner) Run(ctx context.Context, fn func(repos ledger.TxRepos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return &domain.TransactionError{Op: "begin", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repos := ledger.TxRepos{
		Movements:   NewMovementRepository(tx),
		Balances:    NewBalanceRepository(tx),
		Receiving:   NewReceivingRepository(tx),
		Sales:       NewSalesOrderRepository(tx),
		Adjustments: NewAdjustmentRepository(tx),
		Transfers:   NewTransferRepository(tx),
		Products:    NewProductRepository(tx),
	}

	if err := fn(repos); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return &domain.TransactionError{Op: "commit", Err: err}
	}
	return nil
}
