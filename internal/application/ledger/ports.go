package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invorya/ledger-api/internal/domain/entity"
	"github.com/invorya/ledger-api/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción de BD. Los recibe el
// callback de TxRunner.Run; todo lo escrito a través de ellos confirma o se
// revierte junto.
type TxRepos struct {
	Movements   repository.MovementRepository
	Balances    repository.BalanceRepository
	Receiving   repository.ReceivingRepository
	Sales       repository.SalesOrderRepository
	Adjustments repository.AdjustmentRepository
	Transfers   repository.TransferRepository
	Products    repository.ProductRepository
}

// TxRunner ejecuta fn dentro de una transacción: Commit si devuelve nil,
// Rollback si no. Es la primitiva de unidad atómica del motor; los errores de
// begin/commit llegan como *domain.TransactionError.
type TxRunner interface {
	Run(ctx context.Context, fn func(r TxRepos) error) error
}

// Guard serializa operaciones concurrentes sobre las mismas claves de saldo
// para que leer-saldo-y-anexar sea libre de carreras. Acquire bloquea con
// timeout acotado (*domain.LockTimeoutError al excederlo) y adquiere las
// claves en el orden global definido por BalanceKey.String(), lo que evita
// deadlocks entre traslados en direcciones opuestas. La release devuelta debe
// ejecutarse en todo camino de salida (defer).
type Guard interface {
	Acquire(ctx context.Context, keys ...entity.BalanceKey) (release func(), err error)
}

// BalanceCache caché de lectura para el camino externo de consulta de saldos.
// Nunca se consulta dentro de un workflow: ahí la fila bloqueada en la
// transacción es la autoridad.
type BalanceCache interface {
	Get(ctx context.Context, key entity.BalanceKey) (decimal.Decimal, bool, error)
	Set(ctx context.Context, key entity.BalanceKey, qty decimal.Decimal, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...entity.BalanceKey) error
}
