package postgres

import (
	"context"
	"errors"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invorya/ledger-api/internal/application/ledger"
	"github.com/invorya/ledger-api/internal/domain"
	"github.com/invorya/ledger-api/internal/domain/entity"
)

var _ ledger.Guard = (*AdvisoryGuard)(nil)

// AdvisoryGuard guard de concurrencia sobre pg_advisory_lock. A diferencia del
// guard en proceso, serializa entre instancias de la API que comparten la
// misma base. Los locks son de sesión, por eso cada Acquire retiene una
// conexión dedicada del pool hasta la release.
//
// Las claves se adquieren en el orden de entity.BalanceKey.String(), igual
// para todos los callers, lo que evita deadlocks entre traslados cruzados.
type AdvisoryGuard struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewAdvisoryGuard construye el guard con el timeout de adquisición.
func NewAdvisoryGuard(pool *pgxpool.Pool, timeout time.Duration) *AdvisoryGuard {
	return &AdvisoryGuard{pool: pool, timeout: timeout}
}

// lockID hash de 64 bits de la forma canónica de la clave. Colisión entre
// claves distintas solo sobre-serializa; nunca deja pasar una carrera.
func lockID(key string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int64(h.Sum64())
}

// Acquire toma todas las claves o ninguna. Al exceder el timeout libera las ya
// adquiridas y devuelve *domain.LockTimeoutError.
func (g *AdvisoryGuard) Acquire(ctx context.Context, keys ...entity.BalanceKey) (func(), error) {
	names := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		s := key.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		names = append(names, s)
	}
	sort.Strings(names)

	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return nil, &domain.TransactionError{Op: "acquire lock conn", Err: err}
	}

	lockCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	acquired := make([]int64, 0, len(names))
	releaseAll := func() {
		// Unlock con contexto propio: el ctx del caller puede estar cancelado.
		unlockCtx, unlockCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer unlockCancel()
		for i := len(acquired) - 1; i >= 0; i-- {
			_, _ = conn.Exec(unlockCtx, `SELECT pg_advisory_unlock($1)`, acquired[i])
		}
		conn.Release()
	}

	for _, name := range names {
		id := lockID(name)
		if _, err := conn.Exec(lockCtx, `SELECT pg_advisory_lock($1)`, id); err != nil {
			releaseAll()
			if errors.Is(lockCtx.Err(), context.DeadlineExceeded) {
				return nil, &domain.LockTimeoutError{Key: name, Timeout: g.timeout}
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &domain.TransactionError{Op: "advisory lock", Err: err}
		}
		acquired = append(acquired, id)
	}

	var once sync.Once
	return func() { once.Do(releaseAll) }, nil
}
