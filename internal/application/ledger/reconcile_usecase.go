package ledger

import (
	"context"
	"time"

	"github.com/invorya/ledger-api/internal/domain/entity"
	"github.com/invorya/ledger-api/internal/domain/repository"
	"github.com/invorya/ledger-api/pkg/logger"
)

// Reconciler red de seguridad de consistencia: re-suma el log por clave y lo
// compara contra el saldo materializado. Cualquier deriva se reporta como
// evento integrity_warning (no fatal, alerta operacional) y se corrige
// reescribiendo la fila materializada con el valor re-sumado: el log siempre
// gana.
type Reconciler struct {
	movements repository.MovementRepository
	balances  repository.BalanceRepository
	log       *logger.Logger
}

// NewReconciler construye el reconciliador.
func NewReconciler(movements repository.MovementRepository, balances repository.BalanceRepository, log *logger.Logger) *Reconciler {
	return &Reconciler{movements: movements, balances: balances, log: log}
}

// Run una pasada completa. Devuelve la cantidad de claves con deriva.
func (rc *Reconciler) Run(ctx context.Context) (int, error) {
	keys := make(map[entity.BalanceKey]struct{})

	logKeys, err := rc.movements.ListKeys(ctx)
	if err != nil {
		return 0, err
	}
	for _, k := range logKeys {
		keys[k] = struct{}{}
	}
	// También filas materializadas sin movimientos (no debería pasar, pero la
	// reconciliación existe justo para lo que no debería pasar).
	rows, err := rc.balances.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	for _, b := range rows {
		keys[b.Key()] = struct{}{}
	}

	drift := 0
	for key := range keys {
		replayed, err := rc.movements.SumByKey(ctx, key)
		if err != nil {
			return drift, err
		}
		bal, err := rc.balances.Get(ctx, key)
		if err != nil {
			return drift, err
		}
		if bal.Quantity.Equal(replayed) {
			continue
		}
		drift++
		rc.log.Warn().
			Str("event", "integrity_warning").
			Str("product_id", key.ProductID).
			Str("warehouse_id", key.WarehouseID).
			Str("batch_id", key.BatchID).
			Str("materialized", bal.Quantity.String()).
			Str("replayed", replayed.String()).
			Msg("saldo materializado difiere del log; corrigiendo")

		bal.Quantity = replayed
		bal.UpdatedAt = time.Now()
		if err := rc.balances.Upsert(ctx, bal); err != nil {
			return drift, err
		}
	}
	return drift, nil
}

// RunPeriodically ejecuta Run cada interval hasta que el contexto se cancele.
// Un solo hilo es suficiente.
func (rc *Reconciler) RunPeriodically(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if drift, err := rc.Run(ctx); err != nil {
				rc.log.Error().Err(err).Msg("reconciliación fallida")
			} else if drift > 0 {
				rc.log.Warn().Int("keys_corrected", drift).Msg("reconciliación corrigió derivas")
			}
		}
	}
}
