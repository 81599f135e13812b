package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invorya/ledger-api/internal/domain/entity"
)

// MovementFilter filtros del listado de movimientos (auditoría).
type MovementFilter struct {
	ProductID   string
	WarehouseID string
	BatchID     string
	Kind        entity.MovementKind
	From        *time.Time // sobre RecordedAt
	To          *time.Time
}

// MovementRepository puerto de persistencia del log de movimientos.
// Deliberadamente append-only: no existen métodos de actualización ni borrado;
// esa es la garantía de auditoría en la frontera de la API.
type MovementRepository interface {
	Create(ctx context.Context, m *entity.StockMovement) error
	GetByID(ctx context.Context, id string) (*entity.StockMovement, error)
	List(ctx context.Context, f MovementFilter, limit, offset int) ([]*entity.StockMovement, error)
	Count(ctx context.Context, f MovementFilter) (int, error)

	// SumByKey re-suma el log completo para una clave (cantidades con signo).
	// Es el oráculo de reconciliación contra el saldo materializado.
	SumByKey(ctx context.Context, key entity.BalanceKey) (decimal.Decimal, error)

	// ListKeys claves distintas presentes en el log (para reconciliación).
	ListKeys(ctx context.Context) ([]entity.BalanceKey, error)

	// NextMovementNumber consume el consecutivo y devuelve el número legible
	// (MOV-000123). La unicidad es contrato, no solo presentación.
	NextMovementNumber(ctx context.Context) (string, error)
}
