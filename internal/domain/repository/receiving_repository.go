package repository

import (
	"context"
	"time"

	"github.com/invorya/ledger-api/internal/domain/entity"
)

// ReceivingRepository puerto de persistencia de GRNs.
type ReceivingRepository interface {
	Create(ctx context.Context, doc *entity.ReceivingDocument) error
	GetByID(ctx context.Context, id string) (*entity.ReceivingDocument, error)
	List(ctx context.Context, status entity.GRNStatus, limit, offset int) ([]*entity.ReceivingDocument, error)

	// Approve ejecuta la transición DRAFT→APPROVED de forma condicional
	// (UPDATE ... WHERE status = 'DRAFT'). Si el documento no existe devuelve
	// ErrNotFound; si existe en otro estado, *InvalidStateError. Esta es la
	// barrera de idempotencia contra la doble aprobación concurrente.
	Approve(ctx context.Context, id, by string, at time.Time) error

	// Cancel ejecuta DRAFT→CANCELLED con la misma semántica condicional.
	Cancel(ctx context.Context, id, by string, at time.Time) error

	NextDocumentNumber(ctx context.Context) (string, error)
}
