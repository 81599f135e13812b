package repository

import (
	"context"

	"github.com/invorya/ledger-api/internal/domain/entity"
)

// Puertos de los documentos emisores (venta, ajuste, traslado). Los
// documentos nacen en su estado final dentro de la misma transacción que sus
// movimientos, por eso no hay métodos de transición.

// SalesOrderRepository órdenes de venta (cabecera + líneas).
type SalesOrderRepository interface {
	Create(ctx context.Context, o *entity.SalesOrder) error
	GetByID(ctx context.Context, id string) (*entity.SalesOrder, error)
	NextOrderNumber(ctx context.Context) (string, error)
}

// AdjustmentRepository documentos de ajuste.
type AdjustmentRepository interface {
	Create(ctx context.Context, a *entity.Adjustment) error
	GetByID(ctx context.Context, id string) (*entity.Adjustment, error)
	NextDocumentNumber(ctx context.Context) (string, error)
}

// TransferRepository órdenes de traslado.
type TransferRepository interface {
	Create(ctx context.Context, t *entity.TransferOrder) error
	GetByID(ctx context.Context, id string) (*entity.TransferOrder, error)
	NextDocumentNumber(ctx context.Context) (string, error)
}
