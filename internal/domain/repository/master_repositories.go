package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/invorya/ledger-api/internal/domain/entity"
)

// Puertos de maestros. Colaboradores externos del núcleo: existencia y
// atributos de producto; nada de lógica de negocio.

// ProductRepository maestro de productos.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)

	// UpdateCost actualiza el costo promedio ponderado (mantenido por los
	// RECEIPT dentro de su misma transacción).
	UpdateCost(ctx context.Context, id string, cost decimal.Decimal) error
}

// WarehouseRepository maestro de bodegas (solo existencia).
type WarehouseRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Warehouse, error)
}

// SupplierRepository maestro de proveedores (solo existencia).
type SupplierRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Supplier, error)
}

// CustomerRepository maestro de clientes (solo existencia).
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
}
