package entity

import "time"

// Maestros consumidos solo para chequeos de existencia (colaboradores
// externos; su CRUD está fuera del núcleo).

// Warehouse bodega.
type Warehouse struct {
	ID        string
	Name      string
	Address   string
	Active    bool
	CreatedAt time.Time
}

// Supplier proveedor (origen de los GRN).
type Supplier struct {
	ID        string
	Name      string
	TaxID     string
	Active    bool
	CreatedAt time.Time
}

// Customer cliente (destino de las órdenes de venta).
type Customer struct {
	ID        string
	Name      string
	TaxID     string
	Active    bool
	CreatedAt time.Time
}
