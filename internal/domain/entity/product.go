package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product maestro de productos. Colaborador externo del núcleo: aquí solo se
// consultan existencia y atributos (tarifa, costo promedio, lote); el CRUD
// vive en la capa excluida.
type Product struct {
	ID           string
	SKU          string
	Name         string
	Price        decimal.Decimal // precio de lista
	Cost         decimal.Decimal // costo promedio ponderado, mantenido por los RECEIPT
	TaxRate      decimal.Decimal // fracción, ej. 0.19
	TrackBatches bool            // si es true, todo movimiento/saldo lleva lote
	Active       bool
	CreatedAt    time.Time
}
