package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Adjustment documento de ajuste de inventario. Delta positivo emite
// ADJUSTMENT_IN; negativo emite ADJUSTMENT_OUT con la misma validación de
// stock que una venta.
type Adjustment struct {
	ID             string
	DocumentNumber string
	ProductID      string
	WarehouseID    string
	BatchID        string
	Delta          decimal.Decimal // con signo; nunca cero
	Reason         string
	CreatedAt      time.Time
	CreatedBy      string
}

// Kind tipo de movimiento que corresponde al signo del delta.
func (a *Adjustment) Kind() MovementKind {
	if a.Delta.IsNegative() {
		return KindAdjustmentOut
	}
	return KindAdjustmentIn
}

// BalanceKey clave de saldo afectada.
func (a *Adjustment) BalanceKey() BalanceKey {
	return BalanceKey{ProductID: a.ProductID, WarehouseID: a.WarehouseID, BatchID: a.BatchID}
}
