package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceKey identifica un saldo: producto + bodega + lote (lote vacío para
// productos sin seguimiento por lote).
type BalanceKey struct {
	ProductID   string
	WarehouseID string
	BatchID     string
}

// String forma canónica de la clave; también define el orden global de
// adquisición de bloqueos multi-clave (traslados).
func (k BalanceKey) String() string {
	return k.ProductID + "|" + k.WarehouseID + "|" + k.BatchID
}

// Balance saldo materializado de una clave. Derivado de los movimientos:
// siempre reconciliable re-sumando el log completo; nunca una segunda fuente
// de verdad.
type Balance struct {
	ProductID   string
	WarehouseID string
	BatchID     string
	Quantity    decimal.Decimal
	UpdatedAt   time.Time
}

// Key devuelve la clave del saldo.
func (b *Balance) Key() BalanceKey {
	return BalanceKey{ProductID: b.ProductID, WarehouseID: b.WarehouseID, BatchID: b.BatchID}
}
