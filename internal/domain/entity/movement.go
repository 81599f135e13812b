package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind tipo de movimiento de stock. El signo del movimiento lo da el
// tipo, nunca la cantidad: Quantity es siempre positiva.
type MovementKind string

const (
	KindReceipt       MovementKind = "RECEIPT"        // entrada por GRN aprobado
	KindIssue         MovementKind = "ISSUE"          // salida por venta
	KindTransferOut   MovementKind = "TRANSFER_OUT"   // pata de salida de un traslado
	KindTransferIn    MovementKind = "TRANSFER_IN"    // pata de entrada de un traslado
	KindAdjustmentIn  MovementKind = "ADJUSTMENT_IN"  // ajuste positivo
	KindAdjustmentOut MovementKind = "ADJUSTMENT_OUT" // ajuste negativo
)

// Direction devuelve +1 para movimientos que suman stock y -1 para los que restan.
func (k MovementKind) Direction() int {
	switch k {
	case KindReceipt, KindTransferIn, KindAdjustmentIn:
		return 1
	case KindIssue, KindTransferOut, KindAdjustmentOut:
		return -1
	}
	return 0
}

// Valid reporta si el tipo es uno de los seis conocidos.
func (k MovementKind) Valid() bool { return k.Direction() != 0 }

// ReferenceType documento de negocio que originó un movimiento.
type ReferenceType string

const (
	RefGRN        ReferenceType = "GRN"
	RefSalesOrder ReferenceType = "SALES_ORDER"
	RefAdjustment ReferenceType = "ADJUSTMENT"
	RefTransfer   ReferenceType = "TRANSFER"
)

// StockMovement registro inmutable y append-only de stock entrando, saliendo o
// trasladándose. Una vez creado nunca se actualiza ni se borra: ni el puerto de
// persistencia ni el esquema SQL exponen un camino de mutación.
type StockMovement struct {
	ID             string
	MovementNumber string // único, legible: MOV-000123
	TransactionID  string // agrupa los movimientos de una misma operación lógica
	Kind           MovementKind
	ProductID      string
	BatchID        string // vacío salvo productos con lote
	WarehouseID    string // bodega cuyo saldo afecta este registro

	// CounterWarehouseID solo en traslados: la otra pata del par OUT/IN.
	CounterWarehouseID string

	Quantity decimal.Decimal // siempre > 0
	UnitCost decimal.Decimal // valoración al momento del movimiento

	ReferenceType ReferenceType
	ReferenceID   string

	OccurredAt time.Time // fecha de negocio (solo reportes)
	RecordedAt time.Time // orden causal; los saldos se derivan en este orden
	CreatedBy  string
}

// Signed cantidad con el signo implicado por el tipo.
func (m *StockMovement) Signed() decimal.Decimal {
	if m.Kind.Direction() < 0 {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// BalanceKey clave de saldo que afecta este movimiento.
func (m *StockMovement) BalanceKey() BalanceKey {
	return BalanceKey{ProductID: m.ProductID, WarehouseID: m.WarehouseID, BatchID: m.BatchID}
}
