package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferOrder traslado entre bodegas. Emite un par TRANSFER_OUT (origen) y
// TRANSFER_IN (destino) con el mismo TransactionID, como unidad atómica:
// nunca como dos operaciones confirmables por separado.
type TransferOrder struct {
	ID              string
	DocumentNumber  string
	ProductID       string
	BatchID         string
	FromWarehouseID string
	ToWarehouseID   string
	Quantity        decimal.Decimal
	CreatedAt       time.Time
	CreatedBy       string
}

// SourceKey clave de saldo en la bodega origen.
func (t *TransferOrder) SourceKey() BalanceKey {
	return BalanceKey{ProductID: t.ProductID, WarehouseID: t.FromWarehouseID, BatchID: t.BatchID}
}

// DestinationKey clave de saldo en la bodega destino.
func (t *TransferOrder) DestinationKey() BalanceKey {
	return BalanceKey{ProductID: t.ProductID, WarehouseID: t.ToWarehouseID, BatchID: t.BatchID}
}
