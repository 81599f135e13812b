package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estado de la orden de venta. La creación valida saldo y emite los ISSUE en
// la misma unidad atómica, por lo que la orden nace CONFIRMED.
type SalesOrderStatus string

const SalesOrderStatusConfirmed SalesOrderStatus = "CONFIRMED"

// SalesLine línea de venta. TaxRate se congela desde el maestro de productos
// al crear la orden: cambios posteriores de tarifa no alteran órdenes
// históricas.
type SalesLine struct {
	ID        string
	ProductID string
	BatchID   string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	TaxRate   decimal.Decimal // fracción, ej. 0.19
	LineNet   decimal.Decimal
	LineTax   decimal.Decimal
	LineTotal decimal.Decimal
}

// SalesOrder documento de venta; al confirmarse descuenta stock vía ISSUE.
type SalesOrder struct {
	ID          string
	OrderNumber string
	CustomerID  string
	WarehouseID string
	Status      SalesOrderStatus
	Lines       []SalesLine
	NetTotal    decimal.Decimal
	TaxTotal    decimal.Decimal
	GrandTotal  decimal.Decimal
	CreatedAt   time.Time
	CreatedBy   string
}

// ComputeTotals calcula neto, impuesto y total por línea y los totales de la
// orden a partir de cantidad, precio y la tarifa congelada.
func (o *SalesOrder) ComputeTotals() {
	net := decimal.Zero
	tax := decimal.Zero
	for i := range o.Lines {
		l := &o.Lines[i]
		l.LineNet = l.Quantity.Mul(l.UnitPrice)
		l.LineTax = l.LineNet.Mul(l.TaxRate)
		l.LineTotal = l.LineNet.Add(l.LineTax)
		net = net.Add(l.LineNet)
		tax = tax.Add(l.LineTax)
	}
	o.NetTotal = net
	o.TaxTotal = tax
	o.GrandTotal = net.Add(tax)
}

// BalanceKeys claves de saldo afectadas por la orden (sin duplicados).
func (o *SalesOrder) BalanceKeys() []BalanceKey {
	seen := make(map[BalanceKey]struct{}, len(o.Lines))
	keys := make([]BalanceKey, 0, len(o.Lines))
	for _, l := range o.Lines {
		k := BalanceKey{ProductID: l.ProductID, WarehouseID: o.WarehouseID, BatchID: l.BatchID}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}
