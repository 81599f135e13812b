package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/invorya/ledger-api/internal/domain"
)

// Estados del GRN (Goods Received Note). Enum cerrado: las transiciones
// válidas son DRAFT→APPROVED y DRAFT→CANCELLED; ambos finales.
type GRNStatus string

const (
	GRNStatusDraft     GRNStatus = "DRAFT"
	GRNStatusApproved  GRNStatus = "APPROVED"
	GRNStatusCancelled GRNStatus = "CANCELLED"
)

// ReceivingItem línea de un GRN.
type ReceivingItem struct {
	ID        string
	ProductID string
	BatchID   string // obligatorio si el producto lleva lote
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
}

// ReceivingDocument (GRN) es el único documento que origina stock nuevo.
// Solo la aprobación emite movimientos RECEIPT, y solo una vez.
type ReceivingDocument struct {
	ID             string
	DocumentNumber string
	SupplierID     string
	WarehouseID    string
	Status         GRNStatus
	Items          []ReceivingItem
	CreatedAt      time.Time
	CreatedBy      string
	ApprovedAt     *time.Time
	ApprovedBy     string
	CancelledAt    *time.Time
	CancelledBy    string
}

// CanApprove valida la transición DRAFT→APPROVED sin aplicarla. Rechazar
// status ≠ DRAFT es lo que impide el doble posteo por re-aprobación.
func (d *ReceivingDocument) CanApprove() error {
	if d.Status != GRNStatusDraft {
		return &domain.InvalidStateError{Document: "grn", ID: d.ID, Current: string(d.Status), Attempted: "approve"}
	}
	if len(d.Items) == 0 {
		return domain.ErrEmptyDocument
	}
	return nil
}

// Approve aplica la transición DRAFT→APPROVED.
func (d *ReceivingDocument) Approve(by string, at time.Time) error {
	if err := d.CanApprove(); err != nil {
		return err
	}
	d.Status = GRNStatusApproved
	d.ApprovedAt = &at
	d.ApprovedBy = by
	return nil
}

// Cancel aplica DRAFT→CANCELLED. No emite movimientos.
func (d *ReceivingDocument) Cancel(by string, at time.Time) error {
	if d.Status != GRNStatusDraft {
		return &domain.InvalidStateError{Document: "grn", ID: d.ID, Current: string(d.Status), Attempted: "cancel"}
	}
	d.Status = GRNStatusCancelled
	d.CancelledAt = &at
	d.CancelledBy = by
	return nil
}

// BalanceKeys claves de saldo que tocaría la aprobación (sin duplicados).
func (d *ReceivingDocument) BalanceKeys() []BalanceKey {
	seen := make(map[BalanceKey]struct{}, len(d.Items))
	keys := make([]BalanceKey, 0, len(d.Items))
	for _, it := range d.Items {
		k := BalanceKey{ProductID: it.ProductID, WarehouseID: d.WarehouseID, BatchID: it.BatchID}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}
