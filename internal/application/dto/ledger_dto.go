package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/invorya/ledger-api/internal/application/ledger"
	"github.com/invorya/ledger-api/internal/domain/entity"
)

// DTOs del motor de inventario. Las cantidades y montos entran como números
// JSON (decimal exacto, sin pasar por float64) y salen como strings decimales.

// GRNItemRequest línea de un GRN a crear.
type GRNItemRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	BatchID   string          `json:"batch_id"`
	Quantity  decimal.Decimal `json:"quantity" validate:"required"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// CreateGRNRequest creación de GRN (nace en DRAFT).
type CreateGRNRequest struct {
	SupplierID  string           `json:"supplier_id" validate:"required"`
	WarehouseID string           `json:"warehouse_id" validate:"required"`
	Items       []GRNItemRequest `json:"items" validate:"required,min=1"`
}

// ToInput convierte la request a la entrada del caso de uso.
func (r CreateGRNRequest) ToInput() ledger.CreateGRNInput {
	items := make([]ledger.GRNItemInput, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, ledger.GRNItemInput{
			ProductID: it.ProductID,
			BatchID:   it.BatchID,
			Quantity:  it.Quantity,
			UnitCost:  it.UnitCost,
		})
	}
	return ledger.CreateGRNInput{SupplierID: r.SupplierID, WarehouseID: r.WarehouseID, Items: items}
}

// GRNItemDTO línea de GRN en respuestas.
type GRNItemDTO struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	BatchID   string `json:"batch_id,omitempty"`
	Quantity  string `json:"quantity"`
	UnitCost  string `json:"unit_cost"`
}

// GRNDTO GRN en respuestas.
type GRNDTO struct {
	ID             string       `json:"id"`
	DocumentNumber string       `json:"document_number"`
	SupplierID     string       `json:"supplier_id"`
	WarehouseID    string       `json:"warehouse_id"`
	Status         string       `json:"status"`
	Items          []GRNItemDTO `json:"items,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	CreatedBy      string       `json:"created_by"`
	ApprovedAt     *time.Time   `json:"approved_at,omitempty"`
	ApprovedBy     string       `json:"approved_by,omitempty"`
	CancelledAt    *time.Time   `json:"cancelled_at,omitempty"`
	CancelledBy    string       `json:"cancelled_by,omitempty"`
}

// ToGRNDTO mapea la entidad a respuesta.
func ToGRNDTO(d *entity.ReceivingDocument) GRNDTO {
	out := GRNDTO{
		ID:             d.ID,
		DocumentNumber: d.DocumentNumber,
		SupplierID:     d.SupplierID,
		WarehouseID:    d.WarehouseID,
		Status:         string(d.Status),
		CreatedAt:      d.CreatedAt,
		CreatedBy:      d.CreatedBy,
		ApprovedAt:     d.ApprovedAt,
		ApprovedBy:     d.ApprovedBy,
		CancelledAt:    d.CancelledAt,
		CancelledBy:    d.CancelledBy,
	}
	for _, it := range d.Items {
		out.Items = append(out.Items, GRNItemDTO{
			ID:        it.ID,
			ProductID: it.ProductID,
			BatchID:   it.BatchID,
			Quantity:  it.Quantity.String(),
			UnitCost:  it.UnitCost.String(),
		})
	}
	return out
}

// SalesLineRequest línea de venta. unit_price en cero toma el precio de lista.
type SalesLineRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	BatchID   string          `json:"batch_id"`
	Quantity  decimal.Decimal `json:"quantity" validate:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateSalesOrderRequest creación de orden de venta (nace CONFIRMED).
type CreateSalesOrderRequest struct {
	CustomerID  string             `json:"customer_id" validate:"required"`
	WarehouseID string             `json:"warehouse_id" validate:"required"`
	Lines       []SalesLineRequest `json:"lines" validate:"required,min=1"`
}

// ToInput convierte la request a la entrada del caso de uso.
func (r CreateSalesOrderRequest) ToInput() ledger.CreateSalesOrderInput {
	lines := make([]ledger.SalesLineInput, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, ledger.SalesLineInput{
			ProductID: l.ProductID,
			BatchID:   l.BatchID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return ledger.CreateSalesOrderInput{CustomerID: r.CustomerID, WarehouseID: r.WarehouseID, Lines: lines}
}

// SalesLineDTO línea de venta en respuestas.
type SalesLineDTO struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	BatchID   string `json:"batch_id,omitempty"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	TaxRate   string `json:"tax_rate"`
	LineNet   string `json:"line_net"`
	LineTax   string `json:"line_tax"`
	LineTotal string `json:"line_total"`
}

// SalesOrderDTO orden de venta en respuestas.
type SalesOrderDTO struct {
	ID          string         `json:"id"`
	OrderNumber string         `json:"order_number"`
	CustomerID  string         `json:"customer_id"`
	WarehouseID string         `json:"warehouse_id"`
	Status      string         `json:"status"`
	Lines       []SalesLineDTO `json:"lines"`
	NetTotal    string         `json:"net_total"`
	TaxTotal    string         `json:"tax_total"`
	GrandTotal  string         `json:"grand_total"`
	CreatedAt   time.Time      `json:"created_at"`
	CreatedBy   string         `json:"created_by"`
}

// ToSalesOrderDTO mapea la entidad a respuesta.
func ToSalesOrderDTO(o *entity.SalesOrder) SalesOrderDTO {
	out := SalesOrderDTO{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		WarehouseID: o.WarehouseID,
		Status:      string(o.Status),
		NetTotal:    o.NetTotal.String(),
		TaxTotal:    o.TaxTotal.String(),
		GrandTotal:  o.GrandTotal.String(),
		CreatedAt:   o.CreatedAt,
		CreatedBy:   o.CreatedBy,
	}
	for _, l := range o.Lines {
		out.Lines = append(out.Lines, SalesLineDTO{
			ID:        l.ID,
			ProductID: l.ProductID,
			BatchID:   l.BatchID,
			Quantity:  l.Quantity.String(),
			UnitPrice: l.UnitPrice.String(),
			TaxRate:   l.TaxRate.String(),
			LineNet:   l.LineNet.String(),
			LineTax:   l.LineTax.String(),
			LineTotal: l.LineTotal.String(),
		})
	}
	return out
}

// AdjustmentRequest ajuste de inventario (delta con signo, nunca cero).
type AdjustmentRequest struct {
	ProductID   string          `json:"product_id" validate:"required"`
	WarehouseID string          `json:"warehouse_id" validate:"required"`
	BatchID     string          `json:"batch_id"`
	Delta       decimal.Decimal `json:"delta" validate:"required"`
	Reason      string          `json:"reason" validate:"required"`
}

// ToInput convierte la request a la entrada del caso de uso.
func (r AdjustmentRequest) ToInput() ledger.AdjustmentInput {
	return ledger.AdjustmentInput{
		ProductID:   r.ProductID,
		WarehouseID: r.WarehouseID,
		BatchID:     r.BatchID,
		Delta:       r.Delta,
		Reason:      r.Reason,
	}
}

// AdjustmentDTO ajuste en respuestas.
type AdjustmentDTO struct {
	ID             string    `json:"id"`
	DocumentNumber string    `json:"document_number"`
	ProductID      string    `json:"product_id"`
	WarehouseID    string    `json:"warehouse_id"`
	BatchID        string    `json:"batch_id,omitempty"`
	Delta          string    `json:"delta"`
	Reason         string    `json:"reason"`
	CreatedAt      time.Time `json:"created_at"`
	CreatedBy      string    `json:"created_by"`
}

// ToAdjustmentDTO mapea la entidad a respuesta.
func ToAdjustmentDTO(a *entity.Adjustment) AdjustmentDTO {
	return AdjustmentDTO{
		ID:             a.ID,
		DocumentNumber: a.DocumentNumber,
		ProductID:      a.ProductID,
		WarehouseID:    a.WarehouseID,
		BatchID:        a.BatchID,
		Delta:          a.Delta.String(),
		Reason:         a.Reason,
		CreatedAt:      a.CreatedAt,
		CreatedBy:      a.CreatedBy,
	}
}

// TransferRequest traslado entre bodegas.
type TransferRequest struct {
	ProductID       string          `json:"product_id" validate:"required"`
	BatchID         string          `json:"batch_id"`
	FromWarehouseID string          `json:"from_warehouse_id" validate:"required"`
	ToWarehouseID   string          `json:"to_warehouse_id" validate:"required"`
	Quantity        decimal.Decimal `json:"quantity" validate:"required"`
}

// ToInput convierte la request a la entrada del caso de uso.
func (r TransferRequest) ToInput() ledger.TransferInput {
	return ledger.TransferInput{
		ProductID:       r.ProductID,
		BatchID:         r.BatchID,
		FromWarehouseID: r.FromWarehouseID,
		ToWarehouseID:   r.ToWarehouseID,
		Quantity:        r.Quantity,
	}
}

// TransferDTO traslado en respuestas.
type TransferDTO struct {
	ID              string    `json:"id"`
	DocumentNumber  string    `json:"document_number"`
	ProductID       string    `json:"product_id"`
	BatchID         string    `json:"batch_id,omitempty"`
	FromWarehouseID string    `json:"from_warehouse_id"`
	ToWarehouseID   string    `json:"to_warehouse_id"`
	Quantity        string    `json:"quantity"`
	CreatedAt       time.Time `json:"created_at"`
	CreatedBy       string    `json:"created_by"`
}

// ToTransferDTO mapea la entidad a respuesta.
func ToTransferDTO(t *entity.TransferOrder) TransferDTO {
	return TransferDTO{
		ID:              t.ID,
		DocumentNumber:  t.DocumentNumber,
		ProductID:       t.ProductID,
		BatchID:         t.BatchID,
		FromWarehouseID: t.FromWarehouseID,
		ToWarehouseID:   t.ToWarehouseID,
		Quantity:        t.Quantity.String(),
		CreatedAt:       t.CreatedAt,
		CreatedBy:       t.CreatedBy,
	}
}

// BalanceDTO saldo en respuestas.
type BalanceDTO struct {
	ProductID   string    `json:"product_id"`
	WarehouseID string    `json:"warehouse_id"`
	BatchID     string    `json:"batch_id,omitempty"`
	Quantity    string    `json:"quantity"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToBalanceDTO mapea la entidad a respuesta.
func ToBalanceDTO(b *entity.Balance) BalanceDTO {
	return BalanceDTO{
		ProductID:   b.ProductID,
		WarehouseID: b.WarehouseID,
		BatchID:     b.BatchID,
		Quantity:    b.Quantity.String(),
		UpdatedAt:   b.UpdatedAt,
	}
}

// MovementDTO movimiento del log en respuestas (solo lectura).
type MovementDTO struct {
	ID                 string    `json:"id"`
	MovementNumber     string    `json:"movement_number"`
	TransactionID      string    `json:"transaction_id"`
	Kind               string    `json:"kind"`
	ProductID          string    `json:"product_id"`
	BatchID            string    `json:"batch_id,omitempty"`
	WarehouseID        string    `json:"warehouse_id"`
	CounterWarehouseID string    `json:"counter_warehouse_id,omitempty"`
	Quantity           string    `json:"quantity"`
	UnitCost           string    `json:"unit_cost"`
	ReferenceType      string    `json:"reference_type"`
	ReferenceID        string    `json:"reference_id"`
	OccurredAt         time.Time `json:"occurred_at"`
	RecordedAt         time.Time `json:"recorded_at"`
	CreatedBy          string    `json:"created_by"`
}

// ToMovementDTO mapea la entidad a respuesta.
func ToMovementDTO(m *entity.StockMovement) MovementDTO {
	return MovementDTO{
		ID:                 m.ID,
		MovementNumber:     m.MovementNumber,
		TransactionID:      m.TransactionID,
		Kind:               string(m.Kind),
		ProductID:          m.ProductID,
		BatchID:            m.BatchID,
		WarehouseID:        m.WarehouseID,
		CounterWarehouseID: m.CounterWarehouseID,
		Quantity:           m.Quantity.String(),
		UnitCost:           m.UnitCost.String(),
		ReferenceType:      string(m.ReferenceType),
		ReferenceID:        m.ReferenceID,
		OccurredAt:         m.OccurredAt,
		RecordedAt:         m.RecordedAt,
		CreatedBy:          m.CreatedBy,
	}
}
