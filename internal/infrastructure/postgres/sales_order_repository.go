package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/invorya/ledger-api/internal/domain/entity"
	"github.com/invorya/ledger-api/internal/domain/repository"
)

var _ repository.SalesOrderRepository = (*SalesOrderRepo)(nil)

// SalesOrderRepo adaptador PostgreSQL de órdenes de venta (cabecera + líneas).
type SalesOrderRepo struct {
	q Querier
}

// NewSalesOrderRepository construye el adaptador.
func NewSalesOrderRepository(q Querier) *SalesOrderRepo {
	return &SalesOrderRepo{q: q}
}

// Create persiste cabecera y líneas con los montos ya calculados.
func (r *SalesOrderRepo) Create(ctx context.Context, o *entity.SalesOrder) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	header := `
		INSERT INTO sales_orders (id, order_number, customer_id, warehouse_id, status,
			net_total, tax_total, grand_total, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, header,
		o.ID, o.OrderNumber, o.CustomerID, o.WarehouseID, string(o.Status),
		o.NetTotal, o.TaxTotal, o.GrandTotal, o.CreatedAt, o.CreatedBy)
	if err != nil {
		return fmt.Errorf("create sales order: %w", err)
	}

	line := `
		INSERT INTO sales_order_lines (id, order_id, product_id, batch_id, quantity,
			unit_price, tax_rate, line_net, line_tax, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for i := range o.Lines {
		l := &o.Lines[i]
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		_, err := r.q.Exec(ctx, line,
			l.ID, o.ID, l.ProductID, l.BatchID, l.Quantity,
			l.UnitPrice, l.TaxRate, l.LineNet, l.LineTax, l.LineTotal)
		if err != nil {
			return fmt.Errorf("create sales line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la orden con sus líneas; nil si no existe.
func (r *SalesOrderRepo) GetByID(ctx context.Context, id string) (*entity.SalesOrder, error) {
	query := `
		SELECT id, order_number, customer_id, warehouse_id, status,
			net_total, tax_total, grand_total, created_at, created_by
		FROM sales_orders WHERE id = $1`
	var o entity.SalesOrder
	var status string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.WarehouseID, &status,
		&o.NetTotal, &o.TaxTotal, &o.GrandTotal, &o.CreatedAt, &o.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sales order: %w", err)
	}
	o.Status = entity.SalesOrderStatus(status)

	lines := `
		SELECT id, product_id, batch_id, quantity, unit_price, tax_rate,
			line_net, line_tax, line_total
		FROM sales_order_lines WHERE order_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, lines, id)
	if err != nil {
		return nil, fmt.Errorf("load sales lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.SalesLine
		err := rows.Scan(&l.ID, &l.ProductID, &l.BatchID, &l.Quantity, &l.UnitPrice,
			&l.TaxRate, &l.LineNet, &l.LineTax, &l.LineTotal)
		if err != nil {
			return nil, fmt.Errorf("scan sales line: %w", err)
		}
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

// NextOrderNumber consume la secuencia y formatea el consecutivo.
func (r *SalesOrderRepo) NextOrderNumber(ctx context.Context) (string, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT nextval('sales_number_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("next sales number: %w", err)
	}
	return fmt.Sprintf("SO-%06d", n), nil
}
