package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/invorya/ledger-api/internal/domain"
	"github.com/invorya/ledger-api/internal/domain/entity"
	"github.com/invorya/ledger-api/internal/domain/repository"
)

var _ repository.ReceivingRepository = (*ReceivingRepo)(nil)

// ReceivingRepo adaptador PostgreSQL de los GRN (cabecera + ítems).
type ReceivingRepo struct {
	q Querier
}

// NewReceivingRepository construye el adaptador.
func NewReceivingRepository(q Querier) *ReceivingRepo {
	return &ReceivingRepo{q: q}
}

// Create persiste cabecera e ítems.
func (r *ReceivingRepo) Create(ctx context.Context, doc *entity.ReceivingDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	header := `
		INSERT INTO grns (id, document_number, supplier_id, warehouse_id, status, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, header,
		doc.ID, doc.DocumentNumber, doc.SupplierID, doc.WarehouseID, string(doc.Status), doc.CreatedAt, doc.CreatedBy)
	if err != nil {
		return fmt.Errorf("create grn: %w", err)
	}

	item := `
		INSERT INTO grn_items (id, grn_id, product_id, batch_id, quantity, unit_cost)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for i := range doc.Items {
		it := &doc.Items[i]
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		if _, err := r.q.Exec(ctx, item, it.ID, doc.ID, it.ProductID, it.BatchID, it.Quantity, it.UnitCost); err != nil {
			return fmt.Errorf("create grn item: %w", err)
		}
	}
	return nil
}

const grnColumns = `id, document_number, supplier_id, warehouse_id, status,
	created_at, created_by, approved_at, approved_by, cancelled_at, cancelled_by`

func scanGRN(row pgx.Row) (*entity.ReceivingDocument, error) {
	var d entity.ReceivingDocument
	var status string
	var approvedBy, cancelledBy *string
	err := row.Scan(
		&d.ID, &d.DocumentNumber, &d.SupplierID, &d.WarehouseID, &status,
		&d.CreatedAt, &d.CreatedBy, &d.ApprovedAt, &approvedBy, &d.CancelledAt, &cancelledBy,
	)
	if err != nil {
		return nil, err
	}
	d.Status = entity.GRNStatus(status)
	if approvedBy != nil {
		d.ApprovedBy = *approvedBy
	}
	if cancelledBy != nil {
		d.CancelledBy = *cancelledBy
	}
	return &d, nil
}

// GetByID obtiene el GRN con sus ítems; nil si no existe.
func (r *ReceivingRepo) GetByID(ctx context.Context, id string) (*entity.ReceivingDocument, error) {
	query := `SELECT ` + grnColumns + ` FROM grns WHERE id = $1`
	doc, err := scanGRN(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get grn: %w", err)
	}
	if err := r.loadItems(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *ReceivingRepo) loadItems(ctx context.Context, doc *entity.ReceivingDocument) error {
	query := `
		SELECT id, product_id, batch_id, quantity, unit_cost
		FROM grn_items WHERE grn_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, doc.ID)
	if err != nil {
		return fmt.Errorf("load grn items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.ReceivingItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.BatchID, &it.Quantity, &it.UnitCost); err != nil {
			return fmt.Errorf("scan grn item: %w", err)
		}
		doc.Items = append(doc.Items, it)
	}
	return rows.Err()
}

// List lista GRNs, opcionalmente por estado, más recientes primero. No carga
// ítems: el listado es de cabeceras.
func (r *ReceivingRepo) List(ctx context.Context, status entity.GRNStatus, limit, offset int) ([]*entity.ReceivingDocument, error) {
	query := `SELECT ` + grnColumns + ` FROM grns`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list grns: %w", err)
	}
	defer rows.Close()
	var list []*entity.ReceivingDocument
	for rows.Next() {
		d, err := scanGRN(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grn: %w", err)
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// Approve transición condicional DRAFT→APPROVED. El WHERE status = 'DRAFT' es
// la barrera definitiva contra la doble aprobación: dos aprobaciones
// concurrentes del mismo GRN serializan aquí y solo una afecta la fila.
func (r *ReceivingRepo) Approve(ctx context.Context, id, by string, at time.Time) error {
	return r.transition(ctx, id, by, at, "approve",
		`UPDATE grns SET status = 'APPROVED', approved_at = $2, approved_by = $3
		 WHERE id = $1 AND status = 'DRAFT'`)
}

// Cancel transición condicional DRAFT→CANCELLED.
func (r *ReceivingRepo) Cancel(ctx context.Context, id, by string, at time.Time) error {
	return r.transition(ctx, id, by, at, "cancel",
		`UPDATE grns SET status = 'CANCELLED', cancelled_at = $2, cancelled_by = $3
		 WHERE id = $1 AND status = 'DRAFT'`)
}

func (r *ReceivingRepo) transition(ctx context.Context, id, by string, at time.Time, attempted, query string) error {
	tag, err := r.q.Exec(ctx, query, id, at, by)
	if err != nil {
		return fmt.Errorf("%s grn: %w", attempted, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	// Cero filas: o no existe, o ya salió de DRAFT. Distinguir para el caller.
	var current string
	err = r.q.QueryRow(ctx, `SELECT status FROM grns WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%s grn status: %w", attempted, err)
	}
	return &domain.InvalidStateError{Document: "grn", ID: id, Current: current, Attempted: attempted}
}

// NextDocumentNumber consume la secuencia y formatea el consecutivo.
func (r *ReceivingRepo) NextDocumentNumber(ctx context.Context) (string, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT nextval('grn_number_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("next grn number: %w", err)
	}
	return fmt.Sprintf("GRN-%06d", n), nil
}
