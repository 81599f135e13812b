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

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo adaptador PostgreSQL de órdenes de traslado.
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador.
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

// Create persiste el documento.
func (r *TransferRepo) Create(ctx context.Context, t *entity.TransferOrder) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	query := `
		INSERT INTO transfers (id, document_number, product_id, batch_id,
			from_warehouse_id, to_warehouse_id, quantity, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.DocumentNumber, t.ProductID, t.BatchID,
		t.FromWarehouseID, t.ToWarehouseID, t.Quantity, t.CreatedAt, t.CreatedBy)
	if err != nil {
		return fmt.Errorf("create transfer: %w", err)
	}
	return nil
}

// GetByID obtiene el documento; nil si no existe.
func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.TransferOrder, error) {
	query := `
		SELECT id, document_number, product_id, batch_id,
			from_warehouse_id, to_warehouse_id, quantity, created_at, created_by
		FROM transfers WHERE id = $1`
	var t entity.TransferOrder
	err := r.q.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.DocumentNumber, &t.ProductID, &t.BatchID,
		&t.FromWarehouseID, &t.ToWarehouseID, &t.Quantity, &t.CreatedAt, &t.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	return &t, nil
}

// NextDocumentNumber consume la secuencia y formatea el consecutivo.
func (r *TransferRepo) NextDocumentNumber(ctx context.Context) (string, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT nextval('transfer_number_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("next transfer number: %w", err)
	}
	return fmt.Sprintf("TR-%06d", n), nil
}
