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

var _ repository.AdjustmentRepository = (*AdjustmentRepo)(nil)

// AdjustmentRepo adaptador PostgreSQL de documentos de ajuste.
type AdjustmentRepo struct {
	q Querier
}

// NewAdjustmentRepository construye el adaptador.
func NewAdjustmentRepository(q Querier) *AdjustmentRepo {
	return &AdjustmentRepo{q: q}
}

// Create persiste el documento.
func (r *AdjustmentRepo) Create(ctx context.Context, a *entity.Adjustment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	query := `
		INSERT INTO adjustments (id, document_number, product_id, warehouse_id, batch_id,
			delta, reason, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.DocumentNumber, a.ProductID, a.WarehouseID, a.BatchID,
		a.Delta, a.Reason, a.CreatedAt, a.CreatedBy)
	if err != nil {
		return fmt.Errorf("create adjustment: %w", err)
	}
	return nil
}

// GetByID obtiene el documento; nil si no existe.
func (r *AdjustmentRepo) GetByID(ctx context.Context, id string) (*entity.Adjustment, error) {
	query := `
		SELECT id, document_number, product_id, warehouse_id, batch_id,
			delta, reason, created_at, created_by
		FROM adjustments WHERE id = $1`
	var a entity.Adjustment
	err := r.q.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.DocumentNumber, &a.ProductID, &a.WarehouseID, &a.BatchID,
		&a.Delta, &a.Reason, &a.CreatedAt, &a.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get adjustment: %w", err)
	}
	return &a, nil
}

// NextDocumentNumber consume la secuencia y formatea el consecutivo.
func (r *AdjustmentRepo) NextDocumentNumber(ctx context.Context) (string, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT nextval('adjustment_number_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("next adjustment number: %w", err)
	}
	return fmt.Sprintf("ADJ-%06d", n), nil
}
