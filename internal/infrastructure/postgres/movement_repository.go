package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/invorya/ledger-api/internal/domain/entity"
	"github.com/invorya/ledger-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo adaptador PostgreSQL del log de movimientos (usable con pool o
// tx). Solo INSERT y SELECT: el puerto no tiene camino de mutación y un
// trigger en la tabla rechaza UPDATE/DELETE como segunda línea de defensa.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, movement_number, transaction_id, kind, product_id, batch_id,
	warehouse_id, counter_warehouse_id, quantity, unit_cost,
	reference_type, reference_id, occurred_at, recorded_at, created_by`

// Create persiste un movimiento.
func (r *MovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.MovementNumber, m.TransactionID, string(m.Kind), m.ProductID, m.BatchID,
		m.WarehouseID, m.CounterWarehouseID, m.Quantity, m.UnitCost,
		string(m.ReferenceType), m.ReferenceID, m.OccurredAt, m.RecordedAt, m.CreatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("número de movimiento duplicado: %w", err)
		}
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var kind, refType string
	err := row.Scan(
		&m.ID, &m.MovementNumber, &m.TransactionID, &kind, &m.ProductID, &m.BatchID,
		&m.WarehouseID, &m.CounterWarehouseID, &m.Quantity, &m.UnitCost,
		&refType, &m.ReferenceID, &m.OccurredAt, &m.RecordedAt, &m.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	m.Kind = entity.MovementKind(kind)
	m.ReferenceType = entity.ReferenceType(refType)
	return &m, nil
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// filterClause arma el WHERE dinámico del filtro y sus argumentos.
func filterClause(f repository.MovementFilter) (string, []any) {
	clause := " WHERE 1=1"
	var args []any
	pos := 1
	add := func(cond string, val any) {
		clause += fmt.Sprintf(" AND "+cond, pos)
		args = append(args, val)
		pos++
	}
	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.WarehouseID != "" {
		add("warehouse_id = $%d", f.WarehouseID)
	}
	if f.BatchID != "" {
		add("batch_id = $%d", f.BatchID)
	}
	if f.Kind != "" {
		add("kind = $%d", string(f.Kind))
	}
	if f.From != nil {
		add("recorded_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("recorded_at <= $%d", *f.To)
	}
	return clause, args
}

// List lista movimientos según filtro, más recientes primero.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, error) {
	clause, args := filterClause(f)
	query := `SELECT ` + movementColumns + ` FROM stock_movements` + clause +
		fmt.Sprintf(" ORDER BY recorded_at DESC, movement_number DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Count total de movimientos que matchean el filtro.
func (r *MovementRepo) Count(ctx context.Context, f repository.MovementFilter) (int, error) {
	clause, args := filterClause(f)
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_movements`+clause, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count movements: %w", err)
	}
	return n, nil
}

// SumByKey re-suma el log para la clave: cantidades con el signo del tipo.
func (r *MovementRepo) SumByKey(ctx context.Context, key entity.BalanceKey) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(
			CASE WHEN kind IN ('RECEIPT', 'TRANSFER_IN', 'ADJUSTMENT_IN')
				THEN quantity ELSE -quantity END
		), 0)
		FROM stock_movements
		WHERE product_id = $1 AND warehouse_id = $2 AND batch_id = $3`
	var sum decimal.Decimal
	if err := r.q.QueryRow(ctx, query, key.ProductID, key.WarehouseID, key.BatchID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum by key: %w", err)
	}
	return sum, nil
}

// ListKeys claves distintas presentes en el log.
func (r *MovementRepo) ListKeys(ctx context.Context) ([]entity.BalanceKey, error) {
	rows, err := r.q.Query(ctx, `SELECT DISTINCT product_id, warehouse_id, batch_id FROM stock_movements`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()
	var keys []entity.BalanceKey
	for rows.Next() {
		var k entity.BalanceKey
		if err := rows.Scan(&k.ProductID, &k.WarehouseID, &k.BatchID); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// NextMovementNumber consume la secuencia y formatea el consecutivo.
func (r *MovementRepo) NextMovementNumber(ctx context.Context) (string, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT nextval('movement_number_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("next movement number: %w", err)
	}
	return fmt.Sprintf("MOV-%06d", n), nil
}
