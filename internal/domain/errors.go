package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura). Los errores que
// llevan datos adjuntos (stock insuficiente, transición ilegal, etc.) son
// structs que responden a errors.Is contra su centinela.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrValidation        = errors.New("entrada inválida")
	ErrEmptyDocument     = errors.New("documento sin ítems")
	ErrInvalidState      = errors.New("transición de estado ilegal")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrLockTimeout       = errors.New("timeout adquiriendo bloqueo")
	ErrTransaction       = errors.New("la transacción no pudo confirmarse")
	ErrUnauthorized      = errors.New("no autorizado")
)

// InsufficientStockError rechazo de una operación que dejaría el saldo negativo.
// Lleva disponible/solicitado para que la capa API muestre la razón exacta.
type InsufficientStockError struct {
	ProductID   string
	WarehouseID string
	BatchID     string
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s en bodega %s: disponible %s, solicitado %s",
		e.ProductID, e.WarehouseID, e.Available.String(), e.Requested.String())
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// InvalidStateError transición ilegal de un documento (ej. re-aprobar un GRN aprobado).
type InvalidStateError struct {
	Document  string // tipo de documento: "grn", "sales_order", ...
	ID        string
	Current   string
	Attempted string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s %s en estado %s: no se puede aplicar %s", e.Document, e.ID, e.Current, e.Attempted)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// LockTimeoutError no se pudo adquirir el bloqueo por clave dentro del plazo.
// Transitorio: el caller puede reintentar la operación completa.
type LockTimeoutError struct {
	Key     string
	Timeout time.Duration
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("timeout (%s) adquiriendo bloqueo de la clave %s", e.Timeout, e.Key)
}

func (e *LockTimeoutError) Is(target error) bool { return target == ErrLockTimeout }

// TransactionError la unidad atómica no pudo iniciarse o confirmarse.
// Garantía para el caller: ningún efecto parcial quedó visible.
type TransactionError struct {
	Op  string // "begin" | "commit"
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transacción (%s): %v", e.Op, e.Err)
}

func (e *TransactionError) Is(target error) bool { return target == ErrTransaction }

func (e *TransactionError) Unwrap() error { return e.Err }
