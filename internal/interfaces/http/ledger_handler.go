package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/invorya/ledger-api/internal/application/dto"
	"github.com/invorya/ledger-api/internal/application/ledger"
	"github.com/invorya/ledger-api/internal/domain/entity"
	"github.com/invorya/ledger-api/internal/domain/repository"
)

// LedgerHandler lecturas del motor: saldos y log de movimientos (protegido).
// Solo GET: el log no tiene punto de entrada HTTP de escritura directa.
type LedgerHandler struct {
	projector *ledger.BalanceProjector
	movements *ledger.MovementQuery
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(projector *ledger.BalanceProjector, movements *ledger.MovementQuery) *LedgerHandler {
	return &LedgerHandler{projector: projector, movements: movements}
}

// GetBalance godoc
// @Summary      Saldo actual de una clave producto+bodega(+lote)
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true   "Producto"
// @Param        warehouse_id  query  string  true   "Bodega"
// @Param        batch_id      query  string  false  "Lote (productos con seguimiento)"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/balances [get]
func (h *LedgerHandler) GetBalance(c *fiber.Ctx) error {
	productID := c.Query("product_id")
	warehouseID := c.Query("warehouse_id")
	if productID == "" || warehouseID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id y warehouse_id son obligatorios"})
	}
	qty, err := h.projector.GetBalance(c.Context(), productID, warehouseID, c.Query("batch_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"product_id":   productID,
		"warehouse_id": warehouseID,
		"batch_id":     c.Query("batch_id"),
		"quantity":     qty.String(),
	})
}

// ReplayBalance godoc
// @Summary      Saldo re-sumado desde el log completo (valor de referencia)
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true   "Producto"
// @Param        warehouse_id  query  string  true   "Bodega"
// @Param        batch_id      query  string  false  "Lote"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/balances/replay [get]
func (h *LedgerHandler) ReplayBalance(c *fiber.Ctx) error {
	productID := c.Query("product_id")
	warehouseID := c.Query("warehouse_id")
	if productID == "" || warehouseID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id y warehouse_id son obligatorios"})
	}
	qty, err := h.projector.Replay(c.Context(), productID, warehouseID, c.Query("batch_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"product_id":   productID,
		"warehouse_id": warehouseID,
		"batch_id":     c.Query("batch_id"),
		"quantity":     qty.String(),
	})
}

// ListWarehouseBalances godoc
// @Summary      Saldos materializados de una bodega
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "Bodega"
// @Param        limit   query  int     false  "máx 100"
// @Param        offset  query  int     false  "desplazamiento"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/warehouses/{id}/balances [get]
func (h *LedgerHandler) ListWarehouseBalances(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "query inválido"})
	}
	page.DefaultPage()

	balances, err := h.projector.ListByWarehouse(c.Context(), c.Params("id"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.BalanceDTO, 0, len(balances))
	for _, b := range balances {
		out = append(out, dto.ToBalanceDTO(b))
	}
	return c.JSON(fiber.Map{
		"balances": out,
		"page":     dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// ListMovements godoc
// @Summary      Historial de movimientos (auditoría, solo lectura)
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  false  "Producto"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        batch_id      query  string  false  "Lote"
// @Param        kind          query  string  false  "RECEIPT | ISSUE | TRANSFER_OUT | TRANSFER_IN | ADJUSTMENT_IN | ADJUSTMENT_OUT"
// @Param        from          query  string  false  "RFC3339"
// @Param        to            query  string  false  "RFC3339"
// @Param        limit         query  int     false  "máx 100"
// @Param        offset        query  int     false  "desplazamiento"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/movements [get]
func (h *LedgerHandler) ListMovements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "query inválido"})
	}
	page.DefaultPage()

	filter := repository.MovementFilter{
		ProductID:   c.Query("product_id"),
		WarehouseID: c.Query("warehouse_id"),
		BatchID:     c.Query("batch_id"),
		Kind:        entity.MovementKind(c.Query("kind")),
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from: formato RFC3339"})
		}
		filter.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to: formato RFC3339"})
		}
		filter.To = &t
	}

	movs, total, err := h.movements.List(c.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.MovementDTO, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.ToMovementDTO(m))
	}
	return c.JSON(fiber.Map{
		"movements": out,
		"page":      dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	})
}
