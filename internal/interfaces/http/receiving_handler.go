package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/invorya/ledger-api/internal/application/dto"
	"github.com/invorya/ledger-api/internal/application/ledger"
	"github.com/invorya/ledger-api/internal/domain/entity"
)

// ReceivingHandler maneja las peticiones HTTP del ciclo GRN (protegido).
type ReceivingHandler struct {
	uc *ledger.ReceivingUseCase
}

// NewReceivingHandler construye el handler.
func NewReceivingHandler(uc *ledger.ReceivingUseCase) *ReceivingHandler {
	return &ReceivingHandler{uc: uc}
}

// Create godoc
// @Summary      Crear GRN (borrador)
// @Tags         receiving
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateGRNRequest  true  "supplier_id, warehouse_id, items"
// @Success      201   {object}  dto.GRNDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/grns [post]
func (h *ReceivingHandler) Create(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateGRNRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	doc, err := h.uc.Create(c.Context(), userID, in.ToInput())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToGRNDTO(doc))
}

// Approve godoc
// @Summary      Aprobar GRN (emite los RECEIPT, una sola vez)
// @Tags         receiving
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "GRN ID"
// @Success      200  {object}  dto.GRNDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/grns/{id}/approve [post]
func (h *ReceivingHandler) Approve(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	doc, err := h.uc.Approve(c.Context(), c.Params("id"), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToGRNDTO(doc))
}

// Cancel godoc
// @Summary      Cancelar GRN en borrador
// @Tags         receiving
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "GRN ID"
// @Success      200  {object}  dto.GRNDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/grns/{id}/cancel [post]
func (h *ReceivingHandler) Cancel(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	doc, err := h.uc.Cancel(c.Context(), c.Params("id"), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToGRNDTO(doc))
}

// GetByID godoc
// @Summary      Consultar GRN
// @Tags         receiving
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "GRN ID"
// @Success      200  {object}  dto.GRNDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/grns/{id} [get]
func (h *ReceivingHandler) GetByID(c *fiber.Ctx) error {
	doc, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToGRNDTO(doc))
}

// List godoc
// @Summary      Listar GRNs
// @Tags         receiving
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "DRAFT | APPROVED | CANCELLED"
// @Param        limit   query  int     false  "máx 100"
// @Param        offset  query  int     false  "desplazamiento"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/grns [get]
func (h *ReceivingHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "query inválido"})
	}
	page.DefaultPage()

	docs, err := h.uc.List(c.Context(), entity.GRNStatus(c.Query("status")), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.GRNDTO, 0, len(docs))
	for _, d := range docs {
		out = append(out, dto.ToGRNDTO(d))
	}
	return c.JSON(fiber.Map{
		"grns": out,
		"page": dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}
