package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/invorya/ledger-api/internal/application/ledger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ReceivingUC   *ledger.ReceivingUseCase
	SalesUC       *ledger.SalesUseCase
	AdjustmentUC  *ledger.AdjustmentUseCase
	TransferUC    *ledger.TransferUseCase
	Projector     *ledger.BalanceProjector
	MovementQuery *ledger.MovementQuery
	JWTSecret     string
}

// Router registra las rutas de la API. Todo el motor va protegido con Bearer
// Token: el userID del token alimenta created_by/approved_by.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Recepción (GRN)
	grns := api.Group("/grns")
	receivingHandler := NewReceivingHandler(deps.ReceivingUC)
	grns.Post("/", receivingHandler.Create)
	grns.Get("/", receivingHandler.List)
	grns.Get("/:id", receivingHandler.GetByID)
	grns.Post("/:id/approve", receivingHandler.Approve)
	grns.Post("/:id/cancel", receivingHandler.Cancel)

	// Salidas: ventas, ajustes, traslados
	issuingHandler := NewIssuingHandler(deps.SalesUC, deps.AdjustmentUC, deps.TransferUC)
	api.Post("/sales-orders", issuingHandler.CreateSalesOrder)
	api.Post("/adjustments", issuingHandler.CreateAdjustment)
	api.Post("/transfers", issuingHandler.CreateTransfer)

	// Lecturas del motor: saldos y log
	ledgerHandler := NewLedgerHandler(deps.Projector, deps.MovementQuery)
	api.Get("/balances", ledgerHandler.GetBalance)
	api.Get("/balances/replay", ledgerHandler.ReplayBalance)
	api.Get("/warehouses/:id/balances", ledgerHandler.ListWarehouseBalances)
	api.Get("/movements", ledgerHandler.ListMovements)
}
