package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invorya/ledger-api/internal/application/ledger"
	"github.com/invorya/ledger-api/internal/domain/entity"
	"github.com/invorya/ledger-api/internal/infrastructure/memlock"
	"github.com/invorya/ledger-api/internal/infrastructure/memory"
	apphttp "github.com/invorya/ledger-api/internal/interfaces/http"
	pkgjwt "github.com/invorya/ledger-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testIssuer    = "invorya-ledger-test"

	productID  = "prod-1"
	warehouseA = "wh-a"
	warehouseB = "wh-b"
	supplierID = "sup-1"
	customerID = "cus-1"
)

// buildTestApp monta la API completa sobre el store en memoria.
func buildTestApp(t *testing.T) (*fiber.App, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	guard := memlock.New(2 * time.Second)

	store.SeedProduct(entity.Product{
		ID: productID, SKU: "SKU-1", Name: "Tornillo",
		Price:   decimal.NewFromInt(100),
		TaxRate: decimal.NewFromFloat(0.19),
		Active:  true,
	})
	store.SeedWarehouse(entity.Warehouse{ID: warehouseA, Name: "Principal", Active: true})
	store.SeedWarehouse(entity.Warehouse{ID: warehouseB, Name: "Sucursal", Active: true})
	store.SeedSupplier(entity.Supplier{ID: supplierID, Name: "Proveedor SA", Active: true})
	store.SeedCustomer(entity.Customer{ID: customerID, Name: "Cliente SA", Active: true})

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		ReceivingUC: ledger.NewReceivingUseCase(store, guard, nil,
			store.ReceivingRepo(), store.ProductRepo(), store.WarehouseRepo(), store.SupplierRepo()),
		SalesUC: ledger.NewSalesUseCase(store, guard, nil,
			store.SalesRepo(), store.ProductRepo(), store.WarehouseRepo(), store.CustomerRepo()),
		AdjustmentUC: ledger.NewAdjustmentUseCase(store, guard, nil,
			store.AdjustmentRepo(), store.ProductRepo(), store.WarehouseRepo()),
		TransferUC: ledger.NewTransferUseCase(store, guard, nil,
			store.TransferRepo(), store.ProductRepo(), store.WarehouseRepo()),
		Projector:     ledger.NewBalanceProjector(store.BalanceRepo(), store.MovementRepo(), nil, 0),
		MovementQuery: ledger.NewMovementQuery(store.MovementRepo()),
		JWTSecret:     testJWTSecret,
	})
	return app, store
}

func bearerToken(t *testing.T) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testIssuer, 60)
	require.NoError(t, err)
	return "Bearer " + tok
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", bearerToken(t))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// createGRN crea un GRN de una línea y devuelve su id.
func createGRN(t *testing.T, app *fiber.App, qty int) string {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/grns", fiber.Map{
		"supplier_id":  supplierID,
		"warehouse_id": warehouseA,
		"items": []fiber.Map{
			{"product_id": productID, "quantity": qty, "unit_cost": 5},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	return body["id"].(string)
}

// ──────────────────────────────────────────────────────────────────────────────
// Autenticación
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_SinTokenRetorna401(t *testing.T) {
	app, _ := buildTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/movements", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "MISSING_TOKEN")
}

func TestAPI_TokenInvalidoRetorna401(t *testing.T) {
	app, _ := buildTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/movements", nil)
	req.Header.Set("Authorization", "Bearer token.invalido.aqui")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ciclo GRN vía HTTP
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_CicloGRN(t *testing.T) {
	app, store := buildTestApp(t)

	id := createGRN(t, app, 10)

	// Aprobar: emite el RECEIPT.
	resp := doJSON(t, app, http.MethodPost, "/api/grns/"+id+"/approve", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "APPROVED", body["status"])
	assert.Equal(t, testUserID, body["approved_by"])
	assert.Equal(t, 1, store.MovementCount())

	// Re-aprobar: 409.
	resp = doJSON(t, app, http.MethodPost, "/api/grns/"+id+"/approve", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "INVALID_STATE", body["code"])
	assert.Equal(t, 1, store.MovementCount())

	// El saldo quedó disponible.
	resp = doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/balances?product_id=%s&warehouse_id=%s", productID, warehouseA), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "10", body["quantity"])
}

func TestAPI_GRNInexistenteRetorna404(t *testing.T) {
	app, _ := buildTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/grns/no-existe/approve", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_GRNSinItemsRetorna422(t *testing.T) {
	app, _ := buildTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/grns", fiber.Map{
		"supplier_id":  supplierID,
		"warehouse_id": warehouseA,
		"items":        []fiber.Map{},
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ventas y stock insuficiente vía HTTP
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_VentaYSobreventa(t *testing.T) {
	app, _ := buildTestApp(t)

	id := createGRN(t, app, 10)
	resp := doJSON(t, app, http.MethodPost, "/api/grns/"+id+"/approve", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Venta de 4: 201 con totales calculados.
	resp = doJSON(t, app, http.MethodPost, "/api/sales-orders", fiber.Map{
		"customer_id":  customerID,
		"warehouse_id": warehouseA,
		"lines": []fiber.Map{
			{"product_id": productID, "quantity": 4, "unit_price": 100},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "400", body["net_total"])
	assert.Equal(t, "476", body["grand_total"])

	// Sobreventa de 7 con saldo 6: 409 con disponible/solicitado.
	resp = doJSON(t, app, http.MethodPost, "/api/sales-orders", fiber.Map{
		"customer_id":  customerID,
		"warehouse_id": warehouseA,
		"lines": []fiber.Map{
			{"product_id": productID, "quantity": 7},
		},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
	assert.Equal(t, "6", body["available"])
	assert.Equal(t, "7", body["requested"])
}

func TestAPI_TrasladoYMovimientos(t *testing.T) {
	app, _ := buildTestApp(t)

	id := createGRN(t, app, 10)
	resp := doJSON(t, app, http.MethodPost, "/api/grns/"+id+"/approve", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/transfers", fiber.Map{
		"product_id":        productID,
		"from_warehouse_id": warehouseA,
		"to_warehouse_id":   warehouseB,
		"quantity":          4,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Auditoría: 1 RECEIPT + par OUT/IN.
	resp = doJSON(t, app, http.MethodGet, "/api/movements", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	movs := body["movements"].([]any)
	assert.Len(t, movs, 3)

	// Filtrado por tipo.
	resp = doJSON(t, app, http.MethodGet, "/api/movements?kind=TRANSFER_OUT", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	movs = body["movements"].([]any)
	require.Len(t, movs, 1)
	first := movs[0].(map[string]any)
	assert.Equal(t, "TRANSFER_OUT", first["kind"])
	assert.Equal(t, warehouseB, first["counter_warehouse_id"])
}

func TestAPI_AjusteNegativoSinStockRetorna409(t *testing.T) {
	app, _ := buildTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/adjustments", fiber.Map{
		"product_id":   productID,
		"warehouse_id": warehouseA,
		"delta":        -5,
		"reason":       "merma",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
}

func TestAPI_SaldoSinParametrosRetorna400(t *testing.T) {
	app, _ := buildTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/balances", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
