package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/punchamoorthee/storeops/internal/domain"
	"github.com/punchamoorthee/storeops/internal/models"
	"github.com/punchamoorthee/storeops/internal/service"
	"github.com/punchamoorthee/storeops/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	router  http.Handler
	catalog *store.XLSXCatalog
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()

	catalog, err := store.NewXLSXCatalog(filepath.Join(dir, "products.xlsx"))
	require.NoError(t, err)
	customers := store.NewCustomerDirectory(filepath.Join(dir, "customer.csv"))
	history := store.NewHistoryLedger(filepath.Join(dir, "DATABASE"))
	auditor := service.NewAuditorFromLogger(zap.NewNop())

	sessions := service.NewSessionService(customers, nil)
	h := NewHandler(
		service.NewCatalogService(catalog, auditor),
		service.NewCustomerService(customers, history, sessions, auditor, nil),
		sessions,
		service.NewCheckoutService(catalog, history, service.WithAttempts(3)),
		zap.NewNop(),
	)
	return &testServer{router: h.Router(), catalog: catalog}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(SessionHeader, token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	rec := s.do(t, "POST", "/api/v1/customers", models.CustomerRequest{Name: "Alice", Email: "alice@example.com"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, "POST", "/api/v1/login", models.LoginRequest{Email: "alice@example.com"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[models.LoginResponse](t, rec)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (s *testServer) addProduct(t *testing.T, id, name, price string, stock int) {
	t.Helper()
	rec := s.do(t, "POST", "/api/v1/products", models.ProductRequest{
		ID: id, Name: name, Price: decimal.RequireFromString(price), Stock: stock,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestHealth(t *testing.T) {
	s := setupServer(t)
	rec := s.do(t, "GET", "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestProducts_CRUD(t *testing.T) {
	s := setupServer(t)
	s.addProduct(t, "A1", "Bread", "4.50", 10)
	s.addProduct(t, "B2", "Milk", "3.00", 0)

	rec := s.do(t, "POST", "/api/v1/products", models.ProductRequest{ID: "A1", Name: "Dup", Price: decimal.NewFromInt(1), Stock: 1}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, "POST", "/api/v1/products", models.ProductRequest{ID: "C3", Name: "", Price: decimal.NewFromInt(1)}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "GET", "/api/v1/products", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Product](t, rec), 2)

	rec = s.do(t, "GET", "/api/v1/products/A1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bread", decode[domain.Product](t, rec).Name)

	rec = s.do(t, "GET", "/api/v1/products/ZZ", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, "GET", "/api/v1/products/stats", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[domain.ProductStats](t, rec)
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, "3.75", stats.AvgPrice.StringFixed(2))

	rec = s.do(t, "GET", "/api/v1/products/A1/availability?quantity=10", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.AvailabilityResponse](t, rec).Available)

	rec = s.do(t, "GET", "/api/v1/products/B2/availability", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	avail := decode[models.AvailabilityResponse](t, rec)
	assert.Equal(t, 1, avail.Quantity)
	assert.False(t, avail.Available)

	rec = s.do(t, "GET", "/api/v1/products/A1/availability?quantity=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "DELETE", "/api/v1/products?name=Milk", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, "DELETE", "/api/v1/products/A1", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, "DELETE", "/api/v1/products/A1", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogin_UnknownEmail(t *testing.T) {
	s := setupServer(t)
	rec := s.do(t, "POST", "/api/v1/login", models.LoginRequest{Email: "nobody@example.com"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, "POST", "/api/v1/login", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout_Flow(t *testing.T) {
	s := setupServer(t)
	s.addProduct(t, "A1", "Bread", "4.50", 10)
	token := s.login(t)

	rec := s.do(t, "POST", "/api/v1/checkout", models.CheckoutRequest{
		Lines: []domain.CartLine{{ProductID: "A1", Quantity: 3}},
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	receipt := decode[domain.Receipt](t, rec)
	assert.Equal(t, "13.50", receipt.Total.StringFixed(2))
	assert.Equal(t, []string{"Bread (ID: A1, qty: 3, price: 4.50)"}, receipt.Lines)

	p, err := s.catalog.Find(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, 7, p.Stock)

	rec = s.do(t, "GET", "/api/v1/history", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]domain.LedgerEntry](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, receipt.EntryID, entries[0].ID)
}

func TestCheckout_ErrorMapping(t *testing.T) {
	s := setupServer(t)
	s.addProduct(t, "A1", "Bread", "4.50", 10)
	token := s.login(t)

	cases := []struct {
		name  string
		token string
		lines []domain.CartLine
		code  int
		kind  string
	}{
		{"no session", "", []domain.CartLine{{ProductID: "A1", Quantity: 1}}, http.StatusUnauthorized, "not_authenticated"},
		{"bad session", "nope", []domain.CartLine{{ProductID: "A1", Quantity: 1}}, http.StatusUnauthorized, "not_authenticated"},
		{"empty cart", token, nil, http.StatusBadRequest, "empty_cart"},
		{"zero quantity", token, []domain.CartLine{{ProductID: "A1", Quantity: 0}}, http.StatusBadRequest, "invalid_quantity"},
		{"unknown product", token, []domain.CartLine{{ProductID: "ZZ", Quantity: 1}}, http.StatusNotFound, "product_not_found"},
		{"insufficient", token, []domain.CartLine{{ProductID: "A1", Quantity: 11}}, http.StatusUnprocessableEntity, "insufficient_stock"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, "POST", "/api/v1/checkout", models.CheckoutRequest{Lines: tc.lines}, tc.token)
			assert.Equal(t, tc.code, rec.Code)
			body := decode[models.ErrorResponse](t, rec)
			assert.Equal(t, tc.kind, body.Kind)
		})
	}

	rec := s.do(t, "POST", "/api/v1/checkout", models.CheckoutRequest{
		Lines: []domain.CartLine{{ProductID: "A1", Quantity: 11}},
	}, token)
	body := decode[models.ErrorResponse](t, rec)
	require.NotNil(t, body.Available)
	require.NotNil(t, body.Requested)
	assert.Equal(t, 10, *body.Available)
	assert.Equal(t, 11, *body.Requested)

	p, err := s.catalog.Find(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)
}

func TestLogout_InvalidatesToken(t *testing.T) {
	s := setupServer(t)
	token := s.login(t)

	rec := s.do(t, "POST", "/api/v1/logout", nil, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, "GET", "/api/v1/history", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCustomers_RegisterListDelete(t *testing.T) {
	s := setupServer(t)
	token := s.login(t)

	rec := s.do(t, "POST", "/api/v1/customers", models.CustomerRequest{Name: "Bob", Email: "bob@example.com"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "202", decode[map[string]string](t, rec)["id"])

	rec = s.do(t, "POST", "/api/v1/customers", models.CustomerRequest{Name: "Bobby", Email: "BOB@example.com"}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, "POST", "/api/v1/customers", models.CustomerRequest{Name: "", Email: ""}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "GET", "/api/v1/customers", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Customer](t, rec), 2)

	rec = s.do(t, "DELETE", "/api/v1/customers/201", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	removed := decode[map[string][]domain.Customer](t, rec)["removed"]
	require.Len(t, removed, 1)
	assert.Equal(t, "Alice", removed[0].Name)

	// the removed customer's session is gone too
	rec = s.do(t, "GET", "/api/v1/history", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, "DELETE", "/api/v1/customers/201", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(&service.Error{Kind: service.KindConcurrentStockChange}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(&service.Error{Kind: service.KindLedgerWriteFailed}))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(service.ErrStorageUnavailable))
	assert.Equal(t, http.StatusInternalServerError, statusFor(store.ErrMalformedFile))
}
