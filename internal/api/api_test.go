package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/account"
	"storefront/internal/apperr"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/data/datatest"
	"storefront/internal/events"
	"storefront/internal/history"
	"storefront/internal/logger"
	"storefront/internal/manager"
	"storefront/internal/sellerops"
	"storefront/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	svc    *Services
	fix    datatest.Fixture
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	gdb, fix := datatest.OpenSeeded(t)
	st := store.New(gdb)
	log := logger.Discard()

	cat := catalog.New(st, nil, log)
	bus := events.NewBus(log)
	bus.Subscribe("catalog", cat.OnOrderPlaced)

	tokens := account.NewTokens("test-secret", 1)
	svc := &Services{
		Accounts:  account.NewService(st, tokens, log),
		Tokens:    tokens,
		Catalog:   cat,
		Carts:     cart.NewRegistry(),
		Checkout:  checkout.NewService(st, bus, checkout.Options{}, log),
		History:   history.NewService(st, log),
		SellerOps: sellerops.NewService(st, log),
		Manager:   manager.NewService(st, log),
	}
	opts.Log = log
	return &testServer{t: t, router: NewRouter(svc, opts), svc: svc, fix: fix}
}

func (s *testServer) do(method, path, token string, body any) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func (s *testServer) login(user string) string {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"user_name": user, "password": datatest.Password})
	require.Equal(s.t, http.StatusOK, code, env.Message)
	var session account.Session
	require.NoError(s.t, json.Unmarshal(env.Data, &session))
	return session.Token
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Options{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))
}

func TestShoppingFlow(t *testing.T) {
	s := newTestServer(t, Options{})
	token := s.login(s.fix.CarlaEmail)

	code, env := s.do(http.MethodGet, "/api/v1/catalog?category=electronics", token, nil)
	require.Equal(t, http.StatusOK, code)
	items := decode[[]catalogItem](t, env)
	require.Len(t, items, 1)
	assert.Equal(t, "$10.00", items[0].PriceLabel)
	assert.Equal(t, 5, items[0].Stock)

	code, env = s.do(http.MethodPost, "/api/v1/cart/items", token, gin.H{"product_id": "P1", "quantity": 2})
	require.Equal(t, http.StatusOK, code, env.Message)
	code, env = s.do(http.MethodPost, "/api/v1/cart/items", token, gin.H{"product_id": "P2"})
	require.Equal(t, http.StatusOK, code, env.Message)
	view := decode[cartView](t, env)
	assert.Len(t, view.Lines, 2)
	assert.Equal(t, 3, view.Count, "count is the number of units")
	assert.Equal(t, "25.50", view.Total.StringFixed(2))

	code, env = s.do(http.MethodPost, "/api/v1/checkout", token, nil)
	require.Equal(t, http.StatusCreated, code, env.Message)
	receipt := decode[checkout.Receipt](t, env)
	assert.EqualValues(t, 5, receipt.OrderID)
	assert.Equal(t, "25.50", receipt.Total.StringFixed(2))

	code, env = s.do(http.MethodGet, "/api/v1/cart", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Zero(t, decode[cartView](t, env).Count)

	_, env = s.do(http.MethodGet, "/api/v1/catalog?search=mouse", token, nil)
	items = decode[[]catalogItem](t, env)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Stock, "snapshot refreshed after checkout")

	code, env = s.do(http.MethodGet, "/api/v1/orders", token, nil)
	require.Equal(t, http.StatusOK, code)
	orders := decode[[]history.OrderSummary](t, env)
	require.Len(t, orders, 1)
	assert.Equal(t, receipt.OrderID, orders[0].OrderID)

	_, env = s.do(http.MethodGet, "/api/v1/orders?search=delivered", token, nil)
	assert.Empty(t, decode[[]history.OrderSummary](t, env))
	_, env = s.do(http.MethodGet, "/api/v1/orders?search=25.50", token, nil)
	assert.Len(t, decode[[]history.OrderSummary](t, env), 1)

	code, env = s.do(http.MethodPut, "/api/v1/orders/5/review", token, gin.H{"score": 4, "comment": "quick"})
	require.Equal(t, http.StatusOK, code, env.Message)
	detail := decode[history.OrderDetail](t, env)
	assert.Equal(t, "4", detail.Review.Score)
	assert.Len(t, detail.Lines, 2)
}

func TestCartErrors(t *testing.T) {
	s := newTestServer(t, Options{})
	token := s.login(s.fix.CarlaEmail)

	code, env := s.do(http.MethodPost, "/api/v1/checkout", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, apperr.CodeEmptyCart, env.Code)

	code, env = s.do(http.MethodPost, "/api/v1/cart/items", token, gin.H{"product_id": "nope"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, apperr.CodeProductNotFound, env.Code)

	code, env = s.do(http.MethodDelete, "/api/v1/cart/items/3", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, apperr.CodeCartLine, env.Code)

	s.do(http.MethodPost, "/api/v1/cart/items", token, gin.H{"product_id": "P1"})
	code, env = s.do(http.MethodPut, "/api/v1/cart/items/0", token, gin.H{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, apperr.CodeCartQuantity, env.Code)

	code, env = s.do(http.MethodPut, "/api/v1/cart/items/0", token, gin.H{"quantity": 9})
	require.Equal(t, http.StatusOK, code)
	code, env = s.do(http.MethodPost, "/api/v1/checkout", token, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, apperr.CodeStockNotEnough, env.Code)
	assert.Contains(t, env.Message, "P1")

	code, env = s.do(http.MethodDelete, "/api/v1/cart", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Zero(t, decode[cartView](t, env).Count)
}

func TestAddCartItemQuantity(t *testing.T) {
	s := newTestServer(t, Options{})
	token := s.login(s.fix.CarlaEmail)

	tests := []struct {
		name     string
		product  string
		quantity int
	}{
		{"negative", "P1", -1},
		{"above stock", "P1", 6},
		{"out of stock", "P3", 1},
		{"huge", "P2", 30_000_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			code, env := s.do(http.MethodPost, "/api/v1/cart/items", token, gin.H{"product_id": tt.product, "quantity": tt.quantity})
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, apperr.CodeCartQuantity, env.Code)
			assert.Less(t, time.Since(start), time.Second)
		})
	}

	code, env := s.do(http.MethodGet, "/api/v1/cart", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Zero(t, decode[cartView](t, env).Count, "rejected adds leave the cart empty")

	code, env = s.do(http.MethodPost, "/api/v1/cart/items", token, gin.H{"product_id": "P1", "quantity": 5})
	require.Equal(t, http.StatusOK, code, env.Message)
	view := decode[cartView](t, env)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 5, view.Lines[0].Quantity)
	assert.Equal(t, 5, view.Count)
	assert.Equal(t, "50.00", view.Total.StringFixed(2))
}

func TestAuthorization(t *testing.T) {
	s := newTestServer(t, Options{})

	code, env := s.do(http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, apperr.CodeAuth, env.Code)

	code, env = s.do(http.MethodGet, "/api/v1/cart", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, apperr.CodeAuthTokenInvalid, env.Code)

	code, env = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"user_name": s.fix.AnaEmail, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, apperr.CodeInvalidCredential, env.Code)

	customer := s.login(s.fix.AnaEmail)
	code, env = s.do(http.MethodGet, "/api/v1/manager/sellers", customer, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, apperr.CodeForbidden, env.Code)

	seller := s.login(datatest.SellerLogin)
	code, _ = s.do(http.MethodGet, "/api/v1/catalog", seller, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodGet, "/api/v1/orders/"+itoa(s.fix.O3), customer, nil)
	assert.Equal(t, http.StatusNotFound, code, "orders of other customers stay hidden")

	code, env = s.do(http.MethodGet, "/api/v1/orders/abc", customer, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, apperr.CodeInvalidParams, env.Code)
}

func TestSignUp(t *testing.T) {
	s := newTestServer(t, Options{})
	form := gin.H{
		"first_name": "Davi", "last_name": "Rocha", "email": "davi@example.com",
		"phone": "5554", "zip_code": "20010", "password": datatest.Password, "retype_password": datatest.Password,
	}

	code, env := s.do(http.MethodPost, "/api/v1/auth/signup", "", form)
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, env = s.do(http.MethodPost, "/api/v1/auth/signup", "", form)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, apperr.CodeEmailTaken, env.Code)

	form["email"] = "eva@example.com"
	form["retype_password"] = "other"
	code, env = s.do(http.MethodPost, "/api/v1/auth/signup", "", form)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, apperr.CodePasswordMismatch, env.Code)

	assert.NotEmpty(t, s.login("davi@example.com"))
}

func TestSellerRoutes(t *testing.T) {
	s := newTestServer(t, Options{})
	token := s.login(datatest.SellerLogin)

	code, env := s.do(http.MethodGet, "/api/v1/seller/orders?status=All&category=books", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]sellerops.OrderRow](t, env), 2)

	code, env = s.do(http.MethodPost, "/api/v1/seller/orders/"+itoa(s.fix.O2)+"/ship", token, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	rows := decode[[]sellerops.OrderRow](t, env)
	require.Len(t, rows, 1)
	assert.Equal(t, "On the way", rows[0].Status)

	code, env = s.do(http.MethodPost, "/api/v1/seller/orders/"+itoa(s.fix.O2)+"/delay", token, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, apperr.CodeOrderStatus, env.Code)

	carla := s.svc.Carts.For(s.fix.Carla)
	carla.Add(cart.Product{ID: "P1", Price: datatest.Money("10.00")})
	code, _ = s.do(http.MethodDelete, "/api/v1/seller/customers/"+itoa(s.fix.Ana), token, nil)
	assert.Equal(t, http.StatusConflict, code)
	code, _ = s.do(http.MethodDelete, "/api/v1/seller/customers/"+itoa(s.fix.Carla), token, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.NotSame(t, carla, s.svc.Carts.For(s.fix.Carla), "deleted customer's cart is dropped")
	assert.Empty(t, s.svc.Carts.For(s.fix.Carla).Lines())

	code, env = s.do(http.MethodGet, "/api/v1/seller/payment-types", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"All", "boleto", "credit_card", "voucher"}, decode[[]string](t, env))

	code, env = s.do(http.MethodGet, "/api/v1/seller/payments?first_name=ana", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]store.PaymentRow](t, env), 2)
}

func TestManagerRoutes(t *testing.T) {
	s := newTestServer(t, Options{})
	token := s.login(datatest.ManagerLogin)

	code, env := s.do(http.MethodPost, "/api/v1/manager/sellers", token, gin.H{
		"first_name": "Tiago", "last_name": "Melo", "email": "tiago@example.com",
		"phone": "3333", "city": "campinas", "state": "SP",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	assert.Contains(t, string(env.Data), `"id":"S1003"`)

	code, env = s.do(http.MethodGet, "/api/v1/manager/sellers/S1003", token, nil)
	require.Equal(t, http.StatusOK, code)
	detail := decode[store.SellerLocation](t, env)
	assert.Equal(t, "campinas", detail.City)

	code, env = s.do(http.MethodGet, "/api/v1/manager/sellers/search?last_name=mel", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]map[string]any](t, env), 1)

	code, _ = s.do(http.MethodGet, "/api/v1/manager/sellers/S9999", token, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(http.MethodGet, "/api/v1/manager/dashboard/summary", token, nil)
	require.Equal(t, http.StatusOK, code)
	sum := decode[manager.Summary](t, env)
	assert.Equal(t, "56.50", sum.TotalSales.StringFixed(2))
	assert.EqualValues(t, 4, sum.TotalOrders)

	code, env = s.do(http.MethodGet, "/api/v1/manager/dashboard/revenue-by-month?category=All", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]manager.MonthRevenue](t, env), 3)

	code, env = s.do(http.MethodGet, "/api/v1/manager/dashboard/delivery", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]store.LabelCount](t, env), 3)
}

func TestSellerChangesRefreshCatalog(t *testing.T) {
	s := newTestServer(t, Options{})
	customer := s.login(s.fix.AnaEmail)
	mgr := s.login(datatest.ManagerLogin)

	mouseStock := func() int {
		code, env := s.do(http.MethodGet, "/api/v1/catalog?search=mouse", customer, nil)
		require.Equal(t, http.StatusOK, code)
		items := decode[[]catalogItem](t, env)
		require.Len(t, items, 1)
		return items[0].Stock
	}
	require.Equal(t, 5, mouseStock())

	code, env := s.do(http.MethodDelete, "/api/v1/manager/sellers/S1001", mgr, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Zero(t, mouseStock(), "stock row of the deleted seller is gone from the snapshot")

	code, env = s.do(http.MethodPost, "/api/v1/cart/items", customer, gin.H{"product_id": "P1"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, apperr.CodeCartQuantity, env.Code)
}

func TestFailureLogsThroughRouterLogger(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestLogger(logger.New(&buf, config.Logger{Level: "info", Format: "text"})))
	r.GET("/boom", func(c *gin.Context) {
		fail(c, errors.New("disk gone"))
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(headerRequestID, "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk gone")
	assert.Contains(t, buf.String(), "request failed")
	assert.Contains(t, buf.String(), "disk gone")
	assert.Contains(t, buf.String(), "request_id=req-42")
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, Options{RateRPS: 0.001, RateBurst: 1})

	code, _ := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	code, env := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, apperr.CodeError, env.Code)
}

func TestTimeoutMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(50 * time.Millisecond))
	var deadlineSet bool
	r.GET("/", func(c *gin.Context) {
		_, deadlineSet = c.Request.Context().Deadline()
		c.Status(http.StatusNoContent)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.Background()))
	assert.True(t, deadlineSet)
}

func itoa(id uint64) string {
	return strconv.FormatUint(id, 10)
}
