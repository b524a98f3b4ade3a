package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/infra/adapters/cached"
	"github.com/jcmexdev/ecommerce-storefront/internal/api/infra/adapters/sqlite"
	"github.com/jcmexdev/ecommerce-storefront/internal/auth"
	"github.com/jcmexdev/ecommerce-storefront/internal/basket"
	"github.com/jcmexdev/ecommerce-storefront/internal/checkout"
	sagasqlite "github.com/jcmexdev/ecommerce-storefront/internal/coordinator/sagalog/sqlite"
	"github.com/jcmexdev/ecommerce-storefront/internal/pkg/cache"
	"github.com/jcmexdev/ecommerce-storefront/internal/pkg/interceptors/constants"
	"github.com/jcmexdev/ecommerce-storefront/internal/pkg/telemetry"
	"github.com/jcmexdev/ecommerce-storefront/internal/pricing"
	"github.com/jcmexdev/ecommerce-storefront/internal/shipping"
)

const demoPassword = "gopher123"

type testServer struct {
	*httptest.Server
	demo     *sqlite.Demo
	sessions *auth.Sessions
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	hash, err := auth.HashPassword(demoPassword)
	require.NoError(t, err)
	demo, err := store.Seed(ctx, hash)
	require.NoError(t, err)

	sagas, err := sagasqlite.New(store.DB())
	require.NoError(t, err)

	c := cache.NewMemoryCache("test")
	metrics := telemetry.NewMetrics()
	catalogue := cached.NewCatalogue(store, c, time.Minute)
	strategy := pricing.NewStrategy("GBP", decimal.Zero)
	shippingRepo := shipping.NewRepository(strategy, decimal.RequireFromString("5.00"), decimal.NewFromInt(100))
	baskets := basket.NewService(store, catalogue, store, strategy)
	checkoutSvc := checkout.NewService(
		checkout.Config{Currency: "GBP"},
		checkout.Repositories{Baskets: store, Catalogue: catalogue, Orders: store, Stock: store, Vouchers: store},
		baskets, shippingRepo, sagas, c, metrics,
	)
	sessions := auth.NewSessions("test-secret", time.Hour, c)

	handler := NewHandler(Deps{
		Catalogue:     catalogue,
		Baskets:       store,
		Orders:        store,
		Users:         store,
		BasketService: baskets,
		Checkout:      checkoutSvc,
		Shipping:      shippingRepo,
		Strategy:      strategy,
		Authenticator: auth.NewAuthenticator(store, true),
		Sessions:      sessions,
	})
	srv := httptest.NewServer(NewRouter(handler, metrics))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, demo: demo, sessions: sessions}
}

// client remembers the last session token the server handed out.
type client struct {
	t     *testing.T
	srv   *testServer
	token string
}

func (s *testServer) client(t *testing.T) *client {
	return &client{t: t, srv: s}
}

// staff returns a client holding a session for the demo admin user.
func (s *testServer) staff(t *testing.T) *client {
	admin := s.demo.Users["admin@example.com"]
	token, _, err := s.sessions.Issue(&admin.ID, nil)
	require.NoError(t, err)
	return &client{t: t, srv: s, token: token}
}

func (c *client) do(method, path string, body any, headers ...string) (int, []byte) {
	c.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.srv.URL+path, rdr)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set(HeaderSessionID, c.token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	if tok := resp.Header.Get(HeaderSessionID); tok != "" {
		c.token = tok
	}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func (c *client) addProduct(productID int64, qty int) (int, []byte) {
	return c.do(http.MethodPost, "/api/basket/add-product/", map[string]any{
		"url":      c.srv.URL + "/api/products/" + strconv.FormatInt(productID, 10) + "/",
		"quantity": qty,
	})
}

func (c *client) login(email string) {
	c.t.Helper()
	status, raw := c.do(http.MethodPost, "/api/login/", map[string]string{"username": email, "password": demoPassword})
	require.Equal(c.t, http.StatusOK, status, string(raw))
}

func checkoutBody(s *testServer, basketURL, total string) map[string]any {
	return map[string]any{
		"basket": basketURL,
		"total":  total,
		"shipping_charge": map[string]string{
			"currency": "GBP", "excl_tax": "5.00", "incl_tax": "5.00", "tax": "0.00",
		},
		"shipping_method_code": shipping.CodeFixedPrice,
		"shipping_address": map[string]string{
			"first_name": "Alice", "last_name": "Gopher", "line1": "1 Gopher Lane",
			"line4": "London", "postcode": "N1 1AA", "country": s.URL + "/api/countries/GB/",
		},
	}
}

func TestRoot(t *testing.T) {
	srv := newTestServer(t)
	status, raw := srv.client(t).do(http.MethodGet, "/api/", nil)
	require.Equal(t, http.StatusOK, status)

	root := decode[map[string]string](t, raw)
	assert.Equal(t, srv.URL+"/api/products/", root["products"])
	assert.Equal(t, srv.URL+"/api/basket/add-product/", root["basket-add-product"])
}

func TestProducts(t *testing.T) {
	srv := newTestServer(t)
	c := srv.client(t)
	gopl := srv.demo.Products[0]
	tales := srv.demo.Products[2]

	status, raw := c.do(http.MethodGet, "/api/products/", nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[[]ProductLinkResponse](t, raw)
	require.Len(t, list, 4)
	assert.Equal(t, fmt.Sprintf("%s/api/products/%d/", srv.URL, gopl.ID), list[0].URL)

	status, raw = c.do(http.MethodGet, fmt.Sprintf("/api/products/%d/", gopl.ID), nil)
	require.Equal(t, http.StatusOK, status)
	p := decode[ProductResponse](t, raw)
	assert.Equal(t, "The Go Programming Language", p.Title)
	assert.Equal(t, []string{"Books > Computing"}, p.Categories)
	assert.Equal(t, fmt.Sprintf("%s/api/products/%d/price/", srv.URL, gopl.ID), p.Price)

	status, raw = c.do(http.MethodGet, fmt.Sprintf("/api/products/%d/price/", gopl.ID), nil)
	require.Equal(t, http.StatusOK, status)
	price := decode[PriceResponse](t, raw)
	assert.Equal(t, "GBP", price.Currency)
	assert.Equal(t, "30.00", price.ExclTax)

	status, raw = c.do(http.MethodGet, fmt.Sprintf("/api/products/%d/availability/", tales.ID), nil)
	require.Equal(t, http.StatusOK, status)
	avail := decode[AvailabilityResponse](t, raw)
	assert.False(t, avail.IsAvailableToBuy)
	assert.Equal(t, "Unavailable", avail.Message)

	status, raw = c.do(http.MethodGet, "/api/products/999/", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", decode[ErrorResponse](t, raw).Error)

	status, raw = c.do(http.MethodGet, "/api/countries/gb/", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "GB", decode[CountryResponse](t, raw).ISOCode)
}

func TestV1Products(t *testing.T) {
	srv := newTestServer(t)
	c := srv.client(t)

	status, raw := c.do(http.MethodGet, "/api/v1/products/?limit=2", nil)
	require.Equal(t, http.StatusOK, status)
	page := decode[V1List[V1Product]](t, raw)
	assert.Equal(t, 4, page.Meta.TotalCount)
	require.Len(t, page.Objects, 2)
	require.NotNil(t, page.Meta.Next)
	assert.Equal(t, "/api/v1/products/?limit=2&offset=2", *page.Meta.Next)
	assert.Nil(t, page.Meta.Previous)

	first := page.Objects[0]
	assert.Equal(t, "The Go Programming Language", first.Title)
	require.NotNil(t, first.ImageURL)
	assert.Equal(t, srv.URL+"/media/images/products/gopl.jpg", *first.ImageURL)
	assert.Equal(t, fmt.Sprintf("/api/v1/products/%d/", first.ID), first.ResourceURI)

	status, raw = c.do(http.MethodGet, "/api/v1/products/?limit=2&offset=2", nil)
	require.Equal(t, http.StatusOK, status)
	page = decode[V1List[V1Product]](t, raw)
	assert.Nil(t, page.Meta.Next)
	require.NotNil(t, page.Meta.Previous)
	assert.Nil(t, page.Objects[0].ImageURL)

	status, _ = c.do(http.MethodGet, "/api/v1/products/?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAnonymousBasket(t *testing.T) {
	srv := newTestServer(t)
	c := srv.client(t)

	status, raw := c.do(http.MethodGet, "/api/basket/", nil)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, c.token, "a session is issued with the new basket")
	b := decode[BasketResponse](t, raw)
	assert.Equal(t, "Open", b.Status)
	assert.Nil(t, b.Owner)

	status, raw = c.addProduct(srv.demo.Products[0].ID, 2)
	require.Equal(t, http.StatusOK, status, string(raw))
	b2 := decode[BasketResponse](t, raw)
	assert.Equal(t, b.ID, b2.ID, "the session keeps the basket")
	assert.Equal(t, "60.00", b2.TotalInclTax)

	status, raw = c.addProduct(srv.demo.Products[2].ID, 1)
	assert.Equal(t, http.StatusNotAcceptable, status)
	assert.Equal(t, "no stock available", decode[ErrorResponse](t, raw).Message)

	status, raw = c.do(http.MethodPost, "/api/basket/add-product/", map[string]any{"url": "http://x/api/partners/1/", "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []string{"Invalid hyperlink - Incorrect URL match."}, decode[ErrorResponse](t, raw).Fields["url"])

	status, raw = c.do(http.MethodPost, "/api/basket/add-voucher/", map[string]string{"vouchercode": "tenoff"})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, "TENOFF", decode[VoucherResponse](t, raw).Code)

	status, raw = c.do(http.MethodPost, "/api/basket/add-voucher/", map[string]string{"vouchercode": "WELCOME5"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "This voucher is only available to signed in users", decode[ErrorResponse](t, raw).Message)

	status, raw = c.do(http.MethodGet, "/api/basket/shipping-methods/", nil)
	require.Equal(t, http.StatusOK, status)
	methods := decode[[]ShippingMethodResponse](t, raw)
	require.Len(t, methods, 1)
	assert.Equal(t, shipping.CodeFixedPrice, methods[0].Code)
	assert.Equal(t, "5.00", methods[0].Price.ExclTax)

	status, raw = c.do(http.MethodGet, fmt.Sprintf("/api/baskets/%d/lines/", b.ID), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]BasketLineResponse](t, raw), 1)

	other := srv.client(t)
	status, _ = other.do(http.MethodGet, fmt.Sprintf("/api/baskets/%d/", b.ID), nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestInvalidSessionStartsAnonymous(t *testing.T) {
	srv := newTestServer(t)
	c := srv.client(t)
	c.token = "not-a-token"

	status, _ := c.do(http.MethodGet, "/api/login/", nil)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name, email, password, message string
	}{
		{"wrong password", "alice@example.com", "nope", "invalid login"},
		{"unknown user", "nobody@example.com", demoPassword, "invalid login"},
		{"inactive", "bob@example.com", demoPassword, "Can not log in as inactive user"},
		{"staff", "admin@example.com", demoPassword, "Staff users can not log in via the rest api"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, raw := srv.client(t).do(http.MethodPost, "/api/login/", map[string]string{"email": tc.email, "password": tc.password})
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tc.message, decode[ErrorResponse](t, raw).Message)
		})
	}

	t.Run("merges the anonymous basket and logs out", func(t *testing.T) {
		c := srv.client(t)
		status, _ := c.addProduct(srv.demo.Products[1].ID, 1)
		require.Equal(t, http.StatusOK, status)

		c.login("alice@example.com")
		status, raw := c.do(http.MethodGet, "/api/login/", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "alice@example.com", decode[UserResponse](t, raw).Email)

		status, raw = c.do(http.MethodGet, "/api/basket/", nil)
		require.Equal(t, http.StatusOK, status)
		b := decode[BasketResponse](t, raw)
		require.NotNil(t, b.Owner)
		assert.Equal(t, "25.00", b.TotalInclTax)

		status, raw = c.do(http.MethodPost, "/api/login/", map[string]string{"email": "carol@example.com", "password": demoPassword})
		assert.Equal(t, http.StatusMethodNotAllowed, status)
		assert.Equal(t, "Session is in use, log out first", decode[ErrorResponse](t, raw).Message)

		revoked := c.token
		status, _ = c.do(http.MethodDelete, "/api/login/", nil)
		assert.Equal(t, http.StatusNoContent, status)

		c.token = revoked
		status, _ = c.do(http.MethodGet, "/api/login/", nil)
		assert.Equal(t, http.StatusNoContent, status, "revoked tokens are anonymous")
	})
}

func TestCheckout(t *testing.T) {
	srv := newTestServer(t)
	c := srv.client(t)
	c.login("alice@example.com")

	status, raw := c.addProduct(srv.demo.Products[0].ID, 2)
	require.Equal(t, http.StatusOK, status, string(raw))
	b := decode[BasketResponse](t, raw)

	t.Run("wrong total", func(t *testing.T) {
		status, raw := c.do(http.MethodPost, "/api/checkout/", checkoutBody(srv, b.URL, "10.00"))
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Total incorrect 10.00 != 60.00", decode[ErrorResponse](t, raw).Message)
	})

	t.Run("bad country link", func(t *testing.T) {
		body := checkoutBody(srv, b.URL, "60.00")
		body["shipping_address"].(map[string]string)["country"] = "http://x/api/partners/1/"
		status, raw := c.do(http.MethodPost, "/api/checkout/", body)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, decode[ErrorResponse](t, raw).Fields, "shipping_address.country")
	})

	status, raw = c.do(http.MethodPost, "/api/checkout/", checkoutBody(srv, b.URL, "60.00"), constants.HeaderXIdempotencyKey, "order-1")
	require.Equal(t, http.StatusOK, status, string(raw))
	order := decode[OrderResponse](t, raw)
	assert.Equal(t, strconv.FormatInt(checkout.OrderNumberOffset+b.ID, 10), order.Number)
	assert.Equal(t, "65.00", order.TotalInclTax)
	assert.Equal(t, shipping.CodeFixedPrice, order.ShippingCode)
	assert.Equal(t, paymentURLHint, order.PaymentURL)
	require.NotNil(t, order.ShippingAddress)
	assert.Equal(t, srv.URL+"/api/countries/GB/", order.ShippingAddress.Country)

	status, raw = c.do(http.MethodPost, "/api/checkout/", checkoutBody(srv, b.URL, "60.00"), constants.HeaderXIdempotencyKey, "order-1")
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, order.Number, decode[OrderResponse](t, raw).Number, "retries replay the first order")

	status, raw = c.do(http.MethodPost, "/api/checkout/", checkoutBody(srv, b.URL, "60.00"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []string{"Basket is not open for checkout"}, decode[ErrorResponse](t, raw).Fields["basket"])

	status, raw = c.do(http.MethodGet, "/api/basket/", nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEqual(t, b.ID, decode[BasketResponse](t, raw).ID, "a submitted basket is replaced")

	status, raw = c.do(http.MethodGet, "/api/orders/", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]OrderResponse](t, raw), 1)

	status, raw = c.do(http.MethodGet, "/api/orders/"+strconv.FormatInt(orderID(t, order.URL), 10)+"/lines/", nil)
	require.Equal(t, http.StatusOK, status)
	lines := decode[[]OrderLineResponse](t, raw)
	require.Len(t, lines, 1)

	carol := srv.client(t)
	status, _ = carol.do(http.MethodGet, "/api/orders/", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	carol.login("carol@example.com")
	status, _ = carol.do(http.MethodGet, "/api/orders/"+strconv.FormatInt(orderID(t, order.URL), 10)+"/", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, raw = srv.staff(t).do(http.MethodGet, "/api/orders/", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]OrderResponse](t, raw), 1)
}

func orderID(t *testing.T, raw string) int64 {
	t.Helper()
	id, ok := idFromURL(raw, "orders")
	require.True(t, ok, raw)
	return id
}

func TestUsersRequireStaff(t *testing.T) {
	srv := newTestServer(t)

	status, _ := srv.client(t).do(http.MethodGet, "/api/users/", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	alice := srv.client(t)
	alice.login("alice@example.com")
	status, raw := alice.do(http.MethodGet, "/api/users/", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "permission_denied", decode[ErrorResponse](t, raw).Error)

	status, raw = srv.staff(t).do(http.MethodGet, "/api/users/", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]UserResponse](t, raw), 4)
}

func TestStaffBaskets(t *testing.T) {
	srv := newTestServer(t)
	staff := srv.staff(t)
	alice := srv.demo.Users["alice@example.com"]

	status, raw := staff.do(http.MethodPost, "/api/baskets/", map[string]string{
		"owner": fmt.Sprintf("%s/api/users/%d/", srv.URL, alice.ID),
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	b := decode[BasketResponse](t, raw)
	require.NotNil(t, b.Owner)

	status, raw = staff.do(http.MethodPatch, fmt.Sprintf("/api/baskets/%d/", b.ID), map[string]string{"status": "Frozen"})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, "Frozen", decode[BasketResponse](t, raw).Status)

	status, _ = staff.do(http.MethodDelete, fmt.Sprintf("/api/baskets/%d/", b.ID), nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = staff.do(http.MethodGet, fmt.Sprintf("/api/baskets/%d/", b.ID), nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestLineAttributesRequireBasketAccess(t *testing.T) {
	srv := newTestServer(t)
	owner := srv.client(t)

	status, raw := owner.addProduct(srv.demo.Products[0].ID, 1)
	require.Equal(t, http.StatusOK, status, string(raw))
	b := decode[BasketResponse](t, raw)
	status, raw = owner.do(http.MethodGet, fmt.Sprintf("/api/baskets/%d/lines/", b.ID), nil)
	require.Equal(t, http.StatusOK, status)
	lines := decode[[]BasketLineResponse](t, raw)
	require.Len(t, lines, 1)

	body := map[string]string{
		"line":   lines[0].URL,
		"option": fmt.Sprintf("%s/api/options/%d/", srv.URL, srv.demo.Options[0].ID),
		"value":  "Happy birthday",
	}
	status, raw = owner.do(http.MethodPost, "/api/lineattributes/", body)
	require.Equal(t, http.StatusCreated, status, string(raw))
	attr := decode[LineAttributeResponse](t, raw)
	attrURL, err := url.Parse(attr.URL)
	require.NoError(t, err)

	stranger := srv.client(t)
	status, _ = stranger.do(http.MethodGet, "/api/basket/", nil)
	require.Equal(t, http.StatusOK, status)

	t.Run("create on another basket's line", func(t *testing.T) {
		status, raw := stranger.do(http.MethodPost, "/api/lineattributes/", body)
		assert.Equal(t, http.StatusForbidden, status, string(raw))
	})

	t.Run("read another basket's attribute", func(t *testing.T) {
		status, _ := stranger.do(http.MethodGet, attrURL.Path, nil)
		assert.Equal(t, http.StatusForbidden, status)

		status, _ = owner.do(http.MethodGet, attrURL.Path, nil)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("list is limited to accessible baskets", func(t *testing.T) {
		status, raw := stranger.do(http.MethodGet, "/api/lineattributes/", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Empty(t, decode[[]LineAttributeResponse](t, raw))

		status, raw = owner.do(http.MethodGet, "/api/lineattributes/", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, decode[[]LineAttributeResponse](t, raw), 1)

		status, raw = srv.staff(t).do(http.MethodGet, "/api/lineattributes/", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, decode[[]LineAttributeResponse](t, raw), 1)
	})

	t.Run("missing line is a field error", func(t *testing.T) {
		missing := map[string]string{"line": srv.URL + "/api/lines/999/", "option": body["option"], "value": "x"}
		status, raw := owner.do(http.MethodPost, "/api/lineattributes/", missing)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, []string{"Invalid hyperlink - Object does not exist."}, decode[ErrorResponse](t, raw).Fields["line"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	c := srv.client(t)
	c.do(http.MethodGet, "/api/", nil)
	for _, p := range srv.demo.Products[:2] {
		c.do(http.MethodGet, fmt.Sprintf("/api/products/%d/", p.ID), nil)
	}

	status, raw := c.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	body := string(raw)
	assert.Contains(t, body, `shop_http_requests_total{method="GET",route="/api/",status="200"} 1`)
	assert.Contains(t, body, `shop_http_requests_total{method="GET",route="/api/products/{pk}/",status="200"} 2`)
}

func TestRequestIDEchoed(t *testing.T) {
	srv := newTestServer(t)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "req-42")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "req-42", resp.Header.Get("X-Request-Id"))
}
