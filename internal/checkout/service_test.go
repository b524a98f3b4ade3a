package checkout

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-storefront/internal/api/infra/adapters/sqlite"
	"github.com/jcmexdev/ecommerce-storefront/internal/basket"
	"github.com/jcmexdev/ecommerce-storefront/internal/coordinator/sagalog"
	sagasqlite "github.com/jcmexdev/ecommerce-storefront/internal/coordinator/sagalog/sqlite"
	"github.com/jcmexdev/ecommerce-storefront/internal/pkg/cache"
	"github.com/jcmexdev/ecommerce-storefront/internal/pkg/telemetry"
	"github.com/jcmexdev/ecommerce-storefront/internal/pricing"
	"github.com/jcmexdev/ecommerce-storefront/internal/shipping"
)

type fixture struct {
	svc     *Service
	baskets *basket.Service
	store   *sqlite.Store
	sagas   *sagasqlite.Repository
	demo    *sqlite.Demo
}

func newFixture(t *testing.T, allowAnonymous bool) *fixture {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	demo, err := store.Seed(context.Background(), "unused")
	require.NoError(t, err)

	sagas, err := sagasqlite.New(store.DB())
	require.NoError(t, err)

	strategy := pricing.NewStrategy("GBP", decimal.Zero)
	baskets := basket.NewService(store, store, store, strategy)
	shippingRepo := shipping.NewRepository(strategy, decimal.RequireFromString("5.00"), decimal.NewFromInt(100))

	svc := NewService(
		Config{AllowAnonymous: allowAnonymous, Currency: "GBP"},
		Repositories{Baskets: store, Catalogue: store, Orders: store, Stock: store, Vouchers: store},
		baskets,
		shippingRepo,
		sagas,
		cache.NewMemoryCache("test"),
		telemetry.NewMetrics(),
	)
	return &fixture{svc: svc, baskets: baskets, store: store, sagas: sagas, demo: demo}
}

// basketWith fills the principal's basket with one line per product index.
func (f *fixture) basketWith(t *testing.T, p entity.Principal, items map[int]int) *entity.Basket {
	t.Helper()
	ctx := context.Background()
	b, _, err := f.baskets.ForPrincipal(ctx, p)
	require.NoError(t, err)
	for idx, qty := range items {
		b, err = f.store.GetBasket(ctx, b.ID)
		require.NoError(t, err)
		_, err = f.baskets.AddProduct(ctx, b, f.demo.Products[idx].ID, qty, nil)
		require.NoError(t, err)
	}
	b, err = f.store.GetBasket(ctx, b.ID)
	require.NoError(t, err)
	return b
}

func ukAddress() *entity.Address {
	return &entity.Address{FirstName: "Alice", LastName: "Gopher", Line1: "1 Gopher Lane", Line4: "London", Postcode: "N1 1AA", CountryCode: "gb"}
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func validationMessage(t *testing.T, err error) string {
	t.Helper()
	var verr *entity.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	return verr.Message
}

func TestCheckoutPlacesOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	alice := entity.Principal{User: f.demo.Users["alice@example.com"]}
	b := f.basketWith(t, alice, map[int]int{0: 2})

	order, err := f.svc.Checkout(ctx, alice, Request{
		BasketID:        b.ID,
		Total:           dec("60.00"),
		ShippingCharge:  &PostedPrice{Currency: "GBP", ExclTax: decimal.RequireFromString("5.00"), InclTax: dec("5.00")},
		ShippingAddress: ukAddress(),
	}, "")
	require.NoError(t, err)

	assert.Equal(t, OrderNumber(b.ID), order.Number)
	assert.Equal(t, "65.00", order.TotalInclTax.StringFixed(2))
	assert.Equal(t, "5.00", order.ShippingInclTax.StringFixed(2))
	assert.Equal(t, shipping.CodeFixedPrice, order.ShippingCode)
	assert.Equal(t, "new", order.Status)
	require.NotNil(t, order.ShippingAddress)
	assert.Equal(t, "GB", order.ShippingAddress.CountryCode)

	stored, err := f.store.GetOrderByNumber(ctx, order.Number)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)
	assert.Equal(t, "Gopher Books", stored.Lines[0].PartnerName)
	assert.Equal(t, "The Go Programming Language", stored.Lines[0].Title)
	assert.Equal(t, 2, stored.Lines[0].Quantity)

	submitted, err := f.store.GetBasket(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BasketSubmitted, submitted.Status)

	sr, err := f.store.GetStockRecord(ctx, f.demo.StockRecords[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sr.NumAllocated)

	history, err := f.sagas.History(ctx, order.Number)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, sagalog.StatusStarted, history[0].Status)
	assert.Equal(t, sagalog.StatusCompleted, history[len(history)-1].Status)
}

func TestCheckoutValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	alice := entity.Principal{User: f.demo.Users["alice@example.com"]}
	b := f.basketWith(t, alice, map[int]int{0: 2})

	t.Run("anonymous", func(t *testing.T) {
		_, err := f.svc.Checkout(ctx, entity.Principal{}, Request{BasketID: b.ID}, "")
		assert.Equal(t, "Anonymous checkout forbidden", validationMessage(t, err))
	})

	t.Run("missing basket", func(t *testing.T) {
		_, err := f.svc.Checkout(ctx, alice, Request{}, "")
		var verr *entity.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"This field is required."}, verr.Fields["basket"])
	})

	t.Run("unknown basket", func(t *testing.T) {
		_, err := f.svc.Checkout(ctx, alice, Request{BasketID: 9999}, "")
		var verr *entity.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"Invalid hyperlink - Object does not exist."}, verr.Fields["basket"])
	})

	t.Run("someone else's basket", func(t *testing.T) {
		carol := entity.Principal{User: f.demo.Users["carol@example.com"]}
		_, err := f.svc.Checkout(ctx, carol, Request{BasketID: b.ID, ShippingAddress: ukAddress()}, "")
		assert.ErrorIs(t, err, entity.ErrForbidden)
	})

	t.Run("wrong total", func(t *testing.T) {
		_, err := f.svc.Checkout(ctx, alice, Request{BasketID: b.ID, Total: dec("10"), ShippingAddress: ukAddress()}, "")
		assert.Equal(t, "Total incorrect 10.00 != 60.00", validationMessage(t, err))
	})

	t.Run("wrong shipping charge", func(t *testing.T) {
		_, err := f.svc.Checkout(ctx, alice, Request{
			BasketID:        b.ID,
			ShippingCharge:  &PostedPrice{ExclTax: decimal.RequireFromString("4.00")},
			ShippingAddress: ukAddress(),
		}, "")
		assert.Equal(t,
			"Shipping price incorrect Price(currency=GBP, excl_tax=4.00) != Price(currency=GBP, excl_tax=5.00, incl_tax=5.00)",
			validationMessage(t, err))
	})

	t.Run("shipping address required", func(t *testing.T) {
		_, err := f.svc.Checkout(ctx, alice, Request{BasketID: b.ID}, "")
		var verr *entity.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "shipping_address")
	})

	t.Run("country not shipped to", func(t *testing.T) {
		addr := ukAddress()
		addr.CountryCode = "US"
		_, err := f.svc.Checkout(ctx, alice, Request{BasketID: b.ID, ShippingAddress: addr}, "")
		var verr *entity.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"We do not ship to this country."}, verr.Fields["shipping_address.country"])
	})

	t.Run("billing address may be anywhere", func(t *testing.T) {
		billing := ukAddress()
		billing.CountryCode = "US"
		v, err := f.svc.Validate(ctx, alice, Request{BasketID: b.ID, ShippingAddress: ukAddress(), BillingAddress: billing})
		require.NoError(t, err)
		assert.Equal(t, "US", v.BillingAddress.CountryCode)
	})

	open, err := f.store.GetBasket(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BasketOpen, open.Status, "rejected checkouts leave the basket open")
}

func TestCheckoutEmptyBasket(t *testing.T) {
	f := newFixture(t, false)
	alice := entity.Principal{User: f.demo.Users["alice@example.com"]}
	b, _, err := f.baskets.ForPrincipal(context.Background(), alice)
	require.NoError(t, err)

	_, err = f.svc.Checkout(context.Background(), alice, Request{BasketID: b.ID}, "")
	assert.Equal(t, "Cannot checkout with an empty basket", validationMessage(t, err))
}

func TestCheckoutIdempotency(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	alice := entity.Principal{User: f.demo.Users["alice@example.com"]}
	b := f.basketWith(t, alice, map[int]int{1: 1})
	req := Request{BasketID: b.ID, ShippingAddress: ukAddress()}

	first, err := f.svc.Checkout(ctx, alice, req, "key-1")
	require.NoError(t, err)

	again, err := f.svc.Checkout(ctx, alice, req, "key-1")
	require.NoError(t, err)
	assert.Equal(t, first.Number, again.Number)

	_, err = f.svc.Checkout(ctx, alice, req, "key-2")
	var verr *entity.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Basket is not open for checkout"}, verr.Fields["basket"])

	sr, err := f.store.GetStockRecord(ctx, f.demo.StockRecords[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sr.NumAllocated, "a replay allocates nothing")
}

func TestCheckoutInsufficientStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	alice := entity.Principal{User: f.demo.Users["alice@example.com"]}
	b := f.basketWith(t, alice, map[int]int{1: 4})

	// Someone else took most of the stock after the line was added.
	require.NoError(t, f.store.Allocate(ctx, f.demo.StockRecords[1].ID, 3, true))

	_, err := f.svc.Checkout(ctx, alice, Request{BasketID: b.ID, ShippingAddress: ukAddress()}, "")
	var na *entity.NotAcceptableError
	require.ErrorAs(t, err, &na)

	_, err = f.store.GetOrderByNumber(ctx, OrderNumber(b.ID))
	assert.ErrorIs(t, err, entity.ErrNotFound)

	open, err := f.store.GetBasket(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BasketOpen, open.Status)

	latest, err := f.sagas.GetLatest(ctx, OrderNumber(b.ID))
	require.NoError(t, err)
	assert.Equal(t, sagalog.StatusFailed, latest.Status)
}

func TestCheckoutVoucher(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	alice := entity.Principal{User: f.demo.Users["alice@example.com"]}
	b := f.basketWith(t, alice, map[int]int{0: 1})
	_, err := f.baskets.AddVoucher(ctx, b, alice, "WELCOME5")
	require.NoError(t, err)

	order, err := f.svc.Checkout(ctx, alice, Request{BasketID: b.ID, Total: dec("25.00"), ShippingAddress: ukAddress()}, "")
	require.NoError(t, err)
	assert.Equal(t, "30.00", order.TotalInclTax.StringFixed(2))

	stored, err := f.store.GetOrderByNumber(ctx, order.Number)
	require.NoError(t, err)
	require.Len(t, stored.Discounts, 1)
	assert.Equal(t, "WELCOME5", stored.Discounts[0].VoucherCode)
	assert.Equal(t, "5.00", stored.Discounts[0].Amount.StringFixed(2))

	uses, err := f.store.CountVoucherUsesByUser(ctx, f.demo.Vouchers["WELCOME5"].ID, alice.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, uses)
}

func TestCheckoutGuest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	b, _, err := f.baskets.ForPrincipal(ctx, entity.Principal{})
	require.NoError(t, err)
	guest := entity.Principal{BasketID: &b.ID}
	b = f.basketWith(t, guest, map[int]int{3: 1})

	_, err = f.svc.Checkout(ctx, guest, Request{BasketID: b.ID}, "")
	var verr *entity.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "guest_email")

	_, err = f.svc.Checkout(ctx, guest, Request{BasketID: b.ID, GuestEmail: "not an email"}, "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Enter a valid email address."}, verr.Fields["guest_email"])

	order, err := f.svc.Checkout(ctx, guest, Request{BasketID: b.ID, GuestEmail: "guest@example.com"}, "")
	require.NoError(t, err)
	assert.Equal(t, shipping.CodeNoShippingRequired, order.ShippingCode)
	assert.Equal(t, "guest@example.com", order.GuestEmail)
	assert.Nil(t, order.UserID)
	assert.Nil(t, order.ShippingAddress)
}

func TestCheckoutSingleUseVoucher(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	alice := entity.Principal{User: f.demo.Users["alice@example.com"]}
	carol := entity.Principal{User: f.demo.Users["carol@example.com"]}

	aliceBasket := f.basketWith(t, alice, map[int]int{0: 1})
	carolBasket := f.basketWith(t, carol, map[int]int{0: 1})
	_, err := f.baskets.AddVoucher(ctx, aliceBasket, alice, "LUCKY")
	require.NoError(t, err)
	_, err = f.baskets.AddVoucher(ctx, carolBasket, carol, "LUCKY")
	require.NoError(t, err)

	order, err := f.svc.Checkout(ctx, alice, Request{BasketID: aliceBasket.ID, ShippingAddress: ukAddress()}, "")
	require.NoError(t, err)
	require.Len(t, order.Discounts, 1)
	assert.Equal(t, "32.00", order.TotalInclTax.StringFixed(2))

	t.Run("a used voucher no longer discounts other baskets", func(t *testing.T) {
		_, err := f.svc.Checkout(ctx, carol, Request{BasketID: carolBasket.ID, Total: dec("27.00"), ShippingAddress: ukAddress()}, "")
		assert.Equal(t, "Total incorrect 27.00 != 30.00", validationMessage(t, err))

		order, err := f.svc.Checkout(ctx, carol, Request{BasketID: carolBasket.ID, ShippingAddress: ukAddress()}, "")
		require.NoError(t, err)
		assert.Empty(t, order.Discounts)
		assert.Equal(t, "35.00", order.TotalInclTax.StringFixed(2))
	})

	lucky, err := f.store.GetVoucherByCode(ctx, "LUCKY")
	require.NoError(t, err)
	assert.Equal(t, 1, lucky.NumOrders)
}

func TestCheckoutVoucherUsedConcurrently(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	alice := entity.Principal{User: f.demo.Users["alice@example.com"]}
	carol := entity.Principal{User: f.demo.Users["carol@example.com"]}

	aliceBasket := f.basketWith(t, alice, map[int]int{0: 1})
	carolBasket := f.basketWith(t, carol, map[int]int{0: 1})
	_, err := f.baskets.AddVoucher(ctx, aliceBasket, alice, "LUCKY")
	require.NoError(t, err)
	_, err = f.baskets.AddVoucher(ctx, carolBasket, carol, "LUCKY")
	require.NoError(t, err)

	// carol's checkout is validated before alice's order uses the voucher
	pending, err := f.svc.Validate(ctx, carol, Request{BasketID: carolBasket.ID, ShippingAddress: ukAddress()})
	require.NoError(t, err)
	require.Len(t, pending.Priced.VoucherDiscounts, 1)

	_, err = f.svc.Checkout(ctx, alice, Request{BasketID: aliceBasket.ID, ShippingAddress: ukAddress()}, "")
	require.NoError(t, err)

	_, err = f.svc.Place(ctx, pending)
	var na *entity.NotAcceptableError
	require.ErrorAs(t, err, &na)
	assert.Equal(t, "The 'LUCKY' voucher is no longer available", na.Reason)

	_, err = f.store.GetOrderByNumber(ctx, OrderNumber(carolBasket.ID))
	assert.ErrorIs(t, err, entity.ErrNotFound)

	b, err := f.store.GetBasket(ctx, carolBasket.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BasketOpen, b.Status)

	sr, err := f.store.GetStockRecord(ctx, f.demo.StockRecords[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sr.NumAllocated, "carol's allocation is released")

	lucky, err := f.store.GetVoucherByCode(ctx, "LUCKY")
	require.NoError(t, err)
	assert.Equal(t, 1, lucky.NumOrders)
}
