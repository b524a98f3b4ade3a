package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func tracked() *entity.Product {
	return &entity.Product{ID: 1, Title: "Gopher Mug", Class: &entity.ProductClass{TrackStock: true, RequiresShipping: true}}
}

func TestFetchForProduct(t *testing.T) {
	s := NewStrategy("GBP", dec("0.2"))

	t.Run("no stock record is unavailable", func(t *testing.T) {
		info := s.FetchForProduct(tracked(), nil)
		assert.False(t, info.Availability.IsAvailableToBuy)
		ok, reason := info.Availability.IsPurchasePermitted(1)
		assert.False(t, ok)
		assert.Equal(t, "unavailable", reason)
		assert.Nil(t, info.StockRecord)
	})

	t.Run("first stock record wins and tax is added", func(t *testing.T) {
		records := []entity.StockRecord{
			{ID: 7, Currency: "GBP", PriceExclTax: dec("10.00"), NumInStock: 5, NumAllocated: 2},
			{ID: 8, Currency: "GBP", PriceExclTax: dec("1.00"), NumInStock: 50},
		}
		info := s.FetchForProduct(tracked(), records)
		require.NotNil(t, info.StockRecord)
		assert.Equal(t, int64(7), info.StockRecord.ID)
		assert.True(t, info.Price.ExclTax.Equal(dec("10")))
		assert.True(t, info.Price.InclTax.Equal(dec("12")))
		assert.True(t, info.Availability.IsAvailableToBuy)
		assert.Equal(t, "In stock (3 available)", info.Availability.Message)
	})

	t.Run("quantity above free stock is refused", func(t *testing.T) {
		records := []entity.StockRecord{{Currency: "GBP", PriceExclTax: dec("3"), NumInStock: 2}}
		info := s.FetchForProduct(tracked(), records)
		ok, reason := info.Availability.IsPurchasePermitted(3)
		assert.False(t, ok)
		assert.Equal(t, "a maximum of 2 can be bought", reason)
	})

	t.Run("fully allocated stock", func(t *testing.T) {
		records := []entity.StockRecord{{Currency: "GBP", PriceExclTax: dec("3"), NumInStock: 2, NumAllocated: 2}}
		info := s.FetchForProduct(tracked(), records)
		ok, reason := info.Availability.IsPurchasePermitted(1)
		assert.False(t, ok)
		assert.Equal(t, "no stock available", reason)
	})

	t.Run("untracked class is always available", func(t *testing.T) {
		p := &entity.Product{Class: &entity.ProductClass{TrackStock: false}}
		records := []entity.StockRecord{{Currency: "GBP", PriceExclTax: dec("3")}}
		info := s.FetchForProduct(p, records)
		ok, _ := info.Availability.IsPurchasePermitted(1000)
		assert.True(t, ok)
		assert.Nil(t, info.Availability.NumAvailable)
	})
}

func TestPriceBasket(t *testing.T) {
	s := NewStrategy("GBP", dec("0.2"))
	mug := tracked()
	ebook := &entity.Product{ID: 2, Title: "Ebook", Class: &entity.ProductClass{RequiresShipping: false}}
	products := map[int64]*entity.Product{1: mug, 2: ebook}
	records := map[int64]*entity.StockRecord{
		10: {ID: 10, ProductID: 1, Currency: "GBP", PriceExclTax: dec("10.00"), NumInStock: 10},
		20: {ID: 20, ProductID: 2, Currency: "GBP", PriceExclTax: dec("5.00"), NumInStock: 10},
	}
	b := &entity.Basket{ID: 1, Lines: []entity.BasketLine{
		{ID: 1, ProductID: 1, StockRecordID: 10, Quantity: 2, PriceExclTax: dec("10.00")},
		{ID: 2, ProductID: 2, StockRecordID: 20, Quantity: 1, PriceExclTax: dec("4.00")},
	}}

	t.Run("totals without vouchers", func(t *testing.T) {
		pb := s.PriceBasket(b, products, records, nil)
		assert.Equal(t, "GBP", pb.Currency)
		assert.True(t, pb.TotalExclTax.Equal(dec("25")), pb.TotalExclTax.String())
		assert.True(t, pb.TotalInclTax.Equal(dec("30")), pb.TotalInclTax.String())
		assert.True(t, pb.TotalTax().Equal(dec("5")))
		assert.True(t, pb.RequiresShipping())
		assert.Empty(t, pb.Lines[0].Warning)
		assert.Equal(t, "The price of 'Ebook' has increased from 4.00 to 5.00", pb.Lines[1].Warning)
	})

	t.Run("percentage voucher is spread over lines", func(t *testing.T) {
		v := entity.Voucher{
			Code: "TEN", BenefitType: entity.BenefitPercentage, BenefitValue: dec("10"),
			StartAt: time.Now().Add(-time.Hour), EndAt: time.Now().Add(time.Hour),
		}
		pb := s.PriceBasket(b, products, records, []entity.Voucher{v})
		require.Len(t, pb.VoucherDiscounts, 1)
		assert.True(t, pb.VoucherDiscounts[0].Amount.Equal(dec("2.5")))
		assert.True(t, pb.TotalExclTaxExclDiscounts.Equal(dec("25")))
		assert.True(t, pb.TotalExclTax.Equal(dec("22.5")), pb.TotalExclTax.String())
		assert.True(t, pb.TotalInclTax.Equal(dec("27")), pb.TotalInclTax.String())
		assert.True(t, pb.Lines[0].PriceExclTaxInclDiscounts.Equal(dec("18")))
		assert.True(t, pb.Lines[1].PriceExclTaxInclDiscounts.Equal(dec("4.5")))
	})

	t.Run("absolute voucher never exceeds the subtotal", func(t *testing.T) {
		v := entity.Voucher{Code: "BIG", BenefitType: entity.BenefitAbsolute, BenefitValue: dec("100")}
		pb := s.PriceBasket(b, products, records, []entity.Voucher{v})
		assert.True(t, pb.TotalExclTax.IsZero(), pb.TotalExclTax.String())
		assert.True(t, pb.TotalInclTax.IsZero())
	})

	t.Run("digital only basket needs no shipping", func(t *testing.T) {
		digital := &entity.Basket{Lines: []entity.BasketLine{{ProductID: 2, StockRecordID: 20, Quantity: 1}}}
		pb := s.PriceBasket(digital, products, records, nil)
		assert.False(t, pb.RequiresShipping())
	})
}
