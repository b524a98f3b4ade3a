package shipping

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-storefront/internal/pricing"
)

func pricedBasket(total string, shippable bool) *pricing.Basket {
	return &pricing.Basket{
		Currency:     "GBP",
		TotalInclTax: decimal.RequireFromString(total),
		Lines: []pricing.Line{{
			Product: &entity.Product{Class: &entity.ProductClass{RequiresShipping: shippable}},
		}},
	}
}

func TestRepositoryMethods(t *testing.T) {
	strategy := pricing.NewStrategy("GBP", decimal.RequireFromString("0.2"))
	charge := decimal.RequireFromString("5.00")

	t.Run("free is default without a threshold", func(t *testing.T) {
		repo := NewRepository(strategy, charge, decimal.Zero)
		b := pricedBasket("1.00", true)
		methods := repo.Methods(b, nil, nil)
		require.Len(t, methods, 2)
		assert.Equal(t, CodeFree, repo.Default(b, nil, nil).Code())
	})

	t.Run("threshold hides free shipping for small baskets", func(t *testing.T) {
		repo := NewRepository(strategy, charge, decimal.RequireFromString("50"))
		small := pricedBasket("49.99", true)
		assert.Equal(t, CodeFixedPrice, repo.Default(small, nil, nil).Code())

		big := pricedBasket("50.00", true)
		assert.Equal(t, CodeFree, repo.Default(big, nil, nil).Code())
	})

	t.Run("fixed price adds tax", func(t *testing.T) {
		repo := NewRepository(strategy, charge, decimal.Zero)
		b := pricedBasket("1.00", true)
		m := repo.ByCode(b, nil, nil, CodeFixedPrice)
		price := m.Calculate(b)
		assert.True(t, price.Equal(entity.NewPrice("GBP", charge, decimal.RequireFromString("6.00"))))
	})

	t.Run("unknown code falls back to default", func(t *testing.T) {
		repo := NewRepository(strategy, charge, decimal.Zero)
		b := pricedBasket("1.00", true)
		assert.Equal(t, CodeFree, repo.ByCode(b, nil, nil, "teleport").Code())
	})

	t.Run("nothing shippable", func(t *testing.T) {
		repo := NewRepository(strategy, charge, decimal.Zero)
		b := pricedBasket("1.00", false)
		methods := repo.Methods(b, nil, nil)
		require.Len(t, methods, 1)
		assert.Equal(t, CodeNoShippingRequired, methods[0].Code())
		assert.True(t, methods[0].Calculate(b).ExclTax.IsZero())
	})
}
