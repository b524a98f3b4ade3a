// Package shipping lists the ways a basket can be delivered and what each costs.
package shipping

import (
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-storefront/internal/pricing"
)

const (
	CodeFree               = "free-shipping"
	CodeFixedPrice         = "fixed-price-shipping"
	CodeNoShippingRequired = "no-shipping-required"
)

// Method is a delivery option. Calculate returns the charge for the given basket.
type Method interface {
	Code() string
	Name() string
	Description() string
	Calculate(b *pricing.Basket) entity.Price
}

type Free struct{}

func (Free) Code() string        { return CodeFree }
func (Free) Name() string        { return "Free shipping" }
func (Free) Description() string { return "" }

func (Free) Calculate(b *pricing.Basket) entity.Price {
	return entity.ZeroPrice(b.Currency)
}

// NoShippingRequired is offered alone when nothing in the basket is shippable.
type NoShippingRequired struct{}

func (NoShippingRequired) Code() string        { return CodeNoShippingRequired }
func (NoShippingRequired) Name() string        { return "No shipping required" }
func (NoShippingRequired) Description() string { return "" }

func (NoShippingRequired) Calculate(b *pricing.Basket) entity.Price {
	return entity.ZeroPrice(b.Currency)
}

// FixedPrice charges the same amount whatever the basket holds.
type FixedPrice struct {
	ChargeExclTax decimal.Decimal
	Strategy      pricing.Strategy
}

func (FixedPrice) Code() string        { return CodeFixedPrice }
func (FixedPrice) Name() string        { return "Standard shipping" }
func (FixedPrice) Description() string { return "Delivered in 3 to 5 working days" }

func (m FixedPrice) Calculate(b *pricing.Basket) entity.Price {
	return m.Strategy.WithTax(b.Currency, m.ChargeExclTax)
}
