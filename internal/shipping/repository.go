package shipping

import (
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-storefront/internal/pricing"
)

// Repository decides which methods are offered for a basket.
type Repository struct {
	fixed FixedPrice
	// freeThreshold is the basket total (incl tax) from which free shipping
	// is offered. Zero offers it unconditionally.
	freeThreshold decimal.Decimal
}

func NewRepository(strategy pricing.Strategy, fixedCharge, freeThreshold decimal.Decimal) *Repository {
	return &Repository{
		fixed:         FixedPrice{ChargeExclTax: fixedCharge, Strategy: strategy},
		freeThreshold: freeThreshold,
	}
}

// Methods lists the available methods, default first.
func (r *Repository) Methods(b *pricing.Basket, user *entity.User, addr *entity.Address) []Method {
	if !b.RequiresShipping() {
		return []Method{NoShippingRequired{}}
	}

	methods := make([]Method, 0, 2)
	if !r.freeThreshold.IsPositive() || b.TotalInclTax.GreaterThanOrEqual(r.freeThreshold) {
		methods = append(methods, Free{})
	}
	methods = append(methods, r.fixed)
	return methods
}

// Default is the first listed method.
func (r *Repository) Default(b *pricing.Basket, user *entity.User, addr *entity.Address) Method {
	return r.Methods(b, user, addr)[0]
}

// ByCode returns the listed method with the given code, falling back to the
// default when no method matches.
func (r *Repository) ByCode(b *pricing.Basket, user *entity.User, addr *entity.Address, code string) Method {
	methods := r.Methods(b, user, addr)
	for _, m := range methods {
		if m.Code() == code {
			return m
		}
	}
	return methods[0]
}
