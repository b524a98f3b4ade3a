package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Price is an amount in a currency, split into the part before tax and the
// part including tax. IsTaxKnown is false when only the excl_tax amount was
// supplied (for example a client-submitted shipping charge without incl_tax).
type Price struct {
	Currency   string
	ExclTax    decimal.Decimal
	InclTax    decimal.Decimal
	IsTaxKnown bool
}

// NewPrice returns a Price with tax known.
func NewPrice(currency string, exclTax, inclTax decimal.Decimal) Price {
	return Price{
		Currency:   currency,
		ExclTax:    exclTax,
		InclTax:    inclTax,
		IsTaxKnown: true,
	}
}

// ZeroPrice is a tax-known price of nothing in the given currency.
func ZeroPrice(currency string) Price {
	return NewPrice(currency, decimal.Zero, decimal.Zero)
}

func (p Price) Tax() decimal.Decimal {
	return p.InclTax.Sub(p.ExclTax)
}

// Add sums two prices in the same currency. Tax is known only if both sides know it.
func (p Price) Add(o Price) Price {
	return Price{
		Currency:   p.Currency,
		ExclTax:    p.ExclTax.Add(o.ExclTax),
		InclTax:    p.InclTax.Add(o.InclTax),
		IsTaxKnown: p.IsTaxKnown && o.IsTaxKnown,
	}
}

// Equal compares currency and excl_tax, and incl_tax when both prices know it.
func (p Price) Equal(o Price) bool {
	if p.Currency != o.Currency || !p.ExclTax.Equal(o.ExclTax) {
		return false
	}
	if p.IsTaxKnown && o.IsTaxKnown {
		return p.InclTax.Equal(o.InclTax)
	}
	return true
}

func (p Price) String() string {
	if !p.IsTaxKnown {
		return fmt.Sprintf("Price(currency=%s, excl_tax=%s)", p.Currency, p.ExclTax.StringFixed(2))
	}
	return fmt.Sprintf("Price(currency=%s, excl_tax=%s, incl_tax=%s)",
		p.Currency, p.ExclTax.StringFixed(2), p.InclTax.StringFixed(2))
}
