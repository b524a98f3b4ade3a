// Package pricing decides what a product costs and whether it can be bought,
// and applies those rules to a whole basket.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
)

// Strategy prices products from their first stock record and adds a flat
// tax rate. Products whose class tracks stock need free stock to be bought.
type Strategy struct {
	Currency string
	// TaxRate is a fraction, e.g. 0.2 for 20%.
	TaxRate decimal.Decimal
}

func NewStrategy(currency string, taxRate decimal.Decimal) Strategy {
	return Strategy{Currency: currency, TaxRate: taxRate}
}

// PurchaseInfo is the outcome of applying the strategy to one product.
type PurchaseInfo struct {
	Price        entity.Price
	Availability Availability
	StockRecord  *entity.StockRecord
}

// WithTax returns the tax-inclusive price for an amount before tax.
func (s Strategy) WithTax(currency string, exclTax decimal.Decimal) entity.Price {
	if currency == "" {
		currency = s.Currency
	}
	tax := exclTax.Mul(s.TaxRate).Round(2)
	return entity.NewPrice(currency, exclTax, exclTax.Add(tax))
}

// FetchForProduct selects the first stock record and derives price and availability from it.
func (s Strategy) FetchForProduct(p *entity.Product, records []entity.StockRecord) PurchaseInfo {
	if len(records) == 0 {
		return PurchaseInfo{
			Price:        entity.Price{Currency: s.Currency},
			Availability: Unavailable(),
		}
	}

	sr := records[0]
	info := PurchaseInfo{
		Price:       s.WithTax(sr.Currency, sr.PriceExclTax),
		StockRecord: &sr,
	}
	if p.TracksStock() {
		info.Availability = StockRequired(sr.NetStock())
	} else {
		info.Availability = Available()
	}
	return info
}

// Availability describes whether a product can be bought and how many.
type Availability struct {
	IsAvailableToBuy bool
	// NumAvailable is nil when stock is not tracked.
	NumAvailable *int
	Message      string
	reason       string
}

func Available() Availability {
	return Availability{IsAvailableToBuy: true, Message: "Available"}
}

func Unavailable() Availability {
	return Availability{Message: "Unavailable", reason: "unavailable"}
}

// StockRequired makes a product buyable only while num units are free.
func StockRequired(num int) Availability {
	if num < 0 {
		num = 0
	}
	a := Availability{NumAvailable: &num}
	if num > 0 {
		a.IsAvailableToBuy = true
		a.Message = fmt.Sprintf("In stock (%d available)", num)
	} else {
		a.Message = "Unavailable"
		a.reason = "no stock available"
	}
	return a
}

// IsPurchasePermitted reports whether quantity units can be bought and, when
// not, why.
func (a Availability) IsPurchasePermitted(quantity int) (bool, string) {
	if !a.IsAvailableToBuy {
		return false, a.reason
	}
	if a.NumAvailable != nil && quantity > *a.NumAvailable {
		return false, fmt.Sprintf("a maximum of %d can be bought", *a.NumAvailable)
	}
	return true, ""
}
