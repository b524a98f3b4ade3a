package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
)

// Line is a basket line with current prices applied.
type Line struct {
	entity.BasketLine
	Product     *entity.Product
	StockRecord *entity.StockRecord
	UnitPrice   entity.Price

	PriceExclTax              decimal.Decimal
	PriceInclTax              decimal.Decimal
	PriceExclTaxInclDiscounts decimal.Decimal
	PriceInclTaxInclDiscounts decimal.Decimal

	// Warning is set when the unit price moved since the line was added.
	Warning string
}

type VoucherDiscount struct {
	Voucher entity.Voucher
	Amount  decimal.Decimal
}

// Basket is a basket with the strategy and vouchers applied.
type Basket struct {
	Basket   *entity.Basket
	Lines    []Line
	Currency string

	TotalExclTaxExclDiscounts decimal.Decimal
	TotalInclTaxExclDiscounts decimal.Decimal
	TotalExclTax              decimal.Decimal
	TotalInclTax              decimal.Decimal

	VoucherDiscounts []VoucherDiscount
}

func (b *Basket) TotalTax() decimal.Decimal {
	return b.TotalInclTax.Sub(b.TotalExclTax)
}

// Total is the basket total after discounts.
func (b *Basket) Total() entity.Price {
	return entity.NewPrice(b.Currency, b.TotalExclTax, b.TotalInclTax)
}

// TotalDiscount is the sum of every voucher discount.
func (b *Basket) TotalDiscount() decimal.Decimal {
	d := decimal.Zero
	for _, vd := range b.VoucherDiscounts {
		d = d.Add(vd.Amount)
	}
	return d
}

// RequiresShipping reports whether any line holds a shippable product.
func (b *Basket) RequiresShipping() bool {
	for _, l := range b.Lines {
		if l.Product == nil || l.Product.RequiresShipping() {
			return true
		}
	}
	return false
}

// PriceBasket applies the strategy to every line of b and then the vouchers,
// in order, to the running subtotal. Lines whose product or stock record is
// missing from the lookups are priced at zero.
func (s Strategy) PriceBasket(
	b *entity.Basket,
	products map[int64]*entity.Product,
	records map[int64]*entity.StockRecord,
	vouchers []entity.Voucher,
) *Basket {
	pb := &Basket{
		Basket:   b,
		Currency: s.Currency,
		Lines:    make([]Line, 0, len(b.Lines)),
	}

	for i, bl := range b.Lines {
		l := Line{
			BasketLine:  bl,
			Product:     products[bl.ProductID],
			StockRecord: records[bl.StockRecordID],
		}
		if l.StockRecord != nil {
			l.UnitPrice = s.WithTax(l.StockRecord.Currency, l.StockRecord.PriceExclTax)
		} else {
			l.UnitPrice = entity.ZeroPrice(s.Currency)
		}
		if i == 0 {
			pb.Currency = l.UnitPrice.Currency
		}

		qty := decimal.NewFromInt(int64(bl.Quantity))
		l.PriceExclTax = l.UnitPrice.ExclTax.Mul(qty)
		l.PriceInclTax = l.UnitPrice.InclTax.Mul(qty)
		l.PriceExclTaxInclDiscounts = l.PriceExclTax
		l.PriceInclTaxInclDiscounts = l.PriceInclTax
		l.Warning = priceWarning(l)

		pb.TotalExclTaxExclDiscounts = pb.TotalExclTaxExclDiscounts.Add(l.PriceExclTax)
		pb.TotalInclTaxExclDiscounts = pb.TotalInclTaxExclDiscounts.Add(l.PriceInclTax)
		pb.Lines = append(pb.Lines, l)
	}

	remaining := pb.TotalExclTaxExclDiscounts
	for _, v := range vouchers {
		amount := v.Discount(remaining)
		if !amount.IsPositive() {
			continue
		}
		pb.VoucherDiscounts = append(pb.VoucherDiscounts, VoucherDiscount{Voucher: v, Amount: amount})
		remaining = remaining.Sub(amount)
	}

	s.allocateDiscount(pb, pb.TotalDiscount())

	pb.TotalExclTax = decimal.Zero
	pb.TotalInclTax = decimal.Zero
	for _, l := range pb.Lines {
		pb.TotalExclTax = pb.TotalExclTax.Add(l.PriceExclTaxInclDiscounts)
		pb.TotalInclTax = pb.TotalInclTax.Add(l.PriceInclTaxInclDiscounts)
	}
	return pb
}

// allocateDiscount spreads discount over the lines in proportion to their
// price before tax. The last priced line absorbs the rounding remainder.
func (s Strategy) allocateDiscount(pb *Basket, discount decimal.Decimal) {
	if !discount.IsPositive() || !pb.TotalExclTaxExclDiscounts.IsPositive() {
		return
	}

	last := -1
	for i, l := range pb.Lines {
		if l.PriceExclTax.IsPositive() {
			last = i
		}
	}

	left := discount
	for i := range pb.Lines {
		l := &pb.Lines[i]
		if !l.PriceExclTax.IsPositive() {
			continue
		}
		share := left
		if i != last {
			share = discount.Mul(l.PriceExclTax).Div(pb.TotalExclTaxExclDiscounts).Round(2)
		}
		if share.GreaterThan(l.PriceExclTax) {
			share = l.PriceExclTax
		}
		left = left.Sub(share)

		discounted := s.WithTax(l.UnitPrice.Currency, l.PriceExclTax.Sub(share))
		l.PriceExclTaxInclDiscounts = discounted.ExclTax
		l.PriceInclTaxInclDiscounts = discounted.InclTax
	}
}

func priceWarning(l Line) string {
	if l.PriceExclTax.IsZero() || l.BasketLine.PriceExclTax.IsZero() {
		return ""
	}
	was, now := l.BasketLine.PriceExclTax, l.UnitPrice.ExclTax
	if was.Equal(now) {
		return ""
	}
	title := "this item"
	if l.Product != nil {
		title = "'" + l.Product.Title + "'"
	}
	direction := "increased"
	if now.LessThan(was) {
		direction = "decreased"
	}
	return fmt.Sprintf("The price of %s has %s from %s to %s",
		title, direction, was.StringFixed(2), now.StringFixed(2))
}
