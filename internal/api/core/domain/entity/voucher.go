package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type VoucherUsage string

const (
	SingleUse       VoucherUsage = "Single use"
	MultiUse        VoucherUsage = "Multi-use"
	OncePerCustomer VoucherUsage = "Once per customer"
)

type BenefitType string

const (
	BenefitPercentage BenefitType = "Percentage"
	BenefitAbsolute   BenefitType = "Absolute"
)

type Voucher struct {
	ID           int64
	Name         string
	Code         string
	Usage        VoucherUsage
	StartAt      time.Time
	EndAt        time.Time
	BenefitType  BenefitType
	BenefitValue decimal.Decimal
	NumOrders    int
	CreatedAt    time.Time
}

// IsActive reports whether now falls within the voucher's validity window.
func (v *Voucher) IsActive(now time.Time) bool {
	return !now.Before(v.StartAt) && !now.After(v.EndAt)
}

// Discount returns the amount taken off a basket subtotal, capped at the subtotal.
func (v *Voucher) Discount(subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch v.BenefitType {
	case BenefitPercentage:
		d = subtotal.Mul(v.BenefitValue).Div(decimal.NewFromInt(100)).Round(2)
	default:
		d = v.BenefitValue
	}
	if d.GreaterThan(subtotal) {
		return subtotal
	}
	return d
}

// Description is a human readable summary of the benefit.
func (v *Voucher) Description() string {
	if v.BenefitType == BenefitPercentage {
		return v.BenefitValue.String() + "% discount"
	}
	return v.BenefitValue.StringFixed(2) + " discount"
}
