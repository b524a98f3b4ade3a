package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Address struct {
	Title       string
	FirstName   string
	LastName    string
	Line1       string
	Line2       string
	Line3       string
	Line4       string
	State       string
	Postcode    string
	CountryCode string
	PhoneNumber string
	Notes       string
}

type ShippingAddress struct {
	ID int64
	Address
}

type BillingAddress struct {
	ID int64
	Address
}

type Order struct {
	ID              int64
	Number          string
	BasketID        *int64
	UserID          *int64
	Currency        string
	TotalInclTax    decimal.Decimal
	TotalExclTax    decimal.Decimal
	ShippingInclTax decimal.Decimal
	ShippingExclTax decimal.Decimal
	ShippingMethod  string
	ShippingCode    string
	Status          string
	GuestEmail      string
	ShippingAddress *ShippingAddress
	BillingAddress  *BillingAddress
	Lines           []OrderLine
	Discounts       []OrderDiscount
	DatePlaced      time.Time
}

type OrderLine struct {
	ID                              int64
	OrderID                         int64
	PartnerID                       *int64
	PartnerName                     string
	PartnerSKU                      string
	ProductID                       *int64
	StockRecordID                   *int64
	Title                           string
	UPC                             string
	Quantity                        int
	LinePriceInclTax                decimal.Decimal
	LinePriceExclTax                decimal.Decimal
	LinePriceBeforeDiscountsInclTax decimal.Decimal
	LinePriceBeforeDiscountsExclTax decimal.Decimal
	UnitPriceInclTax                decimal.Decimal
	UnitPriceExclTax                decimal.Decimal
	Status                          string
	Attributes                      []OrderLineAttribute
}

type OrderLineAttribute struct {
	ID       int64
	LineID   int64
	OptionID *int64
	Type     string
	Value    string
}

type OrderDiscount struct {
	ID          int64
	OrderID     int64
	Category    string
	OfferID     *int64
	OfferName   string
	VoucherID   *int64
	VoucherCode string
	Amount      decimal.Decimal
	Message     string
}

const (
	DiscountCategoryBasket   = "Basket"
	DiscountCategoryShipping = "Shipping"
)
