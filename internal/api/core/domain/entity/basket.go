package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type BasketStatus string

const (
	BasketOpen      BasketStatus = "Open"
	BasketMerged    BasketStatus = "Merged"
	BasketSaved     BasketStatus = "Saved"
	BasketFrozen    BasketStatus = "Frozen"
	BasketSubmitted BasketStatus = "Submitted"
)

// Valid reports whether s is one of the known basket statuses.
func (s BasketStatus) Valid() bool {
	switch s {
	case BasketOpen, BasketMerged, BasketSaved, BasketFrozen, BasketSubmitted:
		return true
	}
	return false
}

// CanBeEdited reports whether lines may still be added to a basket in this status.
func (s BasketStatus) CanBeEdited() bool {
	return s == BasketOpen || s == BasketSaved
}

type Basket struct {
	ID           int64
	OwnerID      *int64
	Status       BasketStatus
	VoucherCodes []string
	Lines        []BasketLine
	CreatedAt    time.Time
	SubmittedAt  *time.Time
}

// IsEmpty reports whether the basket has no lines.
func (b *Basket) IsEmpty() bool {
	return len(b.Lines) == 0
}

// NumItems is the sum of line quantities.
func (b *Basket) NumItems() int {
	n := 0
	for _, l := range b.Lines {
		n += l.Quantity
	}
	return n
}

// LineFor returns the line holding the given product and stock record, or nil.
func (b *Basket) LineFor(productID, stockRecordID int64) *BasketLine {
	for i := range b.Lines {
		if b.Lines[i].ProductID == productID && b.Lines[i].StockRecordID == stockRecordID {
			return &b.Lines[i]
		}
	}
	return nil
}

type BasketLine struct {
	ID            int64
	BasketID      int64
	LineReference string
	ProductID     int64
	StockRecordID int64
	Quantity      int
	// PriceExclTax and PriceInclTax are the unit prices when the line was
	// last added to, and are used to warn about price changes.
	PriceCurrency string
	PriceExclTax  decimal.Decimal
	PriceInclTax  decimal.Decimal
	Attributes    []LineAttribute
	CreatedAt     time.Time
}

type LineAttribute struct {
	ID       int64
	LineID   int64
	OptionID int64
	Value    string
}
