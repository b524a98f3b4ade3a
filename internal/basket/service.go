// Package basket resolves the basket a request works on and applies the
// operations customers perform on it.
package basket

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/ports"
	"github.com/jcmexdev/ecommerce-storefront/internal/pricing"
)

// OptionValue is an option chosen when adding a product, e.g. a gift message.
type OptionValue struct {
	OptionID int64
	Value    string
}

type Service struct {
	baskets   ports.BasketRepository
	catalogue ports.CatalogueRepository
	vouchers  ports.VoucherRepository
	strategy  pricing.Strategy
	now       func() time.Time
}

func NewService(
	baskets ports.BasketRepository,
	catalogue ports.CatalogueRepository,
	vouchers ports.VoucherRepository,
	strategy pricing.Strategy,
) *Service {
	return &Service{
		baskets:   baskets,
		catalogue: catalogue,
		vouchers:  vouchers,
		strategy:  strategy,
		now:       time.Now,
	}
}

// ForPrincipal returns the basket the request works on. Authenticated users
// get their open basket; anonymous requests get the basket named by their
// session. A basket is created when there is none, and created reports it.
func (s *Service) ForPrincipal(ctx context.Context, p entity.Principal) (b *entity.Basket, created bool, err error) {
	if !p.IsAnonymous() {
		b, err = s.baskets.OpenBasketForUser(ctx, p.User.ID)
		if err == nil {
			return b, false, nil
		}
		if !errors.Is(err, entity.ErrNotFound) {
			return nil, false, err
		}
		b, err = s.baskets.CreateBasket(ctx, p.UserID())
		if err != nil {
			return nil, false, err
		}
		slog.DebugContext(ctx, "created user basket", "basket_id", b.ID, "user_id", p.User.ID)
		return b, true, nil
	}

	if p.BasketID != nil {
		b, err = s.baskets.GetBasket(ctx, *p.BasketID)
		switch {
		case err == nil && b.OwnerID == nil && b.Status == entity.BasketOpen:
			return b, false, nil
		case err != nil && !errors.Is(err, entity.ErrNotFound):
			return nil, false, err
		}
	}

	b, err = s.baskets.CreateBasket(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	slog.DebugContext(ctx, "created anonymous basket", "basket_id", b.ID)
	return b, true, nil
}

// CanAccess reports whether p may read or change b: staff, the basket's
// owner, or the session holding it.
func CanAccess(p entity.Principal, b *entity.Basket) bool {
	if p.IsStaff() {
		return true
	}
	if b.OwnerID != nil {
		return p.User != nil && p.User.ID == *b.OwnerID
	}
	return p.BasketID != nil && *p.BasketID == b.ID
}

// Price loads what b's lines and vouchers refer to and applies the strategy.
// Vouchers that are unknown, no longer active or no longer available to the
// basket's owner are ignored.
func (s *Service) Price(ctx context.Context, b *entity.Basket) (*pricing.Basket, error) {
	products := make(map[int64]*entity.Product, len(b.Lines))
	records := make(map[int64]*entity.StockRecord, len(b.Lines))
	for _, l := range b.Lines {
		if _, ok := products[l.ProductID]; !ok {
			p, err := s.catalogue.GetProduct(ctx, l.ProductID)
			if err != nil && !errors.Is(err, entity.ErrNotFound) {
				return nil, err
			}
			products[l.ProductID] = p
		}
		if _, ok := records[l.StockRecordID]; !ok {
			sr, err := s.catalogue.GetStockRecord(ctx, l.StockRecordID)
			if err != nil && !errors.Is(err, entity.ErrNotFound) {
				return nil, err
			}
			records[l.StockRecordID] = sr
		}
	}

	vouchers, err := s.activeVouchers(ctx, b)
	if err != nil {
		return nil, err
	}
	return s.strategy.PriceBasket(b, products, records, vouchers), nil
}

func (s *Service) activeVouchers(ctx context.Context, b *entity.Basket) ([]entity.Voucher, error) {
	now := s.now()
	owner := ownerOf(b)
	var out []entity.Voucher
	for _, code := range b.VoucherCodes {
		v, err := s.vouchers.GetVoucherByCode(ctx, code)
		if errors.Is(err, entity.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !v.IsActive(now) {
			continue
		}
		if b.Status == entity.BasketSubmitted {
			// the order placed from it already counted this use
			out = append(out, *v)
			continue
		}
		ok, msg, err := s.IsAvailableToUser(ctx, v, owner)
		if err != nil {
			return nil, err
		}
		if !ok {
			slog.DebugContext(ctx, "skipping voucher", "basket_id", b.ID, "code", v.Code, "reason", msg)
			continue
		}
		out = append(out, *v)
	}
	return out, nil
}

// ownerOf is the principal a basket's vouchers are checked against.
func ownerOf(b *entity.Basket) entity.Principal {
	if b.OwnerID == nil {
		return entity.Principal{BasketID: &b.ID}
	}
	return entity.Principal{User: &entity.User{ID: *b.OwnerID}}
}

// AddProduct adds quantity units of a product to b, merging with the line
// that already holds the same product, stock record and options. It fails
// with *entity.NotAcceptableError when the purchase is not permitted.
func (s *Service) AddProduct(ctx context.Context, b *entity.Basket, productID int64, quantity int, options []OptionValue) (*entity.BasketLine, error) {
	if quantity < 1 {
		return nil, entity.FieldError("quantity", "Ensure this value is greater than or equal to 1.")
	}
	if !b.Status.CanBeEdited() {
		return nil, &entity.NotAcceptableError{Reason: fmt.Sprintf("Basket is %s and can not be changed", strings.ToLower(string(b.Status)))}
	}

	product, err := s.catalogue.GetProduct(ctx, productID)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, entity.FieldError("url", "Invalid hyperlink - Object does not exist.")
	}
	if err != nil {
		return nil, err
	}

	attrs := make([]entity.LineAttribute, 0, len(options))
	for _, o := range options {
		if _, err := s.catalogue.GetOption(ctx, o.OptionID); err != nil {
			if errors.Is(err, entity.ErrNotFound) {
				return nil, entity.FieldError("options", fmt.Sprintf("Invalid option %d", o.OptionID))
			}
			return nil, err
		}
		attrs = append(attrs, entity.LineAttribute{OptionID: o.OptionID, Value: o.Value})
	}

	records, err := s.catalogue.ListStockRecords(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	info := s.strategy.FetchForProduct(product, records)
	if info.StockRecord == nil {
		return nil, &entity.NotAcceptableError{Reason: "unavailable"}
	}

	ref := lineReference(product.ID, info.StockRecord.ID, options)
	line := lineByReference(b, ref)

	total := quantity
	if line != nil {
		total += line.Quantity
	}
	if ok, reason := info.Availability.IsPurchasePermitted(total); !ok {
		return nil, &entity.NotAcceptableError{Reason: reason}
	}

	if line == nil {
		line = &entity.BasketLine{
			BasketID:      b.ID,
			LineReference: ref,
			ProductID:     product.ID,
			StockRecordID: info.StockRecord.ID,
			Attributes:    attrs,
		}
	}
	line.Quantity = total
	line.PriceCurrency = info.Price.Currency
	line.PriceExclTax = info.Price.ExclTax
	line.PriceInclTax = info.Price.InclTax

	if err := s.baskets.SaveLine(ctx, line); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "product added to basket",
		"basket_id", b.ID, "product_id", product.ID, "quantity", quantity)
	return line, nil
}

// lineReference identifies a line by product, stock record and options.
func lineReference(productID, stockRecordID int64, options []OptionValue) string {
	base := fmt.Sprintf("%d_%d", productID, stockRecordID)
	if len(options) == 0 {
		return base
	}
	parts := make([]string, len(options))
	for i, o := range options {
		parts[i] = fmt.Sprintf("%d=%s", o.OptionID, o.Value)
	}
	sort.Strings(parts)
	return fmt.Sprintf("%s_%d", base, crc32.ChecksumIEEE([]byte(strings.Join(parts, "&"))))
}

func lineByReference(b *entity.Basket, ref string) *entity.BasketLine {
	for i := range b.Lines {
		if b.Lines[i].LineReference == ref {
			return &b.Lines[i]
		}
	}
	return nil
}

// AddVoucher validates code for p and applies it to b.
func (s *Service) AddVoucher(ctx context.Context, b *entity.Basket, p entity.Principal, code string) (*entity.Voucher, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, entity.FieldError("vouchercode", "This field is required.")
	}
	if len(code) > 128 {
		return nil, entity.FieldError("vouchercode", "Ensure this field has no more than 128 characters.")
	}

	v, err := s.vouchers.GetVoucherByCode(ctx, code)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, entity.NewValidationError("Voucher code unknown")
	}
	if err != nil {
		return nil, err
	}
	if !v.IsActive(s.now()) {
		return nil, entity.NewValidationError("The '%s' voucher has expired", v.Code)
	}
	if ok, msg, err := s.IsAvailableToUser(ctx, v, p); err != nil {
		return nil, err
	} else if !ok {
		return nil, entity.NewValidationError("%s", msg)
	}

	if err := s.baskets.AddBasketVoucher(ctx, b.ID, v.Code); err != nil {
		return nil, err
	}
	b.VoucherCodes = append(b.VoucherCodes, v.Code)
	return v, nil
}

// IsAvailableToUser applies the voucher's usage rule to p.
func (s *Service) IsAvailableToUser(ctx context.Context, v *entity.Voucher, p entity.Principal) (bool, string, error) {
	switch v.Usage {
	case entity.SingleUse:
		if v.NumOrders > 0 {
			return false, "This voucher has already been used", nil
		}
	case entity.OncePerCustomer:
		if p.IsAnonymous() {
			return false, "This voucher is only available to signed in users", nil
		}
		n, err := s.vouchers.CountVoucherUsesByUser(ctx, v.ID, p.User.ID)
		if err != nil {
			return false, "", err
		}
		if n > 0 {
			return false, "You have already used this voucher in a previous order", nil
		}
	}
	return true, "", nil
}

// UpdateStatus moves b to status.
func (s *Service) UpdateStatus(ctx context.Context, b *entity.Basket, status entity.BasketStatus) error {
	if !status.Valid() {
		return entity.FieldError("status", fmt.Sprintf("%q is not a valid choice.", status))
	}
	if err := s.baskets.UpdateBasketStatus(ctx, b.ID, status); err != nil {
		return err
	}
	b.Status = status
	return nil
}

// Merge moves every line and voucher of from into into and marks from as
// merged. Lines with the same reference have their quantities summed.
func (s *Service) Merge(ctx context.Context, into, from *entity.Basket) error {
	for _, fl := range from.Lines {
		if existing := lineByReference(into, fl.LineReference); existing != nil {
			existing.Quantity += fl.Quantity
			if err := s.baskets.SaveLine(ctx, existing); err != nil {
				return err
			}
			continue
		}
		moved := fl
		moved.ID = 0
		moved.BasketID = into.ID
		moved.Attributes = make([]entity.LineAttribute, len(fl.Attributes))
		for i, a := range fl.Attributes {
			moved.Attributes[i] = entity.LineAttribute{OptionID: a.OptionID, Value: a.Value}
		}
		if err := s.baskets.SaveLine(ctx, &moved); err != nil {
			return err
		}
		into.Lines = append(into.Lines, moved)
	}

	for _, code := range from.VoucherCodes {
		if err := s.baskets.AddBasketVoucher(ctx, into.ID, code); err != nil {
			return err
		}
	}

	if err := s.baskets.UpdateBasketStatus(ctx, from.ID, entity.BasketMerged); err != nil {
		return err
	}
	slog.InfoContext(ctx, "merged basket", "from_basket_id", from.ID, "into_basket_id", into.ID)
	return nil
}

// MergeOnLogin returns user's open basket after folding the anonymous
// session basket into it. A missing or foreign session basket is ignored.
func (s *Service) MergeOnLogin(ctx context.Context, user *entity.User, sessionBasketID *int64) (*entity.Basket, error) {
	b, _, err := s.ForPrincipal(ctx, entity.Principal{User: user})
	if err != nil {
		return nil, err
	}
	if sessionBasketID == nil || *sessionBasketID == b.ID {
		return b, nil
	}

	anon, err := s.baskets.GetBasket(ctx, *sessionBasketID)
	if errors.Is(err, entity.ErrNotFound) {
		return b, nil
	}
	if err != nil {
		return nil, err
	}
	if anon.OwnerID != nil || anon.Status != entity.BasketOpen || anon.IsEmpty() {
		return b, nil
	}

	if err := s.Merge(ctx, b, anon); err != nil {
		return nil, err
	}
	return s.baskets.GetBasket(ctx, b.ID)
}

// AddLineAttribute attaches an option value to an existing line.
func (s *Service) AddLineAttribute(ctx context.Context, attr *entity.LineAttribute) error {
	verr := &entity.ValidationError{}
	if _, err := s.baskets.GetLine(ctx, attr.LineID); err != nil {
		if !errors.Is(err, entity.ErrNotFound) {
			return err
		}
		verr.Add("line", "Invalid hyperlink - Object does not exist.")
	}
	if _, err := s.catalogue.GetOption(ctx, attr.OptionID); err != nil {
		if !errors.Is(err, entity.ErrNotFound) {
			return err
		}
		verr.Add("option", "Invalid hyperlink - Object does not exist.")
	}
	if strings.TrimSpace(attr.Value) == "" {
		verr.Add("value", "This field is required.")
	}
	if !verr.Empty() {
		return verr
	}
	return s.baskets.CreateLineAttribute(ctx, attr)
}
