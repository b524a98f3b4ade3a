package checkout

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-storefront/internal/basket"
	"github.com/jcmexdev/ecommerce-storefront/internal/pricing"
	"github.com/jcmexdev/ecommerce-storefront/internal/shipping"
)

// PostedPrice is a price as submitted by a client. Only ExclTax is required.
type PostedPrice struct {
	Currency string
	ExclTax  decimal.Decimal
	InclTax  *decimal.Decimal
	Tax      *decimal.Decimal
}

// Price converts p, filling the currency and deriving incl_tax from tax
// when only the latter was sent.
func (p PostedPrice) Price(defaultCurrency string) entity.Price {
	currency := p.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	switch {
	case p.InclTax != nil:
		return entity.NewPrice(currency, p.ExclTax, *p.InclTax)
	case p.Tax != nil:
		return entity.NewPrice(currency, p.ExclTax, p.ExclTax.Add(*p.Tax))
	}
	return entity.Price{Currency: currency, ExclTax: p.ExclTax}
}

// Request is a checkout submission.
type Request struct {
	// BasketID is zero when the client sent no basket.
	BasketID           int64
	GuestEmail         string
	Total              *decimal.Decimal
	ShippingMethodCode string
	ShippingCharge     *PostedPrice
	ShippingAddress    *entity.Address
	BillingAddress     *entity.Address
}

// Validated is a checkout request after every check passed, with the
// amounts recomputed on the server.
type Validated struct {
	Principal       entity.Principal
	Basket          *entity.Basket
	Priced          *pricing.Basket
	ShippingMethod  shipping.Method
	ShippingCharge  entity.Price
	ShippingAddress *entity.Address
	BillingAddress  *entity.Address
	GuestEmail      string
}

// OrderTotal is the basket total plus shipping.
func (v *Validated) OrderTotal() entity.Price {
	return v.Priced.Total().Add(v.ShippingCharge)
}

// Validate runs the checkout checks in order and stops at the first failure.
func (s *Service) Validate(ctx context.Context, p entity.Principal, req Request) (*Validated, error) {
	guestEmail := strings.TrimSpace(req.GuestEmail)
	if p.IsAnonymous() {
		if !s.cfg.AllowAnonymous {
			return nil, s.reject(ctx, "anonymous", entity.NewValidationError("Anonymous checkout forbidden"))
		}
		if guestEmail == "" {
			return nil, s.reject(ctx, "guest_email", entity.FieldError("guest_email", "This field is required."))
		}
		if _, err := mail.ParseAddress(guestEmail); err != nil {
			return nil, s.reject(ctx, "guest_email", entity.FieldError("guest_email", "Enter a valid email address."))
		}
	}

	b, err := s.checkoutBasket(ctx, p, req.BasketID)
	if err != nil {
		return nil, s.reject(ctx, "basket", err)
	}

	pb, err := s.baskets.Price(ctx, b)
	if err != nil {
		return nil, err
	}

	var user *entity.User
	if !p.IsAnonymous() {
		user = p.User
	}
	method := s.shipping.Default(pb, user, req.ShippingAddress)
	if req.ShippingMethodCode != "" {
		method = s.shipping.ByCode(pb, user, req.ShippingAddress, req.ShippingMethodCode)
	}

	charge := method.Calculate(pb)
	if req.ShippingCharge != nil {
		posted := req.ShippingCharge.Price(s.cfg.Currency)
		if !posted.Equal(charge) {
			return nil, s.reject(ctx, "shipping_charge",
				entity.NewValidationError("Shipping price incorrect %s != %s", posted, charge))
		}
	}

	if req.Total != nil && !req.Total.Equal(pb.TotalInclTax) {
		return nil, s.reject(ctx, "total",
			entity.NewValidationError("Total incorrect %s != %s", req.Total.StringFixed(2), pb.TotalInclTax.StringFixed(2)))
	}

	if pb.RequiresShipping() && req.ShippingAddress == nil {
		return nil, s.reject(ctx, "address", entity.FieldError("shipping_address", "This field is required."))
	}
	if req.ShippingAddress != nil {
		if err := s.validateAddress(ctx, "shipping_address", req.ShippingAddress, true); err != nil {
			return nil, s.reject(ctx, "address", err)
		}
	}
	if req.BillingAddress != nil {
		if err := s.validateAddress(ctx, "billing_address", req.BillingAddress, false); err != nil {
			return nil, s.reject(ctx, "address", err)
		}
	}

	return &Validated{
		Principal:       p,
		Basket:          b,
		Priced:          pb,
		ShippingMethod:  method,
		ShippingCharge:  charge,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		GuestEmail:      guestEmail,
	}, nil
}

func (s *Service) checkoutBasket(ctx context.Context, p entity.Principal, id int64) (*entity.Basket, error) {
	if id == 0 {
		return nil, entity.FieldError("basket", "This field is required.")
	}
	b, err := s.basketRepo.GetBasket(ctx, id)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, entity.FieldError("basket", "Invalid hyperlink - Object does not exist.")
	}
	if err != nil {
		return nil, err
	}
	if !basket.CanAccess(p, b) {
		return nil, entity.ErrForbidden
	}
	if b.Status != entity.BasketOpen {
		return nil, entity.FieldError("basket", "Basket is not open for checkout")
	}
	if b.IsEmpty() {
		return nil, entity.NewValidationError("Cannot checkout with an empty basket")
	}
	return b, nil
}

func (s *Service) validateAddress(ctx context.Context, field string, a *entity.Address, shipping bool) error {
	verr := &entity.ValidationError{}
	if strings.TrimSpace(a.Line1) == "" {
		verr.Add(field+".line1", "This field is required.")
	}
	if a.CountryCode == "" {
		verr.Add(field+".country", "This field is required.")
	} else {
		c, err := s.catalogue.GetCountry(ctx, a.CountryCode)
		switch {
		case errors.Is(err, entity.ErrNotFound):
			verr.Add(field+".country", "Invalid hyperlink - Object does not exist.")
		case err != nil:
			return err
		case shipping && !c.IsShippingCountry:
			verr.Add(field+".country", "We do not ship to this country.")
		default:
			a.CountryCode = c.ISOCode
		}
	}
	if !verr.Empty() {
		return verr
	}
	return nil
}
