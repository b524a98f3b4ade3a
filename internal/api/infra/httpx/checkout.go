package httpx

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-storefront/internal/checkout"
	"github.com/jcmexdev/ecommerce-storefront/internal/pkg/interceptors"
)

type CheckoutRequest struct {
	Basket             string           `json:"basket"`
	GuestEmail         string           `json:"guest_email"`
	Total              *decimal.Decimal `json:"total"`
	ShippingMethodCode string           `json:"shipping_method_code"`
	ShippingCharge     *PriceInput      `json:"shipping_charge"`
	ShippingAddress    *AddressInput    `json:"shipping_address"`
	BillingAddress     *AddressInput    `json:"billing_address"`
}

type PriceInput struct {
	Currency string           `json:"currency"`
	ExclTax  *decimal.Decimal `json:"excl_tax"`
	InclTax  *decimal.Decimal `json:"incl_tax"`
	Tax      *decimal.Decimal `json:"tax"`
}

type AddressInput struct {
	Title       string `json:"title"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Line1       string `json:"line1"`
	Line2       string `json:"line2"`
	Line3       string `json:"line3"`
	Line4       string `json:"line4"`
	State       string `json:"state"`
	Postcode    string `json:"postcode"`
	Country     string `json:"country"`
	PhoneNumber string `json:"phone_number"`
	Notes       string `json:"notes"`
}

// toRequest converts the body into a checkout request, resolving hyperlinks.
func (c CheckoutRequest) toRequest() (checkout.Request, error) {
	req := checkout.Request{
		GuestEmail:         c.GuestEmail,
		Total:              c.Total,
		ShippingMethodCode: c.ShippingMethodCode,
	}

	if strings.TrimSpace(c.Basket) != "" {
		id, err := hyperlinkField("basket", c.Basket, "baskets")
		if err != nil {
			return req, err
		}
		req.BasketID = id
	}

	if c.ShippingCharge != nil {
		if c.ShippingCharge.ExclTax == nil {
			return req, entity.FieldError("shipping_charge.excl_tax", "This field is required.")
		}
		req.ShippingCharge = &checkout.PostedPrice{
			Currency: c.ShippingCharge.Currency,
			ExclTax:  *c.ShippingCharge.ExclTax,
			InclTax:  c.ShippingCharge.InclTax,
			Tax:      c.ShippingCharge.Tax,
		}
	}

	var err error
	if req.ShippingAddress, err = c.ShippingAddress.toAddress("shipping_address"); err != nil {
		return req, err
	}
	if req.BillingAddress, err = c.BillingAddress.toAddress("billing_address"); err != nil {
		return req, err
	}
	return req, nil
}

func (a *AddressInput) toAddress(field string) (*entity.Address, error) {
	if a == nil {
		return nil, nil
	}
	addr := &entity.Address{
		Title:       a.Title,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Line1:       a.Line1,
		Line2:       a.Line2,
		Line3:       a.Line3,
		Line4:       a.Line4,
		State:       a.State,
		Postcode:    a.Postcode,
		PhoneNumber: a.PhoneNumber,
		Notes:       a.Notes,
	}
	if strings.TrimSpace(a.Country) != "" {
		code, ok := countryFromURL(a.Country)
		if !ok {
			return nil, entity.FieldError(field+".country", "Invalid hyperlink - Incorrect URL match.")
		}
		addr.CountryCode = code
	}
	return addr, nil
}

// countryFromURL extracts the ISO code from a country hyperlink.
func countryFromURL(raw string) (string, bool) {
	segs := strings.Split(strings.Trim(raw, "/"), "/")
	if len(segs) < 2 || segs[len(segs)-2] != "countries" {
		return "", false
	}
	code := segs[len(segs)-1]
	if len(code) != 2 {
		return "", false
	}
	return strings.ToUpper(code), true
}

// Checkout places an order for the basket in the body. Repeating a request
// with the same X-Idempotency-Key returns the order placed the first time.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var body CheckoutRequest
	if err := decodeJSON(r, &body); err != nil {
		handleError(w, r, err)
		return
	}
	req, err := body.toRequest()
	if err != nil {
		handleError(w, r, err)
		return
	}

	order, err := h.checkout.Checkout(r.Context(), principalFrom(r), req, interceptors.IdempotencyKey(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linksFor(r).order(order, h.paymentURLFor(order)))
}
