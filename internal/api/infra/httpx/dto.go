package httpx

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-storefront/internal/pricing"
	"github.com/jcmexdev/ecommerce-storefront/internal/shipping"
)

// mediaPrefix is where product images are served from.
const mediaPrefix = "/media/"

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// --- catalogue ---

type ProductLinkResponse struct {
	URL   string `json:"url"`
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type ProductResponse struct {
	URL          string              `json:"url"`
	ID           int64               `json:"id"`
	UPC          string              `json:"upc"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Structure    string              `json:"structure"`
	ProductClass *string             `json:"product_class"`
	DateCreated  string              `json:"date_created"`
	DateUpdated  string              `json:"date_updated"`
	Images       []ImageResponse     `json:"images"`
	Attributes   []AttributeResponse `json:"attributes"`
	Categories   []string            `json:"categories"`
	Price        string              `json:"price"`
	Availability string              `json:"availability"`
	StockRecords string              `json:"stockrecords"`
}

type ImageResponse struct {
	ID           int64  `json:"id"`
	Original     string `json:"original"`
	Caption      string `json:"caption"`
	DisplayOrder int    `json:"display_order"`
}

type AttributeResponse struct {
	Name  string `json:"name"`
	Code  string `json:"code"`
	Value string `json:"value"`
}

type ProductClassResponse struct {
	URL              string `json:"url"`
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Slug             string `json:"slug"`
	RequiresShipping bool   `json:"requires_shipping"`
	TrackStock       bool   `json:"track_stock"`
}

type CategoryResponse struct {
	URL         string `json:"url"`
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	FullName    string `json:"full_name"`
	Path        string `json:"path"`
	Depth       int    `json:"depth"`
}

type StockRecordResponse struct {
	URL           string `json:"url"`
	ID            int64  `json:"id"`
	Product       string `json:"product"`
	Partner       string `json:"partner"`
	PartnerSKU    string `json:"partner_sku"`
	PriceCurrency string `json:"price_currency"`
	PriceExclTax  string `json:"price_excl_tax"`
	NumInStock    int    `json:"num_in_stock"`
	NumAllocated  int    `json:"num_allocated"`
	DateCreated   string `json:"date_created"`
	DateUpdated   string `json:"date_updated"`
}

type OptionResponse struct {
	URL  string `json:"url"`
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
	Type string `json:"type"`
}

type PartnerResponse struct {
	URL  string `json:"url"`
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type CountryResponse struct {
	URL               string `json:"url"`
	ISOCode           string `json:"iso_3166_1_a2"`
	Name              string `json:"name"`
	PrintableName     string `json:"printable_name"`
	IsShippingCountry bool   `json:"is_shipping_country"`
	DisplayOrder      int    `json:"display_order"`
}

type PriceResponse struct {
	Currency string  `json:"currency"`
	ExclTax  string  `json:"excl_tax"`
	InclTax  *string `json:"incl_tax"`
	Tax      *string `json:"tax"`
}

type AvailabilityResponse struct {
	IsAvailableToBuy bool   `json:"is_available_to_buy"`
	NumAvailable     *int   `json:"num_available"`
	Message          string `json:"message"`
}

func (l links) product(p *entity.Product) ProductResponse {
	resp := ProductResponse{
		URL:          l.to("products", p.ID),
		ID:           p.ID,
		UPC:          p.UPC,
		Title:        p.Title,
		Description:  p.Description,
		Structure:    string(p.Structure),
		DateCreated:  timestamp(p.CreatedAt),
		DateUpdated:  timestamp(p.UpdatedAt),
		Images:       make([]ImageResponse, 0, len(p.Images)),
		Attributes:   make([]AttributeResponse, 0, len(p.Attributes)),
		Categories:   make([]string, 0, len(p.Categories)),
		Price:        l.to("products", p.ID, "price"),
		Availability: l.to("products", p.ID, "availability"),
		StockRecords: l.to("products", p.ID, "stockrecords"),
	}
	if p.Class != nil {
		resp.ProductClass = &p.Class.Name
	}
	for _, img := range p.Images {
		resp.Images = append(resp.Images, ImageResponse{
			ID:           img.ID,
			Original:     l.base + mediaPrefix + img.Original,
			Caption:      img.Caption,
			DisplayOrder: img.DisplayOrder,
		})
	}
	for _, a := range p.Attributes {
		resp.Attributes = append(resp.Attributes, AttributeResponse(a))
	}
	for i := range p.Categories {
		resp.Categories = append(resp.Categories, p.Categories[i].FullName())
	}
	return resp
}

func (l links) productClass(c *entity.ProductClass) ProductClassResponse {
	return ProductClassResponse{
		URL:              l.to("product-classes", c.ID),
		ID:               c.ID,
		Name:             c.Name,
		Slug:             c.Slug,
		RequiresShipping: c.RequiresShipping,
		TrackStock:       c.TrackStock,
	}
}

func (l links) category(c *entity.Category) CategoryResponse {
	return CategoryResponse{
		URL:         l.to("categories", c.ID),
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		FullName:    c.FullName(),
		Path:        c.Path,
		Depth:       c.Depth,
	}
}

func (l links) stockRecord(sr *entity.StockRecord) StockRecordResponse {
	return StockRecordResponse{
		URL:           l.to("stockrecords", sr.ID),
		ID:            sr.ID,
		Product:       l.to("products", sr.ProductID),
		Partner:       l.to("partners", sr.PartnerID),
		PartnerSKU:    sr.PartnerSKU,
		PriceCurrency: sr.Currency,
		PriceExclTax:  money(sr.PriceExclTax),
		NumInStock:    sr.NumInStock,
		NumAllocated:  sr.NumAllocated,
		DateCreated:   timestamp(sr.CreatedAt),
		DateUpdated:   timestamp(sr.UpdatedAt),
	}
}

func (l links) option(o *entity.Option) OptionResponse {
	return OptionResponse{URL: l.to("options", o.ID), ID: o.ID, Name: o.Name, Code: o.Code, Type: o.Type}
}

func (l links) partner(p *entity.Partner) PartnerResponse {
	return PartnerResponse{URL: l.to("partners", p.ID), ID: p.ID, Name: p.Name, Code: p.Code}
}

func (l links) country(c *entity.Country) CountryResponse {
	return CountryResponse{
		URL:               l.to("countries", c.ISOCode),
		ISOCode:           c.ISOCode,
		Name:              c.Name,
		PrintableName:     c.PrintableName,
		IsShippingCountry: c.IsShippingCountry,
		DisplayOrder:      c.DisplayOrder,
	}
}

func priceResponse(p entity.Price) PriceResponse {
	resp := PriceResponse{Currency: p.Currency, ExclTax: money(p.ExclTax)}
	if p.IsTaxKnown {
		incl, tax := money(p.InclTax), money(p.Tax())
		resp.InclTax = &incl
		resp.Tax = &tax
	}
	return resp
}

func availabilityResponse(a pricing.Availability) AvailabilityResponse {
	return AvailabilityResponse{
		IsAvailableToBuy: a.IsAvailableToBuy,
		NumAvailable:     a.NumAvailable,
		Message:          a.Message,
	}
}

// --- baskets ---

type VoucherResponse struct {
	Name          string `json:"name"`
	Code          string `json:"code"`
	StartDatetime string `json:"start_datetime"`
	EndDatetime   string `json:"end_datetime"`
}

type DiscountResponse struct {
	Description string           `json:"description"`
	Name        string           `json:"name"`
	Amount      string           `json:"amount"`
	Voucher     *VoucherResponse `json:"voucher,omitempty"`
}

type BasketResponse struct {
	ID                        int64              `json:"id"`
	Owner                     *string            `json:"owner"`
	Status                    string             `json:"status"`
	Lines                     string             `json:"lines"`
	URL                       string             `json:"url"`
	TotalExclTax              string             `json:"total_excl_tax"`
	TotalExclTaxExclDiscounts string             `json:"total_excl_tax_excl_discounts"`
	TotalInclTax              string             `json:"total_incl_tax"`
	TotalInclTaxExclDiscounts string             `json:"total_incl_tax_excl_discounts"`
	TotalTax                  string             `json:"total_tax"`
	Currency                  string             `json:"currency"`
	VoucherDiscounts          []DiscountResponse `json:"voucher_discounts"`
	OfferDiscounts            []DiscountResponse `json:"offer_discounts"`
}

type LineAttributeResponse struct {
	URL    string `json:"url"`
	Line   string `json:"line,omitempty"`
	Option string `json:"option"`
	Value  string `json:"value"`
}

type BasketLineResponse struct {
	URL                       string                  `json:"url"`
	Product                   string                  `json:"product"`
	Quantity                  int                     `json:"quantity"`
	Attributes                []LineAttributeResponse `json:"attributes"`
	PriceCurrency             string                  `json:"price_currency"`
	PriceExclTax              string                  `json:"price_excl_tax"`
	PriceInclTax              string                  `json:"price_incl_tax"`
	PriceInclTaxExclDiscounts string                  `json:"price_incl_tax_excl_discounts"`
	PriceExclTaxExclDiscounts string                  `json:"price_excl_tax_excl_discounts"`
	Warning                   *string                 `json:"warning"`
	Basket                    string                  `json:"basket"`
	StockRecord               string                  `json:"stockrecord"`
	DateCreated               string                  `json:"date_created"`
}

type ShippingMethodResponse struct {
	Code        string        `json:"code"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Price       PriceResponse `json:"price"`
}

func voucherResponse(v *entity.Voucher) *VoucherResponse {
	return &VoucherResponse{
		Name:          v.Name,
		Code:          v.Code,
		StartDatetime: timestamp(v.StartAt),
		EndDatetime:   timestamp(v.EndAt),
	}
}

func (l links) basket(pb *pricing.Basket) BasketResponse {
	b := pb.Basket
	resp := BasketResponse{
		ID:                        b.ID,
		Owner:                     l.optional("users", b.OwnerID),
		Status:                    string(b.Status),
		Lines:                     l.to("baskets", b.ID, "lines"),
		URL:                       l.to("baskets", b.ID),
		TotalExclTax:              money(pb.TotalExclTax),
		TotalExclTaxExclDiscounts: money(pb.TotalExclTaxExclDiscounts),
		TotalInclTax:              money(pb.TotalInclTax),
		TotalInclTaxExclDiscounts: money(pb.TotalInclTaxExclDiscounts),
		TotalTax:                  money(pb.TotalTax()),
		Currency:                  pb.Currency,
		VoucherDiscounts:          make([]DiscountResponse, 0, len(pb.VoucherDiscounts)),
		OfferDiscounts:            []DiscountResponse{},
	}
	for _, vd := range pb.VoucherDiscounts {
		v := vd.Voucher
		resp.VoucherDiscounts = append(resp.VoucherDiscounts, DiscountResponse{
			Description: v.Description(),
			Name:        v.Name,
			Amount:      money(vd.Amount),
			Voucher:     voucherResponse(&v),
		})
	}
	return resp
}

func (l links) lineAttribute(a entity.LineAttribute) LineAttributeResponse {
	return LineAttributeResponse{
		URL:    l.to("lineattributes", a.ID),
		Line:   l.to("lines", a.LineID),
		Option: l.to("options", a.OptionID),
		Value:  a.Value,
	}
}

func (l links) basketLine(line pricing.Line) BasketLineResponse {
	resp := BasketLineResponse{
		URL:                       l.to("lines", line.ID),
		Product:                   l.to("products", line.ProductID),
		Quantity:                  line.Quantity,
		Attributes:                make([]LineAttributeResponse, 0, len(line.Attributes)),
		PriceCurrency:             line.UnitPrice.Currency,
		PriceExclTax:              money(line.PriceExclTaxInclDiscounts),
		PriceInclTax:              money(line.PriceInclTaxInclDiscounts),
		PriceInclTaxExclDiscounts: money(line.PriceInclTax),
		PriceExclTaxExclDiscounts: money(line.PriceExclTax),
		Basket:                    l.to("baskets", line.BasketID),
		StockRecord:               l.to("stockrecords", line.StockRecordID),
		DateCreated:               timestamp(line.CreatedAt),
	}
	if line.Warning != "" {
		resp.Warning = &line.Warning
	}
	for _, a := range line.Attributes {
		attr := l.lineAttribute(a)
		attr.Line = ""
		resp.Attributes = append(resp.Attributes, attr)
	}
	return resp
}

func shippingMethodResponse(m shipping.Method, pb *pricing.Basket) ShippingMethodResponse {
	return ShippingMethodResponse{
		Code:        m.Code(),
		Name:        m.Name(),
		Description: m.Description(),
		Price:       priceResponse(m.Calculate(pb)),
	}
}

// --- orders ---

type AddressResponse struct {
	ID          int64  `json:"id"`
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
	PhoneNumber string `json:"phone_number,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type OrderResponse struct {
	Number           string             `json:"number"`
	Basket           *string            `json:"basket"`
	URL              string             `json:"url"`
	Lines            string             `json:"lines"`
	Owner            *string            `json:"owner"`
	BillingAddress   *AddressResponse   `json:"billing_address"`
	Currency         string             `json:"currency"`
	TotalInclTax     string             `json:"total_incl_tax"`
	TotalExclTax     string             `json:"total_excl_tax"`
	ShippingInclTax  string             `json:"shipping_incl_tax"`
	ShippingExclTax  string             `json:"shipping_excl_tax"`
	ShippingAddress  *AddressResponse   `json:"shipping_address"`
	ShippingMethod   string             `json:"shipping_method"`
	ShippingCode     string             `json:"shipping_code"`
	Status           string             `json:"status"`
	GuestEmail       string             `json:"guest_email"`
	DatePlaced       string             `json:"date_placed"`
	PaymentURL       string             `json:"payment_url"`
	OfferDiscounts   []DiscountResponse `json:"offer_discounts"`
	VoucherDiscounts []DiscountResponse `json:"voucher_discounts"`
}

type OrderLineAttributeResponse struct {
	URL    string  `json:"url"`
	Option *string `json:"option"`
	Type   string  `json:"type,omitempty"`
	Value  string  `json:"value"`
}

type OrderLineResponse struct {
	Attributes                []OrderLineAttributeResponse `json:"attributes"`
	URL                       string                       `json:"url"`
	Product                   *string                      `json:"product"`
	StockRecord               *string                      `json:"stockrecord"`
	Title                     string                       `json:"title"`
	UPC                       string                       `json:"upc"`
	PartnerName               string                       `json:"partner_name"`
	PartnerSKU                string                       `json:"partner_sku"`
	Quantity                  int                          `json:"quantity"`
	PriceCurrency             string                       `json:"price_currency"`
	PriceExclTax              string                       `json:"price_excl_tax"`
	PriceInclTax              string                       `json:"price_incl_tax"`
	PriceInclTaxExclDiscounts string                       `json:"price_incl_tax_excl_discounts"`
	PriceExclTaxExclDiscounts string                       `json:"price_excl_tax_excl_discounts"`
	Status                    string                       `json:"status"`
	Order                     string                       `json:"order"`
}

func (l links) address(id int64, a entity.Address) *AddressResponse {
	return &AddressResponse{
		ID:          id,
		Title:       a.Title,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Line1:       a.Line1,
		Line2:       a.Line2,
		Line3:       a.Line3,
		Line4:       a.Line4,
		State:       a.State,
		Postcode:    a.Postcode,
		Country:     l.to("countries", a.CountryCode),
		PhoneNumber: a.PhoneNumber,
		Notes:       a.Notes,
	}
}

func (l links) order(o *entity.Order, paymentURL string) OrderResponse {
	resp := OrderResponse{
		Number:           o.Number,
		Basket:           l.optional("baskets", o.BasketID),
		URL:              l.to("orders", o.ID),
		Lines:            l.to("orders", o.ID, "lines"),
		Owner:            l.optional("users", o.UserID),
		Currency:         o.Currency,
		TotalInclTax:     money(o.TotalInclTax),
		TotalExclTax:     money(o.TotalExclTax),
		ShippingInclTax:  money(o.ShippingInclTax),
		ShippingExclTax:  money(o.ShippingExclTax),
		ShippingMethod:   o.ShippingMethod,
		ShippingCode:     o.ShippingCode,
		Status:           o.Status,
		GuestEmail:       o.GuestEmail,
		DatePlaced:       timestamp(o.DatePlaced),
		PaymentURL:       paymentURL,
		OfferDiscounts:   []DiscountResponse{},
		VoucherDiscounts: []DiscountResponse{},
	}
	if o.ShippingAddress != nil {
		resp.ShippingAddress = l.address(o.ShippingAddress.ID, o.ShippingAddress.Address)
	}
	if o.BillingAddress != nil {
		resp.BillingAddress = l.address(o.BillingAddress.ID, o.BillingAddress.Address)
	}
	for _, d := range o.Discounts {
		dr := DiscountResponse{Description: d.Message, Name: d.OfferName, Amount: money(d.Amount)}
		switch {
		case d.VoucherID != nil:
			dr.Voucher = &VoucherResponse{Name: d.OfferName, Code: d.VoucherCode}
			resp.VoucherDiscounts = append(resp.VoucherDiscounts, dr)
		case d.OfferID != nil:
			resp.OfferDiscounts = append(resp.OfferDiscounts, dr)
		}
	}
	return resp
}

func (l links) orderLineAttribute(a entity.OrderLineAttribute) OrderLineAttributeResponse {
	return OrderLineAttributeResponse{
		URL:    l.to("orderlineattributes", a.ID),
		Option: l.optional("options", a.OptionID),
		Type:   a.Type,
		Value:  a.Value,
	}
}

func (l links) orderLine(line *entity.OrderLine, currency string) OrderLineResponse {
	resp := OrderLineResponse{
		Attributes:                make([]OrderLineAttributeResponse, 0, len(line.Attributes)),
		URL:                       l.to("orderlines", line.ID),
		Product:                   l.optional("products", line.ProductID),
		StockRecord:               l.optional("stockrecords", line.StockRecordID),
		Title:                     line.Title,
		UPC:                       line.UPC,
		PartnerName:               line.PartnerName,
		PartnerSKU:                line.PartnerSKU,
		Quantity:                  line.Quantity,
		PriceCurrency:             currency,
		PriceExclTax:              money(line.LinePriceExclTax),
		PriceInclTax:              money(line.LinePriceInclTax),
		PriceInclTaxExclDiscounts: money(line.LinePriceBeforeDiscountsInclTax),
		PriceExclTaxExclDiscounts: money(line.LinePriceBeforeDiscountsExclTax),
		Status:                    line.Status,
		Order:                     l.to("orders", line.OrderID),
	}
	for _, a := range line.Attributes {
		resp.Attributes = append(resp.Attributes, l.orderLineAttribute(a))
	}
	return resp
}

// --- users ---

type UserResponse struct {
	URL        string `json:"url"`
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	DateJoined string `json:"date_joined"`
}

func (l links) user(u *entity.User) UserResponse {
	return UserResponse{
		URL:        l.to("users", u.ID),
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		DateJoined: timestamp(u.DateJoined),
	}
}
