package httpx

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/ports"
	"github.com/jcmexdev/ecommerce-storefront/internal/pricing"
)

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, _, err := h.catalogue.ListProducts(r.Context(), ports.Page{})
	if err != nil {
		handleError(w, r, err)
		return
	}
	l := linksFor(r)
	out := make([]ProductLinkResponse, 0, len(products))
	for _, p := range products {
		out = append(out, ProductLinkResponse{URL: l.to("products", p.ID), ID: p.ID, Title: p.Title})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.product(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linksFor(r).product(p))
}

func (h *Handler) product(r *http.Request) (*entity.Product, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	return h.catalogue.GetProduct(r.Context(), id)
}

// purchaseInfo applies the pricing strategy to the product in the path.
func (h *Handler) purchaseInfo(r *http.Request) (pricing.PurchaseInfo, error) {
	p, err := h.product(r)
	if err != nil {
		return pricing.PurchaseInfo{}, err
	}
	records, err := h.catalogue.ListStockRecords(r.Context(), p.ID)
	if err != nil {
		return pricing.PurchaseInfo{}, err
	}
	return h.strategy.FetchForProduct(p, records), nil
}

func (h *Handler) GetProductPrice(w http.ResponseWriter, r *http.Request) {
	info, err := h.purchaseInfo(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, priceResponse(info.Price))
}

func (h *Handler) GetProductAvailability(w http.ResponseWriter, r *http.Request) {
	info, err := h.purchaseInfo(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse(info.Availability))
}

func (h *Handler) ListProductStockRecords(w http.ResponseWriter, r *http.Request) {
	p, err := h.product(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	records, err := h.catalogue.ListStockRecords(r.Context(), p.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	l := linksFor(r)
	out := make([]StockRecordResponse, 0, len(records))
	for i := range records {
		out = append(out, l.stockRecord(&records[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetStockRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	sr, err := h.catalogue.GetStockRecord(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linksFor(r).stockRecord(sr))
}

func (h *Handler) ListProductClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.catalogue.ListProductClasses(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	l := linksFor(r)
	out := make([]ProductClassResponse, 0, len(classes))
	for i := range classes {
		out = append(out, l.productClass(&classes[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetProductClass(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	c, err := h.catalogue.GetProductClass(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linksFor(r).productClass(c))
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, _, err := h.catalogue.ListCategories(r.Context(), ports.Page{})
	if err != nil {
		handleError(w, r, err)
		return
	}
	l := linksFor(r)
	out := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, l.category(&categories[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	c, err := h.catalogue.GetCategory(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linksFor(r).category(c))
}

func (h *Handler) ListOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.catalogue.ListOptions(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	l := linksFor(r)
	out := make([]OptionResponse, 0, len(options))
	for i := range options {
		out = append(out, l.option(&options[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetOption(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	o, err := h.catalogue.GetOption(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linksFor(r).option(o))
}

func (h *Handler) ListPartners(w http.ResponseWriter, r *http.Request) {
	partners, err := h.catalogue.ListPartners(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	l := linksFor(r)
	out := make([]PartnerResponse, 0, len(partners))
	for i := range partners {
		out = append(out, l.partner(&partners[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetPartner(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	p, err := h.catalogue.GetPartner(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linksFor(r).partner(p))
}

func (h *Handler) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.catalogue.ListCountries(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	l := linksFor(r)
	out := make([]CountryResponse, 0, len(countries))
	for i := range countries {
		out = append(out, l.country(&countries[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetCountry(w http.ResponseWriter, r *http.Request) {
	c, err := h.catalogue.GetCountry(r.Context(), strings.ToUpper(chi.URLParam(r, "code")))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linksFor(r).country(c))
}
