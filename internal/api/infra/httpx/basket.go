package httpx

import (
	"errors"
	"net/http"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-storefront/internal/basket"
)

type AddProductRequest struct {
	URL      string             `json:"url"`
	Quantity *int               `json:"quantity"`
	Options  []OptionValueInput `json:"options"`
}

type OptionValueInput struct {
	Option string `json:"option"`
	Value  string `json:"value"`
}

type AddVoucherRequest struct {
	VoucherCode string `json:"vouchercode"`
}

type BasketUpdateRequest struct {
	Status *string `json:"status"`
}

type BasketCreateRequest struct {
	Owner  *string `json:"owner"`
	Status *string `json:"status"`
}

type LineAttributeRequest struct {
	Line   string `json:"line"`
	Option string `json:"option"`
	Value  string `json:"value"`
}

// writeBasket prices b and writes it.
func (h *Handler) writeBasket(w http.ResponseWriter, r *http.Request, status int, b *entity.Basket) {
	pb, err := h.basketSvc.Price(r.Context(), b)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, status, linksFor(r).basket(pb))
}

// GetBasket returns the request's basket, creating it on first use.
func (h *Handler) GetBasket(w http.ResponseWriter, r *http.Request) {
	b, err := h.currentBasket(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	h.writeBasket(w, r, http.StatusOK, b)
}

func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req AddProductRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	productID, err := hyperlinkField("url", req.URL, "products")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if req.Quantity == nil {
		handleError(w, r, entity.FieldError("quantity", "This field is required."))
		return
	}
	options := make([]basket.OptionValue, 0, len(req.Options))
	for _, o := range req.Options {
		optionID, err := hyperlinkField("options", o.Option, "options")
		if err != nil {
			handleError(w, r, err)
			return
		}
		options = append(options, basket.OptionValue{OptionID: optionID, Value: o.Value})
	}

	b, err := h.currentBasket(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if _, err := h.basketSvc.AddProduct(r.Context(), b, productID, *req.Quantity, options); err != nil {
		handleError(w, r, err)
		return
	}
	b, err = h.baskets.GetBasket(r.Context(), b.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	h.writeBasket(w, r, http.StatusOK, b)
}

func (h *Handler) AddVoucher(w http.ResponseWriter, r *http.Request) {
	var req AddVoucherRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	b, err := h.currentBasket(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	v, err := h.basketSvc.AddVoucher(r.Context(), b, principalFrom(r), req.VoucherCode)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, voucherResponse(v))
}

func (h *Handler) ShippingMethods(w http.ResponseWriter, r *http.Request) {
	b, err := h.currentBasket(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	pb, err := h.basketSvc.Price(r.Context(), b)
	if err != nil {
		handleError(w, r, err)
		return
	}
	methods := h.shipping.Methods(pb, principalFrom(r).User, nil)
	out := make([]ShippingMethodResponse, 0, len(methods))
	for _, m := range methods {
		out = append(out, shippingMethodResponse(m, pb))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ListBaskets(w http.ResponseWriter, r *http.Request) {
	if err := h.requireStaff(r); err != nil {
		handleError(w, r, err)
		return
	}
	baskets, err := h.baskets.ListBaskets(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	l := linksFor(r)
	out := make([]BasketResponse, 0, len(baskets))
	for i := range baskets {
		pb, err := h.basketSvc.Price(r.Context(), &baskets[i])
		if err != nil {
			handleError(w, r, err)
			return
		}
		out = append(out, l.basket(pb))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateBasket(w http.ResponseWriter, r *http.Request) {
	if err := h.requireStaff(r); err != nil {
		handleError(w, r, err)
		return
	}
	var req BasketCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	var ownerID *int64
	if req.Owner != nil && *req.Owner != "" {
		id, err := hyperlinkField("owner", *req.Owner, "users")
		if err != nil {
			handleError(w, r, err)
			return
		}
		if _, err := h.users.GetUser(r.Context(), id); err != nil {
			handleError(w, r, asFieldError(err, "owner"))
			return
		}
		ownerID = &id
	}

	b, err := h.baskets.CreateBasket(r.Context(), ownerID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if req.Status != nil {
		if err := h.basketSvc.UpdateStatus(r.Context(), b, entity.BasketStatus(*req.Status)); err != nil {
			handleError(w, r, err)
			return
		}
	}
	h.writeBasket(w, r, http.StatusCreated, b)
}

// accessibleBasket loads the basket in the path if the request may see it.
func (h *Handler) accessibleBasket(r *http.Request) (*entity.Basket, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	b, err := h.baskets.GetBasket(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if !basket.CanAccess(principalFrom(r), b) {
		return nil, entity.ErrForbidden
	}
	return b, nil
}

func (h *Handler) GetBasketByID(w http.ResponseWriter, r *http.Request) {
	b, err := h.accessibleBasket(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	h.writeBasket(w, r, http.StatusOK, b)
}

// UpdateBasket serves PUT and PATCH alike: only the fields sent are changed.
func (h *Handler) UpdateBasket(w http.ResponseWriter, r *http.Request) {
	b, err := h.accessibleBasket(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req BasketUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Status != nil {
		if err := h.basketSvc.UpdateStatus(r.Context(), b, entity.BasketStatus(*req.Status)); err != nil {
			handleError(w, r, err)
			return
		}
	}
	h.writeBasket(w, r, http.StatusOK, b)
}

func (h *Handler) DeleteBasket(w http.ResponseWriter, r *http.Request) {
	b, err := h.accessibleBasket(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.baskets.DeleteBasket(r.Context(), b.ID); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListBasketLines(w http.ResponseWriter, r *http.Request) {
	b, err := h.accessibleBasket(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	pb, err := h.basketSvc.Price(r.Context(), b)
	if err != nil {
		handleError(w, r, err)
		return
	}
	l := linksFor(r)
	out := make([]BasketLineResponse, 0, len(pb.Lines))
	for _, line := range pb.Lines {
		out = append(out, l.basketLine(line))
	}
	writeJSON(w, http.StatusOK, out)
}

// lineBasket loads the basket holding a line and checks the caller may
// see it.
func (h *Handler) lineBasket(r *http.Request, lineID int64) (*entity.Basket, error) {
	line, err := h.baskets.GetLine(r.Context(), lineID)
	if err != nil {
		return nil, err
	}
	b, err := h.baskets.GetBasket(r.Context(), line.BasketID)
	if err != nil {
		return nil, err
	}
	if !basket.CanAccess(principalFrom(r), b) {
		return nil, entity.ErrForbidden
	}
	return b, nil
}

func (h *Handler) GetLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	b, err := h.lineBasket(r, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	pb, err := h.basketSvc.Price(r.Context(), b)
	if err != nil {
		handleError(w, r, err)
		return
	}
	for _, pl := range pb.Lines {
		if pl.ID == id {
			writeJSON(w, http.StatusOK, linksFor(r).basketLine(pl))
			return
		}
	}
	handleError(w, r, entity.ErrNotFound)
}

// ListLineAttributes shows staff every attribute and everyone else only
// those on lines in baskets they can access.
func (h *Handler) ListLineAttributes(w http.ResponseWriter, r *http.Request) {
	attrs, err := h.baskets.ListLineAttributes(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	staff := principalFrom(r).IsStaff()
	visible := make(map[int64]bool)
	l := linksFor(r)
	out := make([]LineAttributeResponse, 0, len(attrs))
	for _, a := range attrs {
		if !staff {
			ok, seen := visible[a.LineID]
			if !seen {
				_, err := h.lineBasket(r, a.LineID)
				switch {
				case err == nil:
					ok = true
				case errors.Is(err, entity.ErrForbidden), errors.Is(err, entity.ErrNotFound):
				default:
					handleError(w, r, err)
					return
				}
				visible[a.LineID] = ok
			}
			if !ok {
				continue
			}
		}
		out = append(out, l.lineAttribute(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateLineAttribute(w http.ResponseWriter, r *http.Request) {
	var req LineAttributeRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	lineID, err := hyperlinkField("line", req.Line, "lines")
	if err != nil {
		handleError(w, r, err)
		return
	}
	optionID, err := hyperlinkField("option", req.Option, "options")
	if err != nil {
		handleError(w, r, err)
		return
	}

	if _, err := h.lineBasket(r, lineID); err != nil && !errors.Is(err, entity.ErrNotFound) {
		handleError(w, r, err)
		return
	}

	attr := &entity.LineAttribute{LineID: lineID, OptionID: optionID, Value: req.Value}
	if err := h.basketSvc.AddLineAttribute(r.Context(), attr); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, linksFor(r).lineAttribute(*attr))
}

func (h *Handler) GetLineAttribute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	a, err := h.baskets.GetLineAttribute(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if _, err := h.lineBasket(r, a.LineID); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linksFor(r).lineAttribute(*a))
}
