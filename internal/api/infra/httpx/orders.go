package httpx

import (
	"net/http"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
)

// visibleOrder loads an order and hides it from everyone but its owner and staff.
func (h *Handler) visibleOrder(r *http.Request, id int64) (*entity.Order, error) {
	p := principalFrom(r)
	if p.IsAnonymous() {
		return nil, entity.ErrUnauthenticated
	}
	o, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if p.IsStaff() {
		return o, nil
	}
	if o.UserID == nil || *o.UserID != p.User.ID {
		return nil, entity.ErrNotFound
	}
	return o, nil
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	if p.IsAnonymous() {
		handleError(w, r, entity.ErrUnauthenticated)
		return
	}
	var userID *int64
	if !p.IsStaff() {
		userID = p.UserID()
	}
	orders, err := h.orders.ListOrders(r.Context(), userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	l := linksFor(r)
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, l.order(&orders[i], h.paymentURLFor(&orders[i])))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	o, err := h.visibleOrder(r, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linksFor(r).order(o, h.paymentURLFor(o)))
}

func (h *Handler) ListOrderLines(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	o, err := h.visibleOrder(r, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	l := linksFor(r)
	out := make([]OrderLineResponse, 0, len(o.Lines))
	for i := range o.Lines {
		out = append(out, l.orderLine(&o.Lines[i], o.Currency))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetOrderLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	line, err := h.orders.GetOrderLine(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	o, err := h.visibleOrder(r, line.OrderID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linksFor(r).orderLine(line, o.Currency))
}

func (h *Handler) GetOrderLineAttribute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	attr, err := h.orders.GetOrderLineAttribute(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	line, err := h.orders.GetOrderLine(r.Context(), attr.LineID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if _, err := h.visibleOrder(r, line.OrderID); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linksFor(r).orderLineAttribute(*attr))
}
