package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/ports"
	"github.com/jcmexdev/ecommerce-storefront/internal/auth"
	"github.com/jcmexdev/ecommerce-storefront/internal/basket"
	"github.com/jcmexdev/ecommerce-storefront/internal/checkout"
	"github.com/jcmexdev/ecommerce-storefront/internal/pricing"
	"github.com/jcmexdev/ecommerce-storefront/internal/shipping"
)

// HeaderSessionID carries the session token in both directions.
const HeaderSessionID = "Session-Id"

const paymentURLHint = "You need to implement a view named 'api-payment' " +
	"which redirects to the payment provider and sets up the callbacks."

// Deps are the collaborators a Handler serves requests with.
type Deps struct {
	Catalogue     ports.CatalogueRepository
	Baskets       ports.BasketRepository
	Orders        ports.OrderRepository
	Users         ports.UserRepository
	BasketService *basket.Service
	Checkout      *checkout.Service
	Shipping      *shipping.Repository
	Strategy      pricing.Strategy
	Authenticator *auth.Authenticator
	Sessions      *auth.Sessions
	// PaymentURLTemplate has {number} replaced by the order number. When
	// empty, orders carry a hint instead of a payment URL.
	PaymentURLTemplate string
}

// Handler serves the storefront REST API.
type Handler struct {
	catalogue  ports.CatalogueRepository
	baskets    ports.BasketRepository
	orders     ports.OrderRepository
	users      ports.UserRepository
	basketSvc  *basket.Service
	checkout   *checkout.Service
	shipping   *shipping.Repository
	strategy   pricing.Strategy
	authn      *auth.Authenticator
	sessions   *auth.Sessions
	paymentURL string
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		catalogue:  d.Catalogue,
		baskets:    d.Baskets,
		orders:     d.Orders,
		users:      d.Users,
		basketSvc:  d.BasketService,
		checkout:   d.Checkout,
		shipping:   d.Shipping,
		strategy:   d.Strategy,
		authn:      d.Authenticator,
		sessions:   d.Sessions,
		paymentURL: d.PaymentURLTemplate,
	}
}

type sessionKey struct{}

// requestSession is the session state of one request. Handlers that change
// who the request belongs to update it through issue.
type requestSession struct {
	principal entity.Principal
	session   *auth.Session
}

// Session resolves the Session-Id (or bearer) token into the request's
// principal. Invalid, expired and revoked tokens are treated as absent so
// the client starts a fresh anonymous session.
func (h *Handler) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		rs := &requestSession{}

		token := auth.TokenFromHeader(r.Header.Get(HeaderSessionID), r.Header.Get("Authorization"))
		if token != "" {
			sess, err := h.sessions.Parse(ctx, token)
			if err != nil {
				slog.DebugContext(ctx, "ignoring session token", "error", err)
			} else if err := h.resolve(ctx, rs, sess); err != nil {
				handleError(w, r, err)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, sessionKey{}, rs)))
	})
}

func (h *Handler) resolve(ctx context.Context, rs *requestSession, sess auth.Session) error {
	if sess.UserID != nil {
		u, err := h.users.GetUser(ctx, *sess.UserID)
		if err != nil {
			if errors.Is(err, entity.ErrNotFound) {
				return nil
			}
			return err
		}
		if !u.IsActive {
			return nil
		}
		rs.principal.User = u
	}
	rs.session = &sess
	rs.principal.BasketID = sess.BasketID
	rs.principal.TokenID = sess.ID
	return nil
}

func sessionFrom(r *http.Request) *requestSession {
	if rs, ok := r.Context().Value(sessionKey{}).(*requestSession); ok {
		return rs
	}
	return &requestSession{}
}

func principalFrom(r *http.Request) entity.Principal {
	return sessionFrom(r).principal
}

// issue replaces the request's session with one for userID and basketID and
// returns the token in the Session-Id response header.
func (h *Handler) issue(w http.ResponseWriter, r *http.Request, userID, basketID *int64) error {
	token, sess, err := h.sessions.Issue(userID, basketID)
	if err != nil {
		return err
	}
	rs := sessionFrom(r)
	rs.session = &sess
	rs.principal.BasketID = basketID
	rs.principal.TokenID = sess.ID
	w.Header().Set(HeaderSessionID, token)
	return nil
}

// currentBasket returns the request's basket, creating it and issuing a
// session that carries it when needed.
func (h *Handler) currentBasket(w http.ResponseWriter, r *http.Request) (*entity.Basket, error) {
	p := principalFrom(r)
	b, created, err := h.basketSvc.ForPrincipal(r.Context(), p)
	if err != nil {
		return nil, err
	}
	if created && p.IsAnonymous() {
		if err := h.issue(w, r, nil, &b.ID); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (h *Handler) requireStaff(r *http.Request) error {
	p := principalFrom(r)
	if p.IsAnonymous() {
		return entity.ErrUnauthenticated
	}
	if !p.IsStaff() {
		return entity.ErrForbidden
	}
	return nil
}

func (h *Handler) paymentURLFor(o *entity.Order) string {
	if h.paymentURL == "" {
		return paymentURLHint
	}
	return strings.ReplaceAll(h.paymentURL, "{number}", o.Number)
}

// Root lists the top level resources.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	l := linksFor(r)
	writeJSON(w, http.StatusOK, map[string]string{
		"login":                   l.to("login"),
		"basket":                  l.to("basket"),
		"basket-add-product":      l.to("basket", "add-product"),
		"basket-add-voucher":      l.to("basket", "add-voucher"),
		"basket-shipping-methods": l.to("basket", "shipping-methods"),
		"baskets":                 l.to("baskets"),
		"checkout":                l.to("checkout"),
		"orders":                  l.to("orders"),
		"products":                l.to("products"),
		"product-classes":         l.to("product-classes"),
		"categories":              l.to("categories"),
		"countries":               l.to("countries"),
		"options":                 l.to("options"),
		"partners":                l.to("partners"),
		"lineattributes":          l.to("lineattributes"),
		"users":                   l.to("users"),
	})
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, entity.FieldError(name, "A valid non-negative integer is required.")
	}
	return n, nil
}
