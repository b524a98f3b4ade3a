package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/infra/httpx/middlewares"
	"github.com/jcmexdev/ecommerce-storefront/internal/pkg/telemetry"
)

func NewRouter(handler *Handler, metrics *telemetry.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachTracingMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.Metrics(metrics))

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(handler.Session)

		r.Get("/", handler.Root)

		r.Get("/login/", handler.LoginStatus)
		r.Post("/login/", handler.Login)
		r.Delete("/login/", handler.Logout)

		r.Get("/basket/", handler.GetBasket)
		r.Post("/basket/add-product/", handler.AddProduct)
		r.Post("/basket/add-voucher/", handler.AddVoucher)
		r.Get("/basket/shipping-methods/", handler.ShippingMethods)

		r.Get("/baskets/", handler.ListBaskets)
		r.Post("/baskets/", handler.CreateBasket)
		r.Get("/baskets/{pk}/", handler.GetBasketByID)
		r.Put("/baskets/{pk}/", handler.UpdateBasket)
		r.Patch("/baskets/{pk}/", handler.UpdateBasket)
		r.Delete("/baskets/{pk}/", handler.DeleteBasket)
		r.Get("/baskets/{pk}/lines/", handler.ListBasketLines)
		r.Get("/lines/{pk}/", handler.GetLine)
		r.Get("/lineattributes/", handler.ListLineAttributes)
		r.Post("/lineattributes/", handler.CreateLineAttribute)
		r.Get("/lineattributes/{pk}/", handler.GetLineAttribute)

		r.Post("/checkout/", handler.Checkout)
		r.Get("/orders/", handler.ListOrders)
		r.Get("/orders/{pk}/", handler.GetOrder)
		r.Get("/orders/{pk}/lines/", handler.ListOrderLines)
		r.Get("/orderlines/{pk}/", handler.GetOrderLine)
		r.Get("/orderlineattributes/{pk}/", handler.GetOrderLineAttribute)

		r.Get("/products/", handler.ListProducts)
		r.Get("/products/{pk}/", handler.GetProduct)
		r.Get("/products/{pk}/price/", handler.GetProductPrice)
		r.Get("/products/{pk}/availability/", handler.GetProductAvailability)
		r.Get("/products/{pk}/stockrecords/", handler.ListProductStockRecords)
		r.Get("/stockrecords/{pk}/", handler.GetStockRecord)
		r.Get("/product-classes/", handler.ListProductClasses)
		r.Get("/product-classes/{pk}/", handler.GetProductClass)
		r.Get("/categories/", handler.ListCategories)
		r.Get("/categories/{pk}/", handler.GetCategory)
		r.Get("/options/", handler.ListOptions)
		r.Get("/options/{pk}/", handler.GetOption)
		r.Get("/partners/", handler.ListPartners)
		r.Get("/partners/{pk}/", handler.GetPartner)
		r.Get("/countries/", handler.ListCountries)
		r.Get("/countries/{code}/", handler.GetCountry)

		r.Get("/users/", handler.ListUsers)
		r.Get("/users/{pk}/", handler.GetUser)

		r.Get("/v1/products/", handler.V1ListProducts)
		r.Get("/v1/products/{pk}/", handler.V1GetProduct)
		r.Get("/v1/categories/", handler.V1ListCategories)
		r.Get("/v1/categories/{pk}/", handler.V1GetCategory)
	})
	return r
}
