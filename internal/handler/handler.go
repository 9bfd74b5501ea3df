// Package handler exposes the HTTP API: the customer order surface, the
// post-sale surface, and the admin surface. Routing is chi; identity arrives
// in trusted gateway headers.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/marketbay/fulfillment/internal/domain/fault"
	"github.com/marketbay/fulfillment/internal/domain/order"
	"github.com/marketbay/fulfillment/internal/domain/postsale"
	"github.com/marketbay/fulfillment/pkg/health"
)

// Handler carries the service dependencies for all routes.
type Handler struct {
	orders    *order.Service
	returns   *postsale.ReturnService
	exchanges *postsale.ExchangeService
	health    *health.Health

	// mediaDir, when non-empty, is served under /media/ for uploaded
	// post-sale images.
	mediaDir string
}

// New creates a Handler.
func New(
	orders *order.Service,
	returns *postsale.ReturnService,
	exchanges *postsale.ExchangeService,
	h *health.Health,
	mediaDir string,
) *Handler {
	return &Handler{
		orders:    orders,
		returns:   returns,
		exchanges: exchanges,
		health:    h,
		mediaDir:  mediaDir,
	}
}

// Routes builds the router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz/live", h.health.LiveEndpoint)
	r.Get("/healthz/ready", h.health.ReadyEndpoint)

	if h.mediaDir != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(h.mediaDir))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(WithIdentity)

		r.Group(func(r chi.Router) {
			r.Use(RequireUser)

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", h.placeOrder)
				r.Get("/", h.listMyOrders)
				r.Get("/{id}", h.getMyOrder)
				r.Post("/{id}/cancel", h.cancelMyOrder)
			})
			r.Route("/returns", func(r chi.Router) {
				r.Post("/", h.createReturn)
				r.Get("/", h.listMyReturns)
				r.Get("/{id}", h.getMyReturn)
			})
			r.Route("/exchanges", func(r chi.Router) {
				r.Post("/", h.createExchange)
				r.Get("/", h.listMyExchanges)
				r.Get("/{id}", h.getMyExchange)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.adminListOrders)
				r.Get("/{id}", h.adminGetOrder)
				r.Patch("/{id}/status", h.adminUpdateOrderStatus)
				r.Delete("/{id}", h.adminDeleteOrder)
			})
			r.Route("/returns", func(r chi.Router) {
				r.Get("/", h.adminListReturns)
				r.Get("/{id}", h.adminGetReturn)
				r.Patch("/{id}/status", h.adminUpdateReturnStatus)
				r.Delete("/{id}", h.adminDeleteReturn)
			})
			r.Route("/exchanges", func(r chi.Router) {
				r.Get("/", h.adminListExchanges)
				r.Get("/{id}", h.adminGetExchange)
				r.Patch("/{id}/status", h.adminUpdateExchangeStatus)
				r.Delete("/{id}", h.adminDeleteExchange)
			})
		})
	})

	return r
}

func identity(r *http.Request) Identity {
	id, _ := IdentityFromContext(r.Context())
	return id
}

// queryInt parses a non-negative integer query parameter, 0 when absent.
func queryInt(r *http.Request, name string) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

const dateLayout = "2006-01-02"

// queryDate parses a YYYY-MM-DD query parameter.
func queryDate(r *http.Request, name string) (*time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, fault.Invalid("%s must be a date in the form YYYY-MM-DD", name)
	}
	return &t, nil
}

// queryDecimal parses a decimal query parameter.
func queryDecimal(r *http.Request, name string) (*decimal.Decimal, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, fault.Invalid("%s must be a decimal number", name)
	}
	return &d, nil
}
