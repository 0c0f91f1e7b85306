package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sokohub/sokohub-backend/api/controllers"
	ordercontrollers "github.com/sokohub/sokohub-backend/api/controllers/orders"
	webhookcontrollers "github.com/sokohub/sokohub-backend/api/controllers/webhooks"
	"github.com/sokohub/sokohub-backend/api/middleware"
	checkoutsvc "github.com/sokohub/sokohub-backend/internal/checkout"
	"github.com/sokohub/sokohub-backend/internal/orders"
	webhooksvc "github.com/sokohub/sokohub-backend/internal/webhooks"
	"github.com/sokohub/sokohub-backend/pkg/config"
	"github.com/sokohub/sokohub-backend/pkg/enums"
	"github.com/sokohub/sokohub-backend/pkg/logger"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    controllers.Pinger
	Registry *prometheus.Registry
	Orders   orders.Service
	Checkout checkoutsvc.Service
	Webhooks webhooksvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Get("/callback", webhookcontrollers.PesapalIPN(deps.Webhooks, logg))
		r.Post("/callback", webhookcontrollers.PesapalIPN(deps.Webhooks, logg))
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Post("/", ordercontrollers.Create(deps.Orders, logg))
		r.Get("/", ordercontrollers.List(deps.Orders, logg))
		r.Post("/create-checkout-session", controllers.CreateCheckoutSession(deps.Checkout, logg))
		r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
		r.Get("/{orderId}/history", ordercontrollers.History(deps.Orders, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAdmin.String(), logg))
			r.Put("/bulk", ordercontrollers.BulkUpdate(deps.Orders, logg))
			r.Put("/{orderId}", ordercontrollers.UpdateStatus(deps.Orders, logg))
			r.Post("/{orderId}/notes", ordercontrollers.AddNote(deps.Orders, logg))
		})
	})

	return r
}
