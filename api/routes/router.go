package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pearcestephens/stocklink-backend/api/controllers"
	webhookcontrollers "github.com/pearcestephens/stocklink-backend/api/controllers/webhooks"
	"github.com/pearcestephens/stocklink-backend/api/middleware"
	"github.com/pearcestephens/stocklink-backend/internal/audit"
	"github.com/pearcestephens/stocklink-backend/internal/webhook"
	"github.com/pearcestephens/stocklink-backend/pkg/config"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
	"github.com/pearcestephens/stocklink-backend/pkg/vend"
)

// Deps carries everything the HTTP surface needs. The API binary wires these
// in main; tests wire fakes.
type Deps struct {
	Cfg          *config.Config
	Logg         *logger.Logger
	DB           controllers.Pinger
	Redis        controllers.Pinger
	Vend         *vend.Client
	Sync         controllers.SyncService
	Push         pushServices
	Queue        controllers.QueueService
	Audit        audit.Service
	Consignments controllers.ConsignmentService
	Webhooks     webhookcontrollers.WebhookProcessor
	WebhookGuard *webhook.IdempotencyGuard
	Gatherer     prometheus.Gatherer
}

type pushServices interface {
	controllers.ProductService
	controllers.SupplierService
	controllers.InventoryService
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logg),
		middleware.RequestID(deps.Logg),
		middleware.Logging(deps.Logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Cfg))
		r.Get("/ready", controllers.HealthReady(deps.Cfg, deps.Logg, deps.DB, deps.Redis))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/vend", webhookcontrollers.VendWebhook(deps.Webhooks, deps.Vend, deps.WebhookGuard, deps.Logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.OpsAuth(deps.Cfg.Ops.Token, deps.Logg))

		r.Route("/sync", func(r chi.Router) {
			r.Post("/", controllers.SyncAll(deps.Sync, deps.Logg))
			r.Post("/{entity}", controllers.SyncEntity(deps.Sync, deps.Logg))
		})

		r.Route("/queue", func(r chi.Router) {
			r.Get("/stats", controllers.QueueStats(deps.Queue, deps.Logg))
			r.Post("/process", controllers.QueueProcess(deps.Queue, deps.Cfg.Queue.BatchSize, deps.Logg))
			r.Post("/reclaim", controllers.QueueReclaim(deps.Queue, deps.Logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.ProductCreate(deps.Push, deps.Logg))
			r.Put("/{productId}", controllers.ProductUpdate(deps.Push, deps.Logg))
			r.Delete("/{productId}", controllers.ProductDelete(deps.Push, deps.Logg))
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Post("/", controllers.SupplierCreate(deps.Push, deps.Logg))
			r.Put("/{supplierId}", controllers.SupplierUpdate(deps.Push, deps.Logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Put("/", controllers.InventoryUpdate(deps.Push, deps.Logg))
			r.Post("/adjust", controllers.InventoryAdjust(deps.Push, deps.Logg))
			r.Post("/bulk", controllers.InventoryBulk(deps.Push, deps.Logg))
		})

		r.Route("/consignments", func(r chi.Router) {
			r.Post("/{consignmentId}/transition", controllers.ConsignmentTransition(deps.Consignments, deps.Logg))
			r.Get("/{consignmentId}/capabilities", controllers.ConsignmentCapabilities(deps.Consignments, deps.Logg))
		})

		r.Route("/audit", func(r chi.Router) {
			r.Get("/trail/{correlationId}", controllers.AuditTrail(deps.Audit, deps.Logg))
			r.Get("/recent", controllers.AuditRecent(deps.Audit, deps.Logg))
		})
	})

	return r
}
