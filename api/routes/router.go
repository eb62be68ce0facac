package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/angelmondragon/yardops-backend/api/controllers"
	"github.com/angelmondragon/yardops-backend/api/middleware"
	"github.com/angelmondragon/yardops-backend/internal/approvals"
	"github.com/angelmondragon/yardops-backend/internal/calendar"
	"github.com/angelmondragon/yardops-backend/internal/capacity"
	"github.com/angelmondragon/yardops-backend/internal/receiving"
	"github.com/angelmondragon/yardops-backend/internal/reservations"
	"github.com/angelmondragon/yardops-backend/pkg/config"
	"github.com/angelmondragon/yardops-backend/pkg/enums"
	"github.com/angelmondragon/yardops-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/yardops-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	idempotencyStore pkgredis.IdempotencyStore,
	metricsHandler http.Handler,
	capacityService capacity.Service,
	reservationsService reservations.Service,
	approvalsService approvals.Service,
	receivingService receiving.Service,
	calendarService calendar.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		chimw.RealIP,
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": redisP,
		}))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.OperatorRoleAdmin, enums.OperatorRoleYard, enums.OperatorRoleViewer))
			r.Get("/yards/{yardId}/utilization", controllers.YardUtilization(capacityService, logg))
			r.Get("/areas/{areaId}/utilization", controllers.AreaUtilization(capacityService, logg))
			r.Get("/racks/{rackId}/free", controllers.RackFree(capacityService, logg))
			r.Post("/capacity/resolve", controllers.ResolveCapacity(reservationsService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.OperatorRoleAdmin, enums.OperatorRoleYard))
			r.Route("/storage-requests/{requestId}", func(r chi.Router) {
				r.Post("/approve", controllers.ApproveStorageRequest(approvalsService, logg))
				r.Post("/reject", controllers.RejectStorageRequest(approvalsService, logg))
			})
			r.Post("/shipments/{shipmentId}/trucks/{truckId}/receive", controllers.ReceiveTruck(receivingService, logg))
			r.Post("/appointments/{appointmentId}/calendar-sync", controllers.SyncAppointmentCalendar(calendarService, logg))
		})
	})

	return r
}
