// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"expopass/internal/expos"
	"expopass/internal/holds"
	"expopass/internal/mileage"
	"expopass/internal/notifications"
	"expopass/internal/payments"
	"expopass/internal/payments/psp"
	"expopass/internal/qrcredentials"
	"expopass/internal/refunds"
	"expopass/internal/reservations"
	"expopass/internal/shared/config"
	"expopass/internal/shared/database"
	"expopass/internal/shared/middleware"
	"expopass/internal/tickets"
	"expopass/pkg/cache"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Router holds all route dependencies
type Router struct {
	config   *config.Config
	db       *database.DB
	notifier notifications.Dispatcher

	// shared across route groups
	ticketRepo      tickets.Repository
	reservationRepo reservations.Repository
	paymentRepo     payments.Repository
	holdStore       holds.Store
	gateway         psp.Gateway
	mileageService  mileage.Service
	qrService       qrcredentials.Service
	expoService     expos.Service
	cacheService    cache.Service
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, notifier notifications.Dispatcher) *Router {
	return &Router{
		config:   cfg,
		db:       db,
		notifier: notifier,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupShared()
	r.setupHealthRoutes(engine)

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := engine.Group(r.config.GetAPIBasePath())
	operator := api.Group("")
	operator.Use(middleware.JWTAuth(r.config), middleware.RequireOperator())
	{
		r.setupExpoRoutes(api, operator)
		r.setupHoldRoutes(api)
		r.setupReservationRoutes(api)
		r.setupPaymentRoutes(api)
		r.setupQrRoutes(api, operator)
		r.setupRefundRoutes(api, operator)
	}
}

// setupShared builds the repositories and services more than one route group
// depends on.
func (r *Router) setupShared() {
	pg := r.db.GetPostgreSQL()

	r.ticketRepo = tickets.NewRepository(pg)
	r.reservationRepo = reservations.NewRepository(pg)
	r.paymentRepo = payments.NewRepository(pg)
	r.holdStore = holds.NewStore(r.db.GetRedisClient(), r.config.Redis.HoldSessionTTL)
	r.gateway = psp.NewClient(r.config.PSP.BaseURL, r.config.PSP.APIKey, r.config.PSP.CallTimeout)
	r.mileageService = mileage.NewService(pg)
	r.cacheService = cache.NewService(r.db.GetRedisClient())
	r.expoService = expos.NewService(expos.NewRepository(pg))

	qrRepo := qrcredentials.NewRepository(pg)
	r.qrService = qrcredentials.NewService(qrRepo, r.reservationRepo, r.ticketRepo,
		qrcredentials.NewPathRenderer("/media/qr"))
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "expopass-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "expopass-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})
}

func (r *Router) setupExpoRoutes(rg *gin.RouterGroup, operator *gin.RouterGroup) {
	expoController := expos.NewController(r.expoService)
	expos.SetupExpoRoutes(rg, operator, expoController)
}

func (r *Router) setupHoldRoutes(rg *gin.RouterGroup) {
	holdService := holds.NewService(r.holdStore, r.ticketRepo, r.config.Redis.HoldSessionTTL)
	holdController := holds.NewController(holdService)
	holds.SetupHoldRoutes(rg, holdController)
}

func (r *Router) setupReservationRoutes(rg *gin.RouterGroup) {
	reservationController := reservations.NewController(r.reservationRepo)
	reservations.SetupReservationRoutes(rg, reservationController)
}

func (r *Router) setupPaymentRoutes(rg *gin.RouterGroup) {
	reconciler := payments.NewReconciler(
		r.holdStore,
		r.ticketRepo,
		r.reservationRepo,
		r.paymentRepo,
		r.gateway,
		r.mileageService,
		r.qrService,
		r.notifier,
		r.config.Mileage.EarnRatePercent,
	)
	paymentController := payments.NewController(reconciler)
	payments.SetupPaymentRoutes(rg, paymentController)
}

func (r *Router) setupQrRoutes(rg *gin.RouterGroup, operator *gin.RouterGroup) {
	qrController := qrcredentials.NewController(r.qrService)
	qrcredentials.SetupQrRoutes(rg, operator, qrController)
}

func (r *Router) setupRefundRoutes(rg *gin.RouterGroup, operator *gin.RouterGroup) {
	refundRepo := refunds.NewRepository(r.db.GetPostgreSQL())
	refundService := refunds.NewService(
		refundRepo,
		r.paymentRepo,
		r.reservationRepo,
		r.expoService,
		r.ticketRepo,
		r.mileageService,
		r.gateway,
		r.notifier,
		r.cacheService,
		r.config.Redis.CacheTTL,
	)
	refundController := refunds.NewController(refundService)
	refunds.SetupRefundRoutes(rg, operator, refundController)
}
