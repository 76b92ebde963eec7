package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	authhandler "github.com/glowclinic/booking-api/internal/handler/auth"
	bookinghandler "github.com/glowclinic/booking-api/internal/handler/booking"
	healthhandler "github.com/glowclinic/booking-api/internal/handler/health"
	orderhandler "github.com/glowclinic/booking-api/internal/handler/order"
	treatmenthandler "github.com/glowclinic/booking-api/internal/handler/treatment"
	"github.com/glowclinic/booking-api/internal/middleware"
)

type Config struct {
	RateLimit  rate.Limit
	RateBurst  int
	CORSConfig middleware.CORSConfig
}

type Router struct {
	engine *gin.Engine
	auth   *middleware.AuthMiddleware

	authH      *authhandler.Handler
	bookingH   *bookinghandler.Handler
	treatmentH *treatmenthandler.Handler
	orderH     *orderhandler.Handler
	healthH    *healthhandler.Handler

	metrics *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

func New(
	auth *middleware.AuthMiddleware,
	authH *authhandler.Handler,
	bookingH *bookinghandler.Handler,
	treatmentH *treatmenthandler.Handler,
	orderH *orderhandler.Handler,
	healthH *healthhandler.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	r := &Router{
		engine:     engine,
		auth:       auth,
		authH:      authH,
		bookingH:   bookingH,
		treatmentH: treatmentH,
		orderH:     orderH,
		healthH:    healthH,
		metrics:    newRouterMetrics(),
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		r.metricsMiddleware(),
	)
	engine.Use(middleware.CORS(config.CORSConfig))

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	r.healthH.RegisterRoutes(api)

	// Public routes: registration, login and availability browsing.
	r.authH.RegisterRoutes(api)
	r.treatmentH.RegisterRoutes(api)
	r.bookingH.RegisterPublicRoutes(api)

	// Customer routes.
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.authH.RegisterProtectedRoutes(protected)
	r.bookingH.RegisterRoutes(protected)
	r.orderH.RegisterRoutes(protected)

	// Desk operations live on the booking paths, gated by role.
	staff := api.Group("")
	staff.Use(r.auth.Authenticate(), r.auth.RequireAdmin())
	r.bookingH.RegisterStaffRoutes(staff)

	// Admin listings and order management.
	admin := api.Group("/admin")
	admin.Use(r.auth.Authenticate(), r.auth.RequireAdmin())
	r.bookingH.RegisterAdminRoutes(admin)
	r.orderH.RegisterAdminRoutes(admin)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func newRouterMetrics() *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
