// README: API gateway; registers HTTP routes and delegates to module services.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nemt/internal/http/handlers"
	"nemt/internal/http/middleware"
	"nemt/internal/metrics"
)

type ServerDeps struct {
	Rates    handlers.ProfileService
	Payout   handlers.PayoutService
	Trip     handlers.TripService
	Earnings handlers.EarningsService
	Limiter  *middleware.RateLimiter
	Log      *slog.Logger
}

type Server struct {
	deps ServerDeps
}

func NewServer(deps ServerDeps) *Server {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	return &Server{deps: deps}
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(middleware.Recovery(s.deps.Log), middleware.Logging(s.deps.Log), middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	if s.deps.Limiter != nil {
		api.Use(s.deps.Limiter.Middleware())
	}

	profiles := handlers.NewProfileHandler(s.deps.Rates)
	api.GET("/profiles/:kind/:id", profiles.Get)
	api.PUT("/profiles/:kind/:id", profiles.Put)
	api.POST("/profiles/validate", profiles.Validate)

	tiers := handlers.NewTierHandler()
	api.POST("/tiers/insert", tiers.Insert)
	api.POST("/tiers/remove", tiers.Remove)
	api.POST("/tiers/update", tiers.Update)

	payouts := handlers.NewPayoutHandler(s.deps.Payout)
	api.POST("/payouts/resolve", payouts.Resolve)
	api.POST("/payouts/preview", payouts.Preview)
	api.POST("/payouts/quote", payouts.Quote)

	trips := handlers.NewTripHandler(s.deps.Trip)
	api.GET("/trips/:id", trips.Get)
	api.POST("/trips/:id/close", trips.Close)
	api.POST("/trips/:id/finalize", trips.Finalize)
	api.PUT("/trips/:id/payout", trips.OverridePayout)

	reports := handlers.NewEarningsHandler(s.deps.Earnings)
	api.GET("/earnings/drivers", reports.Drivers)
	api.GET("/earnings/drivers/:id", reports.Driver)
	api.GET("/reports/hourly", reports.Hourly)
	api.GET("/reports/patients", reports.Patients)
	api.GET("/reports/facilities", reports.Facilities)
	api.GET("/reports/contractors", reports.Contractors)

	return r
}
