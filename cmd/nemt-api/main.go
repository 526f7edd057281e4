// README: Entry point; loads config, wires services, starts HTTP server and background cleanup.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nemt/internal/config"
	httptransport "nemt/internal/http"
	"nemt/internal/http/middleware"
	"nemt/internal/infra"
	"nemt/internal/maps"
	"nemt/internal/metrics"
	"nemt/internal/modules/earnings"
	"nemt/internal/modules/payout"
	"nemt/internal/modules/rates"
	"nemt/internal/modules/trip"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := infra.NewLogger(os.Stdout, cfg.Log.Level)
	slog.SetDefault(logger)
	metrics.RegisterDefault()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Error("database init", "err", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	ratesStore := rates.NewStore(dbPool)
	ratesCache := rates.NewCache(redisClient, cfg.Redis.ProfileTTL)
	ratesSvc := rates.NewService(ratesStore, ratesCache, logger)

	var distance payout.DistanceEstimator
	if cfg.Maps.APIKey != "" {
		routes, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			logger.Error("maps init", "err", err)
			os.Exit(1)
		}
		distance = routes
	} else {
		logger.Warn("NEMT_MAPS_API_KEY not set; quotes are disabled")
	}

	resolver := payout.NewResolver(cfg.Defaults)
	payoutSvc := payout.NewService(ratesSvc, distance, resolver, logger)

	tripStore := trip.NewStore(dbPool)
	tripSvc := trip.NewService(tripStore, payoutSvc, logger)

	earningsSvc := earnings.NewService(tripSvc, ratesSvc, resolver, cfg.Location, logger)

	limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
	go limiter.Cleanup(ctx, time.Minute, 5*time.Minute)

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Rates:    ratesSvc,
		Payout:   payoutSvc,
		Trip:     tripSvc,
		Earnings: earningsSvc,
		Limiter:  limiter,
		Log:      logger,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes(), ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "err", err)
		}
	}()

	logger.Info("listening", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server", "err", err)
		os.Exit(1)
	}
}
