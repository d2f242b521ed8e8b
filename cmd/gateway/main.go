// Command gateway runs the composite API gateway that aggregates the atomic
// Users and Addresses services behind unified endpoints.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/microfabric/composite-gateway/internal/config"
	"github.com/microfabric/composite-gateway/internal/gateway/composite"
	"github.com/microfabric/composite-gateway/internal/gateway/httpapi"
	"github.com/microfabric/composite-gateway/internal/gateway/relation"
	"github.com/microfabric/composite-gateway/internal/gateway/upstream"
	"github.com/microfabric/composite-gateway/internal/logging"
	"github.com/microfabric/composite-gateway/internal/metrics"
	"github.com/microfabric/composite-gateway/internal/middleware"
)

func main() {
	cfg := config.Load()
	log := logging.New("composite-gateway")

	log.Info("users service: %s", cfg.UsersBaseURL)
	log.Info("addresses service: %s", cfg.AddressesBaseURL)

	orch := composite.New(composite.Config{
		Users:         upstream.NewUsersClient(cfg.UsersBaseURL, cfg.UpstreamTimeout),
		Addresses:     upstream.NewAddressesClient(cfg.AddressesBaseURL, cfg.UpstreamTimeout),
		Links:         relation.NewStore(),
		FanoutWorkers: cfg.FanoutWorkers,
		Logger:        log,
	})

	router := httpapi.NewRouter(orch, log)

	m := metrics.New()
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	router.Use(middleware.MetricsMiddleware("composite-gateway", m))
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	var handler http.Handler = router
	if cfg.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log)
		limiter.StartCleanup(time.Minute)
		handler = limiter.Handler(handler)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("composite gateway listening on port %d", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error: %v", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error: %v", err)
	}
	log.Info("gateway stopped")
}
