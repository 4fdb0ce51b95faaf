package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/navid-fn/coinview/configs"
	"github.com/navid-fn/coinview/internal/account"
	"github.com/navid-fn/coinview/internal/avatar"
	"github.com/navid-fn/coinview/internal/handler"
	"github.com/navid-fn/coinview/internal/identity"
	"github.com/navid-fn/coinview/internal/logging"
	"github.com/navid-fn/coinview/internal/marketdata"
	"github.com/navid-fn/coinview/internal/querycache"
	"github.com/navid-fn/coinview/internal/resilience"
	"github.com/navid-fn/coinview/internal/router"
	"github.com/navid-fn/coinview/internal/service"
	"github.com/navid-fn/coinview/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := configs.AppLoad()
	logger := logging.NewLogger(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Market data
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures: cfg.Breaker.MaxFailures,
		Timeout:     cfg.Breaker.OpenTimeout,
		Name:        "marketdata",
	}, logger)
	marketClient := marketdata.NewClient(cfg.MarketData, breaker, logger)
	marketService := service.NewMarketService(marketClient, querycache.New(0, logger), cfg.Search.MinLength, logger)

	// Identity, session and avatar
	identityClient := identity.NewClient(cfg.Identity, logger)
	persister, err := session.NewFilePersister(cfg.Identity.SessionFile, logger)
	if err != nil {
		logger.Fatalf("Failed to prepare session storage: %v", err)
	}
	retryer := resilience.NewRetryer(resilience.DefaultRetryConfig("session-refresh"), logger)
	accountService := account.NewService(identityClient, session.NewStore(), persister, retryer, cfg.Identity.RefreshMargin, logger)
	if err := accountService.Restore(ctx); err != nil {
		logger.WithError(err).Warn("Could not restore session, starting signed out")
	}
	avatarFlow := avatar.NewFlow(identityClient, accountService, logger)

	// Health
	monitor := resilience.NewHealthMonitor(logger, cfg.Server.HealthInterval)
	monitor.AddCheck("identity", identityClient.Health)
	monitor.AddDegradedCheck("marketdata", marketClient.Health)

	routerConfig := &router.Config{
		MarketHandler:  handler.NewMarketHandler(marketService),
		SearchHandler:  handler.NewSearchHandler(marketService, cfg.Search, logger),
		AccountHandler: handler.NewAccountHandler(accountService),
		ProfileHandler: handler.NewProfileHandler(accountService, avatarFlow),
		HealthHandler:  handler.NewHealthHandler(monitor),
		Logger:         logger,
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router.NewRouter(routerConfig),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	monitor.Start(ctx)
	wg.Add(1)
	go func() {
		defer wg.Done()
		accountService.RunAutoRefresh(ctx, 0)
	}()

	go func() {
		logger.Infof("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}

	monitor.Wait()
	wg.Wait()
	logger.Info("Stopped")
}
