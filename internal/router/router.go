package router

import (
	"github.com/gin-gonic/gin"
	"github.com/navid-fn/coinview/internal/handler"
	"github.com/sirupsen/logrus"
)

type Config struct {
	MarketHandler  *handler.MarketHandler
	SearchHandler  *handler.SearchHandler
	AccountHandler *handler.AccountHandler
	ProfileHandler *handler.ProfileHandler
	HealthHandler  *handler.HealthHandler
	Logger         *logrus.Logger
}

func NewRouter(cfg *Config) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), RequestLogger(cfg.Logger), gin.Recovery())

	registerHealthRoutes(router, cfg.HealthHandler)

	api := router.Group("/v1")
	registerMarketRoutes(api, cfg.MarketHandler, cfg.SearchHandler)
	registerAccountRoutes(api, cfg.AccountHandler, cfg.ProfileHandler)

	return router
}
