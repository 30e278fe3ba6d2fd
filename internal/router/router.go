package router

import (
	"github.com/gin-gonic/gin"

	"github.com/navid-fn/pricefeed/internal/handler"
)

type Config struct {
	MarketHandler *handler.MarketHandler
	Debug         bool
}

func NewRouter(cfg *Config) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	router.GET("/healthz", handler.Health)
	registerLegacyRoutes(router, cfg.MarketHandler)

	api := router.Group("/v1/")
	registerMarketRoutes(api, cfg.MarketHandler)

	return router
}
