package router

import (
	"github.com/gin-gonic/gin"

	"github.com/navid-fn/pricefeed/internal/handler"
	"github.com/navid-fn/pricefeed/internal/models"
)

func registerMarketRoutes(router *gin.RouterGroup, marketHandler *handler.MarketHandler) {
	exchanges := router.Group("/exchanges/:exchange")
	{
		exchanges.GET("/price", marketHandler.GetPrice)
		exchanges.GET("/trades", marketHandler.GetTrades)
		exchanges.GET("/bids", marketHandler.GetBids)
		exchanges.GET("/asks", marketHandler.GetAsks)
	}
	router.GET("/history/:exchange", marketHandler.GetHistory)
}

// registerLegacyRoutes serves the flat /<exchange>_btc_<resource> paths.
func registerLegacyRoutes(router *gin.Engine, marketHandler *handler.MarketHandler) {
	resources := map[string]gin.HandlerFunc{
		"price":  marketHandler.GetPrice,
		"trades": marketHandler.GetTrades,
		"bids":   marketHandler.GetBids,
		"asks":   marketHandler.GetAsks,
	}

	for _, ex := range models.Exchanges {
		bind := fixedExchange(ex)
		for resource, h := range resources {
			router.GET("/"+ex.String()+"_btc_"+resource, bind, h)
		}
	}
}

func fixedExchange(ex models.Exchange) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("exchange", ex.String())
		c.Next()
	}
}
