package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/navid-fn/pricefeed/internal/errs"
	"github.com/navid-fn/pricefeed/internal/models"
	"github.com/navid-fn/pricefeed/internal/service"
)

type MarketHandler struct {
	market *service.MarketService
}

func NewMarketHandler(market *service.MarketService) *MarketHandler {
	return &MarketHandler{
		market: market,
	}
}

// exchangeParam resolves the exchange from the path, or from the fixed value
// bound by a legacy route.
func exchangeParam(c *gin.Context) (models.Exchange, bool) {
	name := c.Param("exchange")
	if fixed, ok := c.Get("exchange"); ok {
		name = fixed.(string)
	}
	ex, err := models.ParseExchange(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown exchange"})
		return "", false
	}
	return ex, true
}

// sizeParam reads an optional positive integer query value. Zero means the default.
func sizeParam(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
		return 0, false
	}
	return n, true
}

func respond(c *gin.Context, body any, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, body)
	case errors.Is(err, errs.ErrUnknownExchange):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown exchange"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unavailable"})
	}
}

func (h *MarketHandler) GetPrice(c *gin.Context) {
	ex, ok := exchangeParam(c)
	if !ok {
		return
	}
	quote, err := h.market.Price(c.Request.Context(), ex, h.market.ReadOptions(ex)...)
	respond(c, quote, err)
}

func (h *MarketHandler) GetTrades(c *gin.Context) {
	ex, ok := exchangeParam(c)
	if !ok {
		return
	}
	limit, ok := sizeParam(c, "limit")
	if !ok {
		return
	}
	trades, err := h.market.Trades(c.Request.Context(), ex, limit)
	respond(c, trades, err)
}

func (h *MarketHandler) GetBids(c *gin.Context) {
	ex, ok := exchangeParam(c)
	if !ok {
		return
	}
	depth, ok := sizeParam(c, "depth")
	if !ok {
		return
	}
	bids, err := h.market.Bids(c.Request.Context(), ex, depth)
	respond(c, bids, err)
}

func (h *MarketHandler) GetAsks(c *gin.Context) {
	ex, ok := exchangeParam(c)
	if !ok {
		return
	}
	depth, ok := sizeParam(c, "depth")
	if !ok {
		return
	}
	asks, err := h.market.Asks(c.Request.Context(), ex, depth)
	respond(c, asks, err)
}

func (h *MarketHandler) GetHistory(c *gin.Context) {
	ex, ok := exchangeParam(c)
	if !ok {
		return
	}
	limit, ok := sizeParam(c, "limit")
	if !ok {
		return
	}
	rows, err := h.market.History(c.Request.Context(), ex, limit)
	respond(c, rows, err)
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
