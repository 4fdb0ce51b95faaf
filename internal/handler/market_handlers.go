package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/navid-fn/coinview/internal/models"
	"github.com/navid-fn/coinview/internal/service"
	"github.com/navid-fn/coinview/internal/views"
)

const (
	placeholderNoResults = "no results"
	placeholderNoNews    = "no news"
)

type MarketHandler struct {
	marketService *service.MarketService
}

func NewMarketHandler(service *service.MarketService) *MarketHandler {
	return &MarketHandler{
		marketService: service,
	}
}

// GetCoins returns the raw list envelope, revalidating it.
func (h *MarketHandler) GetCoins(c *gin.Context) {
	resp, err := h.marketService.AllCoins(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// wantsRefresh drops cached entries for coinID when the request asks for ?refresh=true.
// An empty coinID drops the list and news.
func (h *MarketHandler) wantsRefresh(c *gin.Context, coinID string) bool {
	if c.Query("refresh") != "true" {
		return false
	}
	h.marketService.Invalidate(coinID)
	return true
}

func (h *MarketHandler) GetCoin(c *gin.Context) {
	h.wantsRefresh(c, c.Param("uuid"))

	resp, err := h.marketService.CoinDetails(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		respondError(c, err)
		return
	}
	if resp.IsEmpty() {
		c.JSON(http.StatusOK, gin.H{"coin": nil, "placeholder": placeholderNoResults})
		return
	}

	coin := resp.Data.Coin
	c.JSON(http.StatusOK, gin.H{
		"coin": coin,
		"row":  views.NewCoinRow(coin.Coin),
	})
}

// GetHistory returns the chart series. With ?at=<unix seconds> it also
// returns the point nearest to that time.
func (h *MarketHandler) GetHistory(c *gin.Context) {
	var (
		at    int64
		hasAt bool
	)
	if raw := c.Query("at"); raw != "" {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(c, fmt.Errorf("%w: at must be a unix timestamp", errBadRequest))
			return
		}
		at, hasAt = ts, true
	}

	h.wantsRefresh(c, c.Param("uuid"))
	resp, err := h.marketService.CoinHistory(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		respondError(c, err)
		return
	}

	series := []views.ChartPoint{}
	var change float64
	if !resp.IsEmpty() {
		series = views.ChartSeries(resp.Data.History)
		change = resp.Data.Change.Float64()
	}
	body := gin.H{
		"change": change,
		"series": series,
	}
	if len(series) == 0 {
		body["placeholder"] = placeholderNoResults
	}

	if hasAt {
		if p, ok := views.NearestPoint(series, at); ok {
			body["tooltip"] = gin.H{"timestamp": p.Timestamp, "price": views.FormatPrice(strconv.FormatFloat(p.Price, 'f', -1, 64))}
		}
	}
	c.JSON(http.StatusOK, body)
}

// GetMarket selects ?mode= on the market board, or without a mode returns
// what the board shows now. The list is fetched only if nothing is loaded
// yet, or when ?refresh=true.
func (h *MarketHandler) GetMarket(c *gin.Context) {
	raw, selecting := c.GetQuery("mode")
	mode, err := views.ParseMode(raw)
	if err != nil {
		respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	if h.wantsRefresh(c, "") {
		if _, err := h.marketService.AllCoins(c.Request.Context()); err != nil {
			respondError(c, err)
			return
		}
	}

	var coins []models.Coin
	if selecting {
		coins, err = h.marketService.Market(c.Request.Context(), mode)
	} else {
		mode, coins, err = h.marketService.Shown(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{"mode": mode, "coins": views.NewCoinRows(coins)}
	if len(coins) == 0 {
		body["placeholder"] = placeholderNoResults
	}
	c.JSON(http.StatusOK, body)
}

func (h *MarketHandler) GetCalculator(c *gin.Context) {
	amount := c.DefaultQuery("amount", "1")
	symbol := c.DefaultQuery("symbol", "BTC")

	value, err := h.marketService.Calculate(c.Request.Context(), amount, symbol)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"amount": amount, "symbol": symbol, "value": value})
}

func (h *MarketHandler) GetNews(c *gin.Context) {
	h.wantsRefresh(c, "")
	resp, err := h.marketService.News(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	var items []models.NewsItem
	if !resp.IsEmpty() {
		items = resp.Data
	}
	rows := views.NewNewsRows(items)
	body := gin.H{"news": rows}
	if len(rows) == 0 {
		body["placeholder"] = placeholderNoNews
	}
	c.JSON(http.StatusOK, body)
}
