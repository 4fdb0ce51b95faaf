// Package marketdata is the outbound client for the coin and news REST APIs.
//
// List, detail, history and news fetches never return errors: failures are
// logged and turned into an empty envelope (see IsEmpty). SearchCoin is the
// exception and returns its error so callers can tell "no results" from
// "request failed".
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/navid-fn/coinview/configs"
	"github.com/navid-fn/coinview/internal/resilience"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	headerAPIKey  = "X-RapidAPI-Key"
	headerAPIHost = "X-RapidAPI-Host"

	rateLimitBurst = 10
	maxErrorBody   = 256
)

var ErrEmptyQuery = errors.New("marketdata: empty search query")

// StatusError is a non-2xx response from the upstream API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	cfg        configs.MarketDataConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *resilience.CircuitBreaker
	logger     *logrus.Entry
}

func NewClient(cfg configs.MarketDataConfig, breaker *resilience.CircuitBreaker, logger *logrus.Logger) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), rateLimitBurst),
		breaker:    breaker,
		logger:     logger.WithField("component", "marketdata"),
	}
}

// FetchAllCoins returns the first page of coins ordered as configured.
func (c *Client) FetchAllCoins(ctx context.Context) *CoinsResponse {
	var resp CoinsResponse
	if err := c.call(ctx, c.cfg.CoinsHost, c.cfg.CoinsBaseURL+"/coins", c.listParams(), &resp); err != nil {
		c.logger.WithError(err).Error("Fetch all coins failed")
		return &CoinsResponse{}
	}
	return &resp
}

func (c *Client) FetchCoinDetails(ctx context.Context, coinID string) *CoinDetailResponse {
	if coinID == "" {
		return &CoinDetailResponse{}
	}

	var resp CoinDetailResponse
	endpoint := c.cfg.CoinsBaseURL + "/coin/" + url.PathEscape(coinID)
	if err := c.call(ctx, c.cfg.CoinsHost, endpoint, c.coinParams(), &resp); err != nil {
		c.logger.WithError(err).WithField("coin", coinID).Error("Fetch coin details failed")
		return &CoinDetailResponse{}
	}
	return &resp
}

func (c *Client) FetchCoinHistory(ctx context.Context, coinID string) *CoinHistoryResponse {
	if coinID == "" {
		return &CoinHistoryResponse{}
	}

	var resp CoinHistoryResponse
	endpoint := c.cfg.CoinsBaseURL + "/coin/" + url.PathEscape(coinID) + "/history"
	if err := c.call(ctx, c.cfg.CoinsHost, endpoint, c.coinParams(), &resp); err != nil {
		c.logger.WithError(err).WithField("coin", coinID).Error("Fetch coin history failed")
		return &CoinHistoryResponse{}
	}
	return &resp
}

// SearchCoin looks up coins by name or symbol. Unlike the other fetches it returns its error.
func (c *Client) SearchCoin(ctx context.Context, query string) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	params := url.Values{}
	params.Set("referenceCurrencyUuid", c.cfg.ReferenceCurrencyUUID)
	params.Set("query", query)

	var resp SearchResponse
	if err := c.call(ctx, c.cfg.CoinsHost, c.cfg.CoinsBaseURL+"/search-suggestions", params, &resp); err != nil {
		c.logger.WithError(err).WithField("query", query).Warn("Search failed")
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return &resp, nil
}

func (c *Client) FetchCryptoNews(ctx context.Context) *NewsResponse {
	var resp NewsResponse
	if err := c.call(ctx, c.cfg.NewsHost, c.cfg.NewsBaseURL, nil, &resp); err != nil {
		c.logger.WithError(err).Error("Fetch news failed")
		return &NewsResponse{}
	}
	return &resp
}

// Health fails while the circuit breaker is open, reporting its counters.
func (c *Client) Health(ctx context.Context) error {
	if c.breaker == nil || c.breaker.GetState() != resilience.StateOpen {
		return nil
	}
	stats := c.breaker.GetStats()
	return fmt.Errorf("%w: %v failures, last at %v", resilience.ErrCircuitBreakerOpen, stats["failures"], stats["lastFailureTime"])
}

func (c *Client) listParams() url.Values {
	params := c.coinParams()
	params.Set("tiers", c.cfg.Tiers)
	params.Set("orderBy", c.cfg.OrderBy)
	params.Set("orderDirection", c.cfg.OrderDirection)
	params.Set("limit", strconv.Itoa(c.cfg.Limit))
	params.Set("offset", strconv.Itoa(c.cfg.Offset))
	return params
}

func (c *Client) coinParams() url.Values {
	params := url.Values{}
	params.Set("referenceCurrencyUuid", c.cfg.ReferenceCurrencyUUID)
	params.Set("timePeriod", c.cfg.TimePeriod)
	return params
}

func (c *Client) call(ctx context.Context, host, endpoint string, params url.Values, out any) error {
	if c.breaker == nil {
		return c.do(ctx, host, endpoint, params, out)
	}
	return c.breaker.Execute(ctx, func() error {
		return c.do(ctx, host, endpoint, params, out)
	})
}

func (c *Client) do(ctx context.Context, host, endpoint string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	target := endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(headerAPIKey, c.cfg.APIKey)
	req.Header.Set(headerAPIHost, host)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal: %w", err)
	}

	c.logger.WithField("endpoint", endpoint).Debug("Fetched")
	return nil
}
