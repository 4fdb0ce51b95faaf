package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/navid-fn/coinview/internal/marketdata"
	"github.com/navid-fn/coinview/internal/models"
	"github.com/navid-fn/coinview/internal/querycache"
	"github.com/navid-fn/coinview/internal/views"

	"github.com/sirupsen/logrus"
)

// Cache keys, one entry per operation and parameter set.
const (
	KeyAllCoins    = "allCoins"
	KeyCoinDetails = "CoinDetails"
	KeyCoinHistory = "CoinHistory"
	KeyNews        = "cryptonews"
)

// MarketClient is the market data API.
type MarketClient interface {
	FetchAllCoins(ctx context.Context) *marketdata.CoinsResponse
	FetchCoinDetails(ctx context.Context, coinID string) *marketdata.CoinDetailResponse
	FetchCoinHistory(ctx context.Context, coinID string) *marketdata.CoinHistoryResponse
	SearchCoin(ctx context.Context, query string) (*marketdata.SearchResponse, error)
	FetchCryptoNews(ctx context.Context) *marketdata.NewsResponse
}

// MarketService serves market screens from the cache and the market board.
type MarketService struct {
	client       MarketClient
	cache        *querycache.Cache
	board        *views.MarketBoard
	minSearchLen int
	logger       *logrus.Entry
}

func NewMarketService(client MarketClient, cache *querycache.Cache, minSearchLen int, logger *logrus.Logger) *MarketService {
	if minSearchLen <= 0 {
		minSearchLen = 3
	}
	return &MarketService{
		client:       client,
		cache:        cache,
		board:        views.NewMarketBoard(),
		minSearchLen: minSearchLen,
		logger:       logger.WithField("component", "market"),
	}
}

// AllCoins fetches the coin list and hands it to the market board. An empty
// result leaves the board's list as it was.
func (s *MarketService) AllCoins(ctx context.Context) (*marketdata.CoinsResponse, error) {
	resp, err := orEmpty(querycache.Query(ctx, s.cache, querycache.NewKey(KeyAllCoins), func(ctx context.Context) (*marketdata.CoinsResponse, error) {
		return s.client.FetchAllCoins(ctx), nil
	}))
	if err != nil {
		return nil, err
	}

	if !resp.IsEmpty() {
		s.board.SetCoins(resp.Data.Coins)
	}
	return resp, nil
}

// Coins returns the loaded list, fetching it only if nothing is loaded yet.
func (s *MarketService) Coins(ctx context.Context) ([]models.Coin, error) {
	if s.board.Loaded() {
		return s.board.Coins(), nil
	}
	if _, err := s.AllCoins(ctx); err != nil {
		return nil, err
	}
	return s.board.Coins(), nil
}

// Market selects mode on the market board. Switching modes never re-fetches.
func (s *MarketService) Market(ctx context.Context, mode views.Mode) ([]models.Coin, error) {
	if _, err := s.Coins(ctx); err != nil {
		return nil, err
	}
	return s.board.Select(mode), nil
}

// Shown is what the market board currently displays, loading the list first
// if nothing is loaded yet. It never changes the selected mode.
func (s *MarketService) Shown(ctx context.Context) (views.Mode, []models.Coin, error) {
	if _, err := s.Coins(ctx); err != nil {
		return "", nil, err
	}
	mode, coins := s.board.Shown()
	return mode, coins, nil
}

func (s *MarketService) CoinDetails(ctx context.Context, coinID string) (*marketdata.CoinDetailResponse, error) {
	return orEmpty(querycache.Query(ctx, s.cache, querycache.NewKey(KeyCoinDetails, coinID), func(ctx context.Context) (*marketdata.CoinDetailResponse, error) {
		return s.client.FetchCoinDetails(ctx, coinID), nil
	}))
}

func (s *MarketService) CoinHistory(ctx context.Context, coinID string) (*marketdata.CoinHistoryResponse, error) {
	return orEmpty(querycache.Query(ctx, s.cache, querycache.NewKey(KeyCoinHistory, coinID), func(ctx context.Context) (*marketdata.CoinHistoryResponse, error) {
		return s.client.FetchCoinHistory(ctx, coinID), nil
	}))
}

func (s *MarketService) News(ctx context.Context) (*marketdata.NewsResponse, error) {
	return orEmpty(querycache.Query(ctx, s.cache, querycache.NewKey(KeyNews), func(ctx context.Context) (*marketdata.NewsResponse, error) {
		return s.client.FetchCryptoNews(ctx), nil
	}))
}

// Calculate values amount of symbol against the loaded list.
func (s *MarketService) Calculate(ctx context.Context, amount, symbol string) (string, error) {
	coins, err := s.Coins(ctx)
	if err != nil {
		return "", err
	}
	return views.Calculate(amount, symbol, coins), nil
}

// SearchCoin passes through to the API. Queries shorter than the minimum
// length return no results without a request.
func (s *MarketService) SearchCoin(ctx context.Context, query string) (*marketdata.SearchResponse, error) {
	if utf8.RuneCountInString(strings.TrimSpace(query)) < s.minSearchLen {
		return &marketdata.SearchResponse{}, nil
	}
	return s.client.SearchCoin(ctx, query)
}

// Invalidate drops every cached market entry for coinID, or the list and news when coinID is empty.
func (s *MarketService) Invalidate(coinID string) {
	if coinID == "" {
		s.cache.Invalidate(querycache.NewKey(KeyAllCoins))
		s.cache.Invalidate(querycache.NewKey(KeyNews))
		return
	}
	s.cache.Invalidate(querycache.NewKey(KeyCoinDetails, coinID))
	s.cache.Invalidate(querycache.NewKey(KeyCoinHistory, coinID))
}

// orEmpty turns a missing envelope into the empty sentinel. The cache yields
// nil when a key is invalidated before its first result lands.
func orEmpty[T any](resp *T, err error) (*T, error) {
	if resp == nil && err == nil {
		return new(T), nil
	}
	return resp, err
}
