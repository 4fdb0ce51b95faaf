package marketdata

import "github.com/navid-fn/coinview/internal/models"

// Every fetch that swallows errors returns a zero-valued envelope on failure.
// IsEmpty reports that sentinel; it means "no data", not necessarily an error.

type CoinsResponse struct {
	Status string    `json:"status"`
	Data   CoinsData `json:"data"`
}

type CoinsData struct {
	Stats models.MarketStats `json:"stats"`
	Coins []models.Coin      `json:"coins"`
}

func (r *CoinsResponse) IsEmpty() bool { return r == nil || r.Status == "" }

type CoinDetailResponse struct {
	Status string         `json:"status"`
	Data   CoinDetailData `json:"data"`
}

type CoinDetailData struct {
	Coin models.CoinDetail `json:"coin"`
}

func (r *CoinDetailResponse) IsEmpty() bool { return r == nil || r.Status == "" }

type CoinHistoryResponse struct {
	Status string          `json:"status"`
	Data   CoinHistoryData `json:"data"`
}

type CoinHistoryData struct {
	Change  models.Number             `json:"change"`
	History []models.CoinHistoryPoint `json:"history"`
}

func (r *CoinHistoryResponse) IsEmpty() bool { return r == nil || r.Status == "" }

type SearchResponse struct {
	Status string     `json:"status"`
	Data   SearchData `json:"data"`
}

type SearchData struct {
	Coins []models.Coin `json:"coins"`
}

// NewsResponse has no status field upstream; a nil Data marks the sentinel.
type NewsResponse struct {
	Data []models.NewsItem `json:"data"`
}

func (r *NewsResponse) IsEmpty() bool { return r == nil || r.Data == nil }
