// Package models defines the domain models used across the application.
package models

// Coin is a tradable cryptocurrency as listed by the market API.
// Price and MarketCap are kept as the decimal strings the API sends.
type Coin struct {
	// UUID identifies the coin upstream. Unique within one response.
	UUID string `json:"uuid"`

	// Symbol is the ticker (e.g., "BTC").
	Symbol string `json:"symbol"`

	// Name is the display name (e.g., "Bitcoin").
	Name string `json:"name"`

	// IconURL points to the coin logo.
	IconURL string `json:"iconUrl"`

	// Color is the brand color, when the API has one.
	Color string `json:"color,omitempty"`

	// Price is the price in the reference currency.
	Price string `json:"price"`

	// Change is the signed percentage change over the configured time period.
	Change Number `json:"change"`

	// MarketCap is the market capitalization in the reference currency.
	MarketCap string `json:"marketCap"`

	// Rank is the position by market cap.
	Rank int `json:"rank,omitempty"`

	// Volume24h is the traded volume over the last 24 hours.
	Volume24h string `json:"24hVolume,omitempty"`
}

// CoinDetail is the single-coin view with the fields only the detail endpoint returns.
type CoinDetail struct {
	Coin

	Description       string      `json:"description,omitempty"`
	WebsiteURL        string      `json:"websiteUrl,omitempty"`
	NumberOfMarkets   int         `json:"numberOfMarkets,omitempty"`
	NumberOfExchanges int         `json:"numberOfExchanges,omitempty"`
	Supply            Supply      `json:"supply"`
	AllTimeHigh       AllTimeHigh `json:"allTimeHigh"`
}

type Supply struct {
	Circulating string `json:"circulating,omitempty"`
	Total       string `json:"total,omitempty"`
	Max         string `json:"max,omitempty"`
}

type AllTimeHigh struct {
	Price     string `json:"price,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// CoinHistoryPoint is one price sample. Price is nil when the API has no
// sample for that slot.
type CoinHistoryPoint struct {
	Price     *Number `json:"price"`
	Timestamp int64   `json:"timestamp"`
}

// MarketStats are the aggregate figures returned with the coin list.
type MarketStats struct {
	Total          int    `json:"total"`
	TotalCoins     int    `json:"totalCoins"`
	TotalMarkets   int    `json:"totalMarkets"`
	TotalExchanges int    `json:"totalExchanges"`
	TotalMarketCap string `json:"totalMarketCap"`
	Total24hVolume string `json:"total24hVolume"`
}
