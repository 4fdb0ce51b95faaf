package views

import (
	"strings"

	"github.com/navid-fn/coinview/internal/models"
)

// Direction is the sign of a price change, used for coloring.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

func DirectionOf(change float64) Direction {
	switch {
	case change > 0:
		return DirectionUp
	case change < 0:
		return DirectionDown
	default:
		return DirectionFlat
	}
}

// SymbolBadge is the first two letters of symbol, uppercased.
func SymbolBadge(symbol string) string {
	r := []rune(symbol)
	if len(r) > 2 {
		r = r[:2]
	}
	return strings.ToUpper(string(r))
}

// CoinRow is a coin as a list row displays it.
type CoinRow struct {
	UUID      string    `json:"uuid"`
	Rank      int       `json:"rank,omitempty"`
	Name      string    `json:"name"`
	Symbol    string    `json:"symbol"`
	Badge     string    `json:"badge"`
	IconURL   string    `json:"iconUrl,omitempty"`
	Price     string    `json:"price"`
	Change    float64   `json:"change"`
	Direction Direction `json:"direction"`
	MarketCap string    `json:"marketCap"`
}

func NewCoinRow(c models.Coin) CoinRow {
	return CoinRow{
		UUID:      c.UUID,
		Rank:      c.Rank,
		Name:      c.Name,
		Symbol:    c.Symbol,
		Badge:     SymbolBadge(c.Symbol),
		IconURL:   c.IconURL,
		Price:     FormatPrice(c.Price),
		Change:    c.Change.Float64(),
		Direction: DirectionOf(c.Change.Float64()),
		MarketCap: Truncate(c.MarketCap, MarketCapLimit),
	}
}

func NewCoinRows(coins []models.Coin) []CoinRow {
	rows := make([]CoinRow, 0, len(coins))
	for _, c := range coins {
		rows = append(rows, NewCoinRow(c))
	}
	return rows
}

// NewsRow is a news item with display-truncated text.
type NewsRow struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

func NewNewsRows(items []models.NewsItem) []NewsRow {
	rows := make([]NewsRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, NewsRow{
			URL:         it.URL,
			Title:       Truncate(it.Title, TitleLimit),
			Description: Truncate(it.Description, DescriptionLimit),
			Thumbnail:   it.Thumbnail,
			CreatedAt:   it.CreatedAt,
		})
	}
	return rows
}
