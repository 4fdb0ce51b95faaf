package views

import (
	"strings"

	"github.com/navid-fn/coinview/internal/models"
	"github.com/shopspring/decimal"
)

// Calculate values amount units of the coin with the given symbol at its
// listed price, formatted as USD. It returns "$0.00" when the amount does not
// parse or the symbol is not in coins.
func Calculate(amount, symbol string, coins []models.Coin) string {
	value, ok := CalculateValue(amount, symbol, coins)
	if !ok {
		return FormatUSD(decimal.Zero)
	}
	return FormatUSD(value)
}

// CalculateValue is Calculate without formatting.
func CalculateValue(amount, symbol string, coins []models.Coin) (decimal.Decimal, bool) {
	qty, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return decimal.Zero, false
	}

	coin, ok := FindBySymbol(coins, symbol)
	if !ok {
		return decimal.Zero, false
	}

	price, err := decimal.NewFromString(coin.Price)
	if err != nil {
		return decimal.Zero, false
	}
	return qty.Mul(price), true
}

// FindBySymbol returns the first coin whose symbol matches exactly.
func FindBySymbol(coins []models.Coin, symbol string) (models.Coin, bool) {
	symbol = strings.TrimSpace(symbol)
	for _, c := range coins {
		if c.Symbol == symbol {
			return c, true
		}
	}
	return models.Coin{}, false
}
