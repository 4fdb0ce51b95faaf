// Package views holds the pure computations behind the market, news and
// coin screens: partitions, the calculator, display formatting and chart data.
package views

import (
	"fmt"
	"strings"

	"github.com/navid-fn/coinview/internal/models"
)

// Mode selects which coins the market board shows.
type Mode string

const (
	ModeAll     Mode = "all"
	ModeGainers Mode = "gainers"
	ModeLosers  Mode = "losers"
)

// ParseMode accepts "all", "gainers" or "losers", case-insensitively. Empty means all.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAll:
		return ModeAll, nil
	case ModeGainers:
		return ModeGainers, nil
	case ModeLosers:
		return ModeLosers, nil
	}
	return "", fmt.Errorf("unknown market mode %q", s)
}

// Partition returns the coins with change > 0 (gainers), change < 0 (losers)
// or all of them. Zero change is in neither partition. Input order is kept
// and coins is never modified.
func Partition(coins []models.Coin, mode Mode) []models.Coin {
	if mode == ModeAll {
		out := make([]models.Coin, len(coins))
		copy(out, coins)
		return out
	}

	out := make([]models.Coin, 0, len(coins))
	for _, c := range coins {
		switch {
		case mode == ModeGainers && c.Change > 0:
			out = append(out, c)
		case mode == ModeLosers && c.Change < 0:
			out = append(out, c)
		}
	}
	return out
}
