package views

import (
	"sync"

	"github.com/navid-fn/coinview/internal/models"
)

// MarketBoard is the market screen's state. A gainers or losers view is a
// snapshot taken when the mode is selected; refreshing the coin list does not
// recompute it. The all view always shows the current list.
type MarketBoard struct {
	mu       sync.RWMutex
	coins    []models.Coin
	mode     Mode
	snapshot []models.Coin
	loaded   bool
}

func NewMarketBoard() *MarketBoard {
	return &MarketBoard{mode: ModeAll}
}

// SetCoins replaces the loaded list.
func (b *MarketBoard) SetCoins(coins []models.Coin) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.coins = coins
	b.loaded = true
}

// Loaded reports whether a list has been set.
func (b *MarketBoard) Loaded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loaded
}

// Coins returns the full loaded list.
func (b *MarketBoard) Coins() []models.Coin {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.coins
}

// Select switches the mode and returns what is now shown. Selecting gainers
// or losers partitions the list as loaded right now.
func (b *MarketBoard) Select(mode Mode) []models.Coin {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.mode = mode
	if mode == ModeAll {
		b.snapshot = nil
		return Partition(b.coins, ModeAll)
	}
	b.snapshot = Partition(b.coins, mode)
	return b.snapshot
}

// Shown returns the current mode and its coins.
func (b *MarketBoard) Shown() (Mode, []models.Coin) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.mode == ModeAll {
		return ModeAll, Partition(b.coins, ModeAll)
	}
	return b.mode, b.snapshot
}
