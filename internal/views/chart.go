package views

import (
	"sort"

	"github.com/navid-fn/coinview/internal/models"
)

type ChartPoint struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
}

// ChartSeries returns the history in ascending time order, skipping points without a price.
func ChartSeries(history []models.CoinHistoryPoint) []ChartPoint {
	series := make([]ChartPoint, 0, len(history))
	for _, p := range history {
		if p.Price == nil {
			continue
		}
		series = append(series, ChartPoint{Timestamp: p.Timestamp, Price: p.Price.Float64()})
	}
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Timestamp < series[j].Timestamp
	})
	return series
}

// NearestPoint returns the point of an ascending series closest to ts.
// Ties go to the earlier point.
func NearestPoint(series []ChartPoint, ts int64) (ChartPoint, bool) {
	if len(series) == 0 {
		return ChartPoint{}, false
	}

	i := sort.Search(len(series), func(i int) bool { return series[i].Timestamp >= ts })
	switch {
	case i == 0:
		return series[0], true
	case i == len(series):
		return series[len(series)-1], true
	}

	before, after := series[i-1], series[i]
	if ts-before.Timestamp <= after.Timestamp-ts {
		return before, true
	}
	return after, true
}
