package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/navid-fn/coinview/configs"
	"github.com/navid-fn/coinview/internal/logging"
	"github.com/navid-fn/coinview/internal/marketdata"
	"github.com/navid-fn/coinview/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu      sync.Mutex
	queries []string
	err     error
}

func (f *fakeBackend) SearchCoin(ctx context.Context, query string) (*marketdata.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return &marketdata.SearchResponse{
		Status: "success",
		Data:   marketdata.SearchData{Coins: []models.Coin{{UUID: "1", Symbol: "BTC", Name: "Bitcoin"}}},
	}, nil
}

func (f *fakeBackend) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func newSearcher(t *testing.T, backend Backend) *Searcher {
	t.Helper()
	s := New(context.Background(), backend, configs.SearchConfig{Debounce: 30 * time.Millisecond, MinLength: 3}, logging.Discard())
	t.Cleanup(s.Close)
	return s
}

func TestShortInputNeverCallsNetwork(t *testing.T) {
	backend := &fakeBackend{}
	s := newSearcher(t, backend)

	for _, text := range []string{"", "b", "bi", "  bi  "} {
		s.OnTextChange(text)
		st := s.State()
		assert.Empty(t, st.Results)
		assert.False(t, st.Loading)
	}

	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, backend.calls())
}

func TestTypingBurstMakesOneCall(t *testing.T) {
	backend := &fakeBackend{}
	s := newSearcher(t, backend)

	for _, text := range []string{"b", "bi", "bit", "bitc", "bitco"} {
		s.OnTextChange(text)
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return len(s.State().Results) == 1 }, time.Second, time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []string{"bitco"}, backend.calls())
}

func TestConcurrentTypingSearchesLatestText(t *testing.T) {
	backend := &fakeBackend{}
	s := newSearcher(t, backend)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.OnTextChange("coin" + string(rune('a'+i)))
		}(i)
	}
	wg.Wait()
	latest := s.State().Query

	require.Eventually(t, func() bool {
		st := s.State()
		return !st.Loading && len(st.Results) == 1
	}, time.Second, time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []string{latest}, backend.calls())
}

func TestShorteningClearsResultsAndCancelsPending(t *testing.T) {
	backend := &fakeBackend{}
	s := newSearcher(t, backend)

	s.OnTextChange("bitcoin")
	require.Eventually(t, func() bool { return len(s.State().Results) == 1 }, time.Second, time.Millisecond)

	s.OnTextChange("bitc")
	s.OnTextChange("bi")
	assert.Empty(t, s.State().Results)

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, []string{"bitcoin"}, backend.calls())
	assert.Empty(t, s.State().Results)
}

func TestSearchErrorClearsResults(t *testing.T) {
	backend := &fakeBackend{err: errors.New("upstream down")}
	s := newSearcher(t, backend)

	var mu sync.Mutex
	var updates []State
	s.OnUpdate(func(st State) {
		mu.Lock()
		updates = append(updates, st)
		mu.Unlock()
	})

	s.OnTextChange("ethereum")

	require.Eventually(t, func() bool { return s.State().Err != nil }, time.Second, time.Millisecond)
	st := s.State()
	assert.Empty(t, st.Results)
	assert.False(t, st.Loading)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(updates), 2)
	assert.True(t, updates[0].Loading)
}
