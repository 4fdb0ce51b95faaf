// Package search implements search-as-you-type over the coin search endpoint.
package search

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/navid-fn/coinview/configs"
	"github.com/navid-fn/coinview/internal/debounce"
	"github.com/navid-fn/coinview/internal/marketdata"
	"github.com/navid-fn/coinview/internal/models"

	"github.com/sirupsen/logrus"
)

const debounceKey = "search"

// Backend is the part of the market data client the searcher needs.
type Backend interface {
	SearchCoin(ctx context.Context, query string) (*marketdata.SearchResponse, error)
}

// State is what the search screen renders.
type State struct {
	Query   string        `json:"query"`
	Results []models.Coin `json:"results"`
	Loading bool          `json:"loading"`
	Err     error         `json:"-"`
}

// Searcher debounces keystrokes into network searches. Input shorter than
// the minimum length never reaches the network and clears the results at once.
type Searcher struct {
	backend   Backend
	debouncer *debounce.Debouncer
	delay     time.Duration
	minLength int
	ctx       context.Context
	logger    *logrus.Entry

	mu       sync.Mutex
	state    State
	seq      uint64
	onUpdate func(State)
}

// New returns a searcher whose network calls run under ctx.
func New(ctx context.Context, backend Backend, cfg configs.SearchConfig, logger *logrus.Logger) *Searcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 400 * time.Millisecond
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = 3
	}
	return &Searcher{
		backend:   backend,
		debouncer: debounce.New(),
		delay:     cfg.Debounce,
		minLength: cfg.MinLength,
		ctx:       ctx,
		logger:    logger.WithField("component", "search"),
		state:     State{Results: []models.Coin{}},
	}
}

// OnUpdate registers fn to receive every state change. fn runs on the
// searcher's goroutines and must not block.
func (s *Searcher) OnUpdate(fn func(State)) {
	s.mu.Lock()
	s.onUpdate = fn
	s.mu.Unlock()
}

// OnTextChange feeds the current contents of the search box. It is safe to
// call from several goroutines; the last call to take the lock wins.
func (s *Searcher) OnTextChange(text string) {
	query := strings.TrimSpace(text)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	seq := s.seq
	s.state.Query = query

	if utf8.RuneCountInString(query) < s.minLength {
		s.debouncer.Cancel(debounceKey)
		s.state.Results = []models.Coin{}
		s.state.Loading = false
		s.state.Err = nil
		s.notifyLocked()
		return
	}

	// Armed under s.mu so the pending action always belongs to the latest seq.
	s.debouncer.Arm(debounceKey, s.delay, func() { s.run(seq, query) })
}

func (s *Searcher) run(seq uint64, query string) {
	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return
	}
	s.state.Loading = true
	s.notifyLocked()
	s.mu.Unlock()

	resp, err := s.backend.SearchCoin(s.ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq {
		s.logger.WithField("query", query).Debug("Dropping superseded search result")
		return
	}

	s.state.Loading = false
	s.state.Err = err
	s.state.Results = []models.Coin{}
	if err != nil {
		s.logger.WithError(err).WithField("query", query).Warn("Search failed")
	} else if resp != nil && resp.Data.Coins != nil {
		s.state.Results = resp.Data.Coins
	}
	s.notifyLocked()
}

func (s *Searcher) notifyLocked() {
	if s.onUpdate != nil {
		s.onUpdate(s.state)
	}
}

// State returns the current search state.
func (s *Searcher) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close cancels any pending search.
func (s *Searcher) Close() {
	s.debouncer.Stop()
}
