package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/navid-fn/coinview/configs"
	"github.com/navid-fn/coinview/internal/logging"
	"github.com/navid-fn/coinview/internal/marketdata"
	"github.com/navid-fn/coinview/internal/models"
	"github.com/navid-fn/coinview/internal/querycache"
	"github.com/navid-fn/coinview/internal/resilience"
	"github.com/navid-fn/coinview/internal/search"
	"github.com/navid-fn/coinview/internal/service"
	"github.com/navid-fn/coinview/internal/views"
)

// operation is one of the debug commands.
type operation string

const (
	opCoins   operation = "coins"
	opMarket  operation = "market"
	opDetail  operation = "detail"
	opHistory operation = "history"
	opSearch  operation = "search"
	opNews    operation = "news"
	opCalc    operation = "calc"
)

var validOps = []operation{opCoins, opMarket, opDetail, opHistory, opSearch, opNews, opCalc}

// keystrokeDelay spaces out the simulated typing in -op=search.
const (
	keystrokeDelay = 80 * time.Millisecond
	searchWait     = 30 * time.Second
)

// --- printers ---

func printCoinRow(r views.CoinRow) {
	fmt.Printf("[COIN] %-3d %-3s %-8s %-24s price=%-16s change=%7.2f%% (%-4s) mcap=%s\n",
		r.Rank, r.Badge, r.Symbol, r.Name, r.Price, r.Change, r.Direction, r.MarketCap)
}

func printCoinRows(coins []models.Coin) {
	if len(coins) == 0 {
		fmt.Println("(no results)")
		return
	}
	for _, r := range views.NewCoinRows(coins) {
		printCoinRow(r)
	}
}

func printDetail(d models.CoinDetail) {
	printCoinRow(views.NewCoinRow(d.Coin))
	fmt.Printf("  markets=%d exchanges=%d supply=%s ath=%s\n",
		d.NumberOfMarkets, d.NumberOfExchanges, d.Supply.Circulating, views.FormatPrice(d.AllTimeHigh.Price))
	if d.Description != "" {
		fmt.Printf("  %s\n", views.Truncate(d.Description, 120))
	}
}

func printSeries(series []views.ChartPoint) {
	if len(series) == 0 {
		fmt.Println("(no history)")
		return
	}
	for _, p := range series {
		fmt.Printf("[POINT] %s price=%.6f\n", time.Unix(p.Timestamp, 0).UTC().Format("2006-01-02 15:04:05"), p.Price)
	}
}

func printNews(rows []views.NewsRow) {
	if len(rows) == 0 {
		fmt.Println("(no news)")
		return
	}
	for _, n := range rows {
		fmt.Printf("[NEWS] %-33s %s\n", n.Title, n.Description)
	}
}

// --- main ---

func usage() {
	fmt.Println("Usage: go run cmd/debug/main.go -op=<operation> [flags]")
	fmt.Println()
	fmt.Println("Operations: coins, market, detail, history, search, news, calc")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -mode     market mode: all, gainers or losers (default all)")
	fmt.Println("  -id       coin uuid for detail and history")
	fmt.Println("  -q        search text, typed one character at a time")
	fmt.Println("  -amount   calculator amount (default 1)")
	fmt.Println("  -symbol   calculator symbol (default BTC)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  go run cmd/debug/main.go -op=market -mode=losers")
	fmt.Println("  go run cmd/debug/main.go -op=history -id=Qwsogvtv82FCd")
	fmt.Println("  go run cmd/debug/main.go -op=search -q=ethereum")
}

func main() {
	opFlag := flag.String("op", "", "operation to run")
	modeFlag := flag.String("mode", "all", "market mode")
	idFlag := flag.String("id", "", "coin uuid")
	queryFlag := flag.String("q", "", "search text")
	amountFlag := flag.String("amount", "1", "calculator amount")
	symbolFlag := flag.String("symbol", "BTC", "calculator symbol")
	flag.Parse()

	op := operation(strings.ToLower(*opFlag))
	if !isValidOp(op) {
		usage()
		os.Exit(1)
	}

	cfg := configs.AppLoad()
	logger := logging.NewLogger(cfg.LogLevel)
	if cfg.MarketData.APIKey == "" {
		fmt.Println("Error: RAPIDAPI_KEY is not set")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures: cfg.Breaker.MaxFailures,
		Timeout:     cfg.Breaker.OpenTimeout,
		Name:        "marketdata",
	}, logger)
	client := marketdata.NewClient(cfg.MarketData, breaker, logger)
	svc := service.NewMarketService(client, querycache.New(0, logger), cfg.Search.MinLength, logger)

	if err := run(ctx, op, svc, cfg.Search, *modeFlag, *idFlag, *queryFlag, *amountFlag, *symbolFlag); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, op operation, svc *service.MarketService, searchCfg configs.SearchConfig, mode, id, query, amount, symbol string) error {
	switch op {
	case opCoins:
		resp, err := svc.AllCoins(ctx)
		if err != nil {
			return err
		}
		printCoinRows(resp.Data.Coins)

	case opMarket:
		m, err := views.ParseMode(mode)
		if err != nil {
			return err
		}
		coins, err := svc.Market(ctx, m)
		if err != nil {
			return err
		}
		fmt.Printf("--- %s: %d coins ---\n", m, len(coins))
		printCoinRows(coins)

	case opDetail:
		resp, err := svc.CoinDetails(ctx, id)
		if err != nil {
			return err
		}
		if resp.IsEmpty() {
			fmt.Println("(no results)")
			return nil
		}
		printDetail(resp.Data.Coin)

	case opHistory:
		resp, err := svc.CoinHistory(ctx, id)
		if err != nil {
			return err
		}
		printSeries(views.ChartSeries(resp.Data.History))

	case opNews:
		resp, err := svc.News(ctx)
		if err != nil {
			return err
		}
		printNews(views.NewNewsRows(resp.Data))

	case opCalc:
		value, err := svc.Calculate(ctx, amount, symbol)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s = %s\n", amount, strings.ToUpper(symbol), value)

	case opSearch:
		return typeSearch(ctx, svc, searchCfg, query)
	}
	return nil
}

// typeSearch feeds query through the debounced searcher one character at a
// time, then waits for the result.
func typeSearch(ctx context.Context, svc *service.MarketService, cfg configs.SearchConfig, query string) error {
	searcher := search.New(ctx, svc, cfg, logging.Discard())
	defer searcher.Close()

	var fetched bool
	done := make(chan search.State, 1)
	searcher.OnUpdate(func(st search.State) {
		fmt.Printf("[STATE] query=%q loading=%t results=%d\n", st.Query, st.Loading, len(st.Results))
		if st.Loading {
			fetched = true
			return
		}
		if fetched {
			select {
			case done <- st:
			default:
			}
		}
	})

	typed := ""
	for _, r := range query {
		typed += string(r)
		fmt.Printf("[KEY] %q\n", typed)
		searcher.OnTextChange(typed)
		time.Sleep(keystrokeDelay)
	}

	if utf8.RuneCountInString(strings.TrimSpace(query)) < max(cfg.MinLength, 1) {
		fmt.Println("(query too short, nothing searched)")
		return nil
	}

	select {
	case st := <-done:
		if st.Err != nil {
			return st.Err
		}
		printCoinRows(st.Results)
	case <-time.After(cfg.Debounce + searchWait):
		fmt.Println("(no results)")
	case <-ctx.Done():
	}
	return nil
}

func isValidOp(op operation) bool {
	for _, v := range validOps {
		if op == v {
			return true
		}
	}
	return false
}
