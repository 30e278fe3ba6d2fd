package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/navid-fn/pricefeed/configs"
	"github.com/navid-fn/pricefeed/internal/drivers"
	"github.com/navid-fn/pricefeed/internal/errs"
	"github.com/navid-fn/pricefeed/internal/models"
)

// validResources lists what an adapter can be asked for.
var validResources = []string{"price", "trades", "bids", "asks"}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s -exchange <name> -resource <resource> [-n N]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nAvailable exchanges: %v\n", models.Exchanges)
	fmt.Fprintf(os.Stderr, "Available resources: %v\n", validResources)
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  %s -exchange binance -resource price\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s -exchange kraken -resource trades -n 5\n", os.Args[0])
}

// Fetches one resource from one exchange and prints the canonical JSON.
func main() {
	var (
		exchange string
		resource string
		n        int
	)
	flag.StringVar(&exchange, "exchange", "", "Exchange to query (required)")
	flag.StringVar(&resource, "resource", "price", "Resource: price, trades, bids, asks")
	flag.IntVar(&n, "n", 10, "Trade limit or book depth")
	flag.Usage = usage
	flag.Parse()

	ex, err := models.ParseExchange(exchange)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		usage()
		os.Exit(1)
	}

	cfg := configs.AppLoad()
	adapter, err := drivers.New(ex, drivers.Options{
		BaseURLs:          cfg.Upstream.BaseURLs,
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		RequestTimeout:    cfg.Upstream.RequestTimeout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var result any
	switch resource {
	case "price":
		result, err = adapter.FetchPrice(ctx)
	case "trades":
		result, err = adapter.FetchRecentTrades(ctx, n)
	case "bids", "asks":
		var bids, asks models.OrderBookSide
		bids, asks, err = adapter.FetchOrderBook(ctx, n)
		result = bids
		if resource == "asks" {
			result = asks
		}
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown resource %q\n\n", resource)
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %s failed [%s]: %v\n", ex, resource, errs.KindOf(err), err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
