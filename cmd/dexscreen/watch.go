package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dexscreen-network/dexscreend/pkg/filter"
	"github.com/dexscreen-network/dexscreend/pkg/screener"
	"github.com/dexscreen-network/dexscreend/pkg/stream"
)

var watch = cli.Command{
	Name:      "watch",
	Usage:     "subscribe to a pair or token and print updates until interrupted",
	ArgsUsage: "<chainId> <address>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "token",
			Usage: "treat the address as a token instead of a pair",
		},
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "polling interval",
			Value: time.Second,
		},
		&cli.Float64Flag{
			Name:  "price-threshold",
			Usage: "minimum relative price change to print an update",
		},
		&cli.BoolFlag{
			Name:  "raw",
			Usage: "print every polled value, without change detection",
		},
	},
	Action: watchAction,
}

func watchAction(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return cli.ShowCommandHelp(ctx, "watch")
	}

	chainID := ctx.Args().Get(0)
	address := ctx.Args().Get(1)

	var filterConfig *filter.Config
	if ctx.IsSet("price-threshold") {
		filterConfig = filter.SignificantPriceChanges(ctx.Float64("price-threshold"))
	}

	streamSvc, err := stream.NewService(stream.Opts{
		ScreenerSvc:     getScreenerClient(ctx),
		DefaultInterval: ctx.Duration("interval"),
	})
	if err != nil {
		return err
	}

	if ctx.Bool("token") {
		_, err = streamSvc.SubscribeToken(stream.SubscribeTokenOpts{
			ChainID:      chainID,
			TokenAddress: address,
			Handler: func(pairs []*screener.Pair) {
				for _, pair := range pairs {
					printUpdate(pair)
				}
			},
			Interval:     ctx.Duration("interval"),
			FilterConfig: filterConfig,
			RawUpdates:   ctx.Bool("raw"),
		})
	} else {
		_, err = streamSvc.Subscribe(stream.SubscribeOpts{
			ChainID:      chainID,
			PairAddress:  address,
			Handler:      printUpdate,
			Interval:     ctx.Duration("interval"),
			FilterConfig: filterConfig,
			RawUpdates:   ctx.Bool("raw"),
		})
	}
	if err != nil {
		return err
	}

	streamSvc.Start()
	defer streamSvc.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	stats := streamSvc.Stats()
	fmt.Printf(
		"\npolls: %d (ok: %d, failed: %d), emitted: %d, suppressed: %d\n",
		stats.TotalPolls, stats.SuccessfulPolls, stats.FailedPolls,
		stats.CacheHits, stats.CacheMisses,
	)

	return nil
}

func printUpdate(pair *screener.Pair) {
	price := "n/a"
	if pair.PriceUsd != nil {
		price = pair.PriceUsd.String()
	}
	fmt.Printf(
		"%s  %s/%s  price: %s USD  (native: %s)\n",
		pair.Key(), pair.BaseToken.Symbol, pair.QuoteToken.Symbol,
		price, pair.PriceNative,
	)
}
