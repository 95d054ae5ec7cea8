package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dexscreen-network/dexscreend/config"
	"github.com/dexscreen-network/dexscreend/pkg/screener"
	"github.com/dexscreen-network/dexscreend/pkg/stats"
	"github.com/dexscreen-network/dexscreend/pkg/stream"
)

func main() {
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	chainID := config.GetString(config.WatchChainKey)
	watchPairs := config.GetWatchPairs()
	watchTokens := config.GetWatchTokens()
	if chainID == "" || (len(watchPairs) == 0 && len(watchTokens) == 0) {
		log.Panic(
			"a watch chain and at least one pair or token address are required",
		)
	}

	errorHandler := func(err error) {
		log.Warn(err)
	}
	screenerSvc := config.GetScreener()
	streamSvc, err := stream.NewService(stream.Opts{
		ScreenerSvc:          screenerSvc,
		DefaultInterval:      config.GetDuration(config.PollIntervalKey),
		DefaultTokenInterval: config.GetDuration(config.TokenPollIntervalKey),
		RetryConfig:          config.GetRetryConfig(),
		RequestsPerSecond:    config.GetFloat(config.PollLimitKey),
		RequestsBurst:        config.GetInt(config.PollTokenBurst),
		ErrorHandler:         errorHandler,
	})
	if err != nil {
		log.WithError(err).Panic("error while creating stream service")
	}

	filterConfig := config.GetFilterConfig()
	for _, address := range watchPairs {
		if _, err := streamSvc.Subscribe(stream.SubscribeOpts{
			ChainID:      chainID,
			PairAddress:  address,
			Handler:      logPairUpdate,
			FilterConfig: filterConfig,
		}); err != nil {
			log.WithError(err).Panicf("error while subscribing to pair %s", address)
		}
	}
	for _, address := range watchTokens {
		if _, err := streamSvc.SubscribeToken(stream.SubscribeTokenOpts{
			ChainID:      chainID,
			TokenAddress: address,
			Handler:      logTokenUpdate,
			FilterConfig: filterConfig,
		}); err != nil {
			log.WithError(err).Panicf(
				"error while subscribing to token %s", address,
			)
		}
	}

	log.Debug("starting daemon")
	streamSvc.Start()
	defer streamSvc.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	statsInterval := time.Duration(config.GetInt(config.StatsIntervalKey)) * time.Second
	stats.EnableOperationalStatistics(ctx, statsInterval, streamSvc)

	log.Infof(
		"watching %d pairs and %d tokens on chain %s",
		len(watchPairs), len(watchTokens), chainID,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Debug("exiting")
}

func logPairUpdate(pair *screener.Pair) {
	payload, err := json.Marshal(pair)
	if err != nil {
		log.WithError(err).Warn("error while serializing pair update")
		return
	}
	log.Infof("pair update: %s", string(payload))
}

func logTokenUpdate(pairs []*screener.Pair) {
	payload, err := json.Marshal(pairs)
	if err != nil {
		log.WithError(err).Warn("error while serializing token update")
		return
	}
	log.Infof("token update (%d pairs): %s", len(pairs), string(payload))
}
