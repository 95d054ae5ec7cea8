package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/dexscreen-network/dexscreend/pkg/filter"
	"github.com/dexscreen-network/dexscreend/pkg/retry"
	"github.com/dexscreen-network/dexscreend/pkg/screener"
	"github.com/dexscreen-network/dexscreend/pkg/screener/dexscreener"
)

const (
	// ApiEndpointKey is the endpoint where the Dexscreener REST API is listening
	ApiEndpointKey = "API_ENDPOINT"
	// ApiRequestTimeoutKey are the milliseconds to wait for HTTP responses before timeouts
	ApiRequestTimeoutKey = "API_REQUEST_TIMEOUT"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// PollIntervalKey is the default interval in milliseconds between batch fetches of subscribed pairs
	PollIntervalKey = "POLL_INTERVAL"
	// TokenPollIntervalKey is the default interval in milliseconds between fetches of subscribed tokens
	TokenPollIntervalKey = "TOKEN_POLL_INTERVAL"
	// PollLimitKey represents number of requests per second that the pollers
	//make to the upstream API
	PollLimitKey = "POLL_LIMIT"
	// PollTokenBurst represents number of bursts tokens permitted from
	//pollers to the upstream API
	PollTokenBurst = "POLL_TOKEN"
	// MaxRetriesKey is the number of retry attempts per poll tick for transient upstream failures
	MaxRetriesKey = "MAX_RETRIES"
	// RetryBaseDelayKey is the initial backoff delay in milliseconds between retry attempts
	RetryBaseDelayKey = "RETRY_BASE_DELAY"
	// RetryMaxDelayKey caps the backoff delay in milliseconds between retry attempts
	RetryMaxDelayKey = "RETRY_MAX_DELAY"
	// StatsIntervalKey defines interval for printing basic dexscreend statistics
	StatsIntervalKey = "STATS_INTERVAL"
	// WatchChainKey is the chain identifier the daemon watches on startup
	WatchChainKey = "WATCH_CHAIN"
	// WatchPairsKey is the comma-separated list of pair addresses to watch on startup
	WatchPairsKey = "WATCH_PAIRS"
	// WatchTokensKey is the comma-separated list of token addresses to watch on startup
	WatchTokensKey = "WATCH_TOKENS"
	// PriceChangeThresholdKey is the minimum relative price change for an update to be emitted
	PriceChangeThresholdKey = "PRICE_CHANGE_THRESHOLD"
	// VolumeChangeThresholdKey is the minimum relative volume change for an update to be emitted
	VolumeChangeThresholdKey = "VOLUME_CHANGE_THRESHOLD"
	// LiquidityChangeThresholdKey is the minimum relative liquidity change for an update to be emitted
	LiquidityChangeThresholdKey = "LIQUIDITY_CHANGE_THRESHOLD"
	// MaxUpdatesPerSecondKey caps the number of emissions per second per subscription
	MaxUpdatesPerSecondKey = "MAX_UPDATES_PER_SECOND"
)

var vip *viper.Viper

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("DEXSCREEN")
	vip.AutomaticEnv()

	vip.SetDefault(ApiEndpointKey, "https://api.dexscreener.com")
	vip.SetDefault(ApiRequestTimeoutKey, 15000)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(PollIntervalKey, 1000)
	vip.SetDefault(TokenPollIntervalKey, 200)
	vip.SetDefault(PollLimitKey, 5)
	vip.SetDefault(PollTokenBurst, 1)
	vip.SetDefault(MaxRetriesKey, 3)
	vip.SetDefault(RetryBaseDelayKey, 1000)
	vip.SetDefault(RetryMaxDelayKey, 30000)
	vip.SetDefault(StatsIntervalKey, 600)

	if err := validate(); err != nil {
		log.WithError(err).Panic("error while validating config")
	}
}

//GetString ...
func GetString(key string) string {
	return vip.GetString(key)
}

//GetInt ...
func GetInt(key string) int {
	return vip.GetInt(key)
}

//GetFloat ...
func GetFloat(key string) float64 {
	return vip.GetFloat64(key)
}

//GetBool ...
func GetBool(key string) bool {
	return vip.GetBool(key)
}

// GetDuration reads a milliseconds key as a duration.
func GetDuration(key string) time.Duration {
	return time.Duration(vip.GetInt(key)) * time.Millisecond
}

// Set a value for the given key
func Set(key string, value interface{}) {
	vip.Set(key, value)
}

// IsSet returns whether the give key is set
func IsSet(key string) bool {
	return vip.IsSet(key)
}

//GetScreener ...
func GetScreener() screener.Service {
	endpoint := GetString(ApiEndpointKey)
	reqTimeout := GetInt(ApiRequestTimeoutKey)
	return dexscreener.NewService(endpoint, reqTimeout)
}

// GetRetryConfig returns the retry policy applied to every poll tick.
func GetRetryConfig() retry.Config {
	return retry.Config{
		MaxRetries:    GetInt(MaxRetriesKey),
		BaseDelay:     GetDuration(RetryBaseDelayKey),
		MaxDelay:      GetDuration(RetryMaxDelayKey),
		BackoffFactor: 2.0,
		Jitter:        true,
	}
}

// GetFilterConfig builds the change-detection config from the threshold keys,
// or returns nil when none of them is set so that plain change detection
// applies.
func GetFilterConfig() *filter.Config {
	if !IsSet(PriceChangeThresholdKey) && !IsSet(VolumeChangeThresholdKey) &&
		!IsSet(LiquidityChangeThresholdKey) && !IsSet(MaxUpdatesPerSecondKey) {
		return nil
	}

	conf := &filter.Config{}
	if IsSet(PriceChangeThresholdKey) {
		threshold := GetFloat(PriceChangeThresholdKey)
		conf.PriceChangeThreshold = &threshold
	}
	if IsSet(VolumeChangeThresholdKey) {
		threshold := GetFloat(VolumeChangeThresholdKey)
		conf.VolumeChangeThreshold = &threshold
	}
	if IsSet(LiquidityChangeThresholdKey) {
		threshold := GetFloat(LiquidityChangeThresholdKey)
		conf.LiquidityChangeThreshold = &threshold
	}
	if IsSet(MaxUpdatesPerSecondKey) {
		max := GetFloat(MaxUpdatesPerSecondKey)
		conf.MaxUpdatesPerSecond = &max
	}
	return conf
}

// GetWatchPairs returns the pair addresses to subscribe on startup.
func GetWatchPairs() []string {
	return splitList(GetString(WatchPairsKey))
}

// GetWatchTokens returns the token addresses to subscribe on startup.
func GetWatchTokens() []string {
	return splitList(GetString(WatchTokensKey))
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	list := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}

func validate() error {
	endpoint := GetString(ApiEndpointKey)
	if _, err := url.Parse(endpoint); err != nil {
		return fmt.Errorf("api endpoint is not a valid url: %s", err)
	}

	if GetInt(ApiRequestTimeoutKey) <= 0 {
		return fmt.Errorf("request timeout must be a positive number")
	}

	if GetInt(PollIntervalKey) <= 0 || GetInt(TokenPollIntervalKey) <= 0 {
		return fmt.Errorf("poll intervals must be positive numbers")
	}

	if GetInt(PollLimitKey) <= 0 {
		return fmt.Errorf("poll limit must be a positive number")
	}

	if GetInt(MaxRetriesKey) < 0 {
		return fmt.Errorf("max retries must not be a negative number")
	}

	return nil
}
