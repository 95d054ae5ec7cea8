package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	require.Equal(t, "https://api.dexscreener.com", GetString(ApiEndpointKey))
	require.Equal(t, 1000, GetInt(PollIntervalKey))
	require.Equal(t, time.Second, GetDuration(PollIntervalKey))
	require.Equal(t, 200*time.Millisecond, GetDuration(TokenPollIntervalKey))
	require.Equal(t, 5, GetInt(PollLimitKey))
}

func TestGetRetryConfig(t *testing.T) {
	conf := GetRetryConfig()
	require.NoError(t, conf.Validate())
	require.Equal(t, 3, conf.MaxRetries)
	require.Equal(t, time.Second, conf.BaseDelay)
	require.Equal(t, 30*time.Second, conf.MaxDelay)
}

func TestGetFilterConfig(t *testing.T) {
	require.Nil(t, GetFilterConfig())

	Set(PriceChangeThresholdKey, 0.05)
	Set(MaxUpdatesPerSecondKey, 2.0)

	conf := GetFilterConfig()
	require.NotNil(t, conf)
	require.NotNil(t, conf.PriceChangeThreshold)
	require.Equal(t, 0.05, *conf.PriceChangeThreshold)
	require.Nil(t, conf.VolumeChangeThreshold)
	require.NotNil(t, conf.MaxUpdatesPerSecond)
	require.Equal(t, 2.0, *conf.MaxUpdatesPerSecond)
}

func TestGetWatchLists(t *testing.T) {
	require.Nil(t, GetWatchPairs())

	Set(WatchPairsKey, "0xAAA, 0xBBB ,,0xCCC")
	require.Equal(t, []string{"0xAAA", "0xBBB", "0xCCC"}, GetWatchPairs())

	Set(WatchTokensKey, "So11111")
	require.Equal(t, []string{"So11111"}, GetWatchTokens())
}
