package filter

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dexscreen-network/dexscreend/pkg/screener"
)

const testKey = "ethereum:0xabc"

func newTestPair(priceUsd string) *screener.Pair {
	price := decimal.RequireFromString(priceUsd)
	liquidity := decimal.RequireFromString("500000")
	return &screener.Pair{
		ChainID:     "ethereum",
		DexID:       "uniswap",
		PairAddress: "0xAbC",
		BaseToken:   screener.Token{Symbol: "WETH"},
		QuoteToken:  screener.Token{Symbol: "USDC"},
		PriceNative: decimal.RequireFromString("1"),
		PriceUsd:    &price,
		Volume: screener.Volume{
			H24: decimal.RequireFromString("1000000"),
		},
		Liquidity: &screener.Liquidity{Usd: &liquidity},
	}
}

func TestFirstObservationAlwaysEmits(t *testing.T) {
	f := NewPairFilter(nil)

	require.True(t, f.ShouldEmit(testKey, newTestPair("2000")))
}

func TestIdenticalValuesAreSuppressed(t *testing.T) {
	f := NewPairFilter(nil)

	require.True(t, f.ShouldEmit(testKey, newTestPair("2000")))
	require.False(t, f.ShouldEmit(testKey, newTestPair("2000")))
	require.False(t, f.ShouldEmit(testKey, newTestPair("2000")))
}

func TestChangedFieldEmits(t *testing.T) {
	f := NewPairFilter(nil)

	require.True(t, f.ShouldEmit(testKey, newTestPair("2000")))
	require.True(t, f.ShouldEmit(testKey, newTestPair("2001")))
}

func TestIndependentKeysDoNotShareState(t *testing.T) {
	f := NewPairFilter(nil)

	require.True(t, f.ShouldEmit("ethereum:0xaaa", newTestPair("2000")))
	require.True(t, f.ShouldEmit("ethereum:0xbbb", newTestPair("2000")))
}

func TestPriceChangeThreshold(t *testing.T) {
	threshold := 0.05
	f := NewPairFilter(&Config{PriceChangeThreshold: &threshold})

	require.True(t, f.ShouldEmit(testKey, newTestPair("100")))
	// 1% move, below the 5% threshold.
	require.False(t, f.ShouldEmit(testKey, newTestPair("101")))
	// 10% move against the last emitted value.
	require.True(t, f.ShouldEmit(testKey, newTestPair("110")))
}

func TestSmallChangesAccumulate(t *testing.T) {
	threshold := 0.05
	f := NewPairFilter(&Config{PriceChangeThreshold: &threshold})

	require.True(t, f.ShouldEmit(testKey, newTestPair("100")))

	// Each step is below the threshold, but the snapshot is anchored to the
	// last emission so the drift accumulates until it crosses it.
	require.False(t, f.ShouldEmit(testKey, newTestPair("102")))
	require.False(t, f.ShouldEmit(testKey, newTestPair("104")))
	require.True(t, f.ShouldEmit(testKey, newTestPair("106")))
}

func TestZeroToNonZeroIsAlwaysSignificant(t *testing.T) {
	threshold := 0.5
	f := NewPairFilter(&Config{PriceChangeThreshold: &threshold})

	require.True(t, f.ShouldEmit(testKey, newTestPair("0")))
	require.True(t, f.ShouldEmit(testKey, newTestPair("0.000001")))
}

func TestMissingValuesNeverBlock(t *testing.T) {
	threshold := 0.05
	f := NewPairFilter(&Config{PriceChangeThreshold: &threshold})

	require.True(t, f.ShouldEmit(testKey, newTestPair("100")))

	pair := newTestPair("100.1")
	pair.PriceUsd = nil
	require.True(t, f.ShouldEmit(testKey, pair))
}

func TestRateLimitCapsEmissions(t *testing.T) {
	maxRate := 2.0
	f := NewPairFilter(&Config{MaxUpdatesPerSecond: &maxRate})

	require.True(t, f.ShouldEmit(testKey, newTestPair("100")))
	require.False(t, f.ShouldEmit(testKey, newTestPair("101")))

	// Still within the 500ms window.
	time.Sleep(400 * time.Millisecond)
	require.False(t, f.ShouldEmit(testKey, newTestPair("102")))

	time.Sleep(200 * time.Millisecond)
	require.True(t, f.ShouldEmit(testKey, newTestPair("103")))
}

func TestCustomChangeFields(t *testing.T) {
	f := NewPairFilter(&Config{ChangeFields: []string{"volume.h24"}})

	require.True(t, f.ShouldEmit(testKey, newTestPair("100")))

	// Price changes are ignored when only volume is monitored.
	require.False(t, f.ShouldEmit(testKey, newTestPair("200")))

	pair := newTestPair("200")
	pair.Volume.H24 = decimal.RequireFromString("2000000")
	require.True(t, f.ShouldEmit(testKey, pair))
}

func TestFailsOpenOnBrokenInput(t *testing.T) {
	f := NewPairFilter(nil)

	require.True(t, f.ShouldEmit(testKey, nil))
}

func TestReset(t *testing.T) {
	f := NewPairFilter(nil)

	require.True(t, f.ShouldEmit(testKey, newTestPair("100")))
	require.False(t, f.ShouldEmit(testKey, newTestPair("100")))

	f.Reset(testKey)
	require.True(t, f.ShouldEmit(testKey, newTestPair("100")))
}

func TestResetAll(t *testing.T) {
	f := NewPairFilter(nil)

	require.True(t, f.ShouldEmit("ethereum:0xaaa", newTestPair("100")))
	require.True(t, f.ShouldEmit("ethereum:0xbbb", newTestPair("100")))

	f.ResetAll()
	require.True(t, f.ShouldEmit("ethereum:0xaaa", newTestPair("100")))
	require.True(t, f.ShouldEmit("ethereum:0xbbb", newTestPair("100")))
}

func TestExtractField(t *testing.T) {
	pair := newTestPair("2000")

	price := extractField(pair, "priceUsd")
	require.NotNil(t, price)
	require.True(t, price.Equal(decimal.RequireFromString("2000")))

	volume := extractField(pair, "volume.h24")
	require.NotNil(t, volume)
	require.True(t, volume.Equal(decimal.RequireFromString("1000000")))

	liquidity := extractField(pair, "liquidity.usd")
	require.NotNil(t, liquidity)

	require.Nil(t, extractField(pair, "not.a.field"))

	pair.Liquidity = nil
	require.Nil(t, extractField(pair, "liquidity.usd"))
}
