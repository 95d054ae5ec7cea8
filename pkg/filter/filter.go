package filter

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/dexscreen-network/dexscreend/pkg/screener"
)

// Config tunes a PairFilter. The zero value is a plain change detector over
// the default monitored fields.
type Config struct {
	// ChangeFields are the monitored fields, dotted paths into the pair
	// snapshot. Empty means DefaultChangeFields.
	ChangeFields []string
	// Significance thresholds as ratios (0.05 = 5%). Nil means any change
	// passes.
	PriceChangeThreshold     *float64
	VolumeChangeThreshold    *float64
	LiquidityChangeThreshold *float64
	// MaxUpdatesPerSecond caps the emission rate per subscription key. Nil
	// means unlimited.
	MaxUpdatesPerSecond *float64
}

// DefaultChangeFields returns the monitored fields used when a Config leaves
// ChangeFields empty.
func DefaultChangeFields() []string {
	return []string{"priceUsd", "priceNative", "volume.h24", "liquidity.usd"}
}

// PairFilter decides, per subscription key, whether a freshly fetched pair is
// novel enough to be delivered. Snapshots are updated only when an emission is
// approved, so small changes accumulate against the last emitted value rather
// than the last observed one.
type PairFilter struct {
	config       Config
	changeFields []string

	mtx          sync.Mutex
	snapshots    map[string]map[string]*decimal.Decimal
	lastAdmitted map[string]time.Time
}

// NewPairFilter returns a filter for the given config. A nil config acts as a
// simple change detector.
func NewPairFilter(config *Config) *PairFilter {
	cfg := Config{}
	if config != nil {
		cfg = *config
	}
	changeFields := cfg.ChangeFields
	if len(changeFields) == 0 {
		changeFields = DefaultChangeFields()
	}
	return &PairFilter{
		config:       cfg,
		changeFields: changeFields,
		snapshots:    map[string]map[string]*decimal.Decimal{},
		lastAdmitted: map[string]time.Time{},
	}
}

// ShouldEmit reports whether the update should be delivered to subscribers.
// The checks run in order: rate cap, relevance of monitored fields,
// significance thresholds. The first observation of a key always passes. If
// evaluation fails internally the filter fails open and allows the emission.
func (f *PairFilter) ShouldEmit(key string, pair *screener.Pair) (emit bool) {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Warnf(
				"filter evaluation failed for %s, emitting anyway: %v", key, r,
			)
			emit = true
		}
	}()

	if !f.checkRateLimit(key) {
		return false
	}
	if !f.hasRelevantChanges(key, pair) {
		return false
	}
	if !f.changesAreSignificant(key, pair) {
		return false
	}

	f.snapshots[key] = f.extractValues(pair)
	return true
}

// Reset clears the cached snapshot and rate state for one key.
func (f *PairFilter) Reset(key string) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	delete(f.snapshots, key)
	delete(f.lastAdmitted, key)
}

// ResetAll clears the whole filter state.
func (f *PairFilter) ResetAll() {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.snapshots = map[string]map[string]*decimal.Decimal{}
	f.lastAdmitted = map[string]time.Time{}
}

// checkRateLimit charges the rate budget for the key. The admission time is
// recorded when the gate lets an update through, even if a later check ends
// up suppressing it.
func (f *PairFilter) checkRateLimit(key string) bool {
	if f.config.MaxUpdatesPerSecond == nil {
		return true
	}

	now := time.Now()
	minInterval := time.Duration(float64(time.Second) / *f.config.MaxUpdatesPerSecond)
	if last, ok := f.lastAdmitted[key]; ok && now.Sub(last) < minInterval {
		return false
	}

	f.lastAdmitted[key] = now
	return true
}

func (f *PairFilter) hasRelevantChanges(key string, pair *screener.Pair) bool {
	snapshot, ok := f.snapshots[key]
	if !ok {
		return true
	}

	current := f.extractValues(pair)
	for _, field := range f.changeFields {
		if !decimalsEqual(current[field], snapshot[field]) {
			return true
		}
	}
	return false
}

func (f *PairFilter) changesAreSignificant(key string, pair *screener.Pair) bool {
	snapshot, ok := f.snapshots[key]
	if !ok {
		return true
	}

	if th := f.config.PriceChangeThreshold; th != nil {
		if !meetsThreshold(snapshot["priceUsd"], pair.PriceUsd, *th) {
			return false
		}
	}
	if th := f.config.VolumeChangeThreshold; th != nil {
		volume := pair.Volume.H24
		if !meetsThreshold(snapshot["volume.h24"], &volume, *th) {
			return false
		}
	}
	if th := f.config.LiquidityChangeThreshold; th != nil {
		var liquidity *decimal.Decimal
		if pair.Liquidity != nil {
			liquidity = pair.Liquidity.Usd
		}
		if !meetsThreshold(snapshot["liquidity.usd"], liquidity, *th) {
			return false
		}
	}
	return true
}

func (f *PairFilter) extractValues(pair *screener.Pair) map[string]*decimal.Decimal {
	values := make(map[string]*decimal.Decimal, len(f.changeFields))
	for _, field := range f.changeFields {
		values[field] = extractField(pair, field)
	}
	return values
}

// meetsThreshold reports whether the relative change between old and new
// values reaches the threshold. A missing value on either side cannot be
// compared and never blocks emission. Any change away from exactly zero is
// significant.
func meetsThreshold(oldValue, newValue *decimal.Decimal, threshold float64) bool {
	if oldValue == nil || newValue == nil {
		return true
	}
	if oldValue.IsZero() {
		return !newValue.IsZero()
	}

	ratio := newValue.Sub(*oldValue).Abs().Div(oldValue.Abs())
	return ratio.GreaterThanOrEqual(decimal.NewFromFloat(threshold))
}

func decimalsEqual(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
