package filter

// Preset configurations for common subscription profiles.

// SimpleChangeDetection emits whenever any monitored field changed.
func SimpleChangeDetection() *Config {
	return &Config{}
}

// SignificantPriceChanges emits only when the USD price moved by at least the
// given ratio.
func SignificantPriceChanges(threshold float64) *Config {
	return &Config{
		ChangeFields:         []string{"priceUsd"},
		PriceChangeThreshold: &threshold,
	}
}

// SignificantAllChanges emits only on significant moves in price, volume or
// liquidity.
func SignificantAllChanges(
	priceThreshold, volumeThreshold, liquidityThreshold float64,
) *Config {
	return &Config{
		PriceChangeThreshold:     &priceThreshold,
		VolumeChangeThreshold:    &volumeThreshold,
		LiquidityChangeThreshold: &liquidityThreshold,
	}
}

// RateLimited caps the number of emissions per second without any
// significance filtering.
func RateLimited(maxPerSecond float64) *Config {
	return &Config{MaxUpdatesPerSecond: &maxPerSecond}
}

// UIFriendly suits live UI updates: small significance thresholds combined
// with a rate cap.
func UIFriendly() *Config {
	price, volume, maxRate := 0.001, 0.05, 2.0
	return &Config{
		PriceChangeThreshold:  &price,
		VolumeChangeThreshold: &volume,
		MaxUpdatesPerSecond:   &maxRate,
	}
}

// Monitoring suits dashboards: only sizable moves, at most one update every
// five seconds.
func Monitoring() *Config {
	price, volume, liquidity, maxRate := 0.01, 0.10, 0.05, 0.2
	return &Config{
		PriceChangeThreshold:     &price,
		VolumeChangeThreshold:    &volume,
		LiquidityChangeThreshold: &liquidity,
		MaxUpdatesPerSecond:      &maxRate,
	}
}
