package filter

import (
	"github.com/shopspring/decimal"

	"github.com/dexscreen-network/dexscreend/pkg/screener"
)

// extractField resolves a dotted field path against a pair. The supported
// paths form a fixed set of typed accessors rather than a reflective walk.
// Unknown paths and absent optional values resolve to nil, which the filter
// treats as "cannot compare".
func extractField(pair *screener.Pair, field string) *decimal.Decimal {
	switch field {
	case "priceUsd":
		return copyDecimal(pair.PriceUsd)
	case "priceNative":
		v := pair.PriceNative
		return &v
	case "fdv":
		v := pair.Fdv
		return &v
	case "volume.m5":
		v := pair.Volume.M5
		return &v
	case "volume.h1":
		v := pair.Volume.H1
		return &v
	case "volume.h6":
		v := pair.Volume.H6
		return &v
	case "volume.h24":
		v := pair.Volume.H24
		return &v
	case "priceChange.m5":
		v := pair.PriceChange.M5
		return &v
	case "priceChange.h1":
		v := pair.PriceChange.H1
		return &v
	case "priceChange.h6":
		v := pair.PriceChange.H6
		return &v
	case "priceChange.h24":
		v := pair.PriceChange.H24
		return &v
	case "liquidity.usd":
		if pair.Liquidity == nil {
			return nil
		}
		return copyDecimal(pair.Liquidity.Usd)
	case "liquidity.base":
		if pair.Liquidity == nil {
			return nil
		}
		v := pair.Liquidity.Base
		return &v
	case "liquidity.quote":
		if pair.Liquidity == nil {
			return nil
		}
		v := pair.Liquidity.Quote
		return &v
	default:
		return nil
	}
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
