package screener

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Token is one leg of a trading pair.
type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// TxnPeriod counts buys and sells within one time window.
type TxnPeriod struct {
	Buys  int64 `json:"buys"`
	Sells int64 `json:"sells"`
}

// Txns groups transaction counts by time window.
type Txns struct {
	M5  TxnPeriod `json:"m5"`
	H1  TxnPeriod `json:"h1"`
	H6  TxnPeriod `json:"h6"`
	H24 TxnPeriod `json:"h24"`
}

// Volume groups traded USD volume by time window.
type Volume struct {
	M5  decimal.Decimal `json:"m5"`
	H1  decimal.Decimal `json:"h1"`
	H6  decimal.Decimal `json:"h6"`
	H24 decimal.Decimal `json:"h24"`
}

// PriceChange groups price change percentages by time window.
type PriceChange struct {
	M5  decimal.Decimal `json:"m5"`
	H1  decimal.Decimal `json:"h1"`
	H6  decimal.Decimal `json:"h6"`
	H24 decimal.Decimal `json:"h24"`
}

// Liquidity is the locked liquidity of a pair. Usd is nil when the upstream
// cannot price the pool in USD.
type Liquidity struct {
	Usd   *decimal.Decimal `json:"usd,omitempty"`
	Base  decimal.Decimal  `json:"base"`
	Quote decimal.Decimal  `json:"quote"`
}

// Pair is a tradable base/quote pair as returned by the upstream REST API.
// Prices arrive as JSON strings and are decoded into decimals. PriceUsd and
// Liquidity are optional in the upstream schema.
type Pair struct {
	ChainID     string           `json:"chainId"`
	DexID       string           `json:"dexId"`
	URL         string           `json:"url"`
	PairAddress string           `json:"pairAddress"`
	Labels      []string         `json:"labels,omitempty"`
	BaseToken   Token            `json:"baseToken"`
	QuoteToken  Token            `json:"quoteToken"`
	PriceNative decimal.Decimal  `json:"priceNative"`
	PriceUsd    *decimal.Decimal `json:"priceUsd,omitempty"`
	Txns        Txns             `json:"txns"`
	Volume      Volume           `json:"volume"`
	PriceChange PriceChange      `json:"priceChange"`
	Liquidity   *Liquidity       `json:"liquidity,omitempty"`
	Fdv         decimal.Decimal  `json:"fdv"`
	// PairCreatedAt is a millisecond unix timestamp.
	PairCreatedAt int64 `json:"pairCreatedAt"`
}

// Key returns the canonical subscription key of the pair in the form
// chainId:pairAddress, with the address lowercased.
func (p *Pair) Key() string {
	return p.ChainID + ":" + strings.ToLower(p.PairAddress)
}

// CreatedAt returns PairCreatedAt as a time.Time.
func (p *Pair) CreatedAt() time.Time {
	return time.Unix(0, p.PairCreatedAt*int64(time.Millisecond))
}
