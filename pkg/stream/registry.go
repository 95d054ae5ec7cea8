package stream

import (
	"strings"
	"time"

	"github.com/dexscreen-network/dexscreend/pkg/filter"
	"github.com/dexscreen-network/dexscreend/pkg/screener"
)

// PairHandler receives updates for a single pair subscription.
type PairHandler func(pair *screener.Pair)

// TokenHandler receives the updated pairs of a token subscription.
type TokenHandler func(pairs []*screener.Pair)

// subscriber is one registered pair callback. Async subscribers are invoked
// on their own goroutine.
type subscriber struct {
	id      string
	async   bool
	handler PairHandler
}

type tokenSubscriber struct {
	id      string
	async   bool
	handler TokenHandler
}

// pairEntry is the subscription state for one pair address on a chain: the
// set of callbacks fanned out to, the requested interval and the change
// filter guarding emissions. A nil filter means raw updates.
type pairEntry struct {
	address     string
	interval    time.Duration
	filter      *filter.PairFilter
	subscribers map[string]*subscriber
}

// SubscriptionKind discriminates pair and token subscriptions.
type SubscriptionKind string

const (
	PairSubscription  SubscriptionKind = "pair"
	TokenSubscription SubscriptionKind = "token"
)

// SubscriptionInfo describes one active subscription target.
type SubscriptionInfo struct {
	ChainID     string
	Address     string
	Kind        SubscriptionKind
	Interval    time.Duration
	Subscribers int
}

// subscriptionKey returns the canonical chainId:address key used for filter
// state and callback error tracking.
func subscriptionKey(chainID, address string) string {
	return chainID + ":" + strings.ToLower(address)
}
