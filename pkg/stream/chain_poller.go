package stream

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dexscreen-network/dexscreend/pkg/filter"
	"github.com/dexscreen-network/dexscreend/pkg/retry"
	"github.com/dexscreen-network/dexscreend/pkg/screener"
)

// chainPoller owns the fixed-cadence fetch loop for all pair subscriptions of
// one chain. Every tick it batch-fetches the subscribed addresses with a
// single upstream call and routes each returned pair through its entry's
// filter before emitting.
type chainPoller struct {
	chainID string
	deps    pollerDeps

	mtx               sync.RWMutex
	entries           map[string]*pairEntry
	effectiveInterval time.Duration
	cancel            context.CancelFunc

	inFlight int32
}

func newChainPoller(chainID string, deps pollerDeps) *chainPoller {
	return &chainPoller{
		chainID:           chainID,
		deps:              deps,
		entries:           map[string]*pairEntry{},
		effectiveInterval: deps.defaultInterval,
	}
}

// addSubscription registers a handler for a pair address and returns the
// subscription id. The chain's effective interval is recomputed so the new
// cadence takes effect on the next restart.
func (p *chainPoller) addSubscription(opts SubscribeOpts, id string) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	entry, ok := p.entries[opts.PairAddress]
	if !ok {
		entry = &pairEntry{
			address:     opts.PairAddress,
			subscribers: map[string]*subscriber{},
		}
		p.entries[opts.PairAddress] = entry
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = p.deps.defaultInterval
	}
	entry.interval = interval

	if !ok || opts.FilterConfig != nil || opts.RawUpdates {
		if opts.RawUpdates {
			entry.filter = nil
		} else {
			entry.filter = filter.NewPairFilter(opts.FilterConfig)
		}
	}

	entry.subscribers[id] = &subscriber{
		id:      id,
		async:   opts.Async,
		handler: opts.Handler,
	}

	p.recomputeEffectiveInterval()
}

// removeSubscription drops one callback, or all of them when subscriptionID
// is empty. It reports whether anything was removed and whether the poller is
// left without addresses and should be torn down.
func (p *chainPoller) removeSubscription(
	address, subscriptionID string,
) (found, empty bool) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	entry, ok := p.entries[address]
	if !ok {
		return false, len(p.entries) == 0
	}

	if subscriptionID == "" {
		entry.subscribers = map[string]*subscriber{}
		found = true
	} else if _, ok := entry.subscribers[subscriptionID]; ok {
		delete(entry.subscribers, subscriptionID)
		found = true
	}

	if len(entry.subscribers) == 0 {
		delete(p.entries, address)
	}

	p.recomputeEffectiveInterval()
	return found, len(p.entries) == 0
}

// recomputeEffectiveInterval must be called with the lock held.
func (p *chainPoller) recomputeEffectiveInterval() {
	min := p.deps.defaultInterval
	first := true
	for _, entry := range p.entries {
		if first || entry.interval < min {
			min = entry.interval
			first = false
		}
	}
	p.effectiveInterval = min
}

func (p *chainPoller) interval() time.Duration {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return p.effectiveInterval
}

func (p *chainPoller) hasAddress(address string) bool {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	_, ok := p.entries[address]
	return ok
}

func (p *chainPoller) addresses() []string {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	addresses := make([]string, 0, len(p.entries))
	for address := range p.entries {
		addresses = append(addresses, address)
	}
	return addresses
}

// snapshotEntry returns the filter and a copy of the subscriber set for an
// address, or (nil, nil) if it was unsubscribed in the meantime.
func (p *chainPoller) snapshotEntry(
	address string,
) (*filter.PairFilter, []*subscriber) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	entry, ok := p.entries[address]
	if !ok {
		return nil, nil
	}
	subscribers := make([]*subscriber, 0, len(entry.subscribers))
	for _, sub := range entry.subscribers {
		subscribers = append(subscribers, sub)
	}
	return entry.filter, subscribers
}

func (p *chainPoller) infos() []SubscriptionInfo {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	infos := make([]SubscriptionInfo, 0, len(p.entries))
	for _, entry := range p.entries {
		infos = append(infos, SubscriptionInfo{
			ChainID:     p.chainID,
			Address:     entry.address,
			Kind:        PairSubscription,
			Interval:    entry.interval,
			Subscribers: len(entry.subscribers),
		})
	}
	return infos
}

func (p *chainPoller) size() int {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return len(p.entries)
}

// restart cancels the current poll loop, if any, and starts a new one so that
// interval changes take effect immediately. The schedule anchor resets on
// restart.
func (p *chainPoller) restart() {
	p.mtx.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.mtx.Unlock()

	go p.poll(ctx)
}

func (p *chainPoller) stop() {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// poll runs the anchored fixed-cadence loop: the next tick time is advanced
// before the fetch is dispatched, so upstream latency does not drift the
// schedule. When behind schedule the anchor resynchronizes instead of
// accumulating a backlog of skipped ticks.
func (p *chainPoller) poll(ctx context.Context) {
	log.Debugf(
		"start polling chain %s every %s", p.chainID, p.interval(),
	)

	next := time.Now()
	for {
		if ctx.Err() != nil {
			log.Debugf("stop polling chain %s", p.chainID)
			return
		}

		next = next.Add(p.interval())
		go p.fetchAndEmit(ctx)

		wait := time.Until(next)
		if wait <= 0 {
			next = time.Now()
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Debugf("stop polling chain %s", p.chainID)
			return
		case <-timer.C:
		}
	}
}

// fetchAndEmit performs one tick's worth of work. At most one fetch per chain
// is in flight at any time: if the previous one has not completed yet, this
// tick is skipped.
func (p *chainPoller) fetchAndEmit(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&p.inFlight, 0, 1) {
		log.Tracef(
			"fetch for chain %s still in flight, skipping this tick", p.chainID,
		)
		return
	}
	defer atomic.StoreInt32(&p.inFlight, 0)

	addresses := p.addresses()
	if len(addresses) == 0 {
		return
	}
	if len(addresses) > screener.MaxPairsPerRequest {
		log.Warnf(
			"subscription limit exceeded for chain %s: %d addresses requested, "+
				"limiting batch to %d",
			p.chainID, len(addresses), screener.MaxPairsPerRequest,
		)
		addresses = addresses[:screener.MaxPairsPerRequest]
	}

	fetchStart := time.Now()
	pairs, err := p.fetchWithRetry(ctx, addresses)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.deps.stats.pollFailed()
		log.WithError(err).Warnf(
			"polling error for chain %s with %d addresses",
			p.chainID, len(addresses),
		)
		if p.deps.errorHandler != nil {
			p.deps.errorHandler(err)
		}
		return
	}
	p.deps.stats.pollSucceeded()
	log.Tracef(
		"batch fetch completed for chain %s: %d addresses, %d pairs returned in %s",
		p.chainID, len(addresses), len(pairs), time.Since(fetchStart),
	)

	pairsByAddress := make(map[string]*screener.Pair, len(pairs))
	for _, pair := range pairs {
		pairsByAddress[strings.ToLower(pair.PairAddress)] = pair
	}

	for _, address := range addresses {
		// Addresses missing from the response simply carry no data this
		// tick.
		pair, ok := pairsByAddress[strings.ToLower(address)]
		if !ok {
			continue
		}

		pairFilter, subscribers := p.snapshotEntry(address)
		if subscribers == nil {
			continue
		}

		key := subscriptionKey(p.chainID, address)
		if pairFilter != nil && !pairFilter.ShouldEmit(key, pair) {
			p.deps.stats.updateSuppressed()
			continue
		}
		p.deps.stats.updateEmitted()
		p.deps.emitter.dispatchPair(key, subscribers, pair)
	}
}

// fetchWithRetry attempts the batch fetch, retrying transient failures with
// backoff until the per-tick retry budget runs out. Exhaustion never kills
// the poll loop, the next scheduled tick retries naturally.
func (p *chainPoller) fetchWithRetry(
	ctx context.Context, addresses []string,
) ([]*screener.Pair, error) {
	retryManager := retry.NewManager(p.deps.retryConfig)
	for {
		if err := p.deps.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		pairs, err := p.deps.screenerSvc.GetPairsByPairAddresses(
			p.chainID, addresses,
		)
		if err == nil {
			if retryManager.Attempts() > 0 {
				log.Debugf(
					"batch fetch for chain %s succeeded after %d retries",
					p.chainID, retryManager.Attempts(),
				)
			}
			return pairs, nil
		}

		retryManager.RecordFailure(err)
		if !retryManager.ShouldRetry(err) {
			return nil, err
		}
		log.WithError(err).Warnf(
			"batch fetch for chain %s failed (attempt %d), retrying",
			p.chainID, retryManager.Attempts(),
		)
		if err := retryManager.Wait(ctx); err != nil {
			return nil, err
		}
	}
}
