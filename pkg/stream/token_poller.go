package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dexscreen-network/dexscreend/pkg/filter"
	"github.com/dexscreen-network/dexscreend/pkg/retry"
	"github.com/dexscreen-network/dexscreend/pkg/screener"
)

// tokenPoller owns the fixed-cadence fetch loop for the subscriptions to all
// pairs of one token. One upstream call already returns the token's full pair
// set, so tokens are never batched together. Filtering is applied per pair
// within the returned set and the callbacks receive the filtered subset.
type tokenPoller struct {
	chainID      string
	tokenAddress string
	deps         pollerDeps

	mtx         sync.RWMutex
	interval    time.Duration
	filter      *filter.PairFilter
	subscribers map[string]*tokenSubscriber
	cancel      context.CancelFunc

	inFlight int32
}

func newTokenPoller(chainID, tokenAddress string, deps pollerDeps) *tokenPoller {
	return &tokenPoller{
		chainID:      chainID,
		tokenAddress: tokenAddress,
		deps:         deps,
		interval:     deps.defaultTokenInterval,
		subscribers:  map[string]*tokenSubscriber{},
	}
}

func (p *tokenPoller) addSubscription(opts SubscribeTokenOpts, id string) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	first := len(p.subscribers) == 0
	if opts.Interval > 0 {
		p.interval = opts.Interval
	}
	if first || opts.FilterConfig != nil || opts.RawUpdates {
		if opts.RawUpdates {
			p.filter = nil
		} else {
			p.filter = filter.NewPairFilter(opts.FilterConfig)
		}
	}

	p.subscribers[id] = &tokenSubscriber{
		id:      id,
		async:   opts.Async,
		handler: opts.Handler,
	}
}

func (p *tokenPoller) removeSubscription(
	subscriptionID string,
) (found, empty bool) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if subscriptionID == "" {
		found = len(p.subscribers) > 0
		p.subscribers = map[string]*tokenSubscriber{}
	} else if _, ok := p.subscribers[subscriptionID]; ok {
		delete(p.subscribers, subscriptionID)
		found = true
	}

	return found, len(p.subscribers) == 0
}

func (p *tokenPoller) currentInterval() time.Duration {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return p.interval
}

func (p *tokenPoller) snapshotSubscribers() (*filter.PairFilter, []*tokenSubscriber) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	subscribers := make([]*tokenSubscriber, 0, len(p.subscribers))
	for _, sub := range p.subscribers {
		subscribers = append(subscribers, sub)
	}
	return p.filter, subscribers
}

func (p *tokenPoller) info() SubscriptionInfo {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	return SubscriptionInfo{
		ChainID:     p.chainID,
		Address:     p.tokenAddress,
		Kind:        TokenSubscription,
		Interval:    p.interval,
		Subscribers: len(p.subscribers),
	}
}

func (p *tokenPoller) size() int {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return len(p.subscribers)
}

func (p *tokenPoller) restart() {
	p.mtx.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.mtx.Unlock()

	go p.poll(ctx)
}

func (p *tokenPoller) stop() {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// poll mirrors the chain poller's anchored fixed-cadence loop.
func (p *tokenPoller) poll(ctx context.Context) {
	log.Debugf(
		"start polling token %s:%s every %s",
		p.chainID, p.tokenAddress, p.currentInterval(),
	)

	next := time.Now()
	for {
		if ctx.Err() != nil {
			log.Debugf("stop polling token %s:%s", p.chainID, p.tokenAddress)
			return
		}

		next = next.Add(p.currentInterval())
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
			log.Debugf("stop polling token %s:%s", p.chainID, p.tokenAddress)
			return
		case <-timer.C:
		}
	}
}

func (p *tokenPoller) fetchAndEmit(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&p.inFlight, 0, 1) {
		log.Tracef(
			"fetch for token %s:%s still in flight, skipping this tick",
			p.chainID, p.tokenAddress,
		)
		return
	}
	defer atomic.StoreInt32(&p.inFlight, 0)

	fetchStart := time.Now()
	pairs, err := p.fetchWithRetry(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.deps.stats.pollFailed()
		log.WithError(err).Warnf(
			"polling error for token %s:%s", p.chainID, p.tokenAddress,
		)
		if p.deps.errorHandler != nil {
			p.deps.errorHandler(err)
		}
		return
	}
	p.deps.stats.pollSucceeded()
	log.Tracef(
		"token fetch completed for %s:%s, %d pairs returned in %s",
		p.chainID, p.tokenAddress, len(pairs), time.Since(fetchStart),
	)

	pairFilter, subscribers := p.snapshotSubscribers()
	if len(subscribers) == 0 {
		return
	}

	key := subscriptionKey(p.chainID, p.tokenAddress)
	if pairFilter == nil {
		// Raw mode: every tick's full pair set is delivered.
		p.deps.emitter.dispatchToken(key, subscribers, pairs)
		return
	}

	// Each pair is filtered under its own chainId:pairAddress key so that
	// pair-level state survives across token ticks. The callback is invoked
	// only when at least one pair passed.
	changed := make([]*screener.Pair, 0, len(pairs))
	for _, pair := range pairs {
		if pairFilter.ShouldEmit(pair.Key(), pair) {
			p.deps.stats.updateEmitted()
			changed = append(changed, pair)
		} else {
			p.deps.stats.updateSuppressed()
		}
	}
	if len(changed) == 0 {
		return
	}
	p.deps.emitter.dispatchToken(key, subscribers, changed)
}

func (p *tokenPoller) fetchWithRetry(
	ctx context.Context,
) ([]*screener.Pair, error) {
	retryManager := retry.NewManager(p.deps.retryConfig)
	for {
		if err := p.deps.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		pairs, err := p.deps.screenerSvc.GetPairsByTokenAddress(
			p.chainID, p.tokenAddress,
		)
		if err == nil {
			if retryManager.Attempts() > 0 {
				log.Debugf(
					"token fetch for %s:%s succeeded after %d retries",
					p.chainID, p.tokenAddress, retryManager.Attempts(),
				)
			}
			return pairs, nil
		}

		retryManager.RecordFailure(err)
		if !retryManager.ShouldRetry(err) {
			return nil, err
		}
		log.WithError(err).Warnf(
			"token fetch for %s:%s failed (attempt %d), retrying",
			p.chainID, p.tokenAddress, retryManager.Attempts(),
		)
		if err := retryManager.Wait(ctx); err != nil {
			return nil, err
		}
	}
}
