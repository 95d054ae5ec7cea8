package stream

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/dexscreen-network/dexscreend/pkg/filter"
	"github.com/dexscreen-network/dexscreend/pkg/retry"
	"github.com/dexscreen-network/dexscreend/pkg/screener"
)

const (
	// DefaultInterval is the fallback polling cadence for pair subscriptions.
	DefaultInterval = time.Second
	// DefaultTokenInterval is the fallback polling cadence for token
	// subscriptions.
	DefaultTokenInterval = 200 * time.Millisecond

	defaultRequestsPerSecond = 5
	defaultRequestsBurst     = 1
)

// Service converts the pull-only upstream REST API into push-style
// subscriptions. Failures inside the poll loops never reach the caller:
// subscriptions are fire and forget, problems surface through logs, the
// optional error handler and Stats.
type Service interface {
	// Start begins polling for all registered subscriptions.
	Start()
	// Stop cancels every poll loop and clears all subscription and filter
	// state. In-flight fetches are not interrupted but their results are
	// discarded with the torn-down registry.
	Stop()

	// Subscribe registers a callback for updates of one pair and returns the
	// subscription id to be used for unsubscribing.
	Subscribe(opts SubscribeOpts) (string, error)
	// Unsubscribe removes one callback of a pair subscription, or every
	// callback when subscriptionID is empty. Removing the last callback for
	// a chain's only address stops that chain's poll loop.
	Unsubscribe(chainID, pairAddress, subscriptionID string) error
	// SubscribeToken registers a callback for updates of all pairs of a
	// token.
	SubscribeToken(opts SubscribeTokenOpts) (string, error)
	// UnsubscribeToken removes one or all callbacks of a token subscription.
	UnsubscribeToken(chainID, tokenAddress, subscriptionID string) error

	HasSubscription(chainID, pairAddress string) bool
	HasTokenSubscription(chainID, tokenAddress string) bool
	// ActiveSubscriptions lists all subscription targets currently polled.
	ActiveSubscriptions() []SubscriptionInfo
	// CallbackErrors returns the number of recovered callback failures per
	// subscription key.
	CallbackErrors() map[string]int64
	Stats() Stats
}

// SubscribeOpts are the parameters of a pair subscription.
type SubscribeOpts struct {
	ChainID     string
	PairAddress string
	Handler     PairHandler
	// Interval is the requested polling cadence. The chain is polled at the
	// minimum interval across its subscriptions. Zero means the service
	// default.
	Interval time.Duration
	// FilterConfig tunes change detection for this subscription key. Nil
	// means plain change detection.
	FilterConfig *filter.Config
	// RawUpdates disables filtering: every fetched value is delivered.
	RawUpdates bool
	// Async invokes the handler on its own goroutine per update.
	Async bool
}

// SubscribeTokenOpts are the parameters of a token subscription.
type SubscribeTokenOpts struct {
	ChainID      string
	TokenAddress string
	Handler      TokenHandler
	Interval     time.Duration
	FilterConfig *filter.Config
	RawUpdates   bool
	Async        bool
}

// Opts defines the parameters needed for creating a stream service with
// NewService.
type Opts struct {
	ScreenerSvc          screener.Service
	DefaultInterval      time.Duration
	DefaultTokenInterval time.Duration
	// RetryConfig bounds the per-tick retry budget. The zero value means
	// retry.DefaultConfig.
	RetryConfig retry.Config
	// RequestsPerSecond and RequestsBurst configure the fetch rate limiter
	// shared by all poll loops.
	RequestsPerSecond float64
	RequestsBurst     int
	// ErrorHandler, when set, receives every error a poll tick ends with.
	ErrorHandler func(err error)
}

// pollerDeps groups the collaborators shared by all pollers of one service.
type pollerDeps struct {
	screenerSvc          screener.Service
	rateLimiter          *rate.Limiter
	retryConfig          retry.Config
	stats                *statsCollector
	emitter              *emitter
	errorHandler         func(err error)
	defaultInterval      time.Duration
	defaultTokenInterval time.Duration
}

type pollingStream struct {
	deps pollerDeps

	mtx     sync.RWMutex
	running bool
	chains  map[string]*chainPoller
	tokens  map[string]*tokenPoller
}

// NewService returns a streaming service polling the given screener service.
func NewService(opts Opts) (Service, error) {
	if opts.ScreenerSvc == nil {
		return nil, fmt.Errorf("missing screener service")
	}
	if opts.RetryConfig != (retry.Config{}) {
		if err := opts.RetryConfig.Validate(); err != nil {
			return nil, fmt.Errorf("invalid retry config: %w", err)
		}
	}

	defaultInterval := opts.DefaultInterval
	if defaultInterval <= 0 {
		defaultInterval = DefaultInterval
	}
	defaultTokenInterval := opts.DefaultTokenInterval
	if defaultTokenInterval <= 0 {
		defaultTokenInterval = DefaultTokenInterval
	}
	requestsPerSecond := opts.RequestsPerSecond
	if requestsPerSecond <= 0 {
		requestsPerSecond = defaultRequestsPerSecond
	}
	requestsBurst := opts.RequestsBurst
	if requestsBurst <= 0 {
		requestsBurst = defaultRequestsBurst
	}

	return &pollingStream{
		deps: pollerDeps{
			screenerSvc: opts.ScreenerSvc,
			rateLimiter: rate.NewLimiter(
				rate.Limit(requestsPerSecond), requestsBurst,
			),
			retryConfig:          opts.RetryConfig,
			stats:                &statsCollector{},
			emitter:              newEmitter(),
			errorHandler:         opts.ErrorHandler,
			defaultInterval:      defaultInterval,
			defaultTokenInterval: defaultTokenInterval,
		},
		chains: map[string]*chainPoller{},
		tokens: map[string]*tokenPoller{},
	}, nil
}

func (s *pollingStream) Start() {
	s.mtx.Lock()
	if s.running {
		s.mtx.Unlock()
		return
	}
	s.running = true
	chains := make([]*chainPoller, 0, len(s.chains))
	for _, poller := range s.chains {
		chains = append(chains, poller)
	}
	tokens := make([]*tokenPoller, 0, len(s.tokens))
	for _, poller := range s.tokens {
		tokens = append(tokens, poller)
	}
	s.mtx.Unlock()

	for _, poller := range chains {
		poller.restart()
	}
	for _, poller := range tokens {
		poller.restart()
	}
	log.Debug("streaming started")
}

func (s *pollingStream) Stop() {
	s.mtx.Lock()
	if !s.running && len(s.chains) == 0 && len(s.tokens) == 0 {
		s.mtx.Unlock()
		return
	}
	s.running = false
	chains := make([]*chainPoller, 0, len(s.chains))
	for _, poller := range s.chains {
		chains = append(chains, poller)
	}
	tokens := make([]*tokenPoller, 0, len(s.tokens))
	for _, poller := range s.tokens {
		tokens = append(tokens, poller)
	}
	s.chains = map[string]*chainPoller{}
	s.tokens = map[string]*tokenPoller{}
	s.mtx.Unlock()

	for _, poller := range chains {
		poller.stop()
	}
	for _, poller := range tokens {
		poller.stop()
	}
	log.Debug("streaming stopped")
}

func (s *pollingStream) Subscribe(opts SubscribeOpts) (string, error) {
	if opts.ChainID == "" || opts.PairAddress == "" {
		return "", fmt.Errorf("chain id and pair address must not be empty")
	}
	if opts.Handler == nil {
		return "", fmt.Errorf("missing handler")
	}

	id := uuid.New().String()

	s.mtx.Lock()
	poller, ok := s.chains[opts.ChainID]
	if !ok {
		poller = newChainPoller(opts.ChainID, s.deps)
		s.chains[opts.ChainID] = poller
	}
	poller.addSubscription(opts, id)
	running := s.running
	s.mtx.Unlock()

	// Restarting applies the recomputed effective interval right away.
	if running {
		poller.restart()
	}

	log.Debugf(
		"subscribed to pair %s with interval %s",
		subscriptionKey(opts.ChainID, opts.PairAddress), poller.interval(),
	)
	return id, nil
}

func (s *pollingStream) Unsubscribe(
	chainID, pairAddress, subscriptionID string,
) error {
	if chainID == "" || pairAddress == "" {
		return fmt.Errorf("chain id and pair address must not be empty")
	}

	s.mtx.Lock()
	poller, ok := s.chains[chainID]
	if !ok {
		s.mtx.Unlock()
		return nil
	}
	found, empty := poller.removeSubscription(pairAddress, subscriptionID)
	if empty {
		delete(s.chains, chainID)
	}
	running := s.running
	s.mtx.Unlock()

	if empty {
		poller.stop()
	} else if found && running {
		poller.restart()
	}

	if found {
		log.Debugf(
			"unsubscribed from pair %s", subscriptionKey(chainID, pairAddress),
		)
	}
	return nil
}

func (s *pollingStream) SubscribeToken(opts SubscribeTokenOpts) (string, error) {
	if opts.ChainID == "" || opts.TokenAddress == "" {
		return "", fmt.Errorf("chain id and token address must not be empty")
	}
	if opts.Handler == nil {
		return "", fmt.Errorf("missing handler")
	}

	id := uuid.New().String()
	key := subscriptionKey(opts.ChainID, opts.TokenAddress)

	s.mtx.Lock()
	poller, ok := s.tokens[key]
	if !ok {
		poller = newTokenPoller(opts.ChainID, opts.TokenAddress, s.deps)
		s.tokens[key] = poller
	}
	poller.addSubscription(opts, id)
	running := s.running
	s.mtx.Unlock()

	if running {
		poller.restart()
	}

	log.Debugf(
		"subscribed to token %s with interval %s", key, poller.currentInterval(),
	)
	return id, nil
}

func (s *pollingStream) UnsubscribeToken(
	chainID, tokenAddress, subscriptionID string,
) error {
	if chainID == "" || tokenAddress == "" {
		return fmt.Errorf("chain id and token address must not be empty")
	}

	key := subscriptionKey(chainID, tokenAddress)

	s.mtx.Lock()
	poller, ok := s.tokens[key]
	if !ok {
		s.mtx.Unlock()
		return nil
	}
	found, empty := poller.removeSubscription(subscriptionID)
	if empty {
		delete(s.tokens, key)
	}
	s.mtx.Unlock()

	if empty {
		poller.stop()
	}

	if found {
		log.Debugf("unsubscribed from token %s", key)
	}
	return nil
}

func (s *pollingStream) HasSubscription(chainID, pairAddress string) bool {
	s.mtx.RLock()
	poller, ok := s.chains[chainID]
	s.mtx.RUnlock()
	if !ok {
		return false
	}
	return poller.hasAddress(pairAddress)
}

func (s *pollingStream) HasTokenSubscription(chainID, tokenAddress string) bool {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	_, ok := s.tokens[subscriptionKey(chainID, tokenAddress)]
	return ok
}

func (s *pollingStream) ActiveSubscriptions() []SubscriptionInfo {
	s.mtx.RLock()
	chains := make([]*chainPoller, 0, len(s.chains))
	for _, poller := range s.chains {
		chains = append(chains, poller)
	}
	tokens := make([]*tokenPoller, 0, len(s.tokens))
	for _, poller := range s.tokens {
		tokens = append(tokens, poller)
	}
	s.mtx.RUnlock()

	infos := make([]SubscriptionInfo, 0, len(chains)+len(tokens))
	for _, poller := range chains {
		infos = append(infos, poller.infos()...)
	}
	for _, poller := range tokens {
		infos = append(infos, poller.info())
	}
	return infos
}

func (s *pollingStream) CallbackErrors() map[string]int64 {
	return s.deps.emitter.errorCounts()
}

func (s *pollingStream) Stats() Stats {
	stats := s.deps.stats.snapshot()

	s.mtx.RLock()
	defer s.mtx.RUnlock()
	for _, poller := range s.chains {
		stats.ActiveSubscriptions += int64(poller.size())
	}
	for _, poller := range s.tokens {
		if poller.size() > 0 {
			stats.ActiveSubscriptions++
		}
	}
	return stats
}
