package stream

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/dexscreen-network/dexscreend/pkg/screener"
)

// emitter fans a value out to the callbacks registered for a subscription
// key. Every invocation is isolated: a panicking callback is logged and
// counted, and never affects its siblings or the poll loop.
type emitter struct {
	mtx            sync.Mutex
	callbackErrors map[string]int64
}

func newEmitter() *emitter {
	return &emitter{callbackErrors: map[string]int64{}}
}

func (e *emitter) dispatchPair(
	key string, subscribers []*subscriber, pair *screener.Pair,
) {
	for _, sub := range subscribers {
		if sub.async {
			go e.invokePair(key, sub, pair)
		} else {
			e.invokePair(key, sub, pair)
		}
	}
}

func (e *emitter) dispatchToken(
	key string, subscribers []*tokenSubscriber, pairs []*screener.Pair,
) {
	for _, sub := range subscribers {
		if sub.async {
			go e.invokeToken(key, sub, pairs)
		} else {
			e.invokeToken(key, sub, pairs)
		}
	}
}

func (e *emitter) invokePair(key string, sub *subscriber, pair *screener.Pair) {
	defer e.recoverCallback(key)
	sub.handler(pair)
}

func (e *emitter) invokeToken(
	key string, sub *tokenSubscriber, pairs []*screener.Pair,
) {
	defer e.recoverCallback(key)
	sub.handler(pairs)
}

func (e *emitter) recoverCallback(key string) {
	if r := recover(); r != nil {
		log.Warnf("callback error for subscription %s: %v", key, r)
		e.mtx.Lock()
		e.callbackErrors[key]++
		e.mtx.Unlock()
	}
}

// errorCounts returns a copy of the per-key callback error counters.
func (e *emitter) errorCounts() map[string]int64 {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	counts := make(map[string]int64, len(e.callbackErrors))
	for key, count := range e.callbackErrors {
		counts[key] = count
	}
	return counts
}
