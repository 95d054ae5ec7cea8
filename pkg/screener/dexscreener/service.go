package dexscreener

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"
	"golang.org/x/sync/singleflight"

	"github.com/dexscreen-network/dexscreend/pkg/circuitbreaker"
	"github.com/dexscreen-network/dexscreend/pkg/httputil"
	"github.com/dexscreen-network/dexscreend/pkg/screener"
)

// requestsPerSecond paces outbound calls to stay within the upstream quota of
// 300 requests per minute.
const requestsPerSecond = 5

type dexscreener struct {
	apiURL      string
	client      *httputil.Service
	cb          *gobreaker.CircuitBreaker
	rateLimiter ratelimit.Limiter
	requests    singleflight.Group
}

// NewService returns a new dexscreener service as a screener.Service interface.
func NewService(apiURL string, requestTimeoutMilliseconds int) screener.Service {
	return &dexscreener{
		apiURL: apiURL,
		client: httputil.NewService(
			time.Duration(requestTimeoutMilliseconds) * time.Millisecond,
		),
		cb:          circuitbreaker.NewCircuitBreaker("dexscreener"),
		rateLimiter: ratelimit.New(requestsPerSecond),
	}
}

// getJSON performs a rate-limited GET of the given path and decodes the body
// into out. Identical paths requested concurrently are collapsed into one
// upstream call.
func (d *dexscreener) getJSON(path string, out interface{}) error {
	body, err, _ := d.requests.Do(path, func() (interface{}, error) {
		d.rateLimiter.Take()

		resp, err := d.cb.Execute(func() (interface{}, error) {
			url := fmt.Sprintf("%s/%s", d.apiURL, path)
			status, resp, err := d.client.NewHTTPRequest("GET", url, "", nil)
			if err != nil {
				return nil, err
			}
			if status != http.StatusOK {
				return nil, &screener.HTTPError{StatusCode: status, Body: resp}
			}
			return resp, nil
		})
		if err != nil {
			return nil, err
		}
		return resp.(string), nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(body.(string)), out); err != nil {
		return fmt.Errorf("error on decoding response: %s", err)
	}
	return nil
}
