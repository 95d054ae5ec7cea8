package screener

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ErrTooManyAddresses is returned when a batch request exceeds
// MaxPairsPerRequest. The error is terminal: shrinking the batch is the
// caller's job, retrying cannot help.
var ErrTooManyAddresses = fmt.Errorf(
	"too many addresses for a single request, max is %d", MaxPairsPerRequest,
)

// HTTPError is returned when the upstream responds with a non-OK status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream responded with status %d: %s", e.StatusCode, e.Body)
}

var retryableStatusCodes = map[int]struct{}{
	408: {}, // Request Timeout
	429: {}, // Too Many Requests
	500: {},
	502: {},
	503: {},
	504: {},
	520: {}, // Cloudflare: unknown origin error
	521: {}, // Cloudflare: origin down
	522: {}, // Cloudflare: connection timed out
	523: {}, // Cloudflare: origin unreachable
	524: {}, // Cloudflare: a timeout occurred
}

// IsRetryable reports whether a fetch error is transient and worth retrying.
// Timeouts, connection-level failures and retryable HTTP status codes qualify;
// everything else (malformed responses, client errors) is terminal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		_, ok := retryableStatusCodes[httpErr.StatusCode]
		return ok
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
