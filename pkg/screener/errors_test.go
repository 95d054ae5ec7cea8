package screener

import (
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil error", nil, false},
		{"rate limited", &HTTPError{StatusCode: 429}, true},
		{"server error", &HTTPError{StatusCode: 500}, true},
		{"bad gateway", &HTTPError{StatusCode: 502}, true},
		{"cloudflare timeout", &HTTPError{StatusCode: 524}, true},
		{"not found", &HTTPError{StatusCode: 404}, false},
		{"bad request", &HTTPError{StatusCode: 400}, false},
		{
			"connection failure",
			&url.Error{Op: "Get", URL: "https://api.dexscreener.com", Err: errors.New("connection refused")},
			true,
		},
		{
			"wrapped transient error",
			fmt.Errorf("error on retrieving pairs: %w", &HTTPError{StatusCode: 503}),
			true,
		},
		{"generic error", errors.New("something else"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}

func TestPairKey(t *testing.T) {
	pair := &Pair{ChainID: "solana", PairAddress: "AbCdEf"}
	require.Equal(t, "solana:abcdef", pair.Key())
}
