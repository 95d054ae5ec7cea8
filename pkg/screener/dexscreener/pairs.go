package dexscreener

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/dexscreen-network/dexscreend/pkg/screener"
)

func (d *dexscreener) GetPairsByPairAddresses(
	chainID string, pairAddresses []string,
) ([]*screener.Pair, error) {
	if len(pairAddresses) == 0 {
		return nil, nil
	}
	if len(pairAddresses) > screener.MaxPairsPerRequest {
		return nil, screener.ErrTooManyAddresses
	}

	path := fmt.Sprintf(
		"latest/dex/pairs/%s/%s", chainID, strings.Join(pairAddresses, ","),
	)

	var resp pairsResponse
	if err := d.getJSON(path, &resp); err != nil {
		return nil, fmt.Errorf("error on retrieving pairs: %w", err)
	}

	return resp.Pairs, nil
}

func (d *dexscreener) GetPair(
	chainID, pairAddress string,
) (*screener.Pair, error) {
	pairs, err := d.GetPairsByPairAddresses(chainID, []string{pairAddress})
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, nil
	}
	return pairs[0], nil
}

func (d *dexscreener) SearchPairs(query string) ([]*screener.Pair, error) {
	path := fmt.Sprintf("latest/dex/search?q=%s", url.QueryEscape(query))

	var resp pairsResponse
	if err := d.getJSON(path, &resp); err != nil {
		return nil, fmt.Errorf("error on searching pairs: %w", err)
	}

	return resp.Pairs, nil
}
