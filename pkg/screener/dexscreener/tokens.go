package dexscreener

import (
	"fmt"

	"github.com/dexscreen-network/dexscreend/pkg/screener"
)

func (d *dexscreener) GetPairsByTokenAddress(
	chainID, tokenAddress string,
) ([]*screener.Pair, error) {
	path := fmt.Sprintf("tokens/v1/%s/%s", chainID, tokenAddress)

	// Unlike the pair endpoints, the token endpoint returns a bare array.
	var pairs []*screener.Pair
	if err := d.getJSON(path, &pairs); err != nil {
		return nil, fmt.Errorf("error on retrieving pairs for token: %w", err)
	}

	return pairs, nil
}
