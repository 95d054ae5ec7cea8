package stream

import (
	"github.com/stretchr/testify/mock"

	"github.com/dexscreen-network/dexscreend/pkg/screener"
)

// Screener
type mockScreener struct {
	mock.Mock
}

func (m *mockScreener) GetPairsByPairAddresses(
	chainID string, pairAddresses []string,
) ([]*screener.Pair, error) {
	args := m.Called(chainID, pairAddresses)

	var res []*screener.Pair
	if a := args.Get(0); a != nil {
		res = a.([]*screener.Pair)
	}
	return res, args.Error(1)
}

func (m *mockScreener) GetPair(
	chainID, pairAddress string,
) (*screener.Pair, error) {
	args := m.Called(chainID, pairAddress)

	var res *screener.Pair
	if a := args.Get(0); a != nil {
		res = a.(*screener.Pair)
	}
	return res, args.Error(1)
}

func (m *mockScreener) GetPairsByTokenAddress(
	chainID, tokenAddress string,
) ([]*screener.Pair, error) {
	args := m.Called(chainID, tokenAddress)

	var res []*screener.Pair
	if a := args.Get(0); a != nil {
		res = a.([]*screener.Pair)
	}
	return res, args.Error(1)
}

func (m *mockScreener) SearchPairs(query string) ([]*screener.Pair, error) {
	args := m.Called(query)

	var res []*screener.Pair
	if a := args.Get(0); a != nil {
		res = a.([]*screener.Pair)
	}
	return res, args.Error(1)
}
