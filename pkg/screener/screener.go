package screener

// MaxPairsPerRequest is the upstream fan-out limit for batched pair requests.
const MaxPairsPerRequest = 30

// Service is the interface to be implemented by any kind of provider of
// trading pair market data.
type Service interface {
	// GetPairsByPairAddresses returns the pairs for up to MaxPairsPerRequest
	// pair addresses on one chain with a single upstream request. Addresses
	// unknown to the upstream are simply absent from the result.
	GetPairsByPairAddresses(chainID string, pairAddresses []string) ([]*Pair, error)
	// GetPair returns the pair for the given address, or nil if unknown.
	GetPair(chainID, pairAddress string) (*Pair, error)
	// GetPairsByTokenAddress returns all pairs that include the given token.
	GetPairsByTokenAddress(chainID, tokenAddress string) ([]*Pair, error)
	// SearchPairs returns pairs matching a free-form query.
	SearchPairs(query string) ([]*Pair, error)
}
