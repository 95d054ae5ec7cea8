package dexscreener

import "github.com/dexscreen-network/dexscreend/pkg/screener"

// pairsResponse is the envelope of the latest/dex/pairs and latest/dex/search
// endpoints. Pairs is null when nothing matches.
type pairsResponse struct {
	SchemaVersion string           `json:"schemaVersion"`
	Pairs         []*screener.Pair `json:"pairs"`
}
