// Package typeahead is the core, holding the prefix trie, the item store and the ranking engine that answers prefix queries over them.
package typeahead

import "time"

// IEngine defines the operations front-ends dispatch into
type IEngine interface {
	// Add indexes an item, replacing any item with the same id
	Add(itemType, id string, rawScore float64, tokens []string) error

	// Delete removes an item, reporting whether it existed
	Delete(id string) bool

	// Query returns up to resultCount ids matching every token prefix
	Query(resultCount int, tokens []string) ([]string, error)

	// WeightedQuery is Query with type/id score boosts applied before ranking
	WeightedQuery(resultCount int, tokens []string, boosts []Boost) ([]string, error)

	// ScoredQuery is WeightedQuery keeping the boosted score of every result
	ScoredQuery(resultCount int, tokens []string, boosts []Boost) ([]Result, error)

	// Terms completes a partial token into known tokens
	Terms(prefix string, limit int) []Term

	// Stats returns counters about the index
	Stats() Stats
}

// Observer receives engine events, typically to export them as metrics.
// ObserveOp is called before the engine lock is taken; ObserveQuery and
// ObserveSize are called while it is held.
type Observer interface {
	ObserveOp(op string, err error)
	ObserveQuery(elapsed time.Duration, candidates, returned int)
	ObserveSize(items, nodes int)
}
