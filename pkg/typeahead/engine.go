package typeahead

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Result is a ranked query hit.
type Result struct {
	ID    string
	Score float64
	order uint64
}

// Stats describes the current size of an engine.
type Stats struct {
	Items   int
	Created uint64
	Nodes   int
	Terms   int
}

// Engine ties the item store, the trie and the vocabulary together behind
// a single lock. Every operation holds the lock for its whole duration so
// multi-node intersections never see a half-applied mutation.
type Engine struct {
	mu       sync.Mutex
	store    *ItemStore
	trie     *Trie
	vocab    *Vocabulary
	observer Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver reports operations and sizes to o.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// NewEngine creates an empty engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		store: NewItemStore(),
		trie:  NewTrie(),
		vocab: NewVocabulary(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Add indexes an item. An existing item with the same id is fully
// unindexed first, and the replacement counts as newer for tie-breaking.
func (e *Engine) Add(itemType, id string, rawScore float64, tokens []string) error {
	err := validateItem(id, rawScore, tokens)
	e.observeOp("add", err)
	if err != nil {
		return err
	}

	owned := make([]string, len(tokens))
	copy(owned, tokens)

	e.mu.Lock()
	defer e.mu.Unlock()

	if old, ok := e.store.Get(id); ok {
		log.Debugf("Replacing item '%s' (order %d)", id, old.CreationOrder)
		e.unindex(old)
	}
	item := e.store.Create(itemType, id, rawScore, owned)
	e.trie.AddItem(item)
	e.vocab.Add(item.Tokens)

	e.observeSize()
	return nil
}

// Delete removes the item with id. Unknown ids are ignored.
func (e *Engine) Delete(id string) bool {
	e.observeOp("delete", nil)

	e.mu.Lock()
	defer e.mu.Unlock()

	item, ok := e.store.Get(id)
	if !ok {
		log.Debugf("Delete of unknown item '%s' ignored", id)
		return false
	}
	e.unindex(item)

	e.observeSize()
	return true
}

func (e *Engine) unindex(item *Item) {
	e.trie.DeleteItem(item)
	e.vocab.Remove(item.Tokens)
	e.store.Remove(item.ID)
}

// Query returns the ids of the top resultCount items having, for every
// query token, at least one token it prefixes.
func (e *Engine) Query(resultCount int, tokens []string) ([]string, error) {
	return e.WeightedQuery(resultCount, tokens, nil)
}

// WeightedQuery is Query with boosts applied to raw scores before ranking.
func (e *Engine) WeightedQuery(resultCount int, tokens []string, boosts []Boost) ([]string, error) {
	results, err := e.ScoredQuery(resultCount, tokens, boosts)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids, nil
}

// ScoredQuery ranks matching items by boosted score then recency and
// returns the first resultCount of them. An empty token list matches
// nothing.
func (e *Engine) ScoredQuery(resultCount int, tokens []string, boosts []Boost) ([]Result, error) {
	op := "query"
	if len(boosts) > 0 {
		op = "wquery"
	}
	err := validateQuery(resultCount, tokens, boosts)
	e.observeOp(op, err)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return []Result{}, nil
	}

	start := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	candidates := e.candidates(tokens)
	results := make([]Result, 0, len(candidates))
	for id := range candidates {
		item, ok := e.store.Get(id)
		if !ok {
			log.Errorf("Trie references unknown item '%s'", id)
			continue
		}
		results = append(results, Result{
			ID:    id,
			Score: BoostedScore(item, boosts),
			order: item.CreationOrder,
		})
	}
	rank(results)

	if len(results) > resultCount {
		results = results[:resultCount]
	}

	if e.observer != nil {
		e.observer.ObserveQuery(time.Since(start), len(candidates), len(results))
	}
	return results, nil
}

// candidates intersects the id sets of every token prefix. The trie's
// sets are never mutated; the running set is always a private copy.
func (e *Engine) candidates(tokens []string) map[string]struct{} {
	first := e.trie.ItemsAtPrefix(tokens[0])
	if len(first) == 0 {
		return nil
	}
	running := make(map[string]struct{}, len(first))
	for id := range first {
		running[id] = struct{}{}
	}

	for _, token := range tokens[1:] {
		set := e.trie.ItemsAtPrefix(token)
		if len(set) == 0 {
			return nil
		}
		for id := range running {
			if _, ok := set[id]; !ok {
				delete(running, id)
			}
		}
		if len(running) == 0 {
			return nil
		}
	}
	return running
}

// rank orders by score then recency, both descending. Boosts can still
// overflow to Inf and then hit a zero multiplier, so NaN scores sort last.
func rank(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		si, sj := results[i].Score, results[j].Score
		ni, nj := math.IsNaN(si), math.IsNaN(sj)
		if ni != nj {
			return nj
		}
		if !ni && si != sj {
			return si > sj
		}
		return results[i].order > results[j].order
	})
}

// Terms completes prefix into tokens currently indexed.
func (e *Engine) Terms(prefix string, limit int) []Term {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vocab.Complete(prefix, limit)
}

// Stats returns the engine's current sizes.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Items:   e.store.Len(),
		Created: e.store.Created(),
		Nodes:   e.trie.NodeCount(),
		Terms:   e.vocab.Len(),
	}
}

func (e *Engine) observeOp(op string, err error) {
	if e.observer != nil {
		e.observer.ObserveOp(op, err)
	}
}

func (e *Engine) observeSize() {
	if e.observer != nil {
		e.observer.ObserveSize(e.store.Len(), e.trie.NodeCount())
	}
}

func validateItem(id string, rawScore float64, tokens []string) error {
	if id == "" {
		return fmt.Errorf("empty item id: %w", ErrInvalidArgument)
	}
	if rawScore < 0 || math.IsNaN(rawScore) || math.IsInf(rawScore, 0) {
		return fmt.Errorf("item '%s' has negative or non-finite score %v: %w", id, rawScore, ErrInvalidArgument)
	}
	for i, t := range tokens {
		if t == "" {
			return fmt.Errorf("item '%s' has empty token at position %d: %w", id, i, ErrInvalidArgument)
		}
	}
	return nil
}

func validateQuery(resultCount int, tokens []string, boosts []Boost) error {
	if resultCount < 0 {
		return fmt.Errorf("negative result count %d: %w", resultCount, ErrInvalidArgument)
	}
	for i, t := range tokens {
		if t == "" {
			return fmt.Errorf("empty query token at position %d: %w", i, ErrInvalidArgument)
		}
	}
	for _, b := range boosts {
		if math.IsNaN(b.Multiplier) || math.IsInf(b.Multiplier, 0) {
			return fmt.Errorf("boost '%s' has non-finite multiplier %v: %w", b.Key, b.Multiplier, ErrInvalidArgument)
		}
	}
	return nil
}
