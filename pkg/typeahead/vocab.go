package typeahead

import (
	"sort"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Term is a distinct indexed token and the number of live items carrying it.
type Term struct {
	Token string
	Count int
}

// Vocabulary tracks distinct tokens in a patricia trie so that a partial
// word can be completed into tokens the index actually knows about.
type Vocabulary struct {
	trie *patricia.Trie
	size int
}

func NewVocabulary() *Vocabulary {
	return &Vocabulary{trie: patricia.NewTrie()}
}

// Add increments the count of every distinct token in tokens.
func (v *Vocabulary) Add(tokens []string) {
	for _, token := range distinct(tokens) {
		key := patricia.Prefix(token)
		if item := v.trie.Get(key); item != nil {
			v.trie.Set(key, item.(int)+1)
			continue
		}
		v.trie.Insert(key, 1)
		v.size++
	}
}

// Remove decrements the count of every distinct token in tokens and drops
// tokens no live item carries anymore.
func (v *Vocabulary) Remove(tokens []string) {
	for _, token := range distinct(tokens) {
		key := patricia.Prefix(token)
		item := v.trie.Get(key)
		if item == nil {
			continue
		}
		if count := item.(int); count > 1 {
			v.trie.Set(key, count-1)
			continue
		}
		if v.trie.Delete(key) {
			v.size--
		}
	}
}

// Complete returns known tokens starting with prefix, most used first,
// ties broken lexically. A limit <= 0 returns every match.
func (v *Vocabulary) Complete(prefix string, limit int) []Term {
	var terms []Term
	err := v.trie.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, item patricia.Item) error {
		terms = append(terms, Term{Token: string(p), Count: item.(int)})
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting vocabulary subtree: %v", err)
		return nil
	}

	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Count != terms[j].Count {
			return terms[i].Count > terms[j].Count
		}
		return terms[i].Token < terms[j].Token
	})

	if limit > 0 && len(terms) > limit {
		terms = terms[:limit]
	}
	return terms
}

// Len returns the number of distinct tokens.
func (v *Vocabulary) Len() int {
	return v.size
}

func distinct(tokens []string) []string {
	if len(tokens) < 2 {
		return tokens
	}
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
