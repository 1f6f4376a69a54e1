package typeahead

type node struct {
	children map[rune]*node
	ids      map[string]struct{}
}

func newNode() *node {
	return &node{
		ids: make(map[string]struct{}),
	}
}

// Trie is a character trie where every node caches the ids of all items
// owning a token that passes through it. Nodes are never pruned.
type Trie struct {
	root  *node
	nodes int
}

// NewTrie returns a trie holding only an empty root.
func NewTrie() *Trie {
	return &Trie{root: newNode(), nodes: 1}
}

// AddItem indexes the item under every prefix of every one of its tokens,
// the empty prefix (root) included.
func (t *Trie) AddItem(item *Item) {
	for _, token := range item.Tokens {
		n := t.root
		n.ids[item.ID] = struct{}{}
		for _, r := range token {
			child, ok := n.children[r]
			if !ok {
				if n.children == nil {
					n.children = make(map[rune]*node)
				}
				child = newNode()
				n.children[r] = child
				t.nodes++
			}
			child.ids[item.ID] = struct{}{}
			n = child
		}
	}
}

// DeleteItem replays the item's tokens and drops its id along each path.
// It must be given the same token set that was added.
func (t *Trie) DeleteItem(item *Item) {
	for _, token := range item.Tokens {
		n := t.root
		delete(n.ids, item.ID)
		for _, r := range token {
			child, ok := n.children[r]
			if !ok {
				break
			}
			delete(child.ids, item.ID)
			n = child
		}
	}
}

// ItemsAtPrefix returns the id set stored at prefix, or nil if no token
// was ever indexed under it. The returned map is the trie's own set and
// must not be mutated.
func (t *Trie) ItemsAtPrefix(prefix string) map[string]struct{} {
	n := t.root
	for _, r := range prefix {
		child, ok := n.children[r]
		if !ok {
			return nil
		}
		n = child
	}
	return n.ids
}

// NodeCount returns the number of allocated nodes, root included.
func (t *Trie) NodeCount() int {
	return t.nodes
}
