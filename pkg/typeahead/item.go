package typeahead

// Item is a single searchable entry in the index.
type Item struct {
	ID       string
	Type     string
	RawScore float64
	Tokens   []string
	// CreationOrder is only used to break score ties; higher means newer.
	CreationOrder uint64
}

// ItemStore owns every live item keyed by id and stamps each new item
// with the next value of its creation counter.
type ItemStore struct {
	items   map[string]*Item
	counter uint64
}

// NewItemStore creates an empty store whose counter starts at 0.
func NewItemStore() *ItemStore {
	return &ItemStore{
		items: make(map[string]*Item),
	}
}

// Create allocates a new item, replacing whatever was stored under id.
// Callers must unindex the previous item before replacing it.
func (s *ItemStore) Create(itemType, id string, rawScore float64, tokens []string) *Item {
	item := &Item{
		ID:            id,
		Type:          itemType,
		RawScore:      rawScore,
		Tokens:        tokens,
		CreationOrder: s.counter,
	}
	s.counter++
	s.items[id] = item
	return item
}

// Remove deletes the item keyed by id, if any.
func (s *ItemStore) Remove(id string) {
	delete(s.items, id)
}

// Get looks up an item by id.
func (s *ItemStore) Get(id string) (*Item, bool) {
	item, ok := s.items[id]
	return item, ok
}

// Len returns the number of live items.
func (s *ItemStore) Len() int {
	return len(s.items)
}

// Created returns how many items were ever created, deleted ones included.
func (s *ItemStore) Created() uint64 {
	return s.counter
}
