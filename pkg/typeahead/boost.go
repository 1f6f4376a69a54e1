package typeahead

// Boost scales the score of every item whose type or id equals Key.
type Boost struct {
	Key        string
	Multiplier float64
}

// BoostedScore multiplies the item's raw score by every matching boost, in
// order. Matching rules always compound; a rule that names both the item's
// type and its id still applies once.
func BoostedScore(item *Item, boosts []Boost) float64 {
	score := item.RawScore
	for _, b := range boosts {
		if b.Key == item.Type || b.Key == item.ID {
			score *= b.Multiplier
		}
	}
	return score
}
