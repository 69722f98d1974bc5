package game

// Deck is an ordered pile of card identifiers with a discard pile and an
// optional mission slot. The top of the current order is the end of the
// slice. The mission slot is only meaningful for the objective deck.
//
// Every operation validates before it mutates: a failed call leaves the
// deck exactly as it was.
type Deck struct {
	current []string
	pile    []string
	mission string
}

// NewDeck creates a deck with the given current order (top last) and an
// empty discard pile.
func NewDeck(order []string) *Deck {
	return &Deck{current: append([]string(nil), order...)}
}

// Len returns the number of cards in the current order.
func (d *Deck) Len() int { return len(d.current) }

// PileLen returns the number of discarded cards.
func (d *Deck) PileLen() int { return len(d.pile) }

// Current returns a copy of the current order, top last.
func (d *Deck) Current() []string {
	return append([]string(nil), d.current...)
}

// Pile returns a copy of the discard pile in append order.
func (d *Deck) Pile() []string {
	return append([]string(nil), d.pile...)
}

// Mission returns the card in the mission slot, if any.
func (d *Deck) Mission() (string, bool) {
	return d.mission, d.mission != ""
}

// Pop removes and returns the top card.
func (d *Deck) Pop() (string, error) {
	if len(d.current) == 0 {
		return "", ErrEmptyDeck
	}
	top := d.current[len(d.current)-1]
	d.current = d.current[:len(d.current)-1]
	return top, nil
}

// Push appends a card to the top of the current order.
func (d *Deck) Push(id string) {
	d.current = append(d.current, id)
}

// Discard appends a card to the discard pile.
func (d *Deck) Discard(id string) {
	d.pile = append(d.pile, id)
}

// PeekTopN returns the top n cards without mutation, topmost last.
func (d *Deck) PeekTopN(n int) ([]string, error) {
	if len(d.current) < n {
		return nil, ErrInsufficientCards
	}
	return append([]string(nil), d.current[len(d.current)-n:]...), nil
}

// ReorderTopN replaces the top len(order) cards with the supplied order,
// so order[len-1] becomes the new top. The supplied identifiers must be a
// permutation of the actual top cards; otherwise the deck is left
// unchanged and ErrArrangeMismatch is returned.
func (d *Deck) ReorderTopN(order []string) error {
	n := len(order)
	top, err := d.PeekTopN(n)
	if err != nil {
		return err
	}
	want := make(map[string]int, n)
	for _, id := range top {
		want[id]++
	}
	for _, id := range order {
		if want[id] == 0 {
			return ErrArrangeMismatch
		}
		want[id]--
	}
	copy(d.current[len(d.current)-n:], order)
	return nil
}

// Shuffle randomizes the full current order. All cards are preserved.
func (d *Deck) Shuffle(r RandSource) {
	r.Shuffle(len(d.current), func(i, j int) {
		d.current[i], d.current[j] = d.current[j], d.current[i]
	})
}

// DealFrom replaces the current order with an explicit persisted ordering.
// Used only when restoring a session.
func (d *Deck) DealFrom(saved []string) {
	d.current = append(d.current[:0:0], saved...)
}

// DrawMission pops the top card into the mission slot. Any previous
// mission must have been cleared first.
func (d *Deck) DrawMission() (string, error) {
	id, err := d.Pop()
	if err != nil {
		return "", err
	}
	d.mission = id
	return id, nil
}

// ClearMission empties the mission slot and returns the card that was in
// it, if any. The caller decides where the card goes.
func (d *Deck) ClearMission() (string, bool) {
	id := d.mission
	d.mission = ""
	return id, id != ""
}

// setMission restores the mission slot from persisted state.
func (d *Deck) setMission(id string) {
	d.mission = id
}

// setPile restores the discard pile from persisted state.
func (d *Deck) setPile(saved []string) {
	d.pile = append(d.pile[:0:0], saved...)
}
