package domain

import (
	"fmt"
	"math/rand"
)

// CardID addresses one physical card in an Arena.
type CardID int

// Arena owns every physical card of a match. Piles and hands only hold ids.
type Arena struct {
	cards  []Card
	faceUp []bool
}

// NewArena registers cards face down; the id of a card is its index.
func NewArena(cards []Card) *Arena {
	return &Arena{
		cards:  append([]Card(nil), cards...),
		faceUp: make([]bool, len(cards)),
	}
}

// Size is the fixed number of cards in the arena.
func (a *Arena) Size() int { return len(a.cards) }

// Card returns the value of id.
func (a *Arena) Card(id CardID) Card { return a.cards[id] }

// FaceUp reports the orientation of id.
func (a *Arena) FaceUp(id CardID) bool { return a.faceUp[id] }

// Flip turns id over.
func (a *Arena) Flip(id CardID) { a.faceUp[id] = !a.faceUp[id] }

// FaceDown turns id face down if it is not already.
func (a *Arena) FaceDown(id CardID) { a.faceUp[id] = false }

// Lookup returns the id of the first physical card equal to c.
func (a *Arena) Lookup(c Card) (CardID, bool) {
	for i, v := range a.cards {
		if v == c {
			return CardID(i), true
		}
	}
	return 0, false
}

// Cards resolves ids to values, preserving order.
func (a *Arena) Cards(ids []CardID) []Card {
	out := make([]Card, 0, len(ids))
	for _, id := range ids {
		out = append(out, a.cards[id])
	}
	return out
}

// Pile is an ordered stack of card ids; the last element is the top.
type Pile struct {
	ids []CardID
}

// NewPile returns a pile holding ids, the last one on top.
func NewPile(ids ...CardID) Pile {
	return Pile{ids: append([]CardID(nil), ids...)}
}

// Len is the number of cards in the pile.
func (p *Pile) Len() int { return len(p.ids) }

// IDs returns a copy of the pile from bottom to top.
func (p *Pile) IDs() []CardID { return append([]CardID(nil), p.ids...) }

// Top returns the top card without removing it.
func (p *Pile) Top() (CardID, bool) {
	if len(p.ids) == 0 {
		return 0, false
	}
	return p.ids[len(p.ids)-1], true
}

// Push adds id to the top.
func (p *Pile) Push(id CardID) { p.ids = append(p.ids, id) }

// Pop draws the top card.
func (p *Pile) Pop() (CardID, bool) {
	id, ok := p.Top()
	if !ok {
		return 0, false
	}
	p.ids = p.ids[:len(p.ids)-1]
	return id, true
}

// Contains reports whether id is in the pile.
func (p *Pile) Contains(id CardID) bool {
	return p.index(id) >= 0
}

// Remove takes id out of the pile wherever it sits.
func (p *Pile) Remove(id CardID) bool {
	i := p.index(id)
	if i < 0 {
		return false
	}
	p.ids = append(p.ids[:i], p.ids[i+1:]...)
	return true
}

// Clear empties the pile and returns what it held, bottom first.
func (p *Pile) Clear() []CardID {
	out := p.ids
	p.ids = nil
	return out
}

func (p *Pile) index(id CardID) int {
	for i, v := range p.ids {
		if v == id {
			return i
		}
	}
	return -1
}

// Riffle splits the pile near the middle and interleaves the halves, dropping
// from each half with probability proportional to its remaining size.
func (p *Pile) Riffle(rng *rand.Rand) {
	n := len(p.ids)
	if n < 2 {
		return
	}
	cut := n/2 + rng.Intn(n/4+1) - n/8
	if cut < 1 {
		cut = 1
	}
	if cut > n-1 {
		cut = n - 1
	}
	left := append([]CardID(nil), p.ids[:cut]...)
	right := append([]CardID(nil), p.ids[cut:]...)
	out := make([]CardID, 0, n)
	for len(left) > 0 || len(right) > 0 {
		if rng.Intn(len(left)+len(right)) < len(left) {
			out = append(out, left[0])
			left = left[1:]
		} else {
			out = append(out, right[0])
			right = right[1:]
		}
	}
	p.ids = out
	// a single riffle leaves long runs; finish with a uniform pass
	rng.Shuffle(n, func(i, j int) { p.ids[i], p.ids[j] = p.ids[j], p.ids[i] })
}

// Overhand moves random packets from the top of the pile onto a new pile.
func (p *Pile) Overhand(rng *rand.Rand) {
	n := len(p.ids)
	if n < 2 {
		return
	}
	src := append([]CardID(nil), p.ids...)
	out := make([]CardID, 0, n)
	for len(src) > 0 {
		k := 1 + rng.Intn(min(len(src), 6))
		packet := src[len(src)-k:]
		src = src[:len(src)-k]
		out = append(append([]CardID(nil), packet...), out...)
	}
	p.ids = out
	rng.Shuffle(n, func(i, j int) { p.ids[i], p.ids[j] = p.ids[j], p.ids[i] })
}

// Cut moves the top n cards to the bottom.
func (p *Pile) Cut(n int) error {
	if n <= 0 || n >= len(p.ids) {
		return fmt.Errorf("%w: cut %d of %d cards", ErrIllegalMove, n, len(p.ids))
	}
	k := len(p.ids) - n
	p.ids = append(append([]CardID(nil), p.ids[k:]...), p.ids[:k]...)
	return nil
}

// DealCard moves id from a pile into a player's hand face down.
func DealCard(a *Arena, from *Pile, id CardID, to *Player) error {
	if !from.Remove(id) {
		return fmt.Errorf("%w: card %d not in source pile", ErrInconsistent, id)
	}
	a.FaceDown(id)
	to.Hand.Push(id)
	return nil
}

// TakeCard moves id from a pile into a player's hand keeping its orientation.
func TakeCard(from *Pile, id CardID, to *Player) error {
	if !from.Remove(id) {
		return fmt.Errorf("%w: card %d not in source pile", ErrInconsistent, id)
	}
	to.Hand.Push(id)
	return nil
}

// Conserved checks that every card of the arena sits in exactly one pile.
func Conserved(a *Arena, piles ...*Pile) error {
	seen := make([]int, a.Size())
	total := 0
	for _, p := range piles {
		for _, id := range p.ids {
			if int(id) < 0 || int(id) >= len(seen) {
				return fmt.Errorf("%w: unknown card %d", ErrInconsistent, id)
			}
			seen[id]++
			total++
		}
	}
	if total != a.Size() {
		return fmt.Errorf("%w: %d cards accounted for, want %d", ErrInconsistent, total, a.Size())
	}
	for id, n := range seen {
		if n != 1 {
			return fmt.Errorf("%w: card %d appears %d times", ErrInconsistent, id, n)
		}
	}
	return nil
}
