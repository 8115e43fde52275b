package domain

import "fmt"

// Suit is a card suit. The declaration order is the tie-break order used when
// two cards of equal rank are compared: Clubs < Diamonds < Hearts < Spades.
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// Suits lists every suit in tie-break order.
var Suits = []Suit{Clubs, Diamonds, Hearts, Spades}

// String returns the single-letter wire code ("C","D","H","S").
func (s Suit) String() string {
	switch s {
	case Clubs:
		return "C"
	case Diamonds:
		return "D"
	case Hearts:
		return "H"
	case Spades:
		return "S"
	default:
		return "?"
	}
}

// ParseSuit converts a wire code back into a Suit.
func ParseSuit(code string) (Suit, error) {
	switch code {
	case "C":
		return Clubs, nil
	case "D":
		return Diamonds, nil
	case "H":
		return Hearts, nil
	case "S":
		return Spades, nil
	default:
		return 0, fmt.Errorf("unknown suit %q", code)
	}
}

// Rank is a card rank 1..13 where 1 is the Ace.
type Rank int

const (
	Ace   Rank = 1
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

// Power orders ranks for trick comparison: the Ace outranks the King.
func (r Rank) Power() int {
	if r == Ace {
		return 14
	}
	return int(r)
}

// Valid reports whether r is within 1..13.
func (r Rank) Valid() bool { return r >= Ace && r <= King }

func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		return fmt.Sprintf("%d", int(r))
	}
}

// Card is a single playing card. Face orientation is tracked per physical
// card by the Arena, not by the value.
type Card struct {
	Suit Suit
	Rank Rank
}

func (c Card) String() string { return c.Rank.String() + c.Suit.String() }

// Beats reports whether c outranks o, breaking rank ties by suit order.
func (c Card) Beats(o Card) bool {
	if c.Rank.Power() != o.Rank.Power() {
		return c.Rank.Power() > o.Rank.Power()
	}
	return c.Suit > o.Suit
}

// NewDeck returns size cards, the size/4 highest ranks of each suit, in a
// fixed order. A 52-card deck holds every rank.
func NewDeck(size int) ([]Card, error) {
	if size < 4 || size > 52 || size%4 != 0 {
		return nil, fmt.Errorf("deck size %d must be a multiple of 4 between 4 and 52", size)
	}
	perSuit := size / 4
	ranks := make([]Rank, 0, perSuit)
	ranks = append(ranks, Ace)
	for r := King; len(ranks) < perSuit; r-- {
		ranks = append(ranks, r)
	}
	deck := make([]Card, 0, size)
	for _, s := range Suits {
		for _, r := range ranks {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck, nil
}
