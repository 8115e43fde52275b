package domain

import (
	"errors"
	"math/rand"
	"sort"
	"testing"
)

func newTestPile(n int) Pile {
	ids := make([]CardID, n)
	for i := range ids {
		ids[i] = CardID(i)
	}
	return NewPile(ids...)
}

func sortedIDs(p *Pile) []CardID {
	ids := p.IDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func TestPilePermutationsConserveCards(t *testing.T) {
	tests := []struct {
		name string
		op   func(p *Pile, rng *rand.Rand)
	}{
		{name: "riffle", op: func(p *Pile, rng *rand.Rand) { p.Riffle(rng) }},
		{name: "overhand", op: func(p *Pile, rng *rand.Rand) { p.Overhand(rng) }},
		{name: "cut", op: func(p *Pile, rng *rand.Rand) { _ = p.Cut(1 + rng.Intn(p.Len()-1)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(7))
			p := newTestPile(52)
			for i := 0; i < 20; i++ {
				tt.op(&p, rng)
				if p.Len() != 52 {
					t.Fatalf("len = %d after %s, want 52", p.Len(), tt.name)
				}
				got := sortedIDs(&p)
				for j, id := range got {
					if id != CardID(j) {
						t.Fatalf("card %d missing or duplicated after %s", j, tt.name)
					}
				}
			}
		})
	}
}

func TestPileCut(t *testing.T) {
	p := NewPile(0, 1, 2, 3, 4)
	if err := p.Cut(2); err != nil {
		t.Fatalf("cut: %v", err)
	}
	want := []CardID{3, 4, 0, 1, 2}
	got := p.IDs()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cut order = %v, want %v", got, want)
		}
	}

	for _, n := range []int{0, 5, -1} {
		if err := p.Cut(n); !errors.Is(err, ErrIllegalMove) {
			t.Fatalf("Cut(%d) error = %v, want ErrIllegalMove", n, err)
		}
	}
}

func TestPileStackOperations(t *testing.T) {
	var p Pile
	if _, ok := p.Pop(); ok {
		t.Fatalf("pop on empty pile succeeded")
	}
	p.Push(4)
	p.Push(9)
	if top, _ := p.Top(); top != 9 {
		t.Fatalf("top = %d, want 9", top)
	}
	if id, _ := p.Pop(); id != 9 || p.Len() != 1 {
		t.Fatalf("pop = %d len %d, want 9 len 1", id, p.Len())
	}
	if !p.Remove(4) || p.Len() != 0 {
		t.Fatalf("remove failed")
	}
	if p.Remove(4) {
		t.Fatalf("removing a missing card succeeded")
	}
}

func TestDealAndTakeCard(t *testing.T) {
	deck, err := NewDeck(8)
	if err != nil {
		t.Fatalf("deck: %v", err)
	}
	arena := NewArena(deck)
	src := newTestPile(8)
	player := &Player{UserID: "p1"}

	arena.Flip(7)
	if err := DealCard(arena, &src, 7, player); err != nil {
		t.Fatalf("deal: %v", err)
	}
	if arena.FaceUp(7) {
		t.Fatalf("dealt card should be face down")
	}

	arena.Flip(6)
	if err := TakeCard(&src, 6, player); err != nil {
		t.Fatalf("take: %v", err)
	}
	if !arena.FaceUp(6) {
		t.Fatalf("taken card should keep its orientation")
	}

	if err := TakeCard(&src, 6, player); !errors.Is(err, ErrInconsistent) {
		t.Fatalf("taking a card twice: err = %v, want ErrInconsistent", err)
	}
	if err := Conserved(arena, &src, &player.Hand); err != nil {
		t.Fatalf("conserved: %v", err)
	}
}

func TestConservedDetectsDuplicatesAndLoss(t *testing.T) {
	deck, _ := NewDeck(4)
	arena := NewArena(deck)

	lost := NewPile(0, 1, 2)
	if err := Conserved(arena, &lost); !errors.Is(err, ErrInconsistent) {
		t.Fatalf("lost card: err = %v, want ErrInconsistent", err)
	}

	a := NewPile(0, 1)
	b := NewPile(1, 2)
	if err := Conserved(arena, &a, &b); !errors.Is(err, ErrInconsistent) {
		t.Fatalf("duplicated card: err = %v, want ErrInconsistent", err)
	}
}

func TestNewDeck(t *testing.T) {
	deck, err := NewDeck(52)
	if err != nil {
		t.Fatalf("deck: %v", err)
	}
	seen := make(map[Card]bool)
	for _, c := range deck {
		if seen[c] {
			t.Fatalf("duplicate card %s", c)
		}
		if !c.Rank.Valid() {
			t.Fatalf("rank out of range: %d", c.Rank)
		}
		seen[c] = true
	}
	if len(seen) != 52 {
		t.Fatalf("deck size = %d, want 52", len(seen))
	}

	small, err := NewDeck(8)
	if err != nil {
		t.Fatalf("small deck: %v", err)
	}
	for _, c := range small {
		if c.Rank != Ace && c.Rank != King {
			t.Fatalf("8-card deck should hold aces and kings, got %s", c)
		}
	}

	for _, size := range []int{0, 6, 56} {
		if _, err := NewDeck(size); err == nil {
			t.Fatalf("NewDeck(%d) should fail", size)
		}
	}
}

func TestCardBeats(t *testing.T) {
	tests := []struct {
		name string
		a, b Card
		want bool
	}{
		{name: "ace over king", a: Card{Hearts, Ace}, b: Card{Hearts, King}, want: true},
		{name: "king under ace", a: Card{Hearts, King}, b: Card{Hearts, Ace}, want: false},
		{name: "spades breaks rank tie", a: Card{Spades, 7}, b: Card{Hearts, 7}, want: true},
		{name: "clubs loses rank tie", a: Card{Clubs, 7}, b: Card{Diamonds, 7}, want: false},
		{name: "rank beats suit", a: Card{Clubs, 8}, b: Card{Spades, 7}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Beats(tt.b); got != tt.want {
				t.Fatalf("%s.Beats(%s) = %t, want %t", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestPlayersTurnModel(t *testing.T) {
	ps, err := NewPlayers([]string{"a", "b"})
	if err != nil {
		t.Fatalf("players: %v", err)
	}
	if ps.TurnHolder() != SeatOne {
		t.Fatalf("first seat should hold the turn")
	}
	ps.SetTurnHolder(ps.Other(ps.TurnHolder()))
	if ps.TurnHolder() != SeatTwo {
		t.Fatalf("turn holder = %v, want seat two", ps.TurnHolder())
	}
	if seat, ok := ps.SeatOf("b"); !ok || seat != SeatTwo {
		t.Fatalf("SeatOf(b) = %v %t", seat, ok)
	}
	if _, err := NewPlayers([]string{"a"}); err == nil {
		t.Fatalf("one player should be rejected")
	}
	if _, err := NewPlayers([]string{"a", "a"}); err == nil {
		t.Fatalf("same user in both seats should be rejected")
	}
}
