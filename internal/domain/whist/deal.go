package whist

import (
	"fmt"

	"tabletop/internal/domain"
)

const maxDealerDraws = 16

// DealerDraw records the cards that decided the dealer.
type DealerDraw struct {
	Cards    [2]domain.Card
	Dealer   domain.Seat
	Attempts int
}

// DrawForDealer has each seat draw one card from the shuffled deck. The higher
// card deals and the other seat leads the first trick. Both cards go back on
// the deck; identical cards force a fresh draw.
func (m *Match) DrawForDealer() (DealerDraw, error) {
	if err := m.requireStage(StageDeal); err != nil {
		return DealerDraw{}, err
	}
	if m.dealerSet || m.dealt > 0 {
		return DealerDraw{}, fmt.Errorf("%w: dealer already chosen", domain.ErrIllegalState)
	}
	for attempt := 1; attempt <= maxDealerDraws; attempt++ {
		m.deck.Riffle(m.rng)
		first, _ := m.deck.Pop()
		second, _ := m.deck.Pop()
		m.deck.Push(second)
		m.deck.Push(first)

		draw := DealerDraw{Cards: [2]domain.Card{m.arena.Card(first), m.arena.Card(second)}, Attempts: attempt}
		dealer, ok := ResolveDealerDraw(draw.Cards[0], draw.Cards[1])
		if !ok {
			continue
		}
		draw.Dealer = dealer
		m.setDealer(dealer)
		return draw, nil
	}
	return DealerDraw{}, fmt.Errorf("%w: no dealer after %d draws", domain.ErrInconsistent, maxDealerDraws)
}

// SetDealer assigns the dealer directly, e.g. when restoring a match.
func (m *Match) SetDealer(seat domain.Seat) error {
	if err := m.requireStage(StageDeal); err != nil {
		return err
	}
	if m.dealt > 0 {
		return fmt.Errorf("%w: dealing has started", domain.ErrIllegalState)
	}
	if !seat.Valid() {
		return fmt.Errorf("%w: unknown %s", domain.ErrIllegalMove, seat)
	}
	m.setDealer(seat)
	return nil
}

func (m *Match) setDealer(seat domain.Seat) {
	m.dealer = seat
	m.dealerSet = true
	m.players.SetTurnHolder(seat.Other())
}

// ShuffleRiffle riffles the deck; it counts towards the minimum shuffles.
func (m *Match) ShuffleRiffle() error {
	if err := m.beforeDealing(); err != nil {
		return err
	}
	m.deck.Riffle(m.rng)
	m.shuffles++
	return nil
}

// ShuffleOverhand shuffles the deck by packets; it counts towards the minimum shuffles.
func (m *Match) ShuffleOverhand() error {
	if err := m.beforeDealing(); err != nil {
		return err
	}
	m.deck.Overhand(m.rng)
	m.shuffles++
	return nil
}

// Cut moves the top n cards of the deck to the bottom.
func (m *Match) Cut(n int) error {
	if err := m.beforeDealing(); err != nil {
		return err
	}
	return m.deck.Cut(n)
}

func (m *Match) beforeDealing() error {
	if err := m.requireStage(StageDeal); err != nil {
		return err
	}
	if m.dealt > 0 {
		return fmt.Errorf("%w: dealing has started", domain.ErrIllegalState)
	}
	return nil
}

// ShuffledEnough reports whether the minimum shuffle count is met.
func (m *Match) ShuffledEnough() bool { return m.shuffles >= m.rules.MinShuffles }

// DealCard deals the top card of the deck to the next seat in turn, starting
// with the non-dealer and alternating.
func (m *Match) DealCard() (domain.Seat, domain.Card, error) {
	if err := m.requireStage(StageDeal); err != nil {
		return 0, domain.Card{}, err
	}
	if !m.dealerSet {
		return 0, domain.Card{}, fmt.Errorf("%w: no dealer chosen", domain.ErrIllegalState)
	}
	if m.dealt == 0 && m.rules.EnforceShuffles && !m.ShuffledEnough() {
		return 0, domain.Card{}, fmt.Errorf("%w: deck shuffled %d of %d times", domain.ErrIllegalState, m.shuffles, m.rules.MinShuffles)
	}
	if m.dealingDone() {
		return 0, domain.Card{}, fmt.Errorf("%w: every hand is full", domain.ErrIllegalState)
	}
	id, ok := m.deck.Top()
	if !ok {
		return 0, domain.Card{}, fmt.Errorf("%w: deck ran out while dealing", domain.ErrInconsistent)
	}
	seat := m.dealer.Other()
	if m.dealt%2 == 1 {
		seat = m.dealer
	}
	if err := domain.DealCard(m.arena, &m.deck, id, m.players.Get(seat)); err != nil {
		return 0, domain.Card{}, err
	}
	m.dealt++
	return seat, m.arena.Card(id), nil
}

// Deal deals every remaining card of both hands.
func (m *Match) Deal() error {
	for !m.dealingDone() {
		if _, _, err := m.DealCard(); err != nil {
			return err
		}
	}
	return nil
}

func (m *Match) dealingDone() bool { return m.dealt >= 2*m.rules.HandSize() }

// RevealTrump moves the rest of the deck onto the draw pile and turns its top
// card face up; that card's suit is trump for the round.
func (m *Match) RevealTrump() (domain.Card, error) {
	if err := m.requireStage(StageDeal); err != nil {
		return domain.Card{}, err
	}
	if !m.dealingDone() {
		return domain.Card{}, fmt.Errorf("%w: dealing is not finished", domain.ErrIllegalState)
	}
	if m.draw.Len() > 0 {
		return domain.Card{}, fmt.Errorf("%w: trump already revealed", domain.ErrIllegalState)
	}
	m.seedDrawPile()
	id, ok := m.draw.Top()
	if !ok {
		return domain.Card{}, fmt.Errorf("%w: nothing left to reveal", domain.ErrInconsistent)
	}
	m.arena.Flip(id)
	card := m.arena.Card(id)
	m.trump = card.Suit
	m.trumpSet = true
	return card, nil
}

// SetTrump declares the trump suit for the round without a reveal. It is
// refused once RevealTrump has turned a card up.
func (m *Match) SetTrump(suit domain.Suit) error {
	if err := m.requireStage(StageDeal); err != nil {
		return err
	}
	if suit < domain.Clubs || suit > domain.Spades {
		return fmt.Errorf("%w: unknown suit %d", domain.ErrIllegalMove, suit)
	}
	if m.draw.Len() > 0 {
		return fmt.Errorf("%w: trump already revealed", domain.ErrIllegalState)
	}
	m.trump = suit
	m.trumpSet = true
	return nil
}

func (m *Match) seedDrawPile() {
	for _, id := range m.deck.Clear() {
		m.draw.Push(id)
	}
}
