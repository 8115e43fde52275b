package whist

import (
	"fmt"
	"math/rand"

	"tabletop/internal/domain"
)

// TrickResult describes a resolved trick.
type TrickResult struct {
	Stage  Stage
	Leader domain.Seat
	Winner domain.Seat
	Lead   domain.Card
	Follow domain.Card
	// WinnerDraw and LoserDraw are the draft cards taken from the draw pile.
	WinnerDraw *domain.Card
	LoserDraw  *domain.Card
	// NextPrize is the draw pile card turned face up for the next trick.
	NextPrize *domain.Card
	// StageComplete means the stage is over and NextStage must be called.
	StageComplete bool
}

// RoundScore is the outcome of a scored round, indexed by seat.
type RoundScore struct {
	Round  int
	Tricks [2]int
	Delta  [2]int
	Totals [2]int
}

// Match is a two-player whist match. Every card lives in the match arena and
// moves between the deck, the draw pile, the discard pile, the active trick
// and the players' hands and spoils. A Match is not safe for concurrent use.
type Match struct {
	rules   Rules
	rng     *rand.Rand
	arena   *domain.Arena
	players *domain.Players

	deck    domain.Pile
	draw    domain.Pile
	discard domain.Pile
	trick   domain.Pile

	stage     Stage
	round     int
	trump     domain.Suit
	trumpSet  bool
	dealer    domain.Seat
	dealerSet bool
	shuffles  int
	dealt     int
	tricks    int
	won       [2]int
	leader    domain.Seat
	done      bool
	last      *TrickResult
	scored    *RoundScore
	winner    domain.Seat
}

// NewMatch builds a match in the DEAL stage of round 1 with every card in the
// deck, face down.
func NewMatch(players *domain.Players, rules Rules, rng *rand.Rand) (*Match, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("whist match needs a random source")
	}
	cards, err := domain.NewDeck(rules.DeckSize)
	if err != nil {
		return nil, err
	}
	m := &Match{
		rules:   rules,
		rng:     rng,
		arena:   domain.NewArena(cards),
		players: players,
		stage:   StageDeal,
		round:   1,
	}
	for i := range cards {
		m.deck.Push(domain.CardID(i))
	}
	for _, p := range players.All() {
		p.Score = 0
		p.Hand.Clear()
		p.Spoils.Clear()
	}
	return m, nil
}

// Players returns the turn model of the match.
func (m *Match) Players() *domain.Players { return m.players }

// Rules returns the rules in force.
func (m *Match) Rules() Rules { return m.rules }

// Stage returns the current stage.
func (m *Match) Stage() Stage { return m.stage }

// Round returns the 1-based round number.
func (m *Match) Round() int { return m.round }

// Trump returns the trump suit once it has been set.
func (m *Match) Trump() (domain.Suit, bool) { return m.trump, m.trumpSet }

// Dealer returns the dealer once chosen.
func (m *Match) Dealer() (domain.Seat, bool) { return m.dealer, m.dealerSet }

// TurnHolder returns the seat expected to act.
func (m *Match) TurnHolder() domain.Seat { return m.players.TurnHolder() }

// Shuffles counts the shuffles of the deck this round.
func (m *Match) Shuffles() int { return m.shuffles }

// StageComplete reports whether the stage is over and awaits NextStage.
func (m *Match) StageComplete() bool { return m.done }

// Hand returns the cards held by seat in order.
func (m *Match) Hand(seat domain.Seat) []domain.Card {
	p := m.players.Get(seat)
	return m.arena.Cards(p.Hand.IDs())
}

// Spoils returns the duel cards won by seat.
func (m *Match) Spoils(seat domain.Seat) []domain.Card {
	p := m.players.Get(seat)
	return m.arena.Cards(p.Spoils.IDs())
}

// Trick returns the cards of the active trick, lead first.
func (m *Match) Trick() []domain.Card { return m.arena.Cards(m.trick.IDs()) }

// Prize returns the face-up top card of the draw pile.
func (m *Match) Prize() (domain.Card, bool) {
	id, ok := m.draw.Top()
	if !ok || !m.arena.FaceUp(id) {
		return domain.Card{}, false
	}
	return m.arena.Card(id), true
}

// PileSizes reports how many cards are in the deck, draw and discard piles.
func (m *Match) PileSizes() (deck, draw, discard int) {
	return m.deck.Len(), m.draw.Len(), m.discard.Len()
}

// TricksWon returns the tricks taken by seat in the current stage.
func (m *Match) TricksWon(seat domain.Seat) int { return m.won[seat] }

// LastTrick returns the most recently resolved trick of the round.
func (m *Match) LastTrick() (TrickResult, bool) {
	if m.last == nil {
		return TrickResult{}, false
	}
	return *m.last, true
}

// TrickWinner returns the winner of the most recently resolved trick.
func (m *Match) TrickWinner() (domain.Seat, bool) {
	if m.last == nil {
		return 0, false
	}
	return m.last.Winner, true
}

// LastRound returns the score of the most recently scored round.
func (m *Match) LastRound() (RoundScore, bool) {
	if m.scored == nil {
		return RoundScore{}, false
	}
	return *m.scored, true
}

// Winner returns the match winner once the match is over.
func (m *Match) Winner() (domain.Seat, bool) {
	if m.stage != StageMatchWon {
		return 0, false
	}
	return m.winner, true
}

// Conserved verifies that every card sits in exactly one pile or hand.
func (m *Match) Conserved() error {
	piles := []*domain.Pile{&m.deck, &m.draw, &m.discard, &m.trick}
	for _, p := range m.players.All() {
		piles = append(piles, &p.Hand, &p.Spoils)
	}
	return domain.Conserved(m.arena, piles...)
}

// CompareCards compares two cards under the round's trump.
func (m *Match) CompareCards(a, b domain.Card) (domain.Card, bool) {
	return CompareCards(a, b, m.trump, m.trumpSet)
}

func (m *Match) requireStage(stages ...Stage) error {
	for _, s := range stages {
		if m.stage == s {
			return nil
		}
	}
	return fmt.Errorf("%w: not allowed during %s", domain.ErrIllegalState, m.stage)
}
