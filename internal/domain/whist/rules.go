package whist

import (
	"fmt"

	"tabletop/internal/domain"
)

// Stage is the lifecycle position of a whist match.
type Stage string

const (
	// StageDeal covers dealer selection, shuffling, dealing and the trump reveal.
	StageDeal Stage = "deal"
	// StageDraft plays tricks for the cards of the draw pile.
	StageDraft Stage = "draft"
	// StageDuel plays the scoring tricks.
	StageDuel Stage = "duel"
	// StageRoundWon follows a scored round that did not decide the match.
	StageRoundWon Stage = "round_won"
	// StageMatchWon is terminal.
	StageMatchWon Stage = "match_won"
)

// Rules parameterize a whist match.
type Rules struct {
	// DeckSize is the number of cards in play; each player is dealt DeckSize/4.
	DeckSize int
	// MinShuffles is how many shuffles the deck needs before dealing.
	MinShuffles int
	// EnforceShuffles makes MinShuffles blocking; otherwise it is advisory.
	EnforceShuffles bool
	// TargetScore ends the match once a running total reaches it.
	TargetScore int
	// LoserDraws lets the loser of a draft trick take the next card of the
	// draw pile so that both hands stay full for the duel.
	LoserDraws bool
}

// DefaultRules is a 52-card game to 6 points with three blocking shuffles.
func DefaultRules() Rules {
	return Rules{
		DeckSize:        52,
		MinShuffles:     3,
		EnforceShuffles: true,
		TargetScore:     6,
		LoserDraws:      true,
	}
}

// Validate checks that the rules describe a playable game.
func (r Rules) Validate() error {
	if r.DeckSize < 8 || r.DeckSize > 52 || r.DeckSize%4 != 0 {
		return fmt.Errorf("deck size %d must be a multiple of 4 between 8 and 52", r.DeckSize)
	}
	if r.MinShuffles < 0 {
		return fmt.Errorf("min shuffles %d must not be negative", r.MinShuffles)
	}
	if r.TargetScore <= 0 {
		return fmt.Errorf("target score %d must be positive", r.TargetScore)
	}
	return nil
}

// HandSize is the number of cards dealt to each player.
func (r Rules) HandSize() int { return r.DeckSize / 4 }

// Baseline is subtracted from the duel tricks won to get a round score.
func (r Rules) Baseline() int { return r.HandSize() / 2 }

// ResolveDealerDraw decides the dealer from the cards drawn by the first and
// second seat: the higher card deals, equal ranks fall back to suit order. ok
// is false when both cards are identical and the draw must be repeated.
func ResolveDealerDraw(first, second domain.Card) (dealer domain.Seat, ok bool) {
	switch {
	case first.Beats(second):
		return domain.SeatOne, true
	case second.Beats(first):
		return domain.SeatTwo, true
	default:
		return 0, false
	}
}

// CompareCards returns the card that wins when a and b meet under trump. ok is
// false when neither card is trump and the suits differ; the led card then
// keeps the trick.
func CompareCards(a, b domain.Card, trump domain.Suit, trumpSet bool) (domain.Card, bool) {
	aTrump := trumpSet && a.Suit == trump
	bTrump := trumpSet && b.Suit == trump
	switch {
	case aTrump && !bTrump:
		return a, true
	case bTrump && !aTrump:
		return b, true
	case a.Suit != b.Suit:
		return domain.Card{}, false
	case a.Rank.Power() > b.Rank.Power():
		return a, true
	case b.Rank.Power() > a.Rank.Power():
		return b, true
	default:
		return domain.Card{}, false
	}
}

// followerWins reports whether the second card of a trick takes it.
func followerWins(lead, follow domain.Card, trump domain.Suit, trumpSet bool) bool {
	c, ok := CompareCards(lead, follow, trump, trumpSet)
	return ok && c == follow && c != lead
}
