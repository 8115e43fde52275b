package bot

import (
	"math/rand"

	"tabletop/internal/domain"
	"tabletop/internal/domain/checkers"
	"tabletop/internal/domain/whist"
)

// RandomBot picks uniformly among the legal options.
type RandomBot struct {
	rng *rand.Rand
}

func (b *RandomBot) ChooseMove(m *checkers.Match, seat domain.Seat) (CheckerMove, error) {
	moves := LegalMoves(m, seat)
	if len(moves) == 0 {
		return CheckerMove{}, ErrNoLegalMove
	}
	return moves[b.rng.Intn(len(moves))], nil
}

func (b *RandomBot) ChooseCard(m *whist.Match, seat domain.Seat) (domain.Card, error) {
	if m.TurnHolder() != seat {
		return domain.Card{}, ErrNoLegalMove
	}
	cards := m.PlayableCards(seat)
	if len(cards) == 0 {
		return domain.Card{}, ErrNoLegalMove
	}
	return cards[b.rng.Intn(len(cards))], nil
}

// GreedyBot is deterministic. In checkers it prefers captures, then crowning,
// then advancing. In whist it wins a trick as cheaply as it can and otherwise
// throws its lowest card, keeping trumps back.
type GreedyBot struct{}

func (b *GreedyBot) ChooseMove(m *checkers.Match, seat domain.Seat) (CheckerMove, error) {
	moves := LegalMoves(m, seat)
	if len(moves) == 0 {
		return CheckerMove{}, ErrNoLegalMove
	}
	best, bestScore := moves[0], -1
	for _, mv := range moves {
		if s := scoreMove(m, mv); s > bestScore {
			best, bestScore = mv, s
		}
	}
	return best, nil
}

func scoreMove(m *checkers.Match, mv CheckerMove) int {
	c, _ := m.At(mv.From)
	score := 0
	if checkers.IsJump(mv.From, mv.To) {
		score += 100
	}
	if !c.Promoted && mv.To.Row == c.Colour.CrownRow() {
		score += 50
	}
	if !c.Promoted {
		// progress towards the crown row
		if c.Colour == checkers.White {
			score += mv.To.Row
		} else {
			score += checkers.Size + 1 - mv.To.Row
		}
	}
	return score
}

func (b *GreedyBot) ChooseCard(m *whist.Match, seat domain.Seat) (domain.Card, error) {
	if m.TurnHolder() != seat {
		return domain.Card{}, ErrNoLegalMove
	}
	cards := m.PlayableCards(seat)
	if len(cards) == 0 {
		return domain.Card{}, ErrNoLegalMove
	}
	trump, trumpSet := m.Trump()
	isTrump := func(c domain.Card) bool { return trumpSet && c.Suit == trump }
	// cheaper orders non-trumps before trumps, then by rank power.
	cheaper := func(a, b domain.Card) bool {
		if isTrump(a) != isTrump(b) {
			return !isTrump(a)
		}
		return a.Rank.Power() < b.Rank.Power()
	}

	trick := m.Trick()
	if len(trick) == 0 {
		// lead the strongest plain card, or the weakest trump when only trumps remain
		var lead *domain.Card
		for i := range cards {
			if isTrump(cards[i]) {
				continue
			}
			if lead == nil || cards[i].Rank.Power() > lead.Rank.Power() {
				lead = &cards[i]
			}
		}
		if lead == nil {
			lead = &cards[0]
			for i := range cards {
				if cheaper(cards[i], *lead) {
					lead = &cards[i]
				}
			}
		}
		return *lead, nil
	}

	var win, low *domain.Card
	for i := range cards {
		c := cards[i]
		if w, ok := whist.CompareCards(trick[0], c, trump, trumpSet); ok && w == c && c != trick[0] {
			if win == nil || cheaper(c, *win) {
				win = &cards[i]
			}
		}
		if low == nil || cheaper(c, *low) {
			low = &cards[i]
		}
	}
	if win != nil {
		return *win, nil
	}
	return *low, nil
}
