package bot

import (
	"errors"

	"tabletop/internal/domain"
	"tabletop/internal/domain/checkers"
	"tabletop/internal/domain/whist"
)

// ErrNoLegalMove is returned when the seat has nothing it may play.
var ErrNoLegalMove = errors.New("no legal move available")

// CheckerMove is a single checkers step or jump chosen by a bot.
type CheckerMove struct {
	From checkers.Pos
	To   checkers.Pos
}

// Brain is the interface that all bot strategies must implement.
type Brain interface {
	ChooseMove(m *checkers.Match, seat domain.Seat) (CheckerMove, error)
	ChooseCard(m *whist.Match, seat domain.Seat) (domain.Card, error)
}

// LegalMoves lists every move seat may make right now, piece by piece in
// board order.
func LegalMoves(m *checkers.Match, seat domain.Seat) []CheckerMove {
	if m.TurnHolder() != seat {
		return nil
	}
	var moves []CheckerMove
	for _, from := range m.Pieces(seat) {
		for _, to := range m.ValidMoves(from) {
			moves = append(moves, CheckerMove{From: from, To: to})
		}
	}
	return moves
}
