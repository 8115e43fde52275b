package checkers

import (
	"fmt"

	"tabletop/internal/domain"
)

// Rules are the configurable rule choices of a checkers match.
type Rules struct {
	// MandatoryCapture restricts a player to capturing moves whenever any of
	// their checkers can capture.
	MandatoryCapture bool
	// CrownEndsTurn stops a capture chain when the capturing man is crowned.
	CrownEndsTurn bool
}

// DefaultRules matches casual play: captures are optional and crowning ends the move.
func DefaultRules() Rules {
	return Rules{MandatoryCapture: false, CrownEndsTurn: true}
}

// AwaitKind tags what the match is waiting for.
type AwaitKind int

const (
	// AwaitMove waits for the turn holder to pick any legal move.
	AwaitMove AwaitKind = iota
	// AwaitContinuation waits for the same checker to keep capturing.
	AwaitContinuation
	// AwaitTurnEnd waits for EndTurn after a completed move.
	AwaitTurnEnd
	// Finished means a winner is known; no further moves are accepted.
	Finished
)

func (k AwaitKind) String() string {
	switch k {
	case AwaitMove:
		return "await_move"
	case AwaitContinuation:
		return "await_continuation"
	case AwaitTurnEnd:
		return "await_turn_end"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Awaiting is the tagged sub-state of the match. Piece and Jumps are only
// meaningful for AwaitContinuation.
type Awaiting struct {
	Kind  AwaitKind
	Piece Pos
	Jumps []Pos
}

// MoveResult describes an applied move. A non-empty Continuation means the
// same player must keep capturing with the checker now on To.
type MoveResult struct {
	From         Pos
	To           Pos
	Captured     *Pos
	Promoted     bool
	Continuation []Pos
}

// Match is one game of checkers between two seats. The first seat plays White
// and moves first. A Match is not safe for concurrent use.
type Match struct {
	players  *domain.Players
	board    Board
	rules    Rules
	awaiting Awaiting
	winner   domain.Seat
}

// NewMatch starts a match on the standard opening board.
func NewMatch(players *domain.Players, rules Rules) *Match {
	return NewMatchFromBoard(players, rules, NewBoard())
}

// NewMatchFromBoard starts a match on an arbitrary position with the turn
// held by players.TurnHolder().
func NewMatchFromBoard(players *domain.Players, rules Rules, board Board) *Match {
	m := &Match{players: players, board: board, rules: rules}
	m.settle(players.TurnHolder())
	return m
}

// Players returns the turn model of the match.
func (m *Match) Players() *domain.Players { return m.players }

// Rules returns the rule choices in force.
func (m *Match) Rules() Rules { return m.rules }

// TurnHolder returns the seat to move.
func (m *Match) TurnHolder() domain.Seat { return m.players.TurnHolder() }

// Awaiting returns a copy of the current sub-state.
func (m *Match) Awaiting() Awaiting {
	a := m.awaiting
	a.Jumps = append([]Pos(nil), a.Jumps...)
	return a
}

// Board returns every live checker.
func (m *Match) Board() []Checker { return m.board.Checkers() }

// At returns the checker on p, if any.
func (m *Match) At(p Pos) (Checker, bool) { return m.board.At(p) }

// Pieces returns the squares held by seat.
func (m *Match) Pieces(seat domain.Seat) []Pos {
	colour := ColourOf(seat)
	var out []Pos
	for _, c := range m.board.Checkers() {
		if c.Colour == colour {
			out = append(out, c.Pos)
		}
	}
	return out
}

// ValidMoves returns the destinations of the checker on p. During a capture
// chain only the continuing checker has destinations.
func (m *Match) ValidMoves(p Pos) []Pos {
	c, ok := m.board.At(p)
	if !ok {
		return nil
	}
	switch m.awaiting.Kind {
	case Finished, AwaitTurnEnd:
		return nil
	case AwaitContinuation:
		if p != m.awaiting.Piece {
			return nil
		}
		return append([]Pos(nil), m.awaiting.Jumps...)
	}
	jumps := m.board.jumps(c)
	if m.rules.MandatoryCapture && m.board.canCapture(c.Colour) {
		return jumps
	}
	return append(m.board.steps(c), jumps...)
}

// MakeMove moves the checker on from to the destination. A capture removes
// the jumped checker and, unless the chain is over, returns the further
// capture destinations from the landing square; the turn then stays with
// seat. An empty continuation leaves the match awaiting EndTurn.
func (m *Match) MakeMove(seat domain.Seat, from Pos, to Pos) (MoveResult, error) {
	switch m.awaiting.Kind {
	case Finished:
		return MoveResult{}, fmt.Errorf("%w: match is over", domain.ErrIllegalState)
	case AwaitTurnEnd:
		return MoveResult{}, fmt.Errorf("%w: turn complete, end it first", domain.ErrIllegalState)
	}
	if seat != m.players.TurnHolder() {
		return MoveResult{}, fmt.Errorf("%w: %s does not hold the turn", domain.ErrIllegalMove, seat)
	}
	c, ok := m.board.At(from)
	if !ok || c.Colour != ColourOf(seat) {
		return MoveResult{}, fmt.Errorf("%w: %s has no checker on %s", domain.ErrIllegalMove, seat, from)
	}
	if !containsPos(m.ValidMoves(from), to) {
		return MoveResult{}, fmt.Errorf("%w: %s cannot move to %s", domain.ErrIllegalMove, from, to)
	}

	res := MoveResult{From: from, To: to}
	m.board.clear(from)
	if IsJump(from, to) {
		over := Pos{Col: (from.Col + to.Col) / 2, Row: (from.Row + to.Row) / 2}
		m.board.clear(over)
		res.Captured = &over
	}
	c.Pos = to
	if !c.Promoted && to.Row == c.Colour.CrownRow() {
		c.Promoted = true
		res.Promoted = true
	}
	m.board.put(c)

	if m.board.Count(ColourOf(seat.Other())) == 0 {
		m.winner = seat
		m.awaiting = Awaiting{Kind: Finished}
		return res, nil
	}
	if res.Captured != nil && !(res.Promoted && m.rules.CrownEndsTurn) {
		res.Continuation = m.board.jumps(c)
	}
	if len(res.Continuation) > 0 {
		m.awaiting = Awaiting{Kind: AwaitContinuation, Piece: to, Jumps: append([]Pos(nil), res.Continuation...)}
	} else {
		m.awaiting = Awaiting{Kind: AwaitTurnEnd}
	}
	return res, nil
}

// EndTurn passes the turn to the opponent once a move is complete.
func (m *Match) EndTurn() error {
	if m.awaiting.Kind != AwaitTurnEnd {
		return fmt.Errorf("%w: cannot end turn while %s", domain.ErrIllegalState, m.awaiting.Kind)
	}
	next := m.players.Other(m.players.TurnHolder())
	m.players.SetTurnHolder(next)
	m.settle(next)
	return nil
}

// Forfeit concedes the match for seat, e.g. on resignation or when blocked.
func (m *Match) Forfeit(seat domain.Seat) error {
	if m.awaiting.Kind == Finished {
		return fmt.Errorf("%w: match is over", domain.ErrIllegalState)
	}
	m.winner = seat.Other()
	m.awaiting = Awaiting{Kind: Finished}
	return nil
}

// GameWon reports whether seat has taken every opposing checker.
func (m *Match) GameWon(seat domain.Seat) bool {
	return m.board.Count(ColourOf(seat.Other())) == 0
}

// Winner returns the winning seat once the match is finished.
func (m *Match) Winner() (domain.Seat, bool) {
	if m.awaiting.Kind != Finished {
		return 0, false
	}
	return m.winner, true
}

// Blocked reports whether seat has no legal move at all.
func (m *Match) Blocked(seat domain.Seat) bool {
	for _, p := range m.Pieces(seat) {
		if len(m.ValidMoves(p)) > 0 {
			return false
		}
	}
	return true
}

// settle resets the sub-state for a fresh turn of seat.
func (m *Match) settle(seat domain.Seat) {
	switch {
	case m.GameWon(seat.Other()):
		m.winner = seat.Other()
		m.awaiting = Awaiting{Kind: Finished}
	case m.GameWon(seat):
		m.winner = seat
		m.awaiting = Awaiting{Kind: Finished}
	default:
		m.awaiting = Awaiting{Kind: AwaitMove}
	}
}

func containsPos(ps []Pos, p Pos) bool {
	for _, v := range ps {
		if v == p {
			return true
		}
	}
	return false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
