package app

import (
	"tabletop/internal/domain"
	"tabletop/internal/domain/checkers"
	"tabletop/internal/domain/whist"
)

// Table is one running game of either kind together with how it ended.
// Exactly one of Checkers and Whist is set.
type Table struct {
	Game     Game
	Checkers *checkers.Match
	Whist    *whist.Match

	players *domain.Players
	ended   bool
	winner  string
	reason  EndReason
}

// PlayerIDs returns the user ids in seat order.
func (t *Table) PlayerIDs() []string {
	out := make([]string, 0, PlayersPerGame)
	for _, p := range t.players.All() {
		out = append(out, p.UserID)
	}
	return out
}

// TurnHolder returns the user id expected to act, or "" once the game ended.
func (t *Table) TurnHolder() string {
	if t.ended {
		return ""
	}
	return t.players.Get(t.players.TurnHolder()).UserID
}

// Ended reports whether the game is over.
func (t *Table) Ended() bool { return t.ended }

// Winner returns the winning user id once the game is over.
func (t *Table) Winner() (string, EndReason, bool) {
	return t.winner, t.reason, t.ended
}

// Hand returns the whist hand of userID; checkers tables have none.
func (t *Table) Hand(userID string) []domain.Card {
	seat, ok := t.players.SeatOf(userID)
	if !ok || t.Whist == nil {
		return nil
	}
	return t.Whist.Hand(seat)
}

// Scores reports checkers left on the board or running whist totals.
func (t *Table) Scores() map[string]int {
	out := make(map[string]int, PlayersPerGame)
	for _, p := range t.players.All() {
		switch t.Game {
		case GameCheckers:
			out[p.UserID] = len(t.Checkers.Pieces(p.Seat))
		case GameWhist:
			out[p.UserID] = p.Score
		}
	}
	return out
}

func (t *Table) userAt(seat domain.Seat) string { return t.players.Get(seat).UserID }

func (t *Table) bySeat(v [2]int) map[string]int {
	out := make(map[string]int, PlayersPerGame)
	for _, p := range t.players.All() {
		out[p.UserID] = v[p.Seat]
	}
	return out
}
