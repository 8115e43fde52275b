package domain

import "fmt"

// Seat identifies one of the two players of a match.
type Seat int

const (
	SeatOne Seat = 0
	SeatTwo Seat = 1
)

// Other returns the opposing seat.
func (s Seat) Other() Seat { return 1 - s }

// Valid reports whether s is one of the two seats.
func (s Seat) Valid() bool { return s == SeatOne || s == SeatTwo }

func (s Seat) String() string { return fmt.Sprintf("seat%d", int(s)+1) }

// Player holds the domain state for a participant in a match.
type Player struct {
	UserID string
	Name   string
	Seat   Seat
	Score  int
	Hand   Pile
	Spoils Pile
}

// Players is the turn model shared by every engine: exactly two players and
// the seat currently holding the turn. It performs no validation.
type Players struct {
	seats [2]*Player
	turn  Seat
}

// NewPlayers seats two users; the first holds the turn.
func NewPlayers(userIDs []string) (*Players, error) {
	if len(userIDs) != 2 {
		return nil, fmt.Errorf("a match needs exactly 2 players, got %d", len(userIDs))
	}
	if userIDs[0] == userIDs[1] {
		return nil, fmt.Errorf("player %q cannot take both seats", userIDs[0])
	}
	ps := &Players{}
	for i, id := range userIDs {
		ps.seats[i] = &Player{UserID: id, Name: id, Seat: Seat(i)}
	}
	return ps, nil
}

// Get returns the player at seat.
func (ps *Players) Get(seat Seat) *Player { return ps.seats[seat] }

// All returns both players in seat order.
func (ps *Players) All() []*Player { return []*Player{ps.seats[0], ps.seats[1]} }

// SeatOf finds the seat of userID.
func (ps *Players) SeatOf(userID string) (Seat, bool) {
	for i, p := range ps.seats {
		if p.UserID == userID {
			return Seat(i), true
		}
	}
	return 0, false
}

// TurnHolder returns the seat whose turn it is.
func (ps *Players) TurnHolder() Seat { return ps.turn }

// SetTurnHolder hands the turn to seat.
func (ps *Players) SetTurnHolder(seat Seat) { ps.turn = seat }

// Other returns the opponent of seat.
func (ps *Players) Other(seat Seat) Seat { return seat.Other() }
