package app

import "fmt"

// PlayersPerGame is the number of occupied seats both games require.
const PlayersPerGame = 2

// Game names a rule engine.
type Game string

const (
	GameCheckers Game = "checkers"
	GameWhist    Game = "whist"
)

// ParseGame maps a client-supplied name onto a Game.
func ParseGame(name string) (Game, error) {
	switch g := Game(name); g {
	case GameCheckers, GameWhist:
		return g, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGame, name)
	}
}

// EndReason explains how a game finished.
type EndReason string

const (
	ReasonWin     EndReason = "win"
	ReasonBlocked EndReason = "blocked"
	ReasonResign  EndReason = "resign"
	ReasonLeft    EndReason = "left"
)
