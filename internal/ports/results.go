package ports

import (
	"context"
	"time"
)

// MatchResult is the outcome of one finished game.
type MatchResult struct {
	MatchID      string         `json:"match_id"`
	Game         string         `json:"game"`
	Players      []string       `json:"players"`
	WinnerUserID string         `json:"winner_user_id"`
	Reason       string         `json:"reason"`
	Scores       map[string]int `json:"scores"`
	FinishedAt   time.Time      `json:"finished_at"`
}

// ResultRecorder persists finished games.
type ResultRecorder interface {
	// RecordResult stores result. Implementations must tolerate being called
	// once per finished game of a long-lived match.
	RecordResult(ctx context.Context, result MatchResult) error
}

// ResultReader pages through finished games, most recent storage order first.
type ResultReader interface {
	ListResults(ctx context.Context, limit int, cursor string) ([]MatchResult, string, error)
}

// Involves reports whether userID played in the game.
func (r MatchResult) Involves(userID string) bool {
	for _, p := range r.Players {
		if p == userID {
			return true
		}
	}
	return false
}
