package app

import (
	"tabletop/internal/domain"
	"tabletop/internal/domain/checkers"
	"tabletop/internal/domain/whist"
)

// EventKind identifies emitted domain events for Nakama dispatch.
type EventKind string

const (
	EventPlayerJoined EventKind = "player_joined"
	EventPlayerLeft   EventKind = "player_left"
	EventGameStarted  EventKind = "game_started"
	EventHandDealt    EventKind = "hand_dealt"
	EventCheckerMoved EventKind = "checker_moved"
	EventCardPlayed   EventKind = "card_played"
	EventTrickWon     EventKind = "trick_won"
	EventPrizeTaken   EventKind = "prize_taken"
	EventStageChanged EventKind = "stage_changed"
	EventRoundScored  EventKind = "round_scored"
	EventTurnChanged  EventKind = "turn_changed"
	EventGameEnded    EventKind = "game_ended"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type PlayerJoinedPayload struct {
	UserID string
	Seat   int
	Owner  bool
}

type PlayerLeftPayload struct {
	UserID string
}

type GameStartedPayload struct {
	Game            Game
	Players         []string // seat order
	FirstTurnUserID string
	Board           []checkers.Checker
	DealerUserID    string
}

type HandDealtPayload struct {
	UserID string
	Hand   []domain.Card
}

type CheckerMovedPayload struct {
	UserID   string
	From     checkers.Pos
	To       checkers.Pos
	Captured *checkers.Pos
	Promoted bool
	// Continues means the same checker must keep capturing.
	Continues bool
}

type CardPlayedPayload struct {
	UserID string
	Card   domain.Card
}

type TrickWonPayload struct {
	Stage        whist.Stage
	WinnerUserID string
	Lead         domain.Card
	Follow       domain.Card
	// Prize is the face-up draw card taken by the winner during the draft.
	Prize     *domain.Card
	NextPrize *domain.Card
}

// PrizeTakenPayload is sent only to the player who drew the card.
type PrizeTakenPayload struct {
	UserID string
	Card   domain.Card
}

type StageChangedPayload struct {
	Stage        whist.Stage
	Round        int
	DealerUserID string
	LeaderUserID string
	Trump        *domain.Card
}

type RoundScoredPayload struct {
	Round  int
	Tricks map[string]int
	Delta  map[string]int
	Totals map[string]int
}

type TurnChangedPayload struct {
	UserID string
}

type GameEndedPayload struct {
	Game         Game
	WinnerUserID string
	Reason       EndReason
	Scores       map[string]int
}
