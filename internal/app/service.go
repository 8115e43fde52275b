package app

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"tabletop/internal/bot"
	"tabletop/internal/config"
	"tabletop/internal/domain"
	"tabletop/internal/domain/checkers"
	"tabletop/internal/domain/whist"
)

// Service contains checkers and whist use-cases operating on domain state.
type Service struct {
	rng      *rand.Rand
	cfg      *config.GameConfig
	fallback bot.Brain
}

// NewService constructs a Service with provided rng or a time-seeded default,
// and the default configuration when cfg is nil.
func NewService(rng *rand.Rand, cfg *config.GameConfig) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return &Service{rng: rng, cfg: cfg, fallback: &bot.GreedyBot{}}
}

var (
	ErrTooFewPlayers = errors.New("not enough players to start")
	ErrUnknownPlayer = errors.New("player not found")
	ErrUnknownGame   = errors.New("unknown game")
	ErrWrongGame     = errors.New("action does not apply to this game")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrMatchOver     = errors.New("match is over")
)

// StartGame seats the players, given in seat order with empty strings for
// empty seats, and starts a game of the requested kind.
func (s *Service) StartGame(game Game, playerIDs []string) (*Table, []Event, error) {
	var seats []string
	for _, userID := range playerIDs {
		if userID != "" {
			seats = append(seats, userID)
		}
	}
	if len(seats) < PlayersPerGame {
		return nil, nil, ErrTooFewPlayers
	}
	players, err := domain.NewPlayers(seats[:PlayersPerGame])
	if err != nil {
		return nil, nil, err
	}

	switch game {
	case GameCheckers:
		return s.startCheckers(players)
	case GameWhist:
		return s.startWhist(players)
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownGame, game)
	}
}

func (s *Service) startCheckers(players *domain.Players) (*Table, []Event, error) {
	t := &Table{
		Game:     GameCheckers,
		Checkers: checkers.NewMatch(players, s.cfg.CheckersRules()),
		players:  players,
	}
	return t, []Event{
		{
			Kind: EventGameStarted,
			Payload: GameStartedPayload{
				Game:            GameCheckers,
				Players:         t.PlayerIDs(),
				FirstTurnUserID: t.TurnHolder(),
				Board:           t.Checkers.Board(),
			},
		},
		s.turnChanged(t),
	}, nil
}

func (s *Service) startWhist(players *domain.Players) (*Table, []Event, error) {
	m, err := whist.NewMatch(players, s.cfg.WhistRules(), s.rng)
	if err != nil {
		return nil, nil, err
	}
	t := &Table{Game: GameWhist, Whist: m, players: players}
	setup, err := s.SetupRound(t)
	if err != nil {
		return nil, nil, err
	}
	dealer, _ := m.Dealer()
	events := make([]Event, 0, len(setup)+2)
	events = append(events, Event{
		Kind: EventGameStarted,
		Payload: GameStartedPayload{
			Game:            GameWhist,
			Players:         t.PlayerIDs(),
			FirstTurnUserID: t.TurnHolder(),
			DealerUserID:    t.userAt(dealer),
		},
	})
	events = append(events, setup...)
	events = append(events, s.turnChanged(t))
	return t, events, nil
}

// SetupRound runs the DEAL stage of a whist round: the first round draws for
// dealer, then the deck is shuffled the configured number of times, cut,
// dealt, and trump is revealed. It leaves the round in the DRAFT stage.
func (s *Service) SetupRound(t *Table) ([]Event, error) {
	if t.Whist == nil {
		return nil, ErrWrongGame
	}
	m := t.Whist
	if _, ok := m.Dealer(); !ok {
		if _, err := m.DrawForDealer(); err != nil {
			return nil, err
		}
	}
	for i := 0; i < m.Rules().MinShuffles; i++ {
		shuffle := m.ShuffleRiffle
		if i%2 == 1 {
			shuffle = m.ShuffleOverhand
		}
		if err := shuffle(); err != nil {
			return nil, err
		}
	}
	if err := m.Cut(1 + s.rng.Intn(m.Rules().DeckSize-1)); err != nil {
		return nil, err
	}
	if err := m.Deal(); err != nil {
		return nil, err
	}
	trump, err := m.RevealTrump()
	if err != nil {
		return nil, err
	}
	if _, err := m.NextStage(); err != nil {
		return nil, err
	}

	events := make([]Event, 0, PlayersPerGame+1)
	for _, p := range t.players.All() {
		events = append(events, Event{
			Kind:       EventHandDealt,
			Payload:    HandDealtPayload{UserID: p.UserID, Hand: m.Hand(p.Seat)},
			Recipients: []string{p.UserID},
		})
	}
	events = append(events, s.stageChanged(t, &trump))
	return events, nil
}

// MoveChecker applies a checkers move for actor. A move that finishes the
// turn hands it to the opponent; an opponent left without a legal move loses.
func (s *Service) MoveChecker(t *Table, actor string, from, to checkers.Pos) ([]Event, error) {
	if t.Checkers == nil {
		return nil, ErrWrongGame
	}
	seat, err := s.actorSeat(t, actor)
	if err != nil {
		return nil, err
	}
	m := t.Checkers
	res, err := m.MakeMove(seat, from, to)
	if err != nil {
		return nil, err
	}
	events := []Event{{
		Kind: EventCheckerMoved,
		Payload: CheckerMovedPayload{
			UserID:    actor,
			From:      res.From,
			To:        res.To,
			Captured:  res.Captured,
			Promoted:  res.Promoted,
			Continues: len(res.Continuation) > 0,
		},
	}}
	if winner, ok := m.Winner(); ok {
		return append(events, s.finish(t, winner, ReasonWin)), nil
	}
	if len(res.Continuation) > 0 {
		return append(events, s.turnChanged(t)), nil
	}

	if err := m.EndTurn(); err != nil {
		return nil, err
	}
	if winner, ok := m.Winner(); ok {
		return append(events, s.finish(t, winner, ReasonWin)), nil
	}
	if next := m.TurnHolder(); m.Blocked(next) {
		if err := m.Forfeit(next); err != nil {
			return nil, err
		}
		return append(events, s.finish(t, next.Other(), ReasonBlocked)), nil
	}
	return append(events, s.turnChanged(t)), nil
}

// PlayCard plays a whist card for actor. Completed stages advance on their
// own, including scoring and dealing the next round.
func (s *Service) PlayCard(t *Table, actor string, card domain.Card) ([]Event, error) {
	if t.Whist == nil {
		return nil, ErrWrongGame
	}
	seat, err := s.actorSeat(t, actor)
	if err != nil {
		return nil, err
	}
	m := t.Whist
	res, err := m.PlayCard(seat, card)
	if err != nil {
		return nil, err
	}
	events := []Event{{
		Kind:    EventCardPlayed,
		Payload: CardPlayedPayload{UserID: actor, Card: card},
	}}
	if res != nil {
		events = append(events, s.trickEvents(t, res)...)
	}
	for !t.ended && m.StageComplete() {
		advanced, err := s.advance(t)
		if err != nil {
			return nil, err
		}
		events = append(events, advanced...)
	}
	if !t.ended {
		events = append(events, s.turnChanged(t))
	}
	return events, nil
}

func (s *Service) trickEvents(t *Table, res *whist.TrickResult) []Event {
	winner := t.userAt(res.Winner)
	loser := t.userAt(res.Winner.Other())
	events := []Event{{
		Kind: EventTrickWon,
		Payload: TrickWonPayload{
			Stage:        res.Stage,
			WinnerUserID: winner,
			Lead:         res.Lead,
			Follow:       res.Follow,
			Prize:        res.WinnerDraw,
			NextPrize:    res.NextPrize,
		},
	}}
	if res.WinnerDraw != nil {
		events = append(events, Event{
			Kind:       EventPrizeTaken,
			Payload:    PrizeTakenPayload{UserID: winner, Card: *res.WinnerDraw},
			Recipients: []string{winner},
		})
	}
	if res.LoserDraw != nil {
		events = append(events, Event{
			Kind:       EventPrizeTaken,
			Payload:    PrizeTakenPayload{UserID: loser, Card: *res.LoserDraw},
			Recipients: []string{loser},
		})
	}
	return events
}

// advance moves a completed whist stage on by one step.
func (s *Service) advance(t *Table) ([]Event, error) {
	m := t.Whist
	stage, err := m.NextStage()
	if err != nil {
		return nil, err
	}
	switch stage {
	case whist.StageDuel:
		return []Event{s.stageChanged(t, nil)}, nil
	case whist.StageRoundWon, whist.StageMatchWon:
		score, _ := m.LastRound()
		events := []Event{{
			Kind: EventRoundScored,
			Payload: RoundScoredPayload{
				Round:  score.Round,
				Tricks: t.bySeat(score.Tricks),
				Delta:  t.bySeat(score.Delta),
				Totals: t.bySeat(score.Totals),
			},
		}}
		if winner, ok := m.Winner(); ok {
			return append(events, s.finish(t, winner, ReasonWin)), nil
		}
		if _, err := m.NextStage(); err != nil {
			return nil, err
		}
		setup, err := s.SetupRound(t)
		if err != nil {
			return nil, err
		}
		return append(events, setup...), nil
	default:
		return nil, fmt.Errorf("%w: unexpected stage %s", domain.ErrInconsistent, stage)
	}
}

// Resign ends the game in favour of actor's opponent.
func (s *Service) Resign(t *Table, actor string, reason EndReason) ([]Event, error) {
	if t.ended {
		return nil, ErrMatchOver
	}
	seat, ok := t.players.SeatOf(actor)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	if t.Checkers != nil {
		if err := t.Checkers.Forfeit(seat); err != nil {
			return nil, err
		}
	}
	return []Event{s.finish(t, seat.Other(), reason)}, nil
}

// AutoPlay lets brain act for actor, e.g. when the turn timer expires or the
// seat belongs to a bot. A checkers turn is played through its whole capture
// chain. A nil brain uses the greedy strategy.
func (s *Service) AutoPlay(t *Table, actor string, brain bot.Brain) ([]Event, error) {
	if brain == nil {
		brain = s.fallback
	}
	seat, err := s.actorSeat(t, actor)
	if err != nil {
		return nil, err
	}
	switch t.Game {
	case GameCheckers:
		var events []Event
		for !t.ended && t.Checkers.TurnHolder() == seat {
			mv, err := brain.ChooseMove(t.Checkers, seat)
			if err != nil {
				return events, err
			}
			moved, err := s.MoveChecker(t, actor, mv.From, mv.To)
			if err != nil {
				return events, err
			}
			events = append(events, moved...)
		}
		return events, nil
	case GameWhist:
		card, err := brain.ChooseCard(t.Whist, seat)
		if err != nil {
			return nil, err
		}
		return s.PlayCard(t, actor, card)
	default:
		return nil, ErrUnknownGame
	}
}

func (s *Service) actorSeat(t *Table, actor string) (domain.Seat, error) {
	if t.ended {
		return 0, ErrMatchOver
	}
	seat, ok := t.players.SeatOf(actor)
	if !ok {
		return 0, ErrUnknownPlayer
	}
	if t.players.TurnHolder() != seat {
		return 0, ErrNotYourTurn
	}
	return seat, nil
}

func (s *Service) finish(t *Table, winner domain.Seat, reason EndReason) Event {
	t.ended = true
	t.winner = t.userAt(winner)
	t.reason = reason
	return Event{
		Kind: EventGameEnded,
		Payload: GameEndedPayload{
			Game:         t.Game,
			WinnerUserID: t.winner,
			Reason:       reason,
			Scores:       t.Scores(),
		},
	}
}

func (s *Service) turnChanged(t *Table) Event {
	return Event{Kind: EventTurnChanged, Payload: TurnChangedPayload{UserID: t.TurnHolder()}}
}

func (s *Service) stageChanged(t *Table, trump *domain.Card) Event {
	m := t.Whist
	dealer, _ := m.Dealer()
	return Event{
		Kind: EventStageChanged,
		Payload: StageChangedPayload{
			Stage:        m.Stage(),
			Round:        m.Round(),
			DealerUserID: t.userAt(dealer),
			LeaderUserID: t.TurnHolder(),
			Trump:        trump,
		},
	}
}
