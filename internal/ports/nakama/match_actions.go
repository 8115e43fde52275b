package nakama

import (
	"context"
	"errors"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"tabletop/internal/app"
	"tabletop/internal/bot"
	"tabletop/internal/domain"
	"tabletop/internal/ports"
)

func (mh *matchHandler) handleMessage(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string, opCode int64, data []byte) {
	switch opCode {
	case OpStartGame:
		mh.handleStartGame(ctx, state, dispatcher, logger, senderID)
	case OpMove:
		mh.handleMove(ctx, state, dispatcher, logger, senderID, data)
	case OpPlayCard:
		mh.handlePlayCard(ctx, state, dispatcher, logger, senderID, data)
	case OpRequestNewGame:
		mh.handleRequestNewGame(state, dispatcher, logger, senderID)
	case OpResign:
		mh.handleResign(ctx, state, dispatcher, logger, senderID)
	default:
		logger.Warn("MatchLoop: Unknown opcode received: %d", opCode)
	}
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string) {
	senderSeat := state.seatOf(senderID)
	logger.Info("StartGame: Request received from %s (seat=%d, owner_seat=%d, occupied=%d)", senderID, senderSeat, state.OwnerSeat, state.GetOccupiedSeatCount())

	if state.Phase != PhaseLobby {
		logger.Warn("StartGame: Match is not in the lobby (phase=%s)", state.Phase)
		mh.sendRejected(state, dispatcher, logger, senderID, errNotInLobby)
		return
	}
	if senderSeat < 0 || senderSeat != state.OwnerSeat {
		logger.Warn("StartGame: User %s tried to start game but is not owner (owner_seat=%d)", senderID, state.OwnerSeat)
		mh.sendRejected(state, dispatcher, logger, senderID, errNotOwner)
		return
	}

	table, events, err := state.App.StartGame(state.Game, state.Seats[:])
	if err != nil {
		logger.Warn("StartGame: Failed to start game: %v", err)
		mh.sendRejected(state, dispatcher, logger, senderID, err)
		return
	}

	state.Table = table
	state.Phase = PhasePlaying
	state.BotWaitUntil = 0
	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastEvents(ctx, state, dispatcher, logger, events)
	mh.resetTurnSecondsRemainingWithBonus(state, logger, gameStartTurnTimerBonusSeconds)

	logger.Info("StartGame: %s started with %d players.", state.Game, state.GetOccupiedSeatCount())
}

func (mh *matchHandler) handleMove(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string, data []byte) {
	if state.Table == nil {
		logger.Warn("handleMove: Game not started.")
		mh.sendRejected(state, dispatcher, logger, senderID, errNotPlaying)
		return
	}
	from, to, err := decodeMove(data)
	if err != nil {
		logger.Warn("handleMove: Bad payload from %s: %v", senderID, err)
		mh.sendRejected(state, dispatcher, logger, senderID, err)
		return
	}

	events, err := state.App.MoveChecker(state.Table, senderID, from, to)
	if err != nil {
		logger.Warn("handleMove: User %s failed to move %s -> %s: %v", senderID, from, to, err)
		mh.sendRejected(state, dispatcher, logger, senderID, err)
		return
	}
	mh.broadcastEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) handlePlayCard(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string, data []byte) {
	if state.Table == nil {
		logger.Warn("handlePlayCard: Game not started.")
		mh.sendRejected(state, dispatcher, logger, senderID, errNotPlaying)
		return
	}
	card, err := decodePlayCard(data)
	if err != nil {
		logger.Warn("handlePlayCard: Bad payload from %s: %v", senderID, err)
		mh.sendRejected(state, dispatcher, logger, senderID, err)
		return
	}

	events, err := state.App.PlayCard(state.Table, senderID, card)
	if err != nil {
		logger.Warn("handlePlayCard: User %s failed to play %s: %v. Hand: %v", senderID, card, err, state.Table.Hand(senderID))
		mh.sendRejected(state, dispatcher, logger, senderID, err)
		return
	}
	mh.broadcastEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) handleResign(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string) {
	if state.Table == nil || state.Phase != PhasePlaying {
		mh.sendRejected(state, dispatcher, logger, senderID, errNotPlaying)
		return
	}
	events, err := state.App.Resign(state.Table, senderID, app.ReasonResign)
	if err != nil {
		logger.Warn("handleResign: User %s could not resign: %v", senderID, err)
		mh.sendRejected(state, dispatcher, logger, senderID, err)
		return
	}
	mh.broadcastEvents(ctx, state, dispatcher, logger, events)
}

// handleRequestNewGame returns a finished match to the lobby so the owner can start again.
func (mh *matchHandler) handleRequestNewGame(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string) {
	if state.Phase != PhaseEnded {
		mh.sendRejected(state, dispatcher, logger, senderID, errNotEnded)
		return
	}
	if state.seatOf(senderID) != state.OwnerSeat {
		mh.sendRejected(state, dispatcher, logger, senderID, errNotOwner)
		return
	}
	state.Table = nil
	state.Phase = PhaseLobby
	state.TurnSecondsRemaining = 0
	state.BotWaitUntil = 0
	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastMatchState(state, dispatcher, logger)
}

func (mh *matchHandler) broadcastEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	switch ev.Kind {
	case app.EventTurnChanged:
		mh.resetTurnSecondsRemainingWithBonus(state, logger, 0)
		state.BotWaitUntil = 0
	case app.EventGameEnded:
		p := ev.Payload.(app.GameEndedPayload)
		state.Phase = PhaseEnded
		state.TurnSecondsRemaining = 0
		state.BotWaitUntil = 0
		mh.recordResult(ctx, state, logger, p)
		mh.updateLabel(state, dispatcher, logger)
	}

	opCode, data, err := encodeEvent(ev)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	// Determine recipients (default to broadcast)
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		// Private events for absent players (e.g. bots) must never fall back to a broadcast.
		if len(recipients) == 0 {
			return
		}
	}

	if err := dispatcher.BroadcastMessage(opCode, data, recipients, nil, true); err != nil {
		logger.Error("Failed to dispatch event %v: %v", ev.Kind, err)
	}
}

func (mh *matchHandler) recordResult(ctx context.Context, state *MatchState, logger runtime.Logger, p app.GameEndedPayload) {
	if state.Results == nil {
		return
	}
	result := ports.MatchResult{
		MatchID:      state.MatchID,
		Game:         string(p.Game),
		WinnerUserID: p.WinnerUserID,
		Reason:       string(p.Reason),
		Scores:       p.Scores,
		FinishedAt:   time.Now().UTC(),
	}
	if state.Table != nil {
		result.Players = state.Table.PlayerIDs()
	}
	if err := state.Results.RecordResult(ctx, result); err != nil {
		logger.Error("Failed to record match result: %v", err)
	}
}

var (
	errNotOwner   = errors.New("only the match owner can do that")
	errNotInLobby = errors.New("match not in lobby")
	errNotPlaying = errors.New("no game in progress")
	errNotEnded   = errors.New("game has not ended")
)

// rejectionCode classifies an error for the client.
func rejectionCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrIllegalMove):
		return "illegal_move"
	case errors.Is(err, domain.ErrIllegalState):
		return "illegal_state"
	case errors.Is(err, app.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, app.ErrUnknownPlayer):
		return "unknown_player"
	case errors.Is(err, app.ErrMatchOver), errors.Is(err, errNotPlaying), errors.Is(err, errNotEnded), errors.Is(err, errNotInLobby):
		return "wrong_phase"
	case errors.Is(err, app.ErrWrongGame):
		return "wrong_game"
	case errors.Is(err, app.ErrTooFewPlayers):
		return "too_few_players"
	case errors.Is(err, errNotOwner):
		return "not_owner"
	default:
		return "bad_request"
	}
}

// sendRejected tells userID privately why its request was refused.
func (mh *matchHandler) sendRejected(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, cause error) {
	data, err := marshalFields(map[string]interface{}{
		"code":    rejectionCode(cause),
		"message": cause.Error(),
	})
	if err != nil {
		logger.Error("Failed to marshal rejection: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send rejection to %s: Presence not found", userID)
		return
	}
	if err := dispatcher.BroadcastMessage(OpRejected, data, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("Failed to send rejection to %s: %v", userID, err)
	}
}

// broadcastMatchState sends the seat snapshot to everyone.
func (mh *matchHandler) broadcastMatchState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	players := make([]interface{}, 0, len(state.Seats))
	for i, userId := range state.Seats {
		if userId == "" {
			continue
		}
		displayName := userId
		if p, exists := state.Presences[userId]; exists && p.GetUsername() != "" {
			displayName = p.GetUsername()
		} else if agent, exists := state.Bots[userId]; exists {
			displayName = agent.Name
		}
		players = append(players, map[string]interface{}{
			"user_id":      userId,
			"seat":         i,
			"is_owner":     i == state.OwnerSeat,
			"is_bot":       isBotUserId(userId),
			"display_name": displayName,
		})
	}

	data, err := marshalFields(map[string]interface{}{
		"game":       string(state.Game),
		"phase":      state.Phase,
		"seats":      stringList(state.Seats[:]),
		"owner_seat": state.OwnerSeat,
		"tick":       state.Tick,
		"players":    players,
	})
	if err != nil {
		logger.Error("Failed to marshal match state: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpPlayerJoined, data, nil, nil, true); err != nil {
		logger.Error("Failed to broadcast match state: %v", err)
	}
}

// resendHand gives reconnecting whist players their current hand.
func (mh *matchHandler) resendHand(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, presences []runtime.Presence) {
	if state.Table == nil || state.Table.Whist == nil || state.Phase != PhasePlaying {
		return
	}
	for _, p := range presences {
		userID := p.GetUserId()
		if state.seatOf(userID) < 0 {
			continue
		}
		mh.broadcastEvent(context.Background(), state, dispatcher, logger, app.Event{
			Kind:       app.EventHandDealt,
			Payload:    app.HandDealtPayload{UserID: userID, Hand: state.Table.Hand(userID)},
			Recipients: []string{userID},
		})
	}
}

func (mh *matchHandler) resetTurnSecondsRemainingWithBonus(state *MatchState, logger runtime.Logger, bonus int) {
	duration := state.TurnDurationSeconds
	if duration <= 0 {
		duration = 30
	}
	state.TurnSecondsRemaining = int64(duration + bonus)
	logger.Debug("Turn timer reset to %d seconds.", state.TurnSecondsRemaining)
}

// tickTurnTimer counts the turn down once per tick and plays for a player
// whose time ran out.
func (mh *matchHandler) tickTurnTimer(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Phase != PhasePlaying || state.Table == nil || state.TurnSecondsRemaining <= 0 {
		return
	}
	state.TurnSecondsRemaining--
	if state.TurnSecondsRemaining > 0 {
		return
	}

	userID := state.Table.TurnHolder()
	logger.Info("TurnTimer: %s ran out of time, playing automatically.", userID)
	events, err := state.App.AutoPlay(state.Table, userID, nil)
	if err != nil {
		logger.Error("TurnTimer: Auto-play for %s failed: %v", userID, err)
		mh.resetTurnSecondsRemainingWithBonus(state, logger, 0)
	}
	mh.broadcastEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// 1. Auto-fill the lobby with a bot if a single human has been waiting long enough.
	if state.Phase == PhaseLobby {
		if state.GetHumanPlayerCount() == 1 && state.GetOpenSeatsCount() > 0 {
			if state.LastSinglePlayerTick == 0 {
				state.LastSinglePlayerTick = state.Tick
				logger.Debug("processBots: Single player detected, starting auto-fill timer.")
			}
			if state.Tick-state.LastSinglePlayerTick >= int64(state.BotAutoFillDelay) {
				mh.addBot(state, dispatcher, logger)
				state.LastSinglePlayerTick = 0
			}
		} else {
			state.LastSinglePlayerTick = 0
		}
		return
	}

	// 2. Handle bot turns in-game.
	if state.Phase != PhasePlaying || state.Table == nil {
		return
	}
	currentUserID := state.Table.TurnHolder()
	if !isBotUserId(currentUserID) {
		state.BotWaitUntil = 0
		return
	}
	if state.BotWaitUntil == 0 {
		state.BotWaitUntil = state.Tick + int64(state.BotMoveDelay)
		logger.Debug("processBots: Bot %s will act at tick %d (current %d)", currentUserID, state.BotWaitUntil, state.Tick)
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	var brain bot.Brain
	if agent, ok := state.Bots[currentUserID]; ok {
		brain = agent
	}
	events, err := state.App.AutoPlay(state.Table, currentUserID, brain)
	if err != nil {
		logger.Error("processBots: Bot %s failed to act: %v", currentUserID, err)
		return
	}
	mh.broadcastEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) addBot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	agent, err := bot.NewAgent(bot.BotLevelGreedy, state.Rng)
	if err != nil {
		logger.Error("processBots: Failed to create bot agent: %v", err)
		return
	}
	for i, seat := range state.Seats {
		if seat != "" {
			continue
		}
		state.Seats[i] = agent.ID
		state.Bots[agent.ID] = agent
		logger.Info("processBots: Added bot %s (%s) to seat %d", agent.Name, agent.ID, i)
		mh.updateLabel(state, dispatcher, logger)
		mh.broadcastMatchState(state, dispatcher, logger)
		return
	}
}
