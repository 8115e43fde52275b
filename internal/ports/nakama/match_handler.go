package nakama

import (
	"context"
	"database/sql"
	"math/rand"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"tabletop/internal/app"
	"tabletop/internal/bot"
	"tabletop/internal/config"
	"tabletop/internal/ports"
)

const (
	// gameStartTurnTimerBonusSeconds gives the first player extra time to look at the opening position.
	gameStartTurnTimerBonusSeconds = 5
	tickRate                       = 1
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	MatchID              string                      `json:"match_id"`
	Game                 app.Game                    `json:"game"`
	Phase                string                      `json:"phase"`
	Seats                [app.PlayersPerGame]string  `json:"seats"`      // User IDs, empty string means seat is empty
	OwnerSeat            int                         `json:"owner_seat"` // Seat index of the match owner
	Tick                 int64                       `json:"tick"`
	Presences            map[string]runtime.Presence `json:"-"` // Map UserId -> Presence for targeted messaging
	App                  *app.Service                `json:"-"`
	Rng                  *rand.Rand                  `json:"-"`
	Table                *app.Table                  `json:"-"` // Current game (nil in lobby)
	TurnDurationSeconds  int                         `json:"turn_duration_seconds"`
	TurnSecondsRemaining int64                       `json:"turn_seconds_remaining"`
	BotsEnabled          bool                        `json:"bots_enabled"`
	BotMoveDelay         int                         `json:"bot_move_delay"`         // Seconds a bot waits before acting
	BotAutoFillDelay     int                         `json:"bot_auto_fill_delay"`    // Seconds to wait before auto-filling with a bot
	BotWaitUntil         int64                       `json:"bot_wait_until"`         // Tick when the bot should act
	LastSinglePlayerTick int64                       `json:"last_single_player_tick"` // Tick when a single player started waiting
	Bots                 map[string]*bot.Agent       `json:"-"`
	Results              ports.ResultRecorder        `json:"-"`
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	return len(ms.Seats) - ms.GetOpenSeatsCount()
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !isBotUserId(seat) {
			count++
		}
	}
	return count
}

func (ms *MatchState) seatOf(userID string) int {
	for i, seat := range ms.Seats {
		if seat != "" && seat == userID {
			return i
		}
	}
	return -1
}

// isBotUserId reports whether the given user id represents a bot seat.
func isBotUserId(userId string) bool {
	return bot.IsBot(userId)
}

// findFirstHumanSeat returns the first seat index with a human occupant or -1 if none exist.
func findFirstHumanSeat(seats []string) int {
	for i, userId := range seats {
		if userId != "" && !isBotUserId(userId) {
			return i
		}
	}
	return -1
}

// shouldTerminateNoHumans returns true when there are no humans in the match.
func shouldTerminateNoHumans(seats []string) bool {
	return findFirstHumanSeat(seats) == -1
}

type matchHandler struct {
	game app.Game
	cfg  *config.GameConfig
}

func newMatchHandler(game app.Game, cfg *config.GameConfig) *matchHandler {
	return &matchHandler{game: game, cfg: cfg}
}

// newMatchState builds the lobby state of a fresh match.
func (mh *matchHandler) newMatchState(matchID string, rng *rand.Rand, results ports.ResultRecorder) *MatchState {
	cfg := mh.cfg
	if cfg == nil {
		cfg = config.Default()
	}
	return &MatchState{
		MatchID:             matchID,
		Game:                mh.game,
		Phase:               PhaseLobby,
		OwnerSeat:           -1,
		Presences:           make(map[string]runtime.Presence),
		App:                 app.NewService(rng, cfg),
		Rng:                 rng,
		TurnDurationSeconds: cfg.TurnDurationSeconds,
		BotsEnabled:         cfg.BotsEnabled,
		BotMoveDelay:        cfg.BotMoveDelaySeconds,
		BotAutoFillDelay:    cfg.BotAutoFillDelaySeconds,
		Bots:                make(map[string]*bot.Agent),
		Results:             results,
	}
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing %s match handler.", mh.game)

	if mh.cfg == nil {
		cfg, err := config.Load(runtimeEnv(ctx))
		if err != nil {
			logger.Warn("MatchInit: Invalid game config, using defaults: %v", err)
			cfg = config.Default()
		}
		mh.cfg = cfg
	}

	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	state := mh.newMatchState(matchID, rng, NewNakamaResultRecorder(nk))

	label, err := buildLabel(state.Game, state.Phase, state.GetOpenSeatsCount())
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	return state, tickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// Seated players may reconnect at any time.
	if matchState.seatOf(presence.GetUserId()) >= 0 {
		return state, true, ""
	}
	if matchState.Phase == PhasePlaying {
		return state, false, "Game in progress"
	}
	if matchState.GetOpenSeatsCount() > 0 {
		return state, true, ""
	}
	// A bot seat can be taken over before the game starts.
	for _, seat := range matchState.Seats {
		if isBotUserId(seat) {
			return state, true, ""
		}
	}
	return state, false, "Match full"
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p
		mh.seatPlayer(matchState, logger, p.GetUserId())
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)
	mh.resendHand(matchState, dispatcher, logger, presences)
	return matchState
}

// seatPlayer gives userID an empty seat, or a bot's seat while in the lobby.
func (mh *matchHandler) seatPlayer(state *MatchState, logger runtime.Logger, userID string) bool {
	if state.seatOf(userID) >= 0 {
		return true
	}
	for i, seatUserId := range state.Seats {
		if seatUserId == "" {
			state.Seats[i] = userID
			mh.ensureOwner(state, logger)
			return true
		}
	}
	if state.Phase == PhaseLobby {
		for i, seatUserId := range state.Seats {
			if isBotUserId(seatUserId) {
				logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserId, userID, i)
				delete(state.Bots, seatUserId)
				state.Seats[i] = userID
				mh.ensureOwner(state, logger)
				return true
			}
		}
	}
	logger.Warn("MatchJoin: User %s joined but no seat (empty or bot) was available.", userID)
	return false
}

// ensureOwner keeps ownership on a human seat.
func (mh *matchHandler) ensureOwner(state *MatchState, logger runtime.Logger) {
	if state.OwnerSeat >= 0 && state.OwnerSeat < len(state.Seats) {
		if userID := state.Seats[state.OwnerSeat]; userID != "" && !isBotUserId(userID) {
			return
		}
	}
	state.OwnerSeat = findFirstHumanSeat(state.Seats[:])
	if state.OwnerSeat >= 0 {
		logger.Debug("Owner set to human seat %d.", state.OwnerSeat)
	}
}

// MatchLeave is called when one or more players leave the match. Leaving a
// running game concedes it.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		mh.removePlayer(ctx, matchState, dispatcher, logger, p.GetUserId())
	}

	if shouldTerminateNoHumans(matchState.Seats[:]) {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) removePlayer(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) {
	delete(state.Presences, userID)
	seat := state.seatOf(userID)
	if seat < 0 {
		return
	}

	if state.Phase == PhasePlaying && state.Table != nil {
		events, err := state.App.Resign(state.Table, userID, app.ReasonLeft)
		if err != nil {
			logger.Warn("MatchLeave: Could not concede for %s: %v", userID, err)
		}
		mh.broadcastEvents(ctx, state, dispatcher, logger, events)
	}

	state.Seats[seat] = ""
	logger.Debug("MatchLeave: User %s left, seat %d freed.", userID, seat)
	mh.ensureOwner(state, logger)
	mh.broadcastEvent(ctx, state, dispatcher, logger, app.Event{
		Kind:    app.EventPlayerLeft,
		Payload: app.PlayerLeftPayload{UserID: userID},
	})
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		mh.handleMessage(ctx, matchState, dispatcher, logger, msg.GetUserId(), msg.GetOpCode(), msg.GetData())
	}

	mh.tickTurnTimer(ctx, matchState, dispatcher, logger)
	if matchState.BotsEnabled {
		mh.processBots(ctx, matchState, dispatcher, logger)
	}

	return matchState
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d grace seconds", graceSeconds)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := buildLabel(state.Game, state.Phase, state.GetOpenSeatsCount())
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

// runtimeEnv returns the Nakama runtime environment map, if any.
func runtimeEnv(ctx context.Context) map[string]string {
	env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if !ok || env == nil {
		return map[string]string{}
	}
	return env
}
