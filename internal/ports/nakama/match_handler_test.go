package nakama

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"tabletop/internal/app"
	"tabletop/internal/bot"
	"tabletop/internal/config"
	"tabletop/internal/ports"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{}) {}
func (noopLogger) Warn(string, ...interface{}) {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type sentMessage struct {
	opCode    int64
	data      []byte
	presences []runtime.Presence
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	messages     []sentMessage
	labelUpdates int
	lastLabel    string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.messages = append(md.messages, sentMessage{opCode: opCode, data: append([]byte(nil), data...), presences: presences})
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	md.lastLabel = label
	return nil
}

func (md *mockDispatcher) byOpCode(opCode int64) []sentMessage {
	var out []sentMessage
	for _, m := range md.messages {
		if m.opCode == opCode {
			out = append(out, m)
		}
	}
	return out
}

// mockPresence is a connected user.
type mockPresence struct {
	userID string
}

func (p mockPresence) GetHidden() bool { return false }
func (p mockPresence) GetPersistence() bool { return false }
func (p mockPresence) GetUsername() string { return p.userID + "-name" }
func (p mockPresence) GetStatus() string { return "" }
func (p mockPresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonUnknown }
func (p mockPresence) GetUserId() string { return p.userID }
func (p mockPresence) GetSessionId() string { return "session-" + p.userID }
func (p mockPresence) GetNodeId() string { return "node" }

type mockRecorder struct {
	results []ports.MatchResult
}

func (m *mockRecorder) RecordResult(ctx context.Context, result ports.MatchResult) error {
	m.results = append(m.results, result)
	return nil
}

func decodePayload(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()
	st := &structpb.Struct{}
	if err := proto.Unmarshal(data, st); err != nil {
		t.Fatalf("payload is not a Struct: %v", err)
	}
	return st.AsMap()
}

func newBotID(t *testing.T) string {
	t.Helper()
	agent, err := bot.NewAgent(bot.BotLevelGreedy, nil)
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}
	return agent.ID
}

// newTestMatch seats users in order; the first human owns the match.
func newTestMatch(t *testing.T, game app.Game, seats ...string) (*matchHandler, *MatchState, *mockRecorder) {
	t.Helper()
	handler := newMatchHandler(game, config.Default())
	recorder := &mockRecorder{}
	state := handler.newMatchState("match-1", rand.New(rand.NewSource(1)), recorder)
	for _, userID := range seats {
		if !isBotUserId(userID) {
			state.Presences[userID] = mockPresence{userID: userID}
		}
		handler.seatPlayer(state, noopLogger{}, userID)
	}
	return handler, state, recorder
}

func TestFindFirstHumanSeat(t *testing.T) {
	bot1 := newBotID(t)
	bot2 := newBotID(t)

	tests := []struct {
		name  string
		seats []string
		want  int
	}{
		{name: "FirstHumanAfterBot", seats: []string{bot1, "user-1"}, want: 1},
		{name: "AllBots", seats: []string{bot1, bot2}, want: -1},
		{name: "AllEmpty", seats: []string{"", ""}, want: -1},
		{name: "FirstHumanIsSeatZero", seats: []string{"user-1", bot1}, want: 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := findFirstHumanSeat(test.seats); got != test.want {
				t.Fatalf("findFirstHumanSeat() = %d, want %d", got, test.want)
			}
			if got := shouldTerminateNoHumans(test.seats); got != (test.want == -1) {
				t.Fatalf("shouldTerminateNoHumans() = %t", got)
			}
		})
	}
}

func TestBuildLabel(t *testing.T) {
	tests := []struct {
		name  string
		game  app.Game
		phase string
		open  int
		want  map[string]interface{}
	}{
		{
			name: "LobbyWithSeat", game: app.GameWhist, phase: PhaseLobby, open: 1,
			want: map[string]interface{}{"open": true, "game": "whist", "phase": "lobby"},
		},
		{
			name: "FullLobby", game: app.GameCheckers, phase: PhaseLobby, open: 0,
			want: map[string]interface{}{"open": false, "game": "checkers", "phase": "lobby"},
		},
		{
			name: "Playing", game: app.GameCheckers, phase: PhasePlaying, open: 1,
			want: map[string]interface{}{"open": false, "game": "checkers", "phase": "playing"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			label, err := buildLabel(test.game, test.phase, test.open)
			if err != nil {
				t.Fatalf("buildLabel: %v", err)
			}
			var got map[string]interface{}
			if err := json.Unmarshal([]byte(label), &got); err != nil {
				t.Fatalf("label is not JSON: %v", err)
			}
			for k, v := range test.want {
				if got[k] != v {
					t.Errorf("label[%s] = %v, want %v (label %s)", k, got[k], v, label)
				}
			}
		})
	}
}

func TestMatchJoinAttempt(t *testing.T) {
	botID := newBotID(t)
	tests := []struct {
		name   string
		seats  []string
		phase  string
		joiner string
		want   bool
	}{
		{name: "OpenSeat", seats: []string{"alice"}, phase: PhaseLobby, joiner: "bob", want: true},
		{name: "Full", seats: []string{"alice", "bob"}, phase: PhaseLobby, joiner: "carol", want: false},
		{name: "ReplaceBot", seats: []string{"alice", botID}, phase: PhaseLobby, joiner: "carol", want: true},
		{name: "Reconnect", seats: []string{"alice", "bob"}, phase: PhasePlaying, joiner: "bob", want: true},
		{name: "InProgress", seats: []string{"alice"}, phase: PhasePlaying, joiner: "carol", want: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			handler, state, _ := newTestMatch(t, app.GameCheckers, test.seats...)
			state.Phase = test.phase
			_, ok, _ := handler.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, &mockDispatcher{}, 0, state, mockPresence{userID: test.joiner}, nil)
			if ok != test.want {
				t.Fatalf("MatchJoinAttempt() = %t, want %t", ok, test.want)
			}
		})
	}
}

func TestProcessBots_AddsBotForSoloHuman(t *testing.T) {
	handler, state, _ := newTestMatch(t, app.GameCheckers, "user-1")
	dispatcher := &mockDispatcher{}
	state.BotAutoFillDelay = 2
	state.LastSinglePlayerTick = 8
	state.Tick = 10

	handler.processBots(context.Background(), state, dispatcher, noopLogger{})

	if !isBotUserId(state.Seats[1]) {
		t.Fatalf("Expected a bot in seat 1, got %q", state.Seats[1])
	}
	if _, ok := state.Bots[state.Seats[1]]; !ok {
		t.Fatalf("Expected the bot agent to be tracked")
	}
	if state.GetOpenSeatsCount() != 0 || state.OwnerSeat != 0 {
		t.Fatalf("Unexpected seats after auto-fill: %v owner=%d", state.Seats, state.OwnerSeat)
	}
	if state.LastSinglePlayerTick != 0 {
		t.Fatalf("Expected auto-fill timer reset, got %d", state.LastSinglePlayerTick)
	}
	if len(dispatcher.byOpCode(OpPlayerJoined)) == 0 || dispatcher.labelUpdates == 0 {
		t.Fatalf("Expected match state broadcast and label update after auto-fill")
	}
}

func TestCheckersGameFlow(t *testing.T) {
	handler, state, recorder := newTestMatch(t, app.GameCheckers, "alice", "bob")
	dispatcher := &mockDispatcher{}
	ctx := context.Background()

	handler.handleMessage(ctx, state, dispatcher, noopLogger{}, "bob", OpStartGame, nil)
	if state.Phase != PhaseLobby || len(dispatcher.byOpCode(OpRejected)) != 1 {
		t.Fatalf("non-owner must not start the game")
	}
	if got := decodePayload(t, dispatcher.byOpCode(OpRejected)[0].data)["code"]; got != "not_owner" {
		t.Fatalf("rejection code = %v", got)
	}

	handler.handleMessage(ctx, state, dispatcher, noopLogger{}, "alice", OpStartGame, nil)
	if state.Phase != PhasePlaying || state.Table == nil {
		t.Fatalf("owner start failed, phase=%s", state.Phase)
	}
	if len(dispatcher.byOpCode(OpGameStarted)) != 1 {
		t.Fatalf("expected one game_started broadcast")
	}
	if want := int64(state.TurnDurationSeconds + gameStartTurnTimerBonusSeconds); state.TurnSecondsRemaining != want {
		t.Fatalf("TurnSecondsRemaining = %d, want %d", state.TurnSecondsRemaining, want)
	}

	handler.handleMessage(ctx, state, dispatcher, noopLogger{}, "alice", OpMove, []byte(`{"from":{"col":1},"to":`))
	rejections := dispatcher.byOpCode(OpRejected)
	if got := decodePayload(t, rejections[len(rejections)-1].data)["code"]; got != "bad_request" {
		t.Fatalf("malformed move rejection code = %v", got)
	}

	handler.handleMessage(ctx, state, dispatcher, noopLogger{}, "alice", OpMove, []byte(`{"from":{"col":1,"row":3},"to":{"col":1,"row":4}}`))
	rejections = dispatcher.byOpCode(OpRejected)
	if got := decodePayload(t, rejections[len(rejections)-1].data)["code"]; got != "illegal_move" {
		t.Fatalf("illegal move rejection code = %v", got)
	}

	handler.handleMessage(ctx, state, dispatcher, noopLogger{}, "alice", OpMove, []byte(`{"from":{"col":1,"row":3},"to":{"col":2,"row":4}}`))
	moved := dispatcher.byOpCode(OpCheckerMoved)
	if len(moved) != 1 {
		t.Fatalf("expected one checker_moved, got %d", len(moved))
	}
	to := decodePayload(t, moved[0].data)["to"].(map[string]interface{})
	if to["col"] != float64(2) || to["row"] != float64(4) {
		t.Fatalf("checker_moved.to = %v", to)
	}
	if state.Table.TurnHolder() != "bob" || state.TurnSecondsRemaining != int64(state.TurnDurationSeconds) {
		t.Fatalf("turn should pass to bob with a fresh timer")
	}

	handler.handleMessage(ctx, state, dispatcher, noopLogger{}, "bob", OpResign, nil)
	ended := dispatcher.byOpCode(OpGameEnded)
	if len(ended) != 1 || state.Phase != PhaseEnded {
		t.Fatalf("resign should end the game")
	}
	payload := decodePayload(t, ended[0].data)
	if payload["winner_user_id"] != "alice" || payload["reason"] != "resign" {
		t.Fatalf("game_ended payload = %v", payload)
	}
	if len(recorder.results) != 1 || recorder.results[0].WinnerUserID != "alice" || recorder.results[0].MatchID != "match-1" {
		t.Fatalf("recorded results = %+v", recorder.results)
	}

	handler.handleMessage(ctx, state, dispatcher, noopLogger{}, "alice", OpRequestNewGame, nil)
	if state.Phase != PhaseLobby || state.Table != nil {
		t.Fatalf("new game request should return to the lobby")
	}
}

func TestWhistHandsArePrivate(t *testing.T) {
	handler, state, _ := newTestMatch(t, app.GameWhist, "alice", "bob")
	dispatcher := &mockDispatcher{}

	handler.handleStartGame(context.Background(), state, dispatcher, noopLogger{}, "alice")

	hands := dispatcher.byOpCode(OpHandDealt)
	if len(hands) != 2 {
		t.Fatalf("expected two private hands, got %d", len(hands))
	}
	for _, msg := range hands {
		payload := decodePayload(t, msg.data)
		if len(msg.presences) != 1 || msg.presences[0].GetUserId() != payload["user_id"] {
			t.Fatalf("hand for %v sent to %v", payload["user_id"], msg.presences)
		}
		if cards := payload["hand"].([]interface{}); len(cards) != 13 {
			t.Fatalf("hand holds %d cards", len(cards))
		}
	}
	stage := dispatcher.byOpCode(OpStageChanged)
	if len(stage) != 1 || decodePayload(t, stage[0].data)["stage"] != "draft" {
		t.Fatalf("expected the draft to start")
	}
}

func TestPlayCardRejectsOutOfTurn(t *testing.T) {
	handler, state, _ := newTestMatch(t, app.GameWhist, "alice", "bob")
	dispatcher := &mockDispatcher{}
	handler.handleStartGame(context.Background(), state, dispatcher, noopLogger{}, "alice")

	holder := state.Table.TurnHolder()
	other := "alice"
	if holder == "alice" {
		other = "bob"
	}
	card := state.Table.Hand(other)[0]
	payload, _ := json.Marshal(map[string]interface{}{"card": map[string]interface{}{"suit": card.Suit.String(), "rank": int(card.Rank)}})

	handler.handleMessage(context.Background(), state, dispatcher, noopLogger{}, other, OpPlayCard, payload)
	rejections := dispatcher.byOpCode(OpRejected)
	if len(rejections) != 1 || rejections[0].presences[0].GetUserId() != other {
		t.Fatalf("expected a private rejection for %s", other)
	}
	if got := decodePayload(t, rejections[0].data)["code"]; got != "not_your_turn" {
		t.Fatalf("rejection code = %v", got)
	}
	if len(dispatcher.byOpCode(OpCardPlayed)) != 0 {
		t.Fatalf("rejected card must not be broadcast")
	}
}

func TestTurnTimerAutoPlays(t *testing.T) {
	handler, state, _ := newTestMatch(t, app.GameWhist, "alice", "bob")
	dispatcher := &mockDispatcher{}
	handler.handleStartGame(context.Background(), state, dispatcher, noopLogger{}, "alice")
	holder := state.Table.TurnHolder()

	state.TurnSecondsRemaining = 2
	handler.tickTurnTimer(context.Background(), state, dispatcher, noopLogger{})
	if len(dispatcher.byOpCode(OpCardPlayed)) != 0 {
		t.Fatalf("played before the timer expired")
	}
	handler.tickTurnTimer(context.Background(), state, dispatcher, noopLogger{})
	played := dispatcher.byOpCode(OpCardPlayed)
	if len(played) != 1 || decodePayload(t, played[0].data)["user_id"] != holder {
		t.Fatalf("expected an automatic card for %s", holder)
	}
	if state.Table.TurnHolder() == holder {
		t.Fatalf("turn should move on after the automatic play")
	}
	if state.TurnSecondsRemaining != int64(state.TurnDurationSeconds) {
		t.Fatalf("timer not reset: %d", state.TurnSecondsRemaining)
	}
}

func TestBotPlaysItsTurn(t *testing.T) {
	agent, err := bot.NewAgent(bot.BotLevelRandom, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}
	botID := agent.ID
	handler, state, _ := newTestMatch(t, app.GameCheckers, botID, "human")
	state.Bots[botID] = agent
	dispatcher := &mockDispatcher{}
	state.BotMoveDelay = 0
	state.Tick = 3

	if state.OwnerSeat != 1 {
		t.Fatalf("owner must be the human seat, got %d", state.OwnerSeat)
	}
	handler.handleStartGame(context.Background(), state, dispatcher, noopLogger{}, "human")
	if state.Table.TurnHolder() != botID {
		t.Fatalf("the bot in seat one should move first")
	}

	handler.processBots(context.Background(), state, dispatcher, noopLogger{})
	if len(dispatcher.byOpCode(OpCheckerMoved)) == 0 {
		t.Fatalf("bot did not move")
	}
	if state.Table.TurnHolder() != "human" {
		t.Fatalf("turn should pass to the human after the bot move")
	}
	moved := decodePayload(t, dispatcher.byOpCode(OpCheckerMoved)[0].data)
	if moved["user_id"] != botID {
		t.Fatalf("checker_moved.user_id = %v, want %s", moved["user_id"], botID)
	}
}

func TestLeavingConcedes(t *testing.T) {
	handler, state, recorder := newTestMatch(t, app.GameCheckers, "alice", "bob")
	dispatcher := &mockDispatcher{}
	handler.handleStartGame(context.Background(), state, dispatcher, noopLogger{}, "alice")

	out := handler.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 0, state, []runtime.Presence{mockPresence{userID: "alice"}})
	if out == nil {
		t.Fatalf("match with a human left must keep running")
	}
	if state.Phase != PhaseEnded || state.Seats[0] != "" || state.OwnerSeat != 1 {
		t.Fatalf("unexpected state after leave: phase=%s seats=%v owner=%d", state.Phase, state.Seats, state.OwnerSeat)
	}
	if len(recorder.results) != 1 || recorder.results[0].WinnerUserID != "bob" || recorder.results[0].Reason != string(app.ReasonLeft) {
		t.Fatalf("recorded results = %+v", recorder.results)
	}
	if len(dispatcher.byOpCode(OpPlayerLeft)) != 1 {
		t.Fatalf("expected a player_left broadcast")
	}

	if out := handler.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 0, state, []runtime.Presence{mockPresence{userID: "bob"}}); out != nil {
		t.Fatalf("match without humans should terminate")
	}
}

type mockMatchFinder struct {
	matches []*api.Match
	created []string
	query   string
}

func (m *mockMatchFinder) MatchList(ctx context.Context, limit int, authoritative bool, label string, minSize, maxSize *int, query string) ([]*api.Match, error) {
	m.query = query
	return m.matches, nil
}

func (m *mockMatchFinder) MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error) {
	m.created = append(m.created, module)
	return "new-match", nil
}

func TestQuickMatch(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		existing   []*api.Match
		wantID     string
		wantModule string
		wantErr    bool
	}{
		{name: "CreatesWhist", payload: `{"game":"whist"}`, wantID: "new-match", wantModule: MatchNameWhist},
		{name: "DefaultsToCheckers", payload: "", wantID: "new-match", wantModule: MatchNameCheckers},
		{name: "JoinsOpenLobby", payload: `{"game":"checkers"}`, existing: []*api.Match{{MatchId: "lobby-1"}}, wantID: "lobby-1"},
		{name: "UnknownGame", payload: `{"game":"chess"}`, wantErr: true},
		{name: "BadPayload", payload: `{`, wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			finder := &mockMatchFinder{matches: test.existing}
			out, err := quickMatch(context.Background(), noopLogger{}, finder, test.payload)
			if test.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %s", out)
				}
				return
			}
			if err != nil {
				t.Fatalf("quickMatch: %v", err)
			}
			var resp QuickMatchResponse
			if err := json.Unmarshal([]byte(out), &resp); err != nil {
				t.Fatalf("response: %v", err)
			}
			if resp.MatchID != test.wantID {
				t.Fatalf("match id = %s, want %s", resp.MatchID, test.wantID)
			}
			if test.wantModule != "" && (len(finder.created) != 1 || finder.created[0] != test.wantModule) {
				t.Fatalf("created = %v, want %s", finder.created, test.wantModule)
			}
			if test.wantModule == "" && len(finder.created) != 0 {
				t.Fatalf("should not create a match when a lobby is open")
			}
		})
	}
}
