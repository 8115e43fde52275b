package nakama

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"tabletop/internal/app"
	"tabletop/internal/domain"
	"tabletop/internal/domain/checkers"
)

// buildLabel renders the match label Nakama indexes for MatchList queries.
func buildLabel(game app.Game, phase string, openSeats int) (string, error) {
	label, err := structpb.NewStruct(map[string]interface{}{
		"open":  phase == PhaseLobby && openSeats > 0,
		"game":  string(game),
		"phase": phase,
	})
	if err != nil {
		return "", err
	}
	b, err := protojson.Marshal(label)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// encodeEvent maps an app event onto its op code and wire payload.
func encodeEvent(ev app.Event) (int64, []byte, error) {
	var opCode int64
	var fields map[string]interface{}

	switch p := ev.Payload.(type) {
	case app.PlayerJoinedPayload:
		opCode = OpPlayerJoined
		fields = map[string]interface{}{"user_id": p.UserID, "seat": p.Seat, "owner": p.Owner}
	case app.PlayerLeftPayload:
		opCode = OpPlayerLeft
		fields = map[string]interface{}{"user_id": p.UserID}
	case app.GameStartedPayload:
		opCode = OpGameStarted
		fields = map[string]interface{}{
			"game":               string(p.Game),
			"players":            stringList(p.Players),
			"first_turn_user_id": p.FirstTurnUserID,
		}
		if p.Board != nil {
			fields["board"] = checkerList(p.Board)
		}
		if p.DealerUserID != "" {
			fields["dealer_user_id"] = p.DealerUserID
		}
	case app.HandDealtPayload:
		opCode = OpHandDealt
		fields = map[string]interface{}{"user_id": p.UserID, "hand": cardList(p.Hand)}
	case app.CheckerMovedPayload:
		opCode = OpCheckerMoved
		fields = map[string]interface{}{
			"user_id":   p.UserID,
			"from":      posValue(p.From),
			"to":        posValue(p.To),
			"promoted":  p.Promoted,
			"continues": p.Continues,
		}
		if p.Captured != nil {
			fields["captured"] = posValue(*p.Captured)
		}
	case app.CardPlayedPayload:
		opCode = OpCardPlayed
		fields = map[string]interface{}{"user_id": p.UserID, "card": cardValue(p.Card)}
	case app.TrickWonPayload:
		opCode = OpTrickWon
		fields = map[string]interface{}{
			"stage":          string(p.Stage),
			"winner_user_id": p.WinnerUserID,
			"lead":           cardValue(p.Lead),
			"follow":         cardValue(p.Follow),
		}
		if p.Prize != nil {
			fields["prize"] = cardValue(*p.Prize)
		}
		if p.NextPrize != nil {
			fields["next_prize"] = cardValue(*p.NextPrize)
		}
	case app.PrizeTakenPayload:
		opCode = OpPrizeTaken
		fields = map[string]interface{}{"user_id": p.UserID, "card": cardValue(p.Card)}
	case app.StageChangedPayload:
		opCode = OpStageChanged
		fields = map[string]interface{}{
			"stage":          string(p.Stage),
			"round":          p.Round,
			"dealer_user_id": p.DealerUserID,
			"leader_user_id": p.LeaderUserID,
		}
		if p.Trump != nil {
			fields["trump"] = cardValue(*p.Trump)
		}
	case app.RoundScoredPayload:
		opCode = OpRoundScored
		fields = map[string]interface{}{
			"round":  p.Round,
			"tricks": intMap(p.Tricks),
			"delta":  intMap(p.Delta),
			"totals": intMap(p.Totals),
		}
	case app.TurnChangedPayload:
		opCode = OpTurnChanged
		fields = map[string]interface{}{"user_id": p.UserID}
	case app.GameEndedPayload:
		opCode = OpGameEnded
		fields = map[string]interface{}{
			"game":           string(p.Game),
			"winner_user_id": p.WinnerUserID,
			"reason":         string(p.Reason),
			"scores":         intMap(p.Scores),
		}
	default:
		return 0, nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}

	data, err := marshalFields(fields)
	if err != nil {
		return 0, nil, fmt.Errorf("encode %s: %w", ev.Kind, err)
	}
	return opCode, data, nil
}

// marshalFields encodes fields as a binary google.protobuf.Struct.
func marshalFields(fields map[string]interface{}) ([]byte, error) {
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}

func stringList(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func intMap(in map[string]int) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cardValue(c domain.Card) map[string]interface{} {
	return map[string]interface{}{"suit": c.Suit.String(), "rank": int(c.Rank)}
}

func cardList(cards []domain.Card) []interface{} {
	out := make([]interface{}, len(cards))
	for i, c := range cards {
		out[i] = cardValue(c)
	}
	return out
}

func posValue(p checkers.Pos) map[string]interface{} {
	return map[string]interface{}{"col": p.Col, "row": p.Row}
}

func checkerList(board []checkers.Checker) []interface{} {
	out := make([]interface{}, len(board))
	for i, c := range board {
		out[i] = map[string]interface{}{
			"col":      c.Col,
			"row":      c.Row,
			"colour":   c.Colour.String(),
			"promoted": c.Promoted,
		}
	}
	return out
}

// moveRequest is the OpMove payload.
type moveRequest struct {
	From *checkers.Pos `json:"from"`
	To   *checkers.Pos `json:"to"`
}

func decodeMove(data []byte) (checkers.Pos, checkers.Pos, error) {
	var req moveRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return checkers.Pos{}, checkers.Pos{}, fmt.Errorf("decode move: %w", err)
	}
	if req.From == nil || req.To == nil {
		return checkers.Pos{}, checkers.Pos{}, fmt.Errorf("decode move: from and to are required")
	}
	return *req.From, *req.To, nil
}

// playCardRequest is the OpPlayCard payload.
type playCardRequest struct {
	Card *struct {
		Suit string `json:"suit"`
		Rank int    `json:"rank"`
	} `json:"card"`
}

func decodePlayCard(data []byte) (domain.Card, error) {
	var req playCardRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return domain.Card{}, fmt.Errorf("decode card: %w", err)
	}
	if req.Card == nil {
		return domain.Card{}, fmt.Errorf("decode card: card is required")
	}
	suit, err := domain.ParseSuit(req.Card.Suit)
	if err != nil {
		return domain.Card{}, fmt.Errorf("decode card: %w", err)
	}
	rank := domain.Rank(req.Card.Rank)
	if !rank.Valid() {
		return domain.Card{}, fmt.Errorf("decode card: rank %d out of range", req.Card.Rank)
	}
	return domain.Card{Suit: suit, Rank: rank}, nil
}

// quickMatchRequest is the quick_match RPC payload.
type quickMatchRequest struct {
	Game string `json:"game"`
}
