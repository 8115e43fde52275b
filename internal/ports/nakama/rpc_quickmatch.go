package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"

	"tabletop/internal/app"
)

// QuickMatchResponse is the payload returned to clients when requesting a lobby-capable match.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	Game    string `json:"game"`
	IsNew   bool   `json:"is_new"`
}

// matchFinder is the slice of runtime.NakamaModule quick_match needs.
type matchFinder interface {
	MatchList(ctx context.Context, limit int, authoritative bool, label string, minSize, maxSize *int, query string) ([]*api.Match, error)
	MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error)
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcMatchHistory, rpcMatchHistory)
}

func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return quickMatch(ctx, logger, nk, payload)
}

// quickMatch joins the first open lobby of the requested game or creates one.
// An empty payload asks for checkers.
func quickMatch(ctx context.Context, logger runtime.Logger, nk matchFinder, payload string) (string, error) {
	game := app.GameCheckers
	if payload != "" {
		var req quickMatchRequest
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid quick_match payload", 3) // INVALID_ARGUMENT
		}
		if req.Game != "" {
			g, err := app.ParseGame(req.Game)
			if err != nil {
				return "", runtime.NewError(err.Error(), 3)
			}
			game = g
		}
	}

	query := fmt.Sprintf("+label.open:T +label.game:%s +label.phase:%s", game, PhaseLobby)
	limit := 10
	authoritative := true
	minSize := 1
	maxSize := app.PlayersPerGame - 1

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("MatchList error: %v", err)
		return "", err
	}

	resp := QuickMatchResponse{Game: string(game)}
	if len(matches) > 0 {
		resp.MatchID = matches[0].MatchId
	} else {
		// Seat/owner assignment happens in MatchJoin (server-authoritative).
		matchID, err := nk.MatchCreate(ctx, MatchNameFor(game), map[string]interface{}{})
		if err != nil {
			logger.Error("MatchCreate error: %v", err)
			return "", err
		}
		resp.MatchID = matchID
		resp.IsNew = true
	}

	b, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
