package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"

	"tabletop/internal/ports"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type matchHistoryRequest struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit"`
	Cursor string `json:"cursor"`
}

// MatchHistoryResponse is one page of recorded results.
type MatchHistoryResponse struct {
	Results []ports.MatchResult `json:"results"`
	Cursor  string              `json:"cursor,omitempty"`
}

// rpcMatchHistory returns recorded results. Without a user_id in the payload
// the caller's own games are listed.
//
// Payload: (Optional) {"user_id": "...", "limit": 20, "cursor": "..."}
func rpcMatchHistory(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	callerID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	return matchHistory(ctx, logger, NewNakamaResultReader(nk), callerID, payload)
}

func matchHistory(ctx context.Context, logger runtime.Logger, reader ports.ResultReader, callerID, payload string) (string, error) {
	req := matchHistoryRequest{Limit: defaultHistoryLimit}
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid match_history payload", 3) // INVALID_ARGUMENT
		}
	}
	if req.Limit <= 0 || req.Limit > maxHistoryLimit {
		req.Limit = defaultHistoryLimit
	}
	userID := req.UserID
	if userID == "" {
		userID = callerID
	}

	results, cursor, err := reader.ListResults(ctx, req.Limit, req.Cursor)
	if err != nil {
		logger.Error("RpcMatchHistory [User:%s]: %v", callerID, err)
		return "", err
	}

	resp := MatchHistoryResponse{Results: []ports.MatchResult{}, Cursor: cursor}
	for _, r := range results {
		if userID == "" || r.Involves(userID) {
			resp.Results = append(resp.Results, r)
		}
	}

	b, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
