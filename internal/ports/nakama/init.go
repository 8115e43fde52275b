package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"

	"tabletop/internal/app"
	"tabletop/internal/config"
)

// MatchNameFor returns the registered match handler name of game.
func MatchNameFor(game app.Game) string {
	if game == app.GameWhist {
		return MatchNameWhist
	}
	return MatchNameCheckers
}

// InitModule wires RPCs and match handlers for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	cfg, err := config.Load(runtimeEnv(ctx))
	if err != nil {
		logger.Error("Invalid game config: %v", err)
		return err
	}

	if err := RegisterRPCs(initializer); err != nil {
		return err
	}

	for _, game := range []app.Game{app.GameCheckers, app.GameWhist} {
		game := game
		if err := initializer.RegisterMatch(MatchNameFor(game), func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
			return newMatchHandler(game, cfg), nil
		}); err != nil {
			return err
		}
	}

	logger.WithField("turn_duration_sec", cfg.TurnDurationSeconds).Info("Tabletop Go module loaded (checkers, whist).")
	return nil
}
