package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"tabletop/internal/domain/checkers"
	"tabletop/internal/domain/whist"
)

// GameConfig holds the tunables of both games and of the match handlers.
type GameConfig struct {
	TurnDurationSeconds int `env:"TABLETOP_TURN_DURATION_SEC" envDefault:"30"`
	// BotAutoFillDelaySeconds configures how many seconds to wait before adding a bot to a solo human lobby.
	BotAutoFillDelaySeconds int  `env:"TABLETOP_BOT_AUTO_FILL_DELAY_SEC" envDefault:"10"`
	BotsEnabled             bool `env:"TABLETOP_BOTS_ENABLED" envDefault:"true"`
	// BotMoveDelaySeconds is how long a bot seat waits before acting.
	BotMoveDelaySeconds int `env:"TABLETOP_BOT_MOVE_DELAY_SEC" envDefault:"1"`

	WhistDeckSize        int  `env:"TABLETOP_WHIST_DECK_SIZE" envDefault:"52"`
	WhistMinShuffles     int  `env:"TABLETOP_WHIST_MIN_SHUFFLES" envDefault:"3"`
	WhistEnforceShuffles bool `env:"TABLETOP_WHIST_ENFORCE_SHUFFLES" envDefault:"true"`
	WhistTargetScore     int  `env:"TABLETOP_WHIST_TARGET_SCORE" envDefault:"6"`
	WhistLoserDraws      bool `env:"TABLETOP_WHIST_LOSER_DRAWS" envDefault:"true"`

	CheckersMandatoryCapture bool `env:"TABLETOP_CHECKERS_MANDATORY_CAPTURE" envDefault:"false"`
	CheckersCrownEndsTurn    bool `env:"TABLETOP_CHECKERS_CROWN_ENDS_TURN" envDefault:"true"`
}

// Load parses the configuration from environ. A nil map reads the process
// environment, which is how the simulation CLI runs; the Nakama module passes
// the runtime env map.
func Load(environ map[string]string) (*GameConfig, error) {
	var cfg GameConfig
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with every default applied.
func Default() *GameConfig {
	cfg, err := Load(map[string]string{})
	if err != nil {
		panic(fmt.Sprintf("default game config is invalid: %v", err))
	}
	return cfg
}

// Validate checks ranges the env parser cannot express.
func (c *GameConfig) Validate() error {
	if c.TurnDurationSeconds <= 0 {
		return fmt.Errorf("turn duration %ds must be positive", c.TurnDurationSeconds)
	}
	if c.BotAutoFillDelaySeconds < 0 || c.BotMoveDelaySeconds < 0 {
		return fmt.Errorf("bot delays must not be negative")
	}
	if err := c.WhistRules().Validate(); err != nil {
		return fmt.Errorf("whist rules: %w", err)
	}
	return nil
}

// CheckersRules maps the configuration onto the checkers rule set.
func (c *GameConfig) CheckersRules() checkers.Rules {
	return checkers.Rules{
		MandatoryCapture: c.CheckersMandatoryCapture,
		CrownEndsTurn:    c.CheckersCrownEndsTurn,
	}
}

// WhistRules maps the configuration onto the whist rule set.
func (c *GameConfig) WhistRules() whist.Rules {
	return whist.Rules{
		DeckSize:        c.WhistDeckSize,
		MinShuffles:     c.WhistMinShuffles,
		EnforceShuffles: c.WhistEnforceShuffles,
		TargetScore:     c.WhistTargetScore,
		LoserDraws:      c.WhistLoserDraws,
	}
}
