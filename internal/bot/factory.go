package bot

import (
	"fmt"
	"math/rand"
)

// BotLevel selects a strategy.
type BotLevel int

const (
	BotLevelRandom BotLevel = iota
	BotLevelGreedy
)

func (l BotLevel) String() string {
	switch l {
	case BotLevelRandom:
		return "random"
	case BotLevelGreedy:
		return "greedy"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// NewBrain creates a new AI brain based on the specified level.
func NewBrain(level BotLevel, rng *rand.Rand) (Brain, error) {
	switch level {
	case BotLevelRandom:
		if rng == nil {
			return nil, fmt.Errorf("random bot needs a random source")
		}
		return &RandomBot{rng: rng}, nil
	case BotLevelGreedy:
		return &GreedyBot{}, nil
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
}

// ParseBotLevel maps a level name onto a BotLevel.
func ParseBotLevel(name string) (BotLevel, error) {
	switch name {
	case "random":
		return BotLevelRandom, nil
	case "greedy":
		return BotLevelGreedy, nil
	default:
		return 0, fmt.Errorf("unknown bot level %q", name)
	}
}
