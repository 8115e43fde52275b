package bot

import (
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"tabletop/internal/domain"
	"tabletop/internal/domain/checkers"
	"tabletop/internal/domain/whist"
)

const idPrefix = "bot-"

var botNames = []string{"Ada", "Basil", "Clover", "Dmitri", "Esme", "Felix", "Greta", "Hugo"}

// Agent represents an autonomous bot player.
type Agent struct {
	ID       string
	Name     string
	Level    BotLevel
	Strategy Brain
}

// NewAgent mints a bot with a fresh user id and a display name drawn from rng.
func NewAgent(level BotLevel, rng *rand.Rand) (*Agent, error) {
	brain, err := NewBrain(level, rng)
	if err != nil {
		return nil, err
	}
	name := botNames[0]
	if rng != nil {
		name = botNames[rng.Intn(len(botNames))]
	}
	return &Agent{
		ID:       idPrefix + uuid.NewString(),
		Name:     name + " (bot)",
		Level:    level,
		Strategy: brain,
	}, nil
}

// IsBot reports whether userID was minted by NewAgent.
func IsBot(userID string) bool {
	rest, ok := strings.CutPrefix(userID, idPrefix)
	if !ok {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil
}

// ChooseMove picks the agent's next checkers move. The agent only acts for
// the seat it occupies.
func (a *Agent) ChooseMove(m *checkers.Match, seat domain.Seat) (CheckerMove, error) {
	if !a.owns(m.Players(), seat) {
		return CheckerMove{}, ErrNoLegalMove
	}
	return a.Strategy.ChooseMove(m, seat)
}

// ChooseCard picks the agent's next whist card.
func (a *Agent) ChooseCard(m *whist.Match, seat domain.Seat) (domain.Card, error) {
	if !a.owns(m.Players(), seat) {
		return domain.Card{}, ErrNoLegalMove
	}
	return a.Strategy.ChooseCard(m, seat)
}

func (a *Agent) owns(players *domain.Players, seat domain.Seat) bool {
	s, ok := players.SeatOf(a.ID)
	return ok && s == seat
}

var _ Brain = (*Agent)(nil)
