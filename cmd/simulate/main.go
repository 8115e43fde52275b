// Command simulate plays bot-versus-bot games locally with the same service
// the Nakama module runs, and prints the results.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"tabletop/internal/app"
	"tabletop/internal/bot"
	"tabletop/internal/config"
)

// maxActions stops a game of two kings chasing each other.
const maxActions = 2000

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	_ = godotenv.Load()

	gameName := flag.String("game", "checkers", "game to simulate: checkers or whist")
	games := flag.Int("games", 10, "number of games")
	seed := flag.Int64("seed", 0, "random seed (0 picks one from the clock)")
	levelOne := flag.String("one", "greedy", "strategy of the first seat: random or greedy")
	levelTwo := flag.String("two", "random", "strategy of the second seat: random or greedy")
	verbose := flag.Bool("v", false, "log every event")
	flag.Parse()

	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	game, err := app.ParseGame(*gameName)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	one, err := newAgent(*levelOne, rng)
	if err != nil {
		log.Fatalf("first seat: %v", err)
	}
	two, err := newAgent(*levelTwo, rng)
	if err != nil {
		log.Fatalf("second seat: %v", err)
	}

	log.Printf("Simulating %d %s games (seed %d): %s vs %s", *games, game, *seed, one.Name, two.Name)
	svc := app.NewService(rng, cfg)
	wins := map[string]int{}
	for i := 0; i < *games; i++ {
		winner, err := play(svc, game, one, two, *verbose)
		if err != nil {
			log.Fatalf("game %d: %v", i+1, err)
		}
		wins[winner]++
	}

	fmt.Fprintf(os.Stdout, "%-28s %d\n", one.Name+" ["+one.Level.String()+"]", wins[one.ID])
	fmt.Fprintf(os.Stdout, "%-28s %d\n", two.Name+" ["+two.Level.String()+"]", wins[two.ID])
	fmt.Fprintf(os.Stdout, "%-28s %d\n", "unfinished", wins[""])
}

func newAgent(levelName string, rng *rand.Rand) (*bot.Agent, error) {
	level, err := bot.ParseBotLevel(levelName)
	if err != nil {
		return nil, err
	}
	return bot.NewAgent(level, rng)
}

// play runs one game and returns the winner's id, or "" when it hit maxActions.
func play(svc *app.Service, game app.Game, one, two *bot.Agent, verbose bool) (string, error) {
	gameID := uuid.NewString()
	table, events, err := svc.StartGame(game, []string{one.ID, two.ID})
	if err != nil {
		return "", err
	}
	logEvents(gameID, events, verbose)

	agents := map[string]*bot.Agent{one.ID: one, two.ID: two}
	for n := 0; n < maxActions && !table.Ended(); n++ {
		actor := table.TurnHolder()
		events, err := svc.AutoPlay(table, actor, agents[actor])
		if err != nil {
			return "", fmt.Errorf("%s could not act: %w", agents[actor].Name, err)
		}
		logEvents(gameID, events, verbose)
	}

	winner, reason, ok := table.Winner()
	if !ok {
		log.Printf("[%s] no result after %d actions, scores %v", gameID, maxActions, table.Scores())
		return "", nil
	}
	log.Printf("[%s] %s won (%s), scores %v", gameID, agents[winner].Name, reason, table.Scores())
	return winner, nil
}

func logEvents(gameID string, events []app.Event, verbose bool) {
	if !verbose {
		return
	}
	for _, ev := range events {
		log.Printf("[%s] %s %+v", gameID, ev.Kind, ev.Payload)
	}
}
