package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"
	// RpcMatchHistory lists recorded results, optionally for one player.
	RpcMatchHistory = "match_history"

	// MatchNameCheckers and MatchNameWhist are the authoritative match handler names registered with Nakama.
	MatchNameCheckers = "checkers_match"
	MatchNameWhist    = "whist_match"

	// ResultsCollection is the storage collection holding finished games.
	ResultsCollection = "match_results"
)

// Match phases as advertised in the label.
const (
	PhaseLobby   = "lobby"
	PhasePlaying = "playing"
	PhaseEnded   = "ended"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame      int64 = 1
	OpMove           int64 = 2
	OpPlayCard       int64 = 3
	OpRequestNewGame int64 = 4
	OpResign         int64 = 5

	// Server -> Client events
	OpPlayerJoined int64 = 101
	OpPlayerLeft   int64 = 102
	OpGameStarted  int64 = 103
	OpHandDealt    int64 = 104 // send privately
	OpCheckerMoved int64 = 105
	OpCardPlayed   int64 = 106
	OpTrickWon     int64 = 107
	OpStageChanged int64 = 108
	OpRoundScored  int64 = 109
	OpGameEnded    int64 = 110
	OpTurnChanged  int64 = 111
	OpRejected     int64 = 112 // send privately
	OpPrizeTaken   int64 = 113 // send privately
)
