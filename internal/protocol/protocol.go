package protocol

import (
	"encoding/json"

	"github.com/ericogr/duel-arena/internal/game"
)

// Client to server.
const (
	MsgChallengePlayer    = "challengePlayer"
	MsgRespondToChallenge = "respondToChallenge"
	MsgJoinGame           = "joinGame"
	MsgLeaveGame          = "leaveGame"
	MsgMakeMove           = "makeMove"
)

// Server to client.
const (
	MsgChallengeReceived    = "challengeReceived"
	MsgChallengeSent        = "challengeSent"
	MsgChallengeRejected    = "challengeRejected"
	MsgChallengeExpired     = "challengeExpired"
	MsgChallengeAccepted    = "challengeAccepted"
	MsgGameStarted          = "gameStarted"
	MsgRoundStarted         = "roundStarted"
	MsgMoveReceived         = "moveReceived"
	MsgOpponentMadeMove     = "opponentMadeMove"
	MsgPlayerSkippedTurn    = "playerSkippedTurn"
	MsgAllMovesMade         = "allMovesMade"
	MsgRoundResult          = "roundResult"
	MsgGameOver             = "gameOver"
	MsgOpponentLeftBattle   = "opponentLeftBattle"
	MsgOpponentRejoined     = "opponentRejoined"
	MsgOpponentAbandoned    = "opponentAbandoned"
	MsgOpponentDisconnected = "opponentDisconnected"
	MsgMoveRejected         = "moveRejected"
	MsgProcessingError      = "processingError"
	MsgError                = "error"
)

// Envelope is the frame of every real-time message.
type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"`
}

// ChallengePlayer asks for a match against OpponentID.
type ChallengePlayer struct {
	OpponentID string `json:"opponentId"`
}

// RespondToChallenge accepts or declines a pending challenge.
type RespondToChallenge struct {
	ChallengeID string `json:"challengeId"`
	Accept      bool   `json:"accept"`
}

// GameRef names a game for join and leave requests.
type GameRef struct {
	GameID string `json:"gameId"`
}

// MakeMove submits a move. Empty areas mean no action.
type MakeMove struct {
	GameID     string `json:"gameId"`
	AttackArea string `json:"attackArea"`
	BlockArea  string `json:"blockArea"`
}

// ChallengeNotice covers challengeReceived, challengeSent,
// challengeRejected and challengeExpired.
type ChallengeNotice struct {
	ChallengeID string       `json:"challengeId"`
	Challenger  game.Summary `json:"challenger"`
	Opponent    game.Summary `json:"opponent"`
	ExpiresAt   int64        `json:"expiresAt,omitempty"`
	Reason      string       `json:"reason,omitempty"`
}

// ChallengeAccepted tells one side a match exists. Opponent is always the
// other side.
type ChallengeAccepted struct {
	GameID   string       `json:"gameId"`
	Opponent game.Summary `json:"opponent"`
}

// RoundStarted covers gameStarted and roundStarted.
type RoundStarted struct {
	GameID        string           `json:"gameId"`
	Round         int              `json:"round"`
	Combatants    []game.Combatant `json:"combatants"`
	TurnTimeLimit int64            `json:"turnTimeLimit"`
	Deadline      int64            `json:"deadline"`
}

// MoveNotice covers moveReceived, opponentMadeMove, playerSkippedTurn and
// allMovesMade.
type MoveNotice struct {
	GameID        string `json:"gameId"`
	Round         int    `json:"round"`
	ParticipantID string `json:"participantId,omitempty"`
}

// RoundResult reports the outcome of a resolved round.
type RoundResult struct {
	GameID     string           `json:"gameId"`
	Round      int              `json:"round"`
	Damage     map[string]int   `json:"damage"`
	Log        []game.LogEntry  `json:"log"`
	Summary    string           `json:"summary"`
	Combatants []game.Combatant `json:"combatants"`
	GameOver   bool             `json:"gameOver"`
	Draw       bool             `json:"draw,omitempty"`
	WinnerID   string           `json:"winner,omitempty"`
}

// GameOver reports the terminal state of a match.
type GameOver struct {
	GameID   string `json:"gameId"`
	WinnerID string `json:"winnerId,omitempty"`
	LoserID  string `json:"loserId,omitempty"`
	Draw     bool   `json:"draw,omitempty"`
	Reason   string `json:"reason"`
}

// OpponentNotice covers the abandonment lifecycle messages.
type OpponentNotice struct {
	GameID       string `json:"gameId"`
	Message      string `json:"message"`
	Reward       int    `json:"reward,omitempty"`
	GraceSeconds int    `json:"graceSeconds,omitempty"`
}

// ErrorNotice covers error, moveRejected and processingError.
type ErrorNotice struct {
	GameID  string `json:"gameId,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
