package game

import "errors"

// Broker-level errors. Surfaced to the requester, never retried.
var (
	ErrOpponentUnavailable = errors.New("opponent is not available")
	ErrDuplicateChallenge  = errors.New("a challenge between these participants is already pending")
	ErrChallengeExpired    = errors.New("challenge expired or no longer exists")
	ErrSelfChallenge       = errors.New("cannot challenge yourself")
)

// Session-level errors. Surfaced as a rejected-move notice; session state is unaffected.
var (
	ErrUnknownGame     = errors.New("game not found")
	ErrNotAParticipant = errors.New("participant is not part of this game")
	ErrDuplicateMove   = errors.New("move already submitted for this round")
	ErrMalformedMove   = errors.New("attack and block areas must be head, body or legs")
	ErrRoundClosed     = errors.New("moves are not being collected right now")
	ErrGameFull        = errors.New("game already has two combatants")
)

// Snapshot construction errors.
var (
	ErrInvalidProfile = errors.New("profile is missing an id or has negative attributes")
	ErrUnknownAbility = errors.New("unknown special ability")
)

// ErrorCode maps a domain error to the stable code sent on the wire.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrOpponentUnavailable):
		return "OpponentUnavailable"
	case errors.Is(err, ErrDuplicateChallenge):
		return "DuplicateChallenge"
	case errors.Is(err, ErrChallengeExpired):
		return "ChallengeExpired"
	case errors.Is(err, ErrSelfChallenge):
		return "SelfChallenge"
	case errors.Is(err, ErrUnknownGame):
		return "UnknownGame"
	case errors.Is(err, ErrNotAParticipant):
		return "NotAParticipant"
	case errors.Is(err, ErrDuplicateMove):
		return "DuplicateMove"
	case errors.Is(err, ErrMalformedMove):
		return "MalformedMove"
	case errors.Is(err, ErrRoundClosed):
		return "RoundClosed"
	case errors.Is(err, ErrGameFull):
		return "GameFull"
	case errors.Is(err, ErrInvalidProfile), errors.Is(err, ErrUnknownAbility):
		return "InvalidProfile"
	}
	return "Internal"
}
