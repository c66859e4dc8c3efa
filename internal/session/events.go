package session

import (
	"github.com/ericogr/duel-arena/internal/bot"
	"github.com/ericogr/duel-arena/internal/game"
)

// Events delivered to the session actor. Requests carry a buffered reply
// channel; timer events carry the round they were scheduled for.

type joinEvent struct {
	profile game.Profile
	bot     *bot.Profile
	reply   chan error
}

type moveEvent struct {
	participantID string
	move          game.Move
	reply         chan error
}

type leaveEvent struct {
	participantID string
	reply         chan error
}

type forfeitEvent struct {
	departedID string
	reply      chan error
}

type resyncEvent struct {
	participantID string
	reply         chan error
}

type expireEvent struct {
	reply chan error
}

type timerExpired struct {
	round int
}

type botTurn struct {
	round int
	botID string
	move  game.Move
}

type settleElapsed struct {
	round int
}
