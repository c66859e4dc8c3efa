package challenge

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/ericogr/duel-arena/internal/game"
	"github.com/ericogr/duel-arena/internal/keys"
	"github.com/ericogr/duel-arena/internal/logging"
	"github.com/ericogr/duel-arena/internal/protocol"
)

// Reasons carried by challengeExpired.
const (
	ReasonExpired     = "expired"
	ReasonDisconnect  = "disconnect"
	ReasonUnavailable = "unavailable"
)

// Notifier delivers a server message to one participant.
type Notifier interface {
	Notify(participantID, msgType string, payload any)
}

// Directory answers who can be challenged and how they are described.
type Directory interface {
	Available(participantID string) bool
	Summary(participantID string) game.Summary
}

// MatchCreator creates the game session for an accepted challenge.
type MatchCreator interface {
	CreateMatch(challengerID, opponentID string) (gameID string, err error)
}

// Config holds broker timing.
type Config struct {
	Expiry       time.Duration
	BotAcceptMin time.Duration
	BotAcceptMax time.Duration
}

type pending struct {
	c        game.Challenge
	expiry   *time.Timer
	autoResp *time.Timer
}

func (p *pending) stop() {
	p.expiry.Stop()
	if p.autoResp != nil {
		p.autoResp.Stop()
	}
}

// Broker negotiates 1:1 pairings before a session exists.
type Broker struct {
	mu     sync.Mutex
	byID   map[string]*pending
	byPair map[string]string

	cfg      Config
	dir      Directory
	creator  MatchCreator
	notifier Notifier

	// Delay draws the bot accept latency in [min, max].
	Delay func(min, max time.Duration) time.Duration
	now   func() time.Time
	newID func() string
}

// NewBroker returns a broker with no pending challenges.
func NewBroker(cfg Config, dir Directory, creator MatchCreator, n Notifier) *Broker {
	return &Broker{
		byID:     make(map[string]*pending),
		byPair:   make(map[string]string),
		cfg:      cfg,
		dir:      dir,
		creator:  creator,
		notifier: n,
		Delay:    randomDelay,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func randomDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)+1))
}

// Challenge creates a pending challenge from challengerID to opponentID.
func (b *Broker) Challenge(challengerID, opponentID string) (game.Challenge, error) {
	if challengerID == opponentID {
		return game.Challenge{}, game.ErrSelfChallenge
	}
	if !b.dir.Available(opponentID) {
		return game.Challenge{}, game.ErrOpponentUnavailable
	}

	b.mu.Lock()
	for _, k := range keys.BothWays(challengerID, opponentID) {
		if _, exists := b.byPair[k]; exists {
			b.mu.Unlock()
			return game.Challenge{}, game.ErrDuplicateChallenge
		}
	}
	now := b.now()
	c := game.Challenge{
		ID:           b.newID(),
		ChallengerID: challengerID,
		OpponentID:   opponentID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(b.cfg.Expiry),
	}
	p := &pending{c: c}
	id := c.ID
	p.expiry = time.AfterFunc(b.cfg.Expiry, func() { b.expire(id) })
	if game.IsBotID(opponentID) {
		delay := b.Delay(b.cfg.BotAcceptMin, b.cfg.BotAcceptMax)
		p.autoResp = time.AfterFunc(delay, func() { b.autoAccept(id, opponentID) })
	}
	b.byID[id] = p
	b.byPair[keys.PairKey(challengerID, opponentID)] = id
	b.mu.Unlock()

	notice := b.notice(c, "")
	b.notify(opponentID, protocol.MsgChallengeReceived, notice)
	b.notify(challengerID, protocol.MsgChallengeSent, notice)

	logging.Info("challenge created", logging.Fields{
		constants.LogFieldChallengeID:   id,
		constants.LogFieldParticipantID: challengerID,
		constants.LogFieldOpponentID:    opponentID,
	})
	return c, nil
}

// Respond resolves a pending challenge on behalf of its opponent.
func (b *Broker) Respond(challengeID, responderID string, accept bool) error {
	b.mu.Lock()
	p, ok := b.byID[challengeID]
	if !ok {
		b.mu.Unlock()
		return game.ErrChallengeExpired
	}
	if p.c.OpponentID != responderID {
		b.mu.Unlock()
		return game.ErrNotAParticipant
	}
	b.removeLocked(p)
	b.mu.Unlock()

	c := p.c
	if !accept {
		b.notify(c.ChallengerID, protocol.MsgChallengeRejected, b.notice(c, ""))
		logging.Info("challenge declined", logging.Fields{constants.LogFieldChallengeID: c.ID})
		return nil
	}

	gameID, err := b.creator.CreateMatch(c.ChallengerID, c.OpponentID)
	if err != nil {
		notice := b.notice(c, ReasonUnavailable)
		b.notify(c.ChallengerID, protocol.MsgChallengeExpired, notice)
		b.notify(c.OpponentID, protocol.MsgChallengeExpired, notice)
		logging.Warn("accepted challenge could not start a game", logging.Fields{
			constants.LogFieldChallengeID: c.ID,
			"error":                       err.Error(),
		})
		return err
	}

	// Each side is told about the other one.
	b.notify(c.ChallengerID, protocol.MsgChallengeAccepted, protocol.ChallengeAccepted{
		GameID:   gameID,
		Opponent: b.dir.Summary(c.OpponentID),
	})
	b.notify(c.OpponentID, protocol.MsgChallengeAccepted, protocol.ChallengeAccepted{
		GameID:   gameID,
		Opponent: b.dir.Summary(c.ChallengerID),
	})
	logging.Info("challenge accepted", logging.Fields{
		constants.LogFieldChallengeID: c.ID,
		constants.LogFieldGameID:      gameID,
	})
	return nil
}

// CancelFor withdraws every pending challenge involving participantID and
// tells the other side. It returns how many were withdrawn.
func (b *Broker) CancelFor(participantID string) int {
	b.mu.Lock()
	var dropped []game.Challenge
	for _, p := range b.byID {
		if p.c.ChallengerID == participantID || p.c.OpponentID == participantID {
			b.removeLocked(p)
			dropped = append(dropped, p.c)
		}
	}
	b.mu.Unlock()

	for _, c := range dropped {
		other := c.OpponentID
		if other == participantID {
			other = c.ChallengerID
		}
		b.notify(other, protocol.MsgChallengeExpired, b.notice(c, ReasonDisconnect))
	}
	return len(dropped)
}

// Pending returns the number of live challenges.
func (b *Broker) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.byID)
}

// Stop cancels all timers and forgets every challenge.
func (b *Broker) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.byID {
		b.removeLocked(p)
	}
}

func (b *Broker) expire(id string) {
	b.mu.Lock()
	p, ok := b.byID[id]
	if !ok {
		b.mu.Unlock()
		return
	}
	b.removeLocked(p)
	b.mu.Unlock()

	notice := b.notice(p.c, ReasonExpired)
	b.notify(p.c.ChallengerID, protocol.MsgChallengeExpired, notice)
	b.notify(p.c.OpponentID, protocol.MsgChallengeExpired, notice)
	logging.Info("challenge expired", logging.Fields{constants.LogFieldChallengeID: id})
}

func (b *Broker) autoAccept(id, botID string) {
	if err := b.Respond(id, botID, true); err != nil && !errors.Is(err, game.ErrChallengeExpired) {
		logging.Warn("bot could not accept challenge", logging.Fields{
			constants.LogFieldChallengeID: id,
			constants.LogFieldBotID:       botID,
			"error":                       err.Error(),
		})
	}
}

func (b *Broker) removeLocked(p *pending) {
	p.stop()
	delete(b.byID, p.c.ID)
	delete(b.byPair, keys.PairKey(p.c.ChallengerID, p.c.OpponentID))
}

func (b *Broker) notice(c game.Challenge, reason string) protocol.ChallengeNotice {
	return protocol.ChallengeNotice{
		ChallengeID: c.ID,
		Challenger:  b.dir.Summary(c.ChallengerID),
		Opponent:    b.dir.Summary(c.OpponentID),
		ExpiresAt:   c.ExpiresAt.UnixMilli(),
		Reason:      reason,
	}
}

func (b *Broker) notify(participantID, msgType string, payload any) {
	if b.notifier == nil || game.IsBotID(participantID) {
		return
	}
	b.notifier.Notify(participantID, msgType, payload)
}
