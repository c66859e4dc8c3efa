package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ericogr/duel-arena/internal/abandon"
	"github.com/ericogr/duel-arena/internal/bot"
	"github.com/ericogr/duel-arena/internal/challenge"
	"github.com/ericogr/duel-arena/internal/config"
	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/ericogr/duel-arena/internal/dedupe"
	"github.com/ericogr/duel-arena/internal/game"
	"github.com/ericogr/duel-arena/internal/hub"
	"github.com/ericogr/duel-arena/internal/keys"
	"github.com/ericogr/duel-arena/internal/logging"
	"github.com/ericogr/duel-arena/internal/protocol"
	"github.com/ericogr/duel-arena/internal/session"
)

const (
	profileTimeout = 5 * time.Second
	requestTimeout = 5 * time.Second
)

// ProfileProvider returns fighting data for human participants.
type ProfileProvider interface {
	Profile(ctx context.Context, participantID string) (game.Profile, error)
	EnsureProfile(ctx context.Context, participantID, name string) error
}

// Deps wires the lobby to its collaborators.
type Deps struct {
	Hub      *hub.Hub
	Roster   *bot.Roster
	Profiles ProfileProvider
	Reporter session.Reporter
	Brain    session.MoveChooser
	// AcceptDelay draws the bot accept latency. Optional.
	AcceptDelay func(min, max time.Duration) time.Duration
	Timing      config.Timing
	Rewards     config.Rewards
}

// Lobby routes client messages to the challenge broker, the session
// registry and the abandonment monitor. It is also the broker's directory
// and match creator and the monitor's forfeiter.
type Lobby struct {
	hub      *hub.Hub
	roster   *bot.Roster
	profiles ProfileProvider
	timing   config.Timing

	registry *session.Registry
	broker   *challenge.Broker
	monitor  *abandon.Monitor

	mu    sync.RWMutex
	names map[string]string
}

// NewLobby builds the lobby and the components it owns.
func NewLobby(d Deps) *Lobby {
	l := &Lobby{
		hub:      d.Hub,
		roster:   d.Roster,
		profiles: d.Profiles,
		timing:   d.Timing,
		names:    make(map[string]string),
	}
	l.registry = session.NewRegistry(session.Timing{
		TurnTimeLimit: d.Timing.TurnTimeLimit,
		SettleDelay:   d.Timing.SettleDelay,
		ForfeitReward: d.Rewards.ForfeitGold,
	}, session.Deps{
		Notifier: d.Hub,
		Reporter: d.Reporter,
		Brain:    d.Brain,
	})
	l.broker = challenge.NewBroker(challenge.Config{
		Expiry:       d.Timing.ChallengeExpiry,
		BotAcceptMin: d.Timing.BotAcceptMin,
		BotAcceptMax: d.Timing.BotAcceptMax,
	}, l, l, d.Hub)
	if d.AcceptDelay != nil {
		l.broker.Delay = d.AcceptDelay
	}
	l.monitor = abandon.NewMonitor(abandon.Config{
		Grace:         d.Timing.GracePeriod,
		WatchdogExtra: d.Timing.WatchdogExtra,
		Reward:        d.Rewards.ForfeitGold,
	}, l, d.Hub)
	return l
}

// Available reports whether participantID can be challenged right now.
// Bots are always available; humans must be online and not in a game.
func (l *Lobby) Available(participantID string) bool {
	if game.IsBotID(participantID) {
		_, ok := l.roster.Lookup(participantID)
		return ok
	}
	return l.hub.IsOnline(participantID) && !l.registry.InGame(participantID)
}

// Summary describes a participant in challenge messages.
func (l *Lobby) Summary(participantID string) game.Summary {
	if b, ok := l.roster.Lookup(participantID); ok {
		return b.GameProfile().Summary()
	}
	l.mu.RLock()
	name, ok := l.names[participantID]
	l.mu.RUnlock()
	if !ok || name == "" {
		name = participantID
	}
	return game.Summary{ID: participantID, Name: name, Level: 1}
}

// CreateMatch starts a session for an accepted challenge. Bot sides join
// immediately; humans join with joinGame.
func (l *Lobby) CreateMatch(challengerID, opponentID string) (string, error) {
	s, err := l.registry.Create(challengerID, opponentID)
	if err != nil {
		return "", err
	}
	for _, id := range []string{challengerID, opponentID} {
		b, ok := l.roster.Lookup(id)
		if !ok {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		err := s.JoinBot(ctx, b)
		cancel()
		if err != nil {
			s.Stop()
			l.registry.Remove(s.ID)
			return "", err
		}
	}
	return s.ID, nil
}

// Forfeit ends gameID in favor of the side that stayed.
func (l *Lobby) Forfeit(ctx context.Context, gameID, departedID string) bool {
	s, err := l.registry.Get(gameID)
	if err != nil {
		return false
	}
	return s.Forfeit(ctx, departedID)
}

// Connected registers a live connection. A participant coming back to a
// running game gets its state re-sent.
func (l *Lobby) Connected(participantID, name string, c hub.Conn) {
	l.mu.Lock()
	l.names[participantID] = name
	l.mu.Unlock()

	l.hub.Register(participantID, c)
	logging.Info("participant connected", logging.Fields{constants.LogFieldParticipantID: participantID})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), profileTimeout)
		defer cancel()
		if err := l.profiles.EnsureProfile(ctx, participantID, name); err != nil {
			logging.Error("ensure profile failed", err, logging.Fields{constants.LogFieldParticipantID: participantID})
		}
	}()

	gameID, ok := l.monitor.Reconnected(participantID)
	if !ok {
		gameID, ok = l.registry.GameOf(participantID)
	}
	if !ok {
		return
	}
	s, err := l.registry.Get(gameID)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := s.Resync(ctx, participantID); err != nil {
		logging.Warn("resync failed", logging.Fields{
			constants.LogFieldGameID:        gameID,
			constants.LogFieldParticipantID: participantID,
			"error":                         err.Error(),
		})
	}
}

// Disconnected handles a closed connection. Pending challenges are
// withdrawn, a waiting game is left and a running one enters the grace
// period. A connection that was already replaced is ignored.
func (l *Lobby) Disconnected(participantID string, c hub.Conn) {
	if !l.hub.Unregister(participantID, c) {
		return
	}
	logging.Info("participant disconnected", logging.Fields{constants.LogFieldParticipantID: participantID})
	l.broker.CancelFor(participantID)

	gameID, ok := l.registry.GameOf(participantID)
	if !ok {
		return
	}
	s, err := l.registry.Get(gameID)
	if err != nil {
		return
	}
	switch st := s.Info().Status; {
	case st.InPlay():
		remaining := otherSide(s.Participants(), participantID)
		l.monitor.Disconnected(gameID, participantID, remaining)
	case st == game.StatusWaiting:
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_ = s.Leave(ctx, participantID)
	}
}

// Handle processes one inbound frame from participantID.
func (l *Lobby) Handle(ctx context.Context, participantID string, frame []byte) {
	env, err := protocol.DecodeEnvelope(frame)
	if err != nil {
		l.reject(participantID, protocol.MsgError, "", err)
		return
	}
	switch env.T {
	case protocol.MsgChallengePlayer:
		p, err := protocol.DecodePayload[protocol.ChallengePlayer](env)
		if err != nil {
			l.reject(participantID, protocol.MsgError, "", err)
			return
		}
		if _, err := l.broker.Challenge(participantID, p.OpponentID); err != nil {
			l.reject(participantID, protocol.MsgError, "", err)
		}
	case protocol.MsgRespondToChallenge:
		p, err := protocol.DecodePayload[protocol.RespondToChallenge](env)
		if err != nil {
			l.reject(participantID, protocol.MsgError, "", err)
			return
		}
		if err := l.broker.Respond(p.ChallengeID, participantID, p.Accept); err != nil {
			l.reject(participantID, protocol.MsgError, "", err)
		}
	case protocol.MsgJoinGame:
		p, err := protocol.DecodePayload[protocol.GameRef](env)
		if err != nil {
			l.reject(participantID, protocol.MsgError, "", err)
			return
		}
		l.join(participantID, p.GameID)
	case protocol.MsgLeaveGame:
		p, err := protocol.DecodePayload[protocol.GameRef](env)
		if err != nil {
			l.reject(participantID, protocol.MsgError, "", err)
			return
		}
		s, err := l.registry.Get(p.GameID)
		if err == nil {
			err = s.Leave(ctx, participantID)
		}
		if err != nil {
			l.reject(participantID, protocol.MsgError, p.GameID, err)
		}
	case protocol.MsgMakeMove:
		p, err := protocol.DecodePayload[protocol.MakeMove](env)
		if err != nil {
			l.reject(participantID, protocol.MsgMoveRejected, "", game.ErrMalformedMove)
			return
		}
		l.move(ctx, participantID, p)
	default:
		l.reject(participantID, protocol.MsgError, "", errUnknownMessage)
		logging.Warn("unknown message type", logging.Fields{
			constants.LogFieldParticipantID: participantID,
			constants.LogFieldMessageType:   env.T,
		})
	}
}

var errUnknownMessage = errors.New("unknown message type")

func (l *Lobby) move(ctx context.Context, participantID string, p protocol.MakeMove) {
	m, err := game.NewMove(p.AttackArea, p.BlockArea)
	if err != nil {
		l.reject(participantID, protocol.MsgMoveRejected, p.GameID, err)
		return
	}
	s, err := l.registry.Get(p.GameID)
	if err == nil {
		err = s.SubmitMove(ctx, participantID, m)
	}
	if err != nil {
		l.reject(participantID, protocol.MsgMoveRejected, p.GameID, err)
	}
}

// join loads the participant's profile off the connection goroutine so a
// slow provider never holds up the reader.
func (l *Lobby) join(participantID, gameID string) {
	s, err := l.registry.Get(gameID)
	if err != nil {
		l.reject(participantID, protocol.MsgError, gameID, err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), profileTimeout)
		defer cancel()
		p, err := l.loadProfile(ctx, participantID)
		if err == nil {
			err = s.Join(ctx, p)
		}
		if err != nil {
			l.reject(participantID, protocol.MsgError, gameID, err)
		}
	}()
}

func (l *Lobby) loadProfile(ctx context.Context, participantID string) (game.Profile, error) {
	v, err, _ := dedupe.ProfileGroup.Do(keys.ProfileKey(participantID), func() (any, error) {
		return l.profiles.Profile(ctx, participantID)
	})
	if err != nil {
		logging.Error("profile load failed", err, logging.Fields{constants.LogFieldParticipantID: participantID})
		return game.Profile{}, err
	}
	p := v.(game.Profile)
	l.mu.RLock()
	if name := l.names[participantID]; name != "" {
		p.Name = name
	}
	l.mu.RUnlock()
	return p, nil
}

func (l *Lobby) reject(participantID, msgType, gameID string, err error) {
	l.hub.Notify(participantID, msgType, protocol.ErrorNotice{
		GameID:  gameID,
		Code:    game.ErrorCode(err),
		Message: err.Error(),
	})
}

// Player is an online human as listed in the lobby.
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// Snapshot is the lobby view served to clients.
type Snapshot struct {
	Players           []Player `json:"players"`
	PendingChallenges int      `json:"pendingChallenges"`
	// Reconnecting lists players in a running game whose grace period is ticking.
	Reconnecting []string `json:"reconnecting"`
}

// Snapshot lists who is online, who can be challenged and who is
// expected back in a running game.
func (l *Lobby) Snapshot() Snapshot {
	online := l.hub.Online()
	out := Snapshot{
		Players:           make([]Player, 0, len(online)),
		PendingChallenges: l.broker.Pending(),
		Reconnecting:      []string{},
	}
	l.mu.RLock()
	for _, id := range online {
		name := l.names[id]
		if name == "" {
			name = id
		}
		out.Players = append(out.Players, Player{ID: id, Name: name, Available: !l.registry.InGame(id)})
	}
	l.mu.RUnlock()
	for _, g := range l.registry.List() {
		if !g.Status.InPlay() {
			continue
		}
		for _, p := range g.Participants {
			if l.monitor.Watching(p) {
				out.Reconnecting = append(out.Reconnecting, p)
			}
		}
	}
	return out
}

// Games lists live sessions.
func (l *Lobby) Games() []session.Info { return l.registry.List() }

// Bots lists the configured roster.
func (l *Lobby) Bots() []bot.Profile { return l.roster.List() }

// Sweep expires sessions that stayed waiting longer than the configured TTL.
func (l *Lobby) Sweep(ctx context.Context) int {
	return l.registry.Sweep(ctx, l.timing.WaitingTTL, time.Now())
}

// Shutdown stops timers and every live session.
func (l *Lobby) Shutdown() {
	l.broker.Stop()
	l.monitor.Stop()
	l.registry.Shutdown()
}

func otherSide(slots [2]string, id string) string {
	if slots[0] == id {
		return slots[1]
	}
	return slots[0]
}
