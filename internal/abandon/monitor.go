package abandon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/ericogr/duel-arena/internal/logging"
	"github.com/ericogr/duel-arena/internal/protocol"
)

// Notifier delivers a server message to one participant.
type Notifier interface {
	Notify(participantID, msgType string, payload any)
}

// Forfeiter ends a running game in favor of the side that stayed. It must
// report true only for the call that actually ended the game.
type Forfeiter interface {
	Forfeit(ctx context.Context, gameID, departedID string) bool
}

// Config holds the grace window and the forfeit reward shown to the winner.
type Config struct {
	Grace         time.Duration
	WatchdogExtra time.Duration
	Reward        int
}

const (
	sourceGrace    = "grace"
	sourceWatchdog = "watchdog"
	forfeitTimeout = 5 * time.Second
)

type watch struct {
	gameID    string
	departed  string
	remaining string
	grace     *time.Timer
	watchdog  *time.Timer
}

func (w *watch) stop() {
	w.grace.Stop()
	w.watchdog.Stop()
}

// Monitor tracks participants who dropped out of a running game.
type Monitor struct {
	mu      sync.Mutex
	watches map[string]*watch

	cfg       Config
	forfeiter Forfeiter
	notifier  Notifier
}

// NewMonitor returns a monitor with nothing watched.
func NewMonitor(cfg Config, f Forfeiter, n Notifier) *Monitor {
	return &Monitor{
		watches:   make(map[string]*watch),
		cfg:       cfg,
		forfeiter: f,
		notifier:  n,
	}
}

// Disconnected starts the grace countdown for departedID. The remaining
// participant is told how long the other side has to come back. A second
// call for someone already watched is ignored.
func (m *Monitor) Disconnected(gameID, departedID, remainingID string) {
	m.mu.Lock()
	if _, watching := m.watches[departedID]; watching {
		m.mu.Unlock()
		return
	}
	w := &watch{gameID: gameID, departed: departedID, remaining: remainingID}
	w.grace = time.AfterFunc(m.cfg.Grace, func() { m.fire(w, sourceGrace) })
	w.watchdog = time.AfterFunc(m.cfg.Grace+m.cfg.WatchdogExtra, func() { m.fire(w, sourceWatchdog) })
	m.watches[departedID] = w
	m.mu.Unlock()

	m.notify(remainingID, protocol.MsgOpponentDisconnected, protocol.OpponentNotice{
		GameID:       gameID,
		Message:      "Your opponent lost connection and may return",
		GraceSeconds: int(m.cfg.Grace / time.Second),
	})
	logging.Info("participant disconnected, grace period started", logging.Fields{
		constants.LogFieldGameID:        gameID,
		constants.LogFieldParticipantID: departedID,
	})
}

// Reconnected cancels the countdown for participantID and tells the other
// side. It reports whether a countdown was running.
func (m *Monitor) Reconnected(participantID string) (gameID string, ok bool) {
	m.mu.Lock()
	w, ok := m.watches[participantID]
	if ok {
		w.stop()
		delete(m.watches, participantID)
	}
	m.mu.Unlock()
	if !ok {
		return "", false
	}

	m.notify(w.remaining, protocol.MsgOpponentRejoined, protocol.OpponentNotice{
		GameID:  w.gameID,
		Message: "Your opponent is back",
	})
	logging.Info("participant reconnected within grace period", logging.Fields{
		constants.LogFieldGameID:        w.gameID,
		constants.LogFieldParticipantID: participantID,
	})
	return w.gameID, true
}

// Watching reports whether a countdown is running for participantID.
func (m *Monitor) Watching(participantID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.watches[participantID]
	return ok
}

// Stop cancels every countdown.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, w := range m.watches {
		w.stop()
		delete(m.watches, id)
	}
}

// fire is run by both the grace timer and the watchdog. The forfeiter
// decides which call wins; the watch is dropped once the game ended or the
// watchdog had its turn.
func (m *Monitor) fire(w *watch, source string) {
	ctx, cancel := context.WithTimeout(context.Background(), forfeitTimeout)
	defer cancel()
	ended := m.forfeiter.Forfeit(ctx, w.gameID, w.departed)

	m.mu.Lock()
	if (ended || source == sourceWatchdog) && m.watches[w.departed] == w {
		w.stop()
		delete(m.watches, w.departed)
	}
	m.mu.Unlock()

	fields := logging.Fields{
		constants.LogFieldGameID:        w.gameID,
		constants.LogFieldParticipantID: w.departed,
		"source":                        source,
	}
	if !ended {
		logging.Debug("forfeit signal had no effect", fields)
		return
	}
	if source == sourceWatchdog {
		logging.Warn("forfeit forced by watchdog", fields)
	} else {
		logging.Info("forfeit after grace period", fields)
	}
	m.notify(w.remaining, protocol.MsgOpponentAbandoned, protocol.OpponentNotice{
		GameID:  w.gameID,
		Message: fmt.Sprintf("Your opponent did not return. You win by forfeit and earn %d gold", m.cfg.Reward),
		Reward:  m.cfg.Reward,
	})
}

func (m *Monitor) notify(participantID, msgType string, payload any) {
	if m.notifier != nil {
		m.notifier.Notify(participantID, msgType, payload)
	}
}
