package hub

import (
	"sort"
	"sync"

	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/ericogr/duel-arena/internal/game"
	"github.com/ericogr/duel-arena/internal/logging"
	"github.com/ericogr/duel-arena/internal/protocol"
)

// Conn is one live client connection.
type Conn interface {
	Send([]byte) error
	Close() error
}

// Hub maps participants to their live connection. A participant has at most
// one connection; a newer one replaces the older.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

func New() *Hub {
	return &Hub{conns: make(map[string]Conn)}
}

// Register binds c to participantID and closes any connection it replaces.
// It reports whether an older connection was replaced.
func (h *Hub) Register(participantID string, c Conn) bool {
	h.mu.Lock()
	old, replaced := h.conns[participantID]
	h.conns[participantID] = c
	h.mu.Unlock()
	if replaced && old != c {
		_ = old.Close()
	}
	return replaced
}

// Unregister removes c if it is still the participant's current
// connection. It reports whether the participant went offline.
func (h *Hub) Unregister(participantID string, c Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.conns[participantID]; ok && cur == c {
		delete(h.conns, participantID)
		return true
	}
	return false
}

// IsOnline reports whether participantID has a live connection.
func (h *Hub) IsOnline(participantID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.conns[participantID]
	return ok
}

// Online returns the connected participant ids, sorted.
func (h *Hub) Online() []string {
	h.mu.RLock()
	out := make([]string, 0, len(h.conns))
	for id := range h.conns {
		out = append(out, id)
	}
	h.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Notify encodes payload and sends it to participantID. Messages for bots
// and offline participants are dropped.
func (h *Hub) Notify(participantID, msgType string, payload any) {
	if game.IsBotID(participantID) {
		return
	}
	h.mu.RLock()
	c, ok := h.conns[participantID]
	h.mu.RUnlock()
	if !ok {
		logging.Debug("message for offline participant dropped", logging.Fields{
			constants.LogFieldParticipantID: participantID,
			constants.LogFieldMessageType:   msgType,
		})
		return
	}
	b, err := protocol.Encode(msgType, payload)
	if err != nil {
		logging.Error("failed to encode message", err, logging.Fields{constants.LogFieldMessageType: msgType})
		return
	}
	if err := c.Send(b); err != nil {
		logging.Warn("failed to deliver message", logging.Fields{
			constants.LogFieldParticipantID: participantID,
			constants.LogFieldMessageType:   msgType,
			"error":                         err.Error(),
		})
	}
}
