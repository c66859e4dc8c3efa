package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/ericogr/duel-arena/internal/game"
	"github.com/ericogr/duel-arena/internal/logging"
)

// Registry is the arena of live sessions. Sessions are reached by id only;
// a session removes itself through the registry when it ends.
type Registry struct {
	mu            sync.RWMutex
	sessions      map[string]*Session
	byParticipant map[string]string

	timing Timing
	deps   Deps
	newID  func() string
}

// NewRegistry returns an empty registry whose sessions share timing and deps.
func NewRegistry(t Timing, d Deps) *Registry {
	return &Registry{
		sessions:      make(map[string]*Session),
		byParticipant: make(map[string]string),
		timing:        t,
		deps:          d,
		newID:         uuid.NewString,
	}
}

// Create starts a session for the two participants, challenger first. A
// human who is already in a session cannot be placed in another one; bots
// can fight any number of matches at once.
func (r *Registry) Create(a, b string) (*Session, error) {
	if a == "" || b == "" || a == b {
		return nil, game.ErrNotAParticipant
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range []string{a, b} {
		if game.IsBotID(id) {
			continue
		}
		if _, busy := r.byParticipant[id]; busy {
			return nil, game.ErrOpponentUnavailable
		}
	}
	id := r.newID()
	s := newSession(id, a, b, r.timing, r.deps, hooks{ended: r.Remove, left: r.release, rejoin: r.claim})
	r.sessions[id] = s
	for _, p := range []string{a, b} {
		if !game.IsBotID(p) {
			r.byParticipant[p] = id
		}
	}
	go s.Run()

	logging.Info("game created", logging.Fields{
		constants.LogFieldGameID:        id,
		constants.LogFieldParticipantID: a,
		constants.LogFieldOpponentID:    b,
	})
	return s, nil
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, game.ErrUnknownGame
	}
	return s, nil
}

// GameOf returns the id of the session a human participant belongs to.
func (r *Registry) GameOf(participantID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byParticipant[participantID]
	return id, ok
}

// InGame reports whether the participant is in a waiting or running session.
func (r *Registry) InGame(participantID string) bool {
	_, ok := r.GameOf(participantID)
	return ok
}

// Remove forgets a session. It is called by the session itself on end.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return
	}
	delete(r.sessions, id)
	for _, p := range s.Participants() {
		if r.byParticipant[p] == id {
			delete(r.byParticipant, p)
		}
	}
	logging.Debug("game removed", logging.Fields{constants.LogFieldGameID: id})
}

// release drops a participant from the index if it still points at gameID.
func (r *Registry) release(gameID, participantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byParticipant[participantID] == gameID {
		delete(r.byParticipant, participantID)
	}
}

// claim points the index back at gameID unless the participant has moved
// on to another session.
func (r *Registry) claim(gameID, participantID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[gameID]; !ok {
		return false
	}
	if cur, busy := r.byParticipant[participantID]; busy && cur != gameID {
		return false
	}
	r.byParticipant[participantID] = gameID
	return true
}

// List returns a view of every session, oldest first.
func (r *Registry) List() []Info {
	r.mu.RLock()
	out := make([]Info, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.Info())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep expires sessions that have been waiting for their participants
// longer than ttl and returns how many were expired.
func (r *Registry) Sweep(ctx context.Context, ttl time.Duration, now time.Time) int {
	var stale []*Session
	r.mu.RLock()
	for _, s := range r.sessions {
		info := s.Info()
		if info.Status == game.StatusWaiting && now.Sub(info.CreatedAt) > ttl {
			stale = append(stale, s)
		}
	}
	r.mu.RUnlock()

	expired := 0
	for _, s := range stale {
		if s.Expire(ctx) {
			expired++
			logging.Info("waiting game expired", logging.Fields{constants.LogFieldGameID: s.ID})
		}
	}
	return expired
}

// Shutdown stops every session without reporting outcomes.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		all = append(all, s)
		delete(r.sessions, id)
	}
	r.byParticipant = make(map[string]string)
	r.mu.Unlock()
	for _, s := range all {
		s.Stop()
		<-s.Done()
	}
}
