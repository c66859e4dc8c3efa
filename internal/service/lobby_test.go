package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ericogr/duel-arena/internal/bot"
	"github.com/ericogr/duel-arena/internal/config"
	"github.com/ericogr/duel-arena/internal/game"
	"github.com/ericogr/duel-arena/internal/hub"
	"github.com/ericogr/duel-arena/internal/protocol"
)

type conn struct {
	mu     sync.Mutex
	frames []protocol.Envelope
	closed bool
}

func (c *conn) Send(b []byte) error {
	env, err := protocol.DecodeEnvelope(b)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.frames = append(c.frames, env)
	c.mu.Unlock()
	return nil
}

func (c *conn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *conn) find(typ string) (protocol.Envelope, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range c.frames {
		if f.T == typ {
			return f, true
		}
	}
	return protocol.Envelope{}, false
}

func (c *conn) waitFor(t *testing.T, typ string) protocol.Envelope {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f, ok := c.find(typ); ok {
			return f
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", typ)
	return protocol.Envelope{}
}

type profiles struct {
	mu      sync.Mutex
	ensured map[string]string
}

func (p *profiles) Profile(_ context.Context, id string) (game.Profile, error) {
	return game.Profile{
		ID:         id,
		Name:       id,
		Level:      1,
		Attributes: game.Attributes{Strength: 10, Agility: 10, Intuition: 10, Endurance: 10},
	}, nil
}

func (p *profiles) EnsureProfile(_ context.Context, id, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ensured == nil {
		p.ensured = make(map[string]string)
	}
	p.ensured[id] = name
	return nil
}

type reports struct {
	mu   sync.Mutex
	list []game.Report
}

func (r *reports) Report(rep game.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, rep)
}

func (r *reports) all() []game.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]game.Report(nil), r.list...)
}

type quickBrain struct{}

func (quickBrain) ChooseMove(bot.Profile, bot.MatchView) game.Move {
	return game.Move{AttackArea: game.AreaHead.Ptr(), BlockArea: game.AreaBody.Ptr()}
}

func (quickBrain) ThinkingTime(bot.Difficulty) time.Duration { return time.Millisecond }

func timing(grace time.Duration) config.Timing {
	return config.Timing{
		TurnTimeLimit:   time.Hour,
		SettleDelay:     5 * time.Millisecond,
		ChallengeExpiry: time.Hour,
		GracePeriod:     grace,
		WatchdogExtra:   time.Hour,
		WaitingTTL:      time.Hour,
	}
}

func newLobby(t *testing.T, grace time.Duration) (*Lobby, *reports) {
	t.Helper()
	rep := &reports{}
	l := NewLobby(Deps{
		Hub: hub.New(),
		Roster: bot.NewRoster([]bot.Profile{{
			ID:         "bot:grunt",
			Name:       "Grunt",
			Level:      1,
			Difficulty: bot.Easy,
			Attributes: game.Attributes{Strength: 10, Agility: 10, Intuition: 10, Endurance: 10},
		}}),
		Profiles:    &profiles{},
		Reporter:    rep,
		Brain:       quickBrain{},
		AcceptDelay: func(time.Duration, time.Duration) time.Duration { return time.Millisecond },
		Timing:      timing(grace),
		Rewards:     config.DefaultRewards,
	})
	t.Cleanup(l.Shutdown)
	return l, rep
}

func send(t *testing.T, l *Lobby, pid, typ string, payload any) {
	t.Helper()
	b, err := protocol.Encode(typ, payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	l.Handle(context.Background(), pid, b)
}

func payload[T any](t *testing.T, env protocol.Envelope) T {
	t.Helper()
	v, err := protocol.DecodePayload[T](env)
	if err != nil {
		t.Fatalf("decode %s: %v", env.T, err)
	}
	return v
}

// pvp connects alice and bob, pairs them and has both join.
func pvp(t *testing.T, l *Lobby) (alice, bob *conn, gameID string) {
	t.Helper()
	alice, bob = &conn{}, &conn{}
	l.Connected("alice", "Alice", alice)
	l.Connected("bob", "Bob", bob)

	send(t, l, "alice", protocol.MsgChallengePlayer, protocol.ChallengePlayer{OpponentID: "bob"})
	notice := payload[protocol.ChallengeNotice](t, bob.waitFor(t, protocol.MsgChallengeReceived))
	send(t, l, "bob", protocol.MsgRespondToChallenge, protocol.RespondToChallenge{ChallengeID: notice.ChallengeID, Accept: true})

	acc := payload[protocol.ChallengeAccepted](t, alice.waitFor(t, protocol.MsgChallengeAccepted))
	if acc.Opponent.ID != "bob" {
		t.Fatalf("alice should see bob as opponent, got %q", acc.Opponent.ID)
	}
	send(t, l, "alice", protocol.MsgJoinGame, protocol.GameRef{GameID: acc.GameID})
	send(t, l, "bob", protocol.MsgJoinGame, protocol.GameRef{GameID: acc.GameID})
	alice.waitFor(t, protocol.MsgGameStarted)
	bob.waitFor(t, protocol.MsgGameStarted)
	return alice, bob, acc.GameID
}

func TestPlayAgainstBot(t *testing.T) {
	l, _ := newLobby(t, time.Hour)
	alice := &conn{}
	l.Connected("alice", "Alice", alice)

	send(t, l, "alice", protocol.MsgChallengePlayer, protocol.ChallengePlayer{OpponentID: "bot:grunt"})
	alice.waitFor(t, protocol.MsgChallengeSent)
	acc := payload[protocol.ChallengeAccepted](t, alice.waitFor(t, protocol.MsgChallengeAccepted))
	if !acc.Opponent.IsBot {
		t.Fatalf("expected bot opponent summary, got %+v", acc.Opponent)
	}

	send(t, l, "alice", protocol.MsgJoinGame, protocol.GameRef{GameID: acc.GameID})
	started := payload[protocol.RoundStarted](t, alice.waitFor(t, protocol.MsgGameStarted))
	if started.Round != 1 || len(started.Combatants) != 2 {
		t.Fatalf("unexpected gameStarted: %+v", started)
	}

	send(t, l, "alice", protocol.MsgMakeMove, protocol.MakeMove{GameID: acc.GameID, AttackArea: "legs", BlockArea: "head"})
	alice.waitFor(t, protocol.MsgMoveReceived)
	res := payload[protocol.RoundResult](t, alice.waitFor(t, protocol.MsgRoundResult))
	if res.Round != 1 {
		t.Fatalf("expected round 1 result, got %d", res.Round)
	}
}

func TestChallengeOfflineHuman(t *testing.T) {
	l, _ := newLobby(t, time.Hour)
	alice := &conn{}
	l.Connected("alice", "Alice", alice)

	send(t, l, "alice", protocol.MsgChallengePlayer, protocol.ChallengePlayer{OpponentID: "bob"})
	e := payload[protocol.ErrorNotice](t, alice.waitFor(t, protocol.MsgError))
	if e.Code != "OpponentUnavailable" {
		t.Fatalf("expected OpponentUnavailable, got %q", e.Code)
	}
}

func TestBusyHumanIsUnavailable(t *testing.T) {
	l, _ := newLobby(t, time.Hour)
	pvp(t, l)
	carol := &conn{}
	l.Connected("carol", "Carol", carol)

	send(t, l, "carol", protocol.MsgChallengePlayer, protocol.ChallengePlayer{OpponentID: "alice"})
	e := payload[protocol.ErrorNotice](t, carol.waitFor(t, protocol.MsgError))
	if e.Code != "OpponentUnavailable" {
		t.Fatalf("expected OpponentUnavailable, got %q", e.Code)
	}
}

func TestMoveRejections(t *testing.T) {
	l, _ := newLobby(t, time.Hour)
	alice, _, gameID := pvp(t, l)

	send(t, l, "alice", protocol.MsgMakeMove, protocol.MakeMove{GameID: gameID, AttackArea: "neck", BlockArea: "head"})
	e := payload[protocol.ErrorNotice](t, alice.waitFor(t, protocol.MsgMoveRejected))
	if e.Code != "MalformedMove" {
		t.Fatalf("expected MalformedMove, got %q", e.Code)
	}

	carol := &conn{}
	l.Connected("carol", "Carol", carol)
	send(t, l, "carol", protocol.MsgMakeMove, protocol.MakeMove{GameID: gameID, AttackArea: "head", BlockArea: "head"})
	e = payload[protocol.ErrorNotice](t, carol.waitFor(t, protocol.MsgMoveRejected))
	if e.Code != "NotAParticipant" {
		t.Fatalf("expected NotAParticipant, got %q", e.Code)
	}

	c := &conn{}
	l.Connected("dave", "Dave", c)
	send(t, l, "dave", protocol.MsgMakeMove, protocol.MakeMove{GameID: "missing", AttackArea: "head"})
	e = payload[protocol.ErrorNotice](t, c.waitFor(t, protocol.MsgMoveRejected))
	if e.Code != "UnknownGame" {
		t.Fatalf("expected UnknownGame, got %q", e.Code)
	}
}

func TestUnknownMessageType(t *testing.T) {
	l, _ := newLobby(t, time.Hour)
	alice := &conn{}
	l.Connected("alice", "Alice", alice)
	send(t, l, "alice", "dance", protocol.GameRef{})
	alice.waitFor(t, protocol.MsgError)
}

func TestDisconnectForfeitsAfterGrace(t *testing.T) {
	l, rep := newLobby(t, 20*time.Millisecond)
	alice, bob, gameID := pvp(t, l)

	l.Disconnected("alice", alice)
	bob.waitFor(t, protocol.MsgOpponentDisconnected)
	bob.waitFor(t, protocol.MsgOpponentAbandoned)
	over := payload[protocol.GameOver](t, bob.waitFor(t, protocol.MsgGameOver))
	if over.WinnerID != "bob" || over.GameID != gameID {
		t.Fatalf("expected bob to win %s, got %+v", gameID, over)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(rep.all()) < 2 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	for _, r := range rep.all() {
		want := game.OutcomeLoss
		if r.ParticipantID == "bob" {
			want = game.OutcomeWin
		}
		if r.Outcome != want || r.Reason != game.ReasonForfeit {
			t.Fatalf("unexpected report %+v", r)
		}
	}
	if n := len(rep.all()); n != 2 {
		t.Fatalf("expected 2 reports, got %d", n)
	}
}

func TestReconnectResyncs(t *testing.T) {
	l, _ := newLobby(t, time.Hour)
	alice, bob, _ := pvp(t, l)

	l.Disconnected("alice", alice)
	bob.waitFor(t, protocol.MsgOpponentDisconnected)

	again := &conn{}
	l.Connected("alice", "Alice", again)
	bob.waitFor(t, protocol.MsgOpponentRejoined)
	rs := payload[protocol.RoundStarted](t, again.waitFor(t, protocol.MsgRoundStarted))
	if rs.Round != 1 {
		t.Fatalf("expected resync of round 1, got %d", rs.Round)
	}
}

func TestDisconnectWhileWaitingDropsGame(t *testing.T) {
	l, _ := newLobby(t, time.Hour)
	alice, bob := &conn{}, &conn{}
	l.Connected("alice", "Alice", alice)
	l.Connected("bob", "Bob", bob)
	send(t, l, "alice", protocol.MsgChallengePlayer, protocol.ChallengePlayer{OpponentID: "bob"})
	notice := payload[protocol.ChallengeNotice](t, bob.waitFor(t, protocol.MsgChallengeReceived))
	send(t, l, "bob", protocol.MsgRespondToChallenge, protocol.RespondToChallenge{ChallengeID: notice.ChallengeID, Accept: true})
	alice.waitFor(t, protocol.MsgChallengeAccepted)
	if len(l.Games()) != 1 {
		t.Fatalf("expected one waiting game")
	}

	l.Disconnected("alice", alice)
	deadline := time.Now().Add(2 * time.Second)
	for len(l.Games()) != 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if n := len(l.Games()); n != 0 {
		t.Fatalf("expected empty waiting game to be dropped, %d left", n)
	}
}

func TestDisconnectBeforeJoiningBotMatchFreesPlayer(t *testing.T) {
	l, _ := newLobby(t, time.Hour)
	alice := &conn{}
	l.Connected("alice", "Alice", alice)
	send(t, l, "alice", protocol.MsgChallengePlayer, protocol.ChallengePlayer{OpponentID: "bot:grunt"})
	alice.waitFor(t, protocol.MsgChallengeAccepted)

	l.Disconnected("alice", alice)
	deadline := time.Now().Add(2 * time.Second)
	for len(l.Games()) != 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if n := len(l.Games()); n != 0 {
		t.Fatalf("bot-only waiting game should be dropped, %d left", n)
	}

	again := &conn{}
	l.Connected("alice", "Alice", again)
	if !l.Available("alice") {
		t.Fatalf("alice should be available after leaving the waiting game")
	}
	send(t, l, "alice", protocol.MsgChallengePlayer, protocol.ChallengePlayer{OpponentID: "bot:grunt"})
	again.waitFor(t, protocol.MsgChallengeAccepted)
	if _, failed := again.find(protocol.MsgError); failed {
		t.Fatalf("new challenge should not fail")
	}
}

func TestSnapshotListsPlayersAndReconnecting(t *testing.T) {
	l, _ := newLobby(t, time.Hour)
	alice, _, _ := pvp(t, l)
	carol, dave := &conn{}, &conn{}
	l.Connected("carol", "Carol", carol)
	l.Connected("dave", "Dave", dave)
	send(t, l, "carol", protocol.MsgChallengePlayer, protocol.ChallengePlayer{OpponentID: "dave"})
	dave.waitFor(t, protocol.MsgChallengeReceived)

	l.Disconnected("alice", alice)
	snap := l.Snapshot()
	if snap.PendingChallenges != 1 {
		t.Fatalf("expected one pending challenge, got %d", snap.PendingChallenges)
	}
	if len(snap.Reconnecting) != 1 || snap.Reconnecting[0] != "alice" {
		t.Fatalf("expected alice to be reconnecting, got %v", snap.Reconnecting)
	}
	avail := map[string]bool{}
	for _, p := range snap.Players {
		avail[p.ID] = p.Available
	}
	if _, online := avail["alice"]; online || len(avail) != 3 {
		t.Fatalf("unexpected online players %+v", snap.Players)
	}
	if avail["bob"] || !avail["carol"] || !avail["dave"] {
		t.Fatalf("bob is fighting, carol and dave are free: %+v", snap.Players)
	}
}

func TestReplacedConnectionIgnored(t *testing.T) {
	l, _ := newLobby(t, time.Hour)
	first, second := &conn{}, &conn{}
	l.Connected("alice", "Alice", first)
	l.Connected("alice", "Alice", second)
	if !first.closed {
		t.Fatalf("older connection should be closed")
	}
	l.Disconnected("alice", first)
	if !l.Available("alice") {
		t.Fatalf("alice should still be online through the newer connection")
	}
}

func TestPendingChallengeWithdrawnOnDisconnect(t *testing.T) {
	l, _ := newLobby(t, time.Hour)
	alice, bob := &conn{}, &conn{}
	l.Connected("alice", "Alice", alice)
	l.Connected("bob", "Bob", bob)
	send(t, l, "alice", protocol.MsgChallengePlayer, protocol.ChallengePlayer{OpponentID: "bob"})
	bob.waitFor(t, protocol.MsgChallengeReceived)

	l.Disconnected("alice", alice)
	exp := payload[protocol.ChallengeNotice](t, bob.waitFor(t, protocol.MsgChallengeExpired))
	if exp.Reason != "disconnect" {
		t.Fatalf("expected disconnect reason, got %q", exp.Reason)
	}
}
