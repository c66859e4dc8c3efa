package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ericogr/duel-arena/internal/bot"
	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/ericogr/duel-arena/internal/engine"
	"github.com/ericogr/duel-arena/internal/game"
	"github.com/ericogr/duel-arena/internal/logging"
	"github.com/ericogr/duel-arena/internal/protocol"
)

var errWrongState = errors.New("session is not in the required state")

// Notifier delivers a server message to one participant.
type Notifier interface {
	Notify(participantID, msgType string, payload any)
}

// Reporter receives the outcome of a finished match for one human side.
type Reporter interface {
	Report(r game.Report)
}

// MoveChooser picks bot moves and their thinking delay.
type MoveChooser interface {
	ChooseMove(p bot.Profile, v bot.MatchView) game.Move
	ThinkingTime(d bot.Difficulty) time.Duration
}

// ResolveFunc resolves one round. engine.Resolve in production.
type ResolveFunc func(a game.Combatant, moveA game.Move, b game.Combatant, moveB game.Move, r engine.Roller) engine.Result

// Timing holds the per-match durations.
type Timing struct {
	TurnTimeLimit time.Duration
	SettleDelay   time.Duration
	// ForfeitReward is shown to the remaining participant when the other leaves.
	ForfeitReward int
}

// Deps are the collaborators shared by every session.
type Deps struct {
	Notifier  Notifier
	Reporter  Reporter
	Brain     MoveChooser
	NewRoller func() engine.Roller
	Resolve   ResolveFunc
	Now       func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.NewRoller == nil {
		d.NewRoller = func() engine.Roller { return engine.NewRandRoller(time.Now().UnixNano()) }
	}
	if d.Resolve == nil {
		d.Resolve = engine.Resolve
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Info is a read-only view of a session for listings and sweeping.
type Info struct {
	ID           string      `json:"id"`
	Status       game.Status `json:"status"`
	Round        int         `json:"round"`
	Participants []string    `json:"participants"`
	CreatedAt    time.Time   `json:"createdAt"`
}

type fighter struct {
	c     game.Combatant
	bot   *bot.Profile
	moves []game.Move
}

// hooks keep the registry index in step with the session.
type hooks struct {
	ended  func(gameID string)
	// left releases a human who walked out of a waiting session.
	left   func(gameID, participantID string)
	// rejoin reclaims the index for a returning human; false if they are
	// busy elsewhere.
	rejoin func(gameID, participantID string) bool
}

type ending struct {
	winnerID string
	loserID  string
	draw     bool
	reason   game.EndReason
}

// Session owns one match. All state below the channels is touched only by
// the goroutine running Run.
type Session struct {
	ID string

	inbox    chan any
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	info     atomic.Pointer[Info]

	timing  Timing
	deps    Deps
	roller  engine.Roller
	hooks   hooks

	slots     [2]string
	createdAt time.Time
	status    game.Status
	fighters  map[string]*fighter
	departed  map[string]bool
	round     *game.Round
	timer     *MoveTimer
	settle    *time.Timer
	botTimers map[string]*time.Timer
}

func newSession(id string, a, b string, t Timing, d Deps, h hooks) *Session {
	d = d.withDefaults()
	s := &Session{
		ID:        id,
		inbox:     make(chan any, 64),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		timing:    t,
		deps:      d,
		roller:    d.NewRoller(),
		hooks:     h,
		slots:     [2]string{a, b},
		createdAt: d.Now(),
		status:    game.StatusWaiting,
		fighters:  make(map[string]*fighter, 2),
		departed:  make(map[string]bool, 1),
		botTimers: make(map[string]*time.Timer, 1),
	}
	s.timer = NewMoveTimer(func(round int) { s.post(timerExpired{round: round}) })
	s.publish()
	return s
}

// Run processes events until the match ends or Stop is called.
func (s *Session) Run() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			s.cancelTimers()
			s.status = game.StatusEnded
			s.publish()
			return
		case ev := <-s.inbox:
			s.handle(ev)
			if s.status == game.StatusEnded {
				return
			}
		}
	}
}

// Stop terminates the actor without reporting an outcome.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.quit) })
}

// Done is closed once the actor has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// Info returns the latest published view of the session.
func (s *Session) Info() Info { return *s.info.Load() }

// Join adds a human participant's snapshot.
func (s *Session) Join(ctx context.Context, p game.Profile) error {
	return s.ask(ctx, func(r chan error) any { return joinEvent{profile: p, reply: r} })
}

// JoinBot adds an AI-controlled participant.
func (s *Session) JoinBot(ctx context.Context, b bot.Profile) error {
	return s.ask(ctx, func(r chan error) any { return joinEvent{profile: b.GameProfile(), bot: &b, reply: r} })
}

// SubmitMove records a participant's move for the current round.
func (s *Session) SubmitMove(ctx context.Context, participantID string, m game.Move) error {
	return s.ask(ctx, func(r chan error) any { return moveEvent{participantID: participantID, move: m, reply: r} })
}

// Leave removes a participant. In play, the other side wins.
func (s *Session) Leave(ctx context.Context, participantID string) error {
	return s.ask(ctx, func(r chan error) any { return leaveEvent{participantID: participantID, reply: r} })
}

// Forfeit ends an in-play match in favor of the side that is not departedID.
// It reports whether this call ended the match; later calls are no-ops.
func (s *Session) Forfeit(ctx context.Context, departedID string) bool {
	return s.ask(ctx, func(r chan error) any { return forfeitEvent{departedID: departedID, reply: r} }) == nil
}

// Resync re-sends the current round state to a returning participant.
func (s *Session) Resync(ctx context.Context, participantID string) error {
	return s.ask(ctx, func(r chan error) any { return resyncEvent{participantID: participantID, reply: r} })
}

// Expire ends a session that is still waiting for its participants.
func (s *Session) Expire(ctx context.Context) bool {
	return s.ask(ctx, func(r chan error) any { return expireEvent{reply: r} }) == nil
}

// Participants returns the two expected participant ids in slot order.
func (s *Session) Participants() [2]string { return s.slots }

func (s *Session) ask(ctx context.Context, build func(chan error) any) error {
	reply := make(chan error, 1)
	select {
	case s.inbox <- build(reply):
	case <-s.done:
		return game.ErrUnknownGame
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-s.done:
		select {
		case err := <-reply:
			return err
		default:
			return game.ErrUnknownGame
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post delivers a timer event. Events for a finished session are dropped.
func (s *Session) post(ev any) {
	select {
	case s.inbox <- ev:
	case <-s.done:
	}
}

func (s *Session) handle(ev any) {
	switch e := ev.(type) {
	case joinEvent:
		e.reply <- s.handleJoin(e.profile, e.bot)
	case moveEvent:
		e.reply <- s.handleMove(e.participantID, e.move)
	case leaveEvent:
		e.reply <- s.handleLeave(e.participantID)
	case forfeitEvent:
		e.reply <- s.handleForfeit(e.departedID)
	case resyncEvent:
		e.reply <- s.handleResync(e.participantID)
	case expireEvent:
		e.reply <- s.handleExpire()
	case timerExpired:
		s.handleTimeout(e.round)
	case botTurn:
		s.handleBotTurn(e)
	case settleElapsed:
		if s.status == game.StatusResolving && s.round != nil && s.round.Number == e.round {
			s.startRound(e.round + 1)
		}
	}
	s.publish()
}

// hasHuman reports whether a human fighter has joined.
func (s *Session) hasHuman() bool {
	for _, f := range s.fighters {
		if !f.c.IsBot {
			return true
		}
	}
	return false
}

func (s *Session) isSlot(id string) bool {
	return id != "" && (id == s.slots[0] || id == s.slots[1])
}

func (s *Session) other(id string) string {
	if id == s.slots[0] {
		return s.slots[1]
	}
	return s.slots[0]
}

func (s *Session) handleJoin(p game.Profile, b *bot.Profile) error {
	if !s.isSlot(p.ID) {
		return game.ErrNotAParticipant
	}
	if _, joined := s.fighters[p.ID]; joined {
		if s.status.InPlay() {
			return s.handleResync(p.ID)
		}
		return nil
	}
	if s.status != game.StatusWaiting {
		return game.ErrGameFull
	}
	c, err := game.NewCombatant(p)
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", p.ID, err)
	}
	if s.departed[p.ID] {
		if s.hooks.rejoin != nil && !s.hooks.rejoin(s.ID, p.ID) {
			return game.ErrOpponentUnavailable
		}
		delete(s.departed, p.ID)
	}
	s.fighters[p.ID] = &fighter{c: c, bot: b}
	logging.Info("participant joined", logging.Fields{
		constants.LogFieldGameID:        s.ID,
		constants.LogFieldParticipantID: p.ID,
	})
	if len(s.fighters) == 2 {
		s.startRound(1)
	}
	return nil
}

func (s *Session) startRound(n int) {
	now := s.deps.Now()
	s.round = game.NewRound(n, now)
	s.status = game.StatusActive
	s.timer.Arm(n, s.timing.TurnTimeLimit)

	msgType := protocol.MsgRoundStarted
	if n == 1 {
		msgType = protocol.MsgGameStarted
	}
	payload := s.roundPayload(now)
	s.broadcast(msgType, payload)
	s.scheduleBots(n)

	logging.Debug("round started", logging.Fields{
		constants.LogFieldGameID: s.ID,
		constants.LogFieldRound:  n,
	})
}

func (s *Session) roundPayload(startedAt time.Time) protocol.RoundStarted {
	return protocol.RoundStarted{
		GameID:        s.ID,
		Round:         s.round.Number,
		Combatants:    s.combatants(),
		TurnTimeLimit: s.timing.TurnTimeLimit.Milliseconds(),
		Deadline:      startedAt.Add(s.timing.TurnTimeLimit).UnixMilli(),
	}
}

func (s *Session) combatants() []game.Combatant {
	out := make([]game.Combatant, 0, 2)
	for _, id := range s.slots {
		if f, ok := s.fighters[id]; ok {
			out = append(out, f.c)
		}
	}
	return out
}

func (s *Session) scheduleBots(round int) {
	if s.deps.Brain == nil {
		return
	}
	for _, id := range s.slots {
		f, ok := s.fighters[id]
		if !ok || f.bot == nil {
			continue
		}
		opp := s.fighters[s.other(id)]
		view := bot.MatchView{
			Round:         round,
			Self:          f.c,
			Opponent:      opp.c,
			OpponentMoves: opp.moves,
			OwnMoves:      f.moves,
		}
		move := s.deps.Brain.ChooseMove(*f.bot, view)
		delay := s.deps.Brain.ThinkingTime(f.bot.Difficulty)
		botID := id
		if t, ok := s.botTimers[botID]; ok {
			t.Stop()
		}
		s.botTimers[botID] = time.AfterFunc(delay, func() {
			s.post(botTurn{round: round, botID: botID, move: move})
		})
	}
}

func (s *Session) handleMove(participantID string, m game.Move) error {
	if !s.isSlot(participantID) {
		return game.ErrNotAParticipant
	}
	if s.status != game.StatusActive || s.round == nil {
		return game.ErrRoundClosed
	}
	if m.AttackArea != nil && !m.AttackArea.Valid() || m.BlockArea != nil && !m.BlockArea.Valid() {
		return game.ErrMalformedMove
	}
	m.Auto = false
	return s.record(participantID, m)
}

func (s *Session) handleBotTurn(e botTurn) {
	if s.status != game.StatusActive || s.round == nil || s.round.Number != e.round {
		return
	}
	delete(s.botTimers, e.botID)
	if err := s.record(e.botID, e.move); err != nil {
		logging.Warn("bot move dropped", logging.Fields{
			constants.LogFieldGameID: s.ID,
			constants.LogFieldBotID:  e.botID,
			constants.LogFieldRound:  e.round,
			"error":                  err.Error(),
		})
	}
}

func (s *Session) record(id string, m game.Move) error {
	if err := s.round.Record(id, m); err != nil {
		return err
	}
	notice := protocol.MoveNotice{GameID: s.ID, Round: s.round.Number, ParticipantID: id}
	s.tell(id, protocol.MsgMoveReceived, notice)
	s.tell(s.other(id), protocol.MsgOpponentMadeMove, notice)
	if s.round.Complete(s.slots[0], s.slots[1]) {
		s.broadcast(protocol.MsgAllMovesMade, protocol.MoveNotice{GameID: s.ID, Round: s.round.Number})
		s.completeRound()
	}
	return nil
}

func (s *Session) handleTimeout(round int) {
	if s.status != game.StatusActive || s.round == nil || s.round.Number != round {
		return
	}
	for _, id := range s.slots {
		if s.round.Has(id) {
			continue
		}
		_ = s.round.Record(id, game.AutoMove())
		s.broadcast(protocol.MsgPlayerSkippedTurn, protocol.MoveNotice{GameID: s.ID, Round: round, ParticipantID: id})
		logging.Info("turn timed out, auto move recorded", logging.Fields{
			constants.LogFieldGameID:        s.ID,
			constants.LogFieldParticipantID: id,
			constants.LogFieldRound:         round,
		})
	}
	s.completeRound()
}

// completeRound runs at most once per round: it is only reached from the
// active state and leaves the session in resolving or ended.
func (s *Session) completeRound() {
	s.status = game.StatusResolving
	s.timer.Disarm()
	s.stopBotTimers()

	res, err := s.resolveRound()
	if err != nil {
		logging.Error("round resolution failed", err, logging.Fields{
			constants.LogFieldGameID: s.ID,
			constants.LogFieldRound:  s.round.Number,
		})
		s.broadcast(protocol.MsgProcessingError, protocol.ErrorNotice{
			GameID:  s.ID,
			Code:    "ProcessingError",
			Message: constants.ErrProcessingFailure,
		})
		s.end(ending{reason: game.ReasonError})
		return
	}

	for _, id := range s.slots {
		f := s.fighters[id]
		f.c = res.Apply(f.c)
		f.moves = append(f.moves, s.round.Moves[id])
	}

	s.broadcast(protocol.MsgRoundResult, protocol.RoundResult{
		GameID:     s.ID,
		Round:      s.round.Number,
		Damage:     res.DamageDealt,
		Log:        res.Log,
		Summary:    res.Summary,
		Combatants: s.combatants(),
		GameOver:   res.GameOver,
		Draw:       res.Draw,
		WinnerID:   res.WinnerID,
	})

	if res.GameOver {
		if res.Draw {
			s.end(ending{draw: true, reason: game.ReasonDraw})
		} else {
			s.end(ending{winnerID: res.WinnerID, loserID: res.LoserID, reason: game.ReasonDefeat})
		}
		return
	}

	round := s.round.Number
	s.settle = time.AfterFunc(s.timing.SettleDelay, func() { s.post(settleElapsed{round: round}) })
}

func (s *Session) resolveRound() (res engine.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("resolve round %d: %v", s.round.Number, r)
		}
	}()
	a, b := s.slots[0], s.slots[1]
	res = s.deps.Resolve(s.fighters[a].c, s.round.Moves[a], s.fighters[b].c, s.round.Moves[b], s.roller)
	return res, nil
}

func (s *Session) handleLeave(participantID string) error {
	if !s.isSlot(participantID) {
		return game.ErrNotAParticipant
	}
	switch {
	case s.status == game.StatusWaiting:
		delete(s.fighters, participantID)
		if !game.IsBotID(participantID) && !s.departed[participantID] {
			s.departed[participantID] = true
			if s.hooks.left != nil {
				s.hooks.left(s.ID, participantID)
			}
		}
		if !s.hasHuman() {
			s.destroy()
		}
		return nil
	case s.status.InPlay():
		remaining := s.other(participantID)
		s.tell(remaining, protocol.MsgOpponentLeftBattle, protocol.OpponentNotice{
			GameID:  s.ID,
			Message: s.fighters[participantID].c.Name + " left the battle",
			Reward:  s.timing.ForfeitReward,
		})
		s.end(ending{winnerID: remaining, loserID: participantID, reason: game.ReasonLeft})
		return nil
	}
	return errWrongState
}

func (s *Session) handleForfeit(departedID string) error {
	if !s.isSlot(departedID) {
		return game.ErrNotAParticipant
	}
	if !s.status.InPlay() {
		return errWrongState
	}
	s.end(ending{winnerID: s.other(departedID), loserID: departedID, reason: game.ReasonForfeit})
	return nil
}

func (s *Session) handleResync(participantID string) error {
	if !s.isSlot(participantID) {
		return game.ErrNotAParticipant
	}
	if !s.status.InPlay() || s.round == nil {
		return nil
	}
	s.tell(participantID, protocol.MsgRoundStarted, s.roundPayload(s.round.StartedAt))
	if s.round.Has(participantID) {
		s.tell(participantID, protocol.MsgMoveReceived, protocol.MoveNotice{GameID: s.ID, Round: s.round.Number, ParticipantID: participantID})
	}
	return nil
}

func (s *Session) handleExpire() error {
	if s.status != game.StatusWaiting {
		return errWrongState
	}
	s.end(ending{reason: game.ReasonExpired})
	return nil
}

// end moves the session to its terminal state. Calling it again is a no-op.
func (s *Session) end(e ending) {
	if s.status == game.StatusEnded {
		return
	}
	rounds := 0
	if s.round != nil {
		rounds = s.round.Number
	}
	s.status = game.StatusEnded
	s.cancelTimers()

	s.broadcast(protocol.MsgGameOver, protocol.GameOver{
		GameID:   s.ID,
		WinnerID: e.winnerID,
		LoserID:  e.loserID,
		Draw:     e.draw,
		Reason:   string(e.reason),
	})

	if e.reason.Rewarded() && s.deps.Reporter != nil {
		at := s.deps.Now()
		for _, id := range s.slots {
			f, ok := s.fighters[id]
			if !ok || f.c.IsBot {
				continue
			}
			outcome := game.OutcomeLoss
			switch {
			case e.draw:
				outcome = game.OutcomeDraw
			case id == e.winnerID:
				outcome = game.OutcomeWin
			}
			s.deps.Reporter.Report(game.Report{
				GameID:        s.ID,
				ParticipantID: id,
				OpponentID:    s.other(id),
				Outcome:       outcome,
				Reason:        e.reason,
				Rounds:        rounds,
				At:            at,
			})
		}
	}

	logging.Info("game ended", logging.Fields{
		constants.LogFieldGameID: s.ID,
		constants.LogFieldWinner: e.winnerID,
		constants.LogFieldReason: string(e.reason),
		constants.LogFieldRound:  rounds,
	})
	s.publish()
	if s.hooks.ended != nil {
		s.hooks.ended(s.ID)
	}
}

// destroy drops a session nobody is left in, without an outcome.
func (s *Session) destroy() {
	s.status = game.StatusEnded
	s.cancelTimers()
	s.publish()
	if s.hooks.ended != nil {
		s.hooks.ended(s.ID)
	}
}

func (s *Session) stopBotTimers() {
	for id, t := range s.botTimers {
		t.Stop()
		delete(s.botTimers, id)
	}
}

func (s *Session) cancelTimers() {
	s.timer.Disarm()
	s.stopBotTimers()
	if s.settle != nil {
		s.settle.Stop()
		s.settle = nil
	}
}

func (s *Session) tell(participantID, msgType string, payload any) {
	if s.deps.Notifier == nil || game.IsBotID(participantID) {
		return
	}
	if f, ok := s.fighters[participantID]; ok && f.c.IsBot {
		return
	}
	s.deps.Notifier.Notify(participantID, msgType, payload)
}

func (s *Session) broadcast(msgType string, payload any) {
	for _, id := range s.slots {
		if _, joined := s.fighters[id]; joined {
			s.tell(id, msgType, payload)
		}
	}
}

func (s *Session) publish() {
	info := Info{
		ID:           s.ID,
		Status:       s.status,
		Participants: []string{s.slots[0], s.slots[1]},
		CreatedAt:    s.createdAt,
	}
	if s.round != nil {
		info.Round = s.round.Number
	}
	s.info.Store(&info)
}
