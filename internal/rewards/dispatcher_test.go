package rewards

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ericogr/duel-arena/internal/game"
)

type memorySink struct {
	mu    sync.Mutex
	got   []game.Report
	block chan struct{}
	err   error
}

func (m *memorySink) RecordOutcome(_ context.Context, r game.Report) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.got = append(m.got, r)
	return m.err
}

func (m *memorySink) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.got)
}

func TestDispatcherDeliversAndDrains(t *testing.T) {
	sink := &memorySink{}
	d := NewDispatcher(sink, 2, 8)
	d.Start()
	for _, id := range []string{"a", "b", "c"} {
		d.Report(game.Report{GameID: "g", ParticipantID: id, Outcome: game.OutcomeWin})
	}
	d.Stop()
	if sink.len() != 3 {
		t.Fatalf("expected 3 outcomes, got %d", sink.len())
	}
	d.Report(game.Report{ParticipantID: "late"})
	d.Stop()
	if sink.len() != 3 {
		t.Fatalf("reports after stop must be dropped")
	}
}

func TestReportWaitIsBounded(t *testing.T) {
	sink := &memorySink{block: make(chan struct{})}
	d := NewDispatcher(sink, 1, 1)
	d.enqueueWait = 10 * time.Millisecond
	d.Start()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			d.Report(game.Report{ParticipantID: "a"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Report waited past its bound on a stalled sink")
	}
	close(sink.block)
	d.Stop()
	if n := sink.len(); n < 1 || n > 2 {
		t.Fatalf("expected the overflow to be dropped, got %d delivered", n)
	}
}

func TestReportWaitsForRoom(t *testing.T) {
	sink := &memorySink{block: make(chan struct{})}
	d := NewDispatcher(sink, 1, 1)
	d.enqueueWait = time.Second
	d.Start()

	done := make(chan struct{})
	go func() {
		for _, id := range []string{"a", "b", "c"} {
			d.Report(game.Report{ParticipantID: id})
		}
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	close(sink.block)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Report never found room")
	}
	d.Stop()
	if n := sink.len(); n != 3 {
		t.Fatalf("a short burst must not lose outcomes, got %d delivered", n)
	}
}

func TestSinkErrorsDoNotStopWorkers(t *testing.T) {
	sink := &memorySink{err: errors.New("db down")}
	d := NewDispatcher(sink, 1, 4)
	d.Start()
	d.Report(game.Report{ParticipantID: "a"})
	d.Report(game.Report{ParticipantID: "b"})
	d.Stop()
	if sink.len() != 2 {
		t.Fatalf("expected both attempts, got %d", sink.len())
	}
}
