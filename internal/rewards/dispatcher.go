package rewards

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/ericogr/duel-arena/internal/game"
	"github.com/ericogr/duel-arena/internal/logging"
)

// Sink performs the leveling and reward bookkeeping for one outcome.
type Sink interface {
	RecordOutcome(ctx context.Context, r game.Report) error
}

const recordTimeout = 10 * time.Second

var errQueueFull = errors.New("reward queue full")

// Dispatcher hands match outcomes to the sink on background workers so
// that a session never waits on bookkeeping.
type Dispatcher struct {
	sink        Sink
	workers     int
	queue       chan game.Report
	// enqueueWait bounds how long Report waits for room in a full queue.
	enqueueWait time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher returns a stopped dispatcher. Call Start before Report.
func NewDispatcher(sink Sink, workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		sink:        sink,
		workers:     workers,
		queue:       make(chan game.Report, queueSize),
		enqueueWait: constants.RewardEnqueueWait,
	}
}

// Start launches the workers.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
}

// Report queues r. When the queue is full it waits up to enqueueWait for a
// worker to free a slot, then drops the outcome and logs an error.
func (d *Dispatcher) Report(r game.Report) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fields := logging.Fields{
		constants.LogFieldGameID:        r.GameID,
		constants.LogFieldParticipantID: r.ParticipantID,
		constants.LogFieldOutcome:       string(r.Outcome),
	}
	if d.closed {
		logging.Warn("outcome reported after shutdown, dropped", fields)
		return
	}
	select {
	case d.queue <- r:
		return
	default:
	}
	wait := time.NewTimer(d.enqueueWait)
	defer wait.Stop()
	select {
	case d.queue <- r:
	case <-wait.C:
		logging.Error("outcome dropped", errQueueFull, fields)
	}
}

// Stop drains the queue and waits for the workers to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for r := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		err := d.sink.RecordOutcome(ctx, r)
		cancel()
		fields := logging.Fields{
			constants.LogFieldGameID:        r.GameID,
			constants.LogFieldParticipantID: r.ParticipantID,
			constants.LogFieldOutcome:       string(r.Outcome),
			constants.LogFieldReason:        string(r.Reason),
		}
		if err != nil {
			logging.Error("failed to record outcome", err, fields)
			continue
		}
		logging.Info("outcome recorded", fields)
	}
}
