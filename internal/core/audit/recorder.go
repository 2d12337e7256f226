package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultBufferSize   = 256
	defaultWriteTimeout = 5 * time.Second
)

// Outcomes reported to an Observer.
const (
	OutcomeWritten = "written"
	OutcomeFailed  = "failed"
	OutcomeDropped = "dropped"
)

// Sink accepts audit entries without blocking the caller.
type Sink interface {
	Record(entry Entry)
}

// Observer is notified of the fate of every recorded entry.
type Observer interface {
	ObserveAudit(outcome string)
}

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Stats is a snapshot of the recorder counters.
type Stats struct {
	Written uint64
	Failed  uint64
	Dropped uint64
}

// RecorderConfig configures a Recorder.
type RecorderConfig struct {
	BufferSize   int
	WriteTimeout time.Duration
}

// Recorder writes entries on a background goroutine. Failures never reach the caller;
// they are logged, counted and reported to the Observer.
type Recorder struct {
	repo     Repository
	logger   zerolog.Logger
	observer Observer
	clock    Clock
	timeout  time.Duration

	entries chan Entry
	stop    chan struct{}
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	written atomic.Uint64
	failed  atomic.Uint64
	dropped atomic.Uint64
}

// NewRecorder starts the writer goroutine. Call Close to drain it.
func NewRecorder(repo Repository, cfg RecorderConfig, logger zerolog.Logger, observer Observer, clock Clock) *Recorder {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if clock == nil {
		clock = realClock{}
	}

	r := &Recorder{
		repo:     repo,
		logger:   logger.With().Str("component", "audit").Logger(),
		observer: observer,
		clock:    clock,
		timeout:  cfg.WriteTimeout,
		entries:  make(chan Entry, cfg.BufferSize),
		stop:     make(chan struct{}),
	}

	r.wg.Add(1)
	go r.run()

	return r
}

// Record enqueues entry. It drops the entry when the buffer is full or the recorder is closed.
func (r *Recorder) Record(entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.clock.Now()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.drop(entry, "recorder closed")
		return
	}

	select {
	case r.entries <- entry:
	default:
		r.drop(entry, "buffer full")
	}
}

// Stats returns the current counters.
func (r *Recorder) Stats() Stats {
	return Stats{
		Written: r.written.Load(),
		Failed:  r.failed.Load(),
		Dropped: r.dropped.Load(),
	}
}

// Close stops accepting entries and waits until the buffer is drained.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.stop)
	r.mu.Unlock()

	r.wg.Wait()
	return nil
}

func (r *Recorder) run() {
	defer r.wg.Done()

	for {
		select {
		case <-r.stop:
			for {
				select {
				case entry := <-r.entries:
					r.write(entry)
				default:
					return
				}
			}
		case entry := <-r.entries:
			r.write(entry)
		}
	}
}

func (r *Recorder) write(entry Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.repo.Insert(ctx, &entry); err != nil {
		r.failed.Add(1)
		r.notify(OutcomeFailed)
		r.logger.Error().Err(err).
			Str("audit_id", entry.ID).
			Str("action", entry.Action).
			Str("user_id", entry.UserID).
			Msg("failed to write audit entry")
		return
	}

	r.written.Add(1)
	r.notify(OutcomeWritten)
}

func (r *Recorder) drop(entry Entry, reason string) {
	r.dropped.Add(1)
	r.notify(OutcomeDropped)
	r.logger.Warn().
		Str("audit_id", entry.ID).
		Str("action", entry.Action).
		Str("reason", reason).
		Msg("audit entry dropped")
}

func (r *Recorder) notify(outcome string) {
	if r.observer != nil {
		r.observer.ObserveAudit(outcome)
	}
}
