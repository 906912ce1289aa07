// Package scheduler drives dataset reconciliation. Each dataset gets its own
// worker, so reconciliations for different datasets run concurrently while
// runs for the same dataset never overlap. Triggers arriving while a run is
// in flight collapse into a single follow-up run.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tradeops/masterdata/internal/domain/masterdata"
)

// ---------------------------------------------------------------------------
// Reconciliation Job Types
// ---------------------------------------------------------------------------

// Cause records what prompted a reconciliation
type Cause string

const (
	CauseTimer      Cause = "timer"
	CauseFileChange Cause = "file-change"
	CauseManual     Cause = "manual"
)

// State is a dataset worker's position in its reconciliation cycle
type State string

const (
	StateIdle        State = "IDLE"
	StateReconciling State = "RECONCILING"
	StateRetryWait   State = "RETRY_WAIT"
)

// Job is one reconciliation request for one dataset. Attempt starts at 1
// and counts executions within a single trigger, including retries.
type Job struct {
	ID         uuid.UUID
	DatasetKey string
	Cause      Cause
	EnqueuedAt time.Time
	Attempt    int
}

// ---------------------------------------------------------------------------
// Executor Interface
// ---------------------------------------------------------------------------

// Executor performs one reconciliation run. A TRANSIENT_IO error is retried
// with backoff, any other error ends the trigger and degrades the dataset.
type Executor interface {
	Execute(ctx context.Context, job Job) error
}

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

// Config holds scheduler configuration
type Config struct {
	// Interval is the periodic resync cadence per dataset
	Interval time.Duration
	// JobTimeout is the wall-clock budget for one reconciliation run.
	// Exceeding it counts as a transient failure.
	JobTimeout time.Duration
	// MaxAttempts is the total execution budget per trigger, the first
	// run included
	MaxAttempts int
	// RetryBaseDelay is the backoff delay after the first failure
	RetryBaseDelay time.Duration
	// RetryMaxDelay caps the exponential backoff
	RetryMaxDelay time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Interval:       5 * time.Minute,
		JobTimeout:     2 * time.Minute,
		MaxAttempts:    3,
		RetryBaseDelay: 500 * time.Millisecond,
		RetryMaxDelay:  30 * time.Second,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.MaxAttempts < 1 {
		return ErrInvalidConfig
	}
	if c.RetryBaseDelay <= 0 {
		return ErrInvalidConfig
	}
	if c.RetryMaxDelay < c.RetryBaseDelay {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// Dataset Status
// ---------------------------------------------------------------------------

// DatasetStatus is a worker's externally visible state. Degraded is sticky:
// set by a failed trigger, cleared only by the next successful run.
type DatasetStatus struct {
	DatasetKey    string    `json:"dataset_key"`
	State         State     `json:"state"`
	Degraded      bool      `json:"degraded"`
	LastCause     Cause     `json:"last_cause,omitempty"`
	LastAttempts  int       `json:"last_attempts"`
	LastError     string    `json:"last_error,omitempty"`
	LastSuccessAt time.Time `json:"last_success_at"`
}

// ---------------------------------------------------------------------------
// Scheduler
// ---------------------------------------------------------------------------

// Scheduler owns one worker per tracked dataset
type Scheduler struct {
	config   Config
	executor Executor
	logger   *zap.Logger
	workers  map[string]*worker

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates a scheduler for the given dataset keys
func New(config Config, keys []string, executor Executor, logger *zap.Logger) (*Scheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	workers := make(map[string]*worker, len(keys))
	for _, key := range keys {
		workers[key] = &worker{
			key: key,
			// Capacity one: a trigger landing while a run is in flight
			// is kept as the single pending re-run, further triggers
			// coalesce into it.
			triggers: make(chan trigger, 1),
			status:   DatasetStatus{DatasetKey: key, State: StateIdle},
		}
	}

	return &Scheduler{
		config:   config,
		executor: executor,
		logger:   logger,
		workers:  workers,
	}, nil
}

// Start launches the dataset workers. Every dataset is reconciled once
// immediately so the store fills at startup.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, w := range s.workers {
		s.wg.Add(1)
		go s.runWorker(ctx, w)
	}

	s.logger.Info("sync scheduler started",
		zap.Int("datasets", len(s.workers)),
		zap.Duration("interval", s.config.Interval),
		zap.Duration("job_timeout", s.config.JobTimeout),
		zap.Int("max_attempts", s.config.MaxAttempts),
	)
	return nil
}

// Stop gracefully stops the scheduler. In-flight runs are abandoned, their
// candidate snapshots are never published.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("sync scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("sync scheduler stop timed out")
		return ctx.Err()
	}
}

// Trigger requests a reconciliation for the dataset and returns the ID of
// the job that will serve it. It returns as soon as the request is accepted.
// A trigger for a dataset already reconciling is coalesced into one
// follow-up run, in which case the pending run's ID is returned. A trigger
// during retry backoff cuts the wait short and resets the attempt budget.
func (s *Scheduler) Trigger(key string, cause Cause) (uuid.UUID, error) {
	s.mu.Lock()
	running := s.isRunning
	s.mu.Unlock()
	if !running {
		return uuid.Nil, ErrSchedulerNotRunning
	}

	w, ok := s.workers[key]
	if !ok {
		return uuid.Nil, ErrUnknownDataset
	}

	trig := trigger{id: uuid.New(), cause: cause}

	select {
	case w.triggers <- trig:
		w.mu.Lock()
		w.queuedID = trig.id
		w.mu.Unlock()
		s.logger.Debug("reconciliation triggered",
			zap.String("dataset", key),
			zap.String("job_id", trig.id.String()),
			zap.String("cause", string(cause)),
		)
		return trig.id, nil
	default:
		// A pending trigger already covers this one; answer with the run
		// that will actually happen.
		w.mu.Lock()
		pending := w.queuedID
		w.mu.Unlock()
		s.logger.Debug("reconciliation trigger coalesced",
			zap.String("dataset", key),
			zap.String("job_id", pending.String()),
			zap.String("cause", string(cause)),
		)
		return pending, nil
	}
}

// Status returns the worker status for one dataset
func (s *Scheduler) Status(key string) (DatasetStatus, error) {
	w, ok := s.workers[key]
	if !ok {
		return DatasetStatus{}, ErrUnknownDataset
	}
	return w.snapshot(), nil
}

// Statuses returns all worker statuses sorted by dataset key
func (s *Scheduler) Statuses() []DatasetStatus {
	keys := make([]string, 0, len(s.workers))
	for key := range s.workers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	statuses := make([]DatasetStatus, 0, len(keys))
	for _, key := range keys {
		statuses = append(statuses, s.workers[key].snapshot())
	}
	return statuses
}

// ---------------------------------------------------------------------------
// Worker
// ---------------------------------------------------------------------------

// trigger is one accepted reconciliation request. The id becomes the job
// ID of the run that serves it, so callers can correlate the acknowledgment
// with the scheduler's logs.
type trigger struct {
	id    uuid.UUID
	cause Cause
}

// worker serializes reconciliation for one dataset
type worker struct {
	key      string
	triggers chan trigger

	mu       sync.Mutex
	status   DatasetStatus
	queuedID uuid.UUID
}

func (w *worker) setState(st State, cause Cause) {
	w.mu.Lock()
	w.status.State = st
	w.status.LastCause = cause
	w.mu.Unlock()
}

func (w *worker) recordSuccess(cause Cause, attempts int) {
	w.mu.Lock()
	w.status.State = StateIdle
	w.status.Degraded = false
	w.status.LastCause = cause
	w.status.LastAttempts = attempts
	w.status.LastError = ""
	w.status.LastSuccessAt = time.Now().UTC()
	w.mu.Unlock()
}

func (w *worker) recordFailure(cause Cause, attempts int, err error) {
	w.mu.Lock()
	w.status.State = StateIdle
	w.status.Degraded = true
	w.status.LastCause = cause
	w.status.LastAttempts = attempts
	w.status.LastError = err.Error()
	w.mu.Unlock()
}

func (w *worker) snapshot() DatasetStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// runWorker is the per-dataset loop: an immediate first load, then periodic
// ticks and external triggers, strictly one run at a time.
func (s *Scheduler) runWorker(ctx context.Context, w *worker) {
	defer s.wg.Done()

	s.reconcile(ctx, w, trigger{id: uuid.New(), cause: CauseTimer})

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reconcile(ctx, w, trigger{id: uuid.New(), cause: CauseTimer})
		case trig := <-w.triggers:
			s.reconcile(ctx, w, trig)
		}
	}
}

// reconcile drives one trigger through to success, a terminal failure, or an
// exhausted attempt budget. Only TRANSIENT_IO failures are retried: a load
// error means the file content itself is bad, and retrying against unchanged
// bytes cannot succeed.
func (s *Scheduler) reconcile(ctx context.Context, w *worker, trig trigger) {
	cause := trig.cause
	attempt := 1
	for {
		w.setState(StateReconciling, cause)
		job := Job{
			ID:         trig.id,
			DatasetKey: w.key,
			Cause:      cause,
			EnqueuedAt: time.Now().UTC(),
			Attempt:    attempt,
		}

		jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
		err := s.executor.Execute(jobCtx, job)
		cancel()

		if err == nil {
			w.recordSuccess(cause, attempt)
			s.logger.Info("reconciliation finished",
				zap.String("dataset", w.key),
				zap.String("job_id", job.ID.String()),
				zap.String("cause", string(cause)),
				zap.Int("attempts", attempt),
			)
			return
		}

		// Shutdown mid-run: abandon without touching the status.
		if ctx.Err() != nil {
			w.setState(StateIdle, cause)
			return
		}

		if masterdata.IsTransientIO(err) && attempt < s.config.MaxAttempts {
			delay := s.backoffDelay(attempt)
			attempt++
			w.setState(StateRetryWait, cause)
			s.logger.Warn("transient reconciliation failure, retrying",
				zap.String("dataset", w.key),
				zap.String("job_id", job.ID.String()),
				zap.Int("next_attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err),
			)

			select {
			case <-ctx.Done():
				w.setState(StateIdle, cause)
				return
			case newTrig := <-w.triggers:
				// A fresh trigger usually means the file changed, so
				// the old failure streak no longer applies.
				trig = newTrig
				cause = newTrig.cause
				attempt = 1
				continue
			case <-time.After(delay):
				continue
			}
		}

		final := err
		if masterdata.IsTransientIO(err) {
			final = masterdata.WrapError(masterdata.CodeRetryExhausted,
				fmt.Sprintf("dataset %s gave up after %d attempts", w.key, attempt), err)
		}
		w.recordFailure(cause, attempt, final)
		s.logger.Error("reconciliation failed, dataset degraded",
			zap.String("dataset", w.key),
			zap.String("job_id", job.ID.String()),
			zap.String("cause", string(cause)),
			zap.Int("attempts", attempt),
			zap.Error(final),
		)
		return
	}
}

// backoffDelay returns the wait before the next attempt, doubling per
// failure and capped at RetryMaxDelay.
func (s *Scheduler) backoffDelay(failures int) time.Duration {
	delay := s.config.RetryBaseDelay * time.Duration(1<<(failures-1))
	if delay > s.config.RetryMaxDelay || delay <= 0 {
		delay = s.config.RetryMaxDelay
	}
	return delay
}
