// Package datasync coordinates file watching, loading, and snapshot
// publication for the registered reference datasets. The service is the
// scheduler's executor: every reconciliation run, whether prompted by the
// timer, a file change, or an operator, flows through Execute.
package datasync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tradeops/masterdata/internal/domain/masterdata"
	"github.com/tradeops/masterdata/internal/infrastructure/loader"
	"github.com/tradeops/masterdata/internal/infrastructure/scheduler"
	"github.com/tradeops/masterdata/internal/infrastructure/store"
	"github.com/tradeops/masterdata/internal/infrastructure/watcher"
)

// Config carries the tuning for the sync pipeline
type Config struct {
	Scheduler        scheduler.Config
	Watcher          watcher.Config
	MappingThreshold float64 // zero keeps the loader default
}

// Overview merges the published snapshot state with the worker's
// reconciliation state for one dataset.
type Overview struct {
	Snapshot store.Info              `json:"snapshot"`
	Sync     scheduler.DatasetStatus `json:"sync"`
}

// Service owns the sync pipeline for all registered datasets
type Service struct {
	datasets map[string]masterdata.Dataset
	loader   *loader.Loader
	store    *store.Store
	watcher  *watcher.Watcher
	sched    *scheduler.Scheduler
	logger   *zap.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

var _ scheduler.Executor = (*Service)(nil)

// New wires a sync service over the given datasets and store
func New(cfg Config, datasets []masterdata.Dataset, st *store.Store, logger *zap.Logger) (*Service, error) {
	if len(datasets) == 0 {
		return nil, errors.New("datasync: at least one dataset is required")
	}

	byKey := make(map[string]masterdata.Dataset, len(datasets))
	keys := make([]string, 0, len(datasets))
	for _, ds := range datasets {
		if _, dup := byKey[ds.Key]; dup {
			return nil, fmt.Errorf("datasync: duplicate dataset key %q", ds.Key)
		}
		byKey[ds.Key] = ds
		keys = append(keys, ds.Key)
	}

	var loaderOpts []loader.Option
	if cfg.MappingThreshold > 0 {
		loaderOpts = append(loaderOpts, loader.WithThreshold(cfg.MappingThreshold))
	}

	s := &Service{
		datasets: byKey,
		loader:   loader.New(logger, loaderOpts...),
		store:    st,
		watcher:  watcher.New(cfg.Watcher, datasets, logger),
		logger:   logger,
	}

	sched, err := scheduler.New(cfg.Scheduler, keys, s, logger)
	if err != nil {
		return nil, err
	}
	s.sched = sched

	return s, nil
}

// Start launches the scheduler and the file watcher. The scheduler
// reconciles every dataset once immediately, so the store begins filling
// before Start returns to the caller's event loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if err := s.sched.Start(runCtx); err != nil {
		cancel()
		return err
	}
	if err := s.watcher.Start(runCtx); err != nil {
		// The watcher only fails on setup problems; periodic reconciliation
		// still works without it.
		s.logger.Warn("file watcher failed to start, relying on periodic sync", zap.Error(err))
	} else {
		s.wg.Add(1)
		go s.forwardEvents(runCtx)
	}

	s.logger.Info("master data sync started", zap.Int("datasets", len(s.datasets)))
	return nil
}

// Stop shuts the pipeline down in dependency order: no new file triggers,
// then no new reconciliations.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	var firstErr error
	if err := s.watcher.Stop(ctx); err != nil && firstErr == nil {
		firstErr = err
	}

	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	if err := s.sched.Stop(ctx); err != nil && firstErr == nil {
		firstErr = err
	}

	s.logger.Info("master data sync stopped")
	return firstErr
}

// forwardEvents turns debounced file-change events into scheduler triggers
func (s *Service) forwardEvents(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.watcher.Events():
			if _, err := s.sched.Trigger(ev.DatasetKey, scheduler.CauseFileChange); err != nil {
				s.logger.Debug("file change trigger dropped",
					zap.String("dataset", ev.DatasetKey),
					zap.Error(err),
				)
			}
		}
	}
}

// Execute performs one reconciliation run: load the dataset's source file
// and publish the result. Errors flow back to the scheduler, which retries
// transient ones and degrades the dataset on terminal ones.
func (s *Service) Execute(ctx context.Context, job scheduler.Job) error {
	ds, ok := s.datasets[job.DatasetKey]
	if !ok {
		return masterdata.ErrDatasetNotFound
	}

	snap, err := s.loader.Load(ctx, ds)
	if err != nil {
		return err
	}

	if _, err := s.store.Publish(ds.Key, snap); err != nil {
		return err
	}
	return nil
}

// Resync requests an immediate reconciliation for the dataset and returns
// the ID of the job that will serve it
func (s *Service) Resync(key string) (uuid.UUID, error) {
	id, err := s.sched.Trigger(key, scheduler.CauseManual)
	if errors.Is(err, scheduler.ErrUnknownDataset) {
		return uuid.Nil, masterdata.ErrDatasetNotFound
	}
	return id, err
}

// Rollback re-promotes the dataset's previous snapshot
func (s *Service) Rollback(key string) (*masterdata.Snapshot, error) {
	return s.store.Rollback(key)
}

// Read returns the current published snapshot for the dataset
func (s *Service) Read(key string) (*masterdata.Snapshot, error) {
	return s.store.Read(key)
}

// Overview returns the merged snapshot and reconciliation state for one dataset
func (s *Service) Overview(key string) (Overview, error) {
	info, err := s.store.Info(key)
	if err != nil {
		return Overview{}, err
	}
	st, err := s.sched.Status(key)
	if err != nil {
		return Overview{}, err
	}
	return Overview{Snapshot: info, Sync: st}, nil
}

// Overviews returns the merged state of every dataset sorted by key
func (s *Service) Overviews() []Overview {
	keys := s.store.Keys()
	out := make([]Overview, 0, len(keys))
	for _, key := range keys {
		ov, err := s.Overview(key)
		if err != nil {
			continue
		}
		out = append(out, ov)
	}
	return out
}

// CacheStats exposes store counters for operational visibility
func (s *Service) CacheStats() store.Stats {
	return s.store.Stats()
}
