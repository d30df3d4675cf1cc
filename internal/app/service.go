// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	warmqueue "github.com/okian/rollcall/internal/adapters/mq/queue"
	workerpool "github.com/okian/rollcall/internal/adapters/mq/worker"
	"github.com/okian/rollcall/internal/adapters/repository"
	"github.com/okian/rollcall/internal/adapters/snapshot"
	"github.com/okian/rollcall/internal/domain/alignment"
	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/participation"
	"github.com/okian/rollcall/internal/domain/types"
	"github.com/okian/rollcall/pkg/logger"
	"github.com/okian/rollcall/pkg/metrics"
)

const (
	defaultWorkerCount  = 2
	defaultQueueSize    = 64
	defaultMaxSnapshots = 16
)

// cachedAlignment is a computed alignment bound to the snapshot version it
// was derived from.
type cachedAlignment struct {
	version int64
	result  types.Alignment
}

// Service implements the API dependencies for the roll-call analytics system.
type Service struct {
	mu sync.RWMutex

	store      *repository.MemoryStore
	warmQueue  *warmqueue.InMemoryQueue
	workerPool *workerpool.Pool

	cacheMu sync.RWMutex
	cache   map[string]cachedAlignment

	workerCount  int
	queueSize    int
	maxSnapshots int

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of warm-up workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the warm-up queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMaxSnapshots bounds how many snapshots are kept in memory.
func WithMaxSnapshots(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSnapshots = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service. Read and ingest operations work before Start;
// Start only launches background warm-up.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  defaultWorkerCount,
		queueSize:    defaultQueueSize,
		maxSnapshots: defaultMaxSnapshots,
		cache:        make(map[string]cachedAlignment),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.store = repository.NewMemoryStore(repository.WithCapacity(s.maxSnapshots))
	s.store.OnEvict = s.evict

	return s
}

// Start launches the warm-up worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting rollcall service...")

	poolCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.warmQueue = warmqueue.NewInMemoryQueue(warmqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.warmQueue, s)
	s.workerPool.Start(poolCtx)

	s.started = true
	s.logger.Info(ctx, "rollcall service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("maxSnapshots", s.maxSnapshots),
	)

	return nil
}

// Stop gracefully shuts down the warm-up pool.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping rollcall service...")

	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "rollcall service stopped")
}

// Ingest normalizes and stores snap under id, replacing any previous snapshot
// with that id. An empty id gets a random one.
func (s *Service) Ingest(ctx context.Context, id string, snap model.Snapshot) (types.SnapshotInfo, error) {
	defer observe("ingest", time.Now())

	if id == "" {
		id = uuid.NewString()
	}

	snap = snapshot.Normalize(snap)
	entry, err := s.store.Put(ctx, id, snap)
	if err != nil {
		metrics.RecordSnapshotRejected()
		if errors.Is(err, repository.ErrInvalidID) {
			return types.SnapshotInfo{}, fmt.Errorf("%w: %q", ErrInvalidSnapshotID, id)
		}
		return types.SnapshotInfo{}, fmt.Errorf("store snapshot %s: %w", id, err)
	}
	metrics.RecordSnapshotIngested()

	s.logger.Info(ctx, "snapshot ingested",
		logger.String("snapshot_id", entry.ID),
		logger.Int("votes", len(snap.Votes)),
		logger.Int("members", snap.MemberAnalysis.Len()),
	)

	s.scheduleWarmup(ctx, entry)
	return info(entry), nil
}

func (s *Service) scheduleWarmup(ctx context.Context, entry repository.Entry) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return
	}

	job := warmqueue.Job{SnapshotID: entry.ID, Version: entry.Version}
	if err := s.warmQueue.Enqueue(ctx, job); err != nil {
		// The matrix is computed on first read instead.
		s.logger.Debug(ctx, "warm-up not scheduled",
			logger.String("snapshot_id", entry.ID),
			logger.Error(err),
		)
	}
}

// Remove deletes the snapshot stored under id.
func (s *Service) Remove(ctx context.Context, id string) error {
	defer observe("remove", time.Now())

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
		}
		return err
	}
	s.logger.Info(ctx, "snapshot removed", logger.String("snapshot_id", id))
	return nil
}

// Snapshots lists the stored snapshots, oldest first.
func (s *Service) Snapshots(ctx context.Context) []types.SnapshotInfo {
	entries := s.store.List(ctx)
	out := make([]types.SnapshotInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, info(e))
	}
	return out
}

// VoteSummary returns the participation summary of a snapshot.
func (s *Service) VoteSummary(ctx context.Context, id string) (participation.Summary, error) {
	defer observe("summary", time.Now())

	entry, err := s.entry(ctx, "summary", id)
	if err != nil {
		return participation.Summary{}, err
	}
	return participation.Summarize(entry.Snapshot), nil
}

// Alignment returns the alignment matrix with its ranked pairs.
func (s *Service) Alignment(ctx context.Context, id string) (types.Alignment, error) {
	defer observe("alignment", time.Now())

	entry, err := s.entry(ctx, "alignment", id)
	if err != nil {
		return types.Alignment{}, err
	}

	if cached, ok := s.cached(entry.ID, entry.Version); ok {
		metrics.RecordCacheHit()
		return cached, nil
	}
	metrics.RecordCacheMiss()
	return s.computeAlignment(entry), nil
}

// MemberProfile returns the voting profile of one member.
func (s *Service) MemberProfile(ctx context.Context, id, name string) (alignment.Profile, error) {
	defer observe("profile", time.Now())

	entry, err := s.entry(ctx, "profile", id)
	if err != nil {
		return alignment.Profile{}, err
	}

	snap := entry.Snapshot
	profile, ok := alignment.BuildProfile(name, snap.MemberAnalysis, snap.Votes)
	if !ok {
		metrics.RecordAnalyticsError("profile", "not_found")
		return alignment.Profile{}, fmt.Errorf("%w: %s", ErrMemberNotFound, name)
	}
	return profile, nil
}

// AgendaItems returns the agenda items of a snapshot grouped by meeting.
func (s *Service) AgendaItems(ctx context.Context, id string) ([]participation.Meeting, error) {
	defer observe("agenda", time.Now())

	entry, err := s.entry(ctx, "agenda", id)
	if err != nil {
		return nil, err
	}
	return participation.GroupAgendaItems(entry.Snapshot.Votes), nil
}

// AgendaItem returns one agenda item with its per-member votes.
func (s *Service) AgendaItem(ctx context.Context, id, itemID string) (participation.AgendaItemDetail, error) {
	defer observe("agenda_item", time.Now())

	entry, err := s.entry(ctx, "agenda_item", id)
	if err != nil {
		return participation.AgendaItemDetail{}, err
	}

	detail, ok := participation.FindAgendaItem(entry.Snapshot.Votes, itemID)
	if !ok {
		metrics.RecordAnalyticsError("agenda_item", "not_found")
		return participation.AgendaItemDetail{}, fmt.Errorf("%w: %s", ErrAgendaItemNotFound, itemID)
	}
	return detail, nil
}

// Warm precomputes the alignment of one snapshot version. Jobs for versions
// that were replaced or removed in the meantime are skipped.
func (s *Service) Warm(ctx context.Context, id string, version int64) error {
	entry, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if entry.Version != version {
		return nil
	}
	if _, ok := s.cached(id, version); ok {
		return nil
	}

	s.computeAlignment(entry)
	s.logger.Debug(ctx, "alignment warmed",
		logger.String("snapshot_id", id),
		logger.Int("members", entry.Snapshot.MemberAnalysis.Len()),
	)
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"maxSnapshots": s.maxSnapshots,
		"snapshots":    s.store.Count(ctx),
	}

	s.cacheMu.RLock()
	stats["cachedAlignments"] = len(s.cache)
	s.cacheMu.RUnlock()

	if s.started {
		stats["queueLength"] = s.warmQueue.Len(ctx)
	}

	return stats
}

func (s *Service) entry(ctx context.Context, op, id string) (repository.Entry, error) {
	entry, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordAnalyticsError(op, "snapshot_not_found")
			return repository.Entry{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
		}
		return repository.Entry{}, err
	}
	return entry, nil
}

func (s *Service) computeAlignment(entry repository.Entry) types.Alignment {
	snap := entry.Snapshot
	matrix := alignment.Compute(snap.MemberAnalysis, snap.Votes)
	ranking := alignment.RankPairs(matrix)

	result := types.Alignment{
		Members:         matrix.Members(),
		AlignmentMatrix: matrix,
		MostAligned:     ranking.MostAligned,
		LeastAligned:    ranking.LeastAligned,
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	// A concurrent Put or Delete may have retired this version. The check runs
	// under cacheMu so a later eviction always sees the inserted entry.
	if cur, err := s.store.Get(context.Background(), entry.ID); err != nil || cur.Version != entry.Version {
		return result
	}
	if cur, ok := s.cache[entry.ID]; !ok || cur.version < entry.Version {
		s.cache[entry.ID] = cachedAlignment{version: entry.Version, result: result}
	}
	metrics.UpdateCacheEntries(len(s.cache))

	return result
}

func (s *Service) cached(id string, version int64) (types.Alignment, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()

	c, ok := s.cache[id]
	if !ok || c.version != version {
		return types.Alignment{}, false
	}
	return c.result, true
}

func (s *Service) evict(id string) {
	s.cacheMu.Lock()
	delete(s.cache, id)
	metrics.UpdateCacheEntries(len(s.cache))
	s.cacheMu.Unlock()
}

func info(e repository.Entry) types.SnapshotInfo {
	meetings := make(map[string]struct{})
	for _, v := range e.Snapshot.Votes {
		meetings[v.MeetingKey()] = struct{}{}
	}
	return types.SnapshotInfo{
		ID:       e.ID,
		Version:  e.Version,
		Votes:    len(e.Snapshot.Votes),
		Members:  e.Snapshot.MemberAnalysis.Len(),
		Meetings: len(meetings),
		LoadedAt: e.LoadedAt,
	}
}

func observe(op string, start time.Time) {
	metrics.RecordAnalyticsLatency(op, float64(time.Since(start).Microseconds())/1000)
}
