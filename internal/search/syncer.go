package search

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/ashita-ai/manabi/internal/telemetry"
)

// maxSyncAttempts bounds how often a pending change is retried before it is
// dropped and logged.
const maxSyncAttempts = 5

type pendingOp struct {
	point    Point
	delete   bool
	attempts int
}

// Syncer pushes profile changes to an Index in the background. Changes are
// coalesced per school, so only the latest state of a school is written.
// Failed writes stay pending and are retried on the next flush.
type Syncer struct {
	index         Index
	logger        *slog.Logger
	flushInterval time.Duration

	mu      sync.Mutex
	pending map[uuid.UUID]pendingOp

	started    atomic.Bool
	cancelLoop context.CancelFunc
	done       chan struct{}
	once       sync.Once
	drainCh    chan context.Context

	dropped atomic.Int64
}

// NewSyncer creates a Syncer that flushes every flushInterval once started.
func NewSyncer(index Index, logger *slog.Logger, flushInterval time.Duration) *Syncer {
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	return &Syncer{
		index:         index,
		logger:        logger,
		flushInterval: flushInterval,
		pending:       make(map[uuid.UUID]pendingOp),
		done:          make(chan struct{}),
		drainCh:       make(chan context.Context, 1),
	}
}

// Upsert schedules a profile write.
func (s *Syncer) Upsert(p Point) {
	s.mu.Lock()
	s.pending[p.SchoolID] = pendingOp{point: p}
	s.mu.Unlock()
}

// Delete schedules removal of a school's profile.
func (s *Syncer) Delete(id uuid.UUID) {
	s.mu.Lock()
	s.pending[id] = pendingOp{point: Point{SchoolID: id}, delete: true}
	s.mu.Unlock()
}

// Pending returns the number of changes not yet written.
func (s *Syncer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Start begins the background flush loop. Only the first call has effect.
func (s *Syncer) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		s.logger.Warn("search sync: Start called more than once, ignoring")
		return
	}
	s.registerMetrics()
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancelLoop = cancel
	go s.loop(loopCtx)
}

// Drain stops the loop after a final flush, waiting until it finishes or ctx
// expires. Without Start it flushes inline.
func (s *Syncer) Drain(ctx context.Context) {
	if !s.started.Load() {
		s.Flush(ctx)
		return
	}
	select {
	case s.drainCh <- ctx:
	default:
	}
	s.cancelLoop()
	select {
	case <-s.done:
	case <-ctx.Done():
		s.logger.Warn("search sync: drain timed out", "pending", s.Pending())
	}
}

func (s *Syncer) loop(ctx context.Context) {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			var drainCtx context.Context
			select {
			case drainCtx = <-s.drainCh:
			default:
			}
			if drainCtx == nil {
				var cancel context.CancelFunc
				drainCtx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
				s.Flush(drainCtx)
				cancel()
			} else {
				s.Flush(drainCtx)
			}
			s.once.Do(func() { close(s.done) })
			return
		case <-ticker.C:
			flushCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			s.Flush(flushCtx)
			cancel()
		}
	}
}

// Flush writes every pending change now.
func (s *Syncer) Flush(ctx context.Context) {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.pending
	s.pending = make(map[uuid.UUID]pendingOp, len(batch))
	s.mu.Unlock()

	var (
		upserts   []Point
		deletes   []uuid.UUID
		upsertOps []pendingOp
		deleteOps []pendingOp
	)
	for id, op := range batch {
		if op.delete {
			deletes = append(deletes, id)
			deleteOps = append(deleteOps, op)
			continue
		}
		upserts = append(upserts, op.point)
		upsertOps = append(upsertOps, op)
	}

	if len(upserts) > 0 {
		if err := s.index.Upsert(ctx, upserts); err != nil {
			s.logger.Warn("search sync: upsert failed", "count", len(upserts), "error", err)
			s.requeue(upsertOps)
		}
	}
	if len(deletes) > 0 {
		if err := s.index.Delete(ctx, deletes); err != nil {
			s.logger.Warn("search sync: delete failed", "count", len(deletes), "error", err)
			s.requeue(deleteOps)
		}
	}
}

// requeue puts failed ops back unless a newer change for the same school
// arrived meanwhile.
func (s *Syncer) requeue(ops []pendingOp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range ops {
		op.attempts++
		if op.attempts >= maxSyncAttempts {
			s.dropped.Add(1)
			s.logger.Error("search sync: giving up on school profile", "school_id", op.point.SchoolID, "attempts", op.attempts)
			continue
		}
		if _, newer := s.pending[op.point.SchoolID]; newer {
			continue
		}
		s.pending[op.point.SchoolID] = op
	}
}

func (s *Syncer) registerMetrics() {
	meter := telemetry.Meter("manabi/search")
	_, _ = meter.Int64ObservableGauge("manabi.search.sync.pending",
		metric.WithDescription("Profile changes waiting to be written to the search index"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(s.Pending()))
			return nil
		}),
	)
	_, _ = meter.Int64ObservableCounter("manabi.search.sync.dropped",
		metric.WithDescription("Profile changes dropped after repeated index failures"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(s.dropped.Load())
			return nil
		}),
	)
}
