package matching

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lifelink/blood-donor-matching-backend/internal/domain/bloodrequest"
	domain "github.com/lifelink/blood-donor-matching-backend/internal/domain/matching"
)

// SchedulerConfig controls the escalation state machine.
type SchedulerConfig struct {
	SweepInterval     time.Duration `koanf:"sweep_interval"`
	EscalationDelay   time.Duration `koanf:"escalation_delay"`
	RadiusIncrementKm float64       `koanf:"radius_increment_km"`
	MaxRadiusKm       float64       `koanf:"max_radius_km"`
	InitialRadiusKm   float64       `koanf:"initial_radius_km"`
}

// DefaultSchedulerConfig returns the production escalation settings.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		SweepInterval:     60 * time.Second,
		EscalationDelay:   20 * time.Minute,
		RadiusIncrementKm: 10,
		MaxRadiusKm:       100,
		InitialRadiusKm:   15,
	}
}

// Scheduler drives matching processes through their escalation lifecycle.
// A periodic sweep scans the registry for due processes and runs one
// matching cycle for each, sequentially. Cycles for different requests
// are independent; order across processes is unspecified.
//
// A single scheduler instance is assumed. When horizontally scaled, wire
// a distributed SweepLock (one sweeper at a time) or run a single active
// leader; concurrent sweepers would double-dispatch notifications.
type Scheduler struct {
	registry   *Registry
	filter     *EligibilityFilter
	scorer     *ScoringEngine
	dispatcher *Dispatcher
	store      RequestStore
	lock       SweepLock
	metrics    MetricsCollector
	logger     *slog.Logger
	cfg        SchedulerConfig
	clock      domain.Clock

	sweeping    atomic.Bool
	cycleFaults atomic.Int64

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func NewScheduler(
	registry *Registry,
	filter *EligibilityFilter,
	scorer *ScoringEngine,
	dispatcher *Dispatcher,
	store RequestStore,
	lock SweepLock,
	metrics MetricsCollector,
	logger *slog.Logger,
	cfg SchedulerConfig,
) *Scheduler {
	if lock == nil {
		lock = NoopSweepLock{}
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Scheduler{
		registry:   registry,
		filter:     filter,
		scorer:     scorer,
		dispatcher: dispatcher,
		store:      store,
		lock:       lock,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		clock:      domain.RealClock{},
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// SetClock injects a clock for tests.
func (s *Scheduler) SetClock(c domain.Clock) {
	s.clock = c
}

// Start runs the sweep loop until Stop is called or ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.cfg.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}

// Stop halts the sweep loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.done
}

// Sweep runs one matching cycle for every due process. A sweep that is
// already running is not started a second time; overlapping sweeps would
// double-count notifications.
func (s *Scheduler) Sweep(ctx context.Context) {
	if !s.sweeping.CompareAndSwap(false, true) {
		return
	}
	defer s.sweeping.Store(false)

	held, err := s.lock.Acquire(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "sweep lock acquire failed", "error", err)
		return
	}
	if !held {
		return
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logger.WarnContext(ctx, "sweep lock release failed", "error", err)
		}
	}()

	now := s.clock.Now()
	due := s.registry.Due(now)
	for _, requestID := range due {
		if ctx.Err() != nil {
			return
		}
		if err := s.RunCycle(ctx, requestID); err != nil {
			s.logger.ErrorContext(ctx, "matching cycle failed",
				"request_id", requestID,
				"error", err)
		}
	}

	s.metrics.SetActiveProcesses(int64(s.registry.Len()))
}

// CycleFaults reports how many cycles ended in a recoverable fault since
// startup. Surfaced through the statistics endpoint so repeated faults
// become visible to operators.
func (s *Scheduler) CycleFaults() int64 {
	return s.cycleFaults.Load()
}

// RunCycle executes one matching cycle for the request's process: check
// the backing request, escalate if this is a re-cycle, then
// filter → score → dispatch → schedule next. The process entry stays
// locked for the whole cycle, so an administrative stop issued mid-cycle
// waits for the cycle to finish and then prevents any further escalation.
func (s *Scheduler) RunCycle(ctx context.Context, requestID uuid.UUID) error {
	var completed domain.CompletionReason

	err := s.registry.WithProcess(requestID, func(p *domain.Process) error {
		reason, err := s.cycle(ctx, p)
		completed = reason
		return err
	})
	if err != nil {
		s.cycleFaults.Add(1)
		s.metrics.RecordCycleFault(ctx, "cycle")
		return err
	}

	if completed != domain.ReasonNone {
		s.finalize(ctx, requestID, completed)
	}
	return nil
}

// cycle runs with exclusive access to the process. It returns the
// completion reason when the process reached a terminal state, and an
// error for recoverable faults: the process is left untouched and the
// next sweep retries, since NextEscalationAt only moves after a dispatch.
func (s *Scheduler) cycle(ctx context.Context, p *domain.Process) (domain.CompletionReason, error) {
	start := s.clock.Now()

	status, err := s.store.GetRequestStatus(ctx, p.RequestID)
	if err != nil {
		return domain.ReasonNone, err
	}

	// The backing request going terminal overrides everything else.
	switch status {
	case bloodrequest.StatusFulfilled:
		return domain.ReasonFulfilled, p.Complete(domain.ReasonFulfilled)
	case bloodrequest.StatusExpired:
		return domain.ReasonExpired, p.Complete(domain.ReasonExpired)
	case bloodrequest.StatusCancelled:
		return domain.ReasonManuallyStopped, p.Complete(domain.ReasonManuallyStopped)
	}

	req, err := s.store.GetRequest(ctx, p.RequestID)
	if err != nil {
		return domain.ReasonNone, err
	}

	// Re-cycles widen before searching; the first cycle runs at the
	// request's configured radius. Escalations are committed to the
	// process only once the eligibility query succeeds, so a repository
	// fault leaves the process untouched and the next sweep retries at
	// the same radius.
	radius := p.CurrentRadiusKm
	pendingEscalations := 0
	if p.LastNotificationAt != nil {
		if !p.CanEscalate(s.cfg.MaxRadiusKm) {
			return domain.ReasonRadiusExhausted, p.Complete(domain.ReasonRadiusExhausted)
		}
		radius = s.widen(radius)
		pendingEscalations++
	}

	for {
		now := s.clock.Now()

		candidates, err := s.filter.FindEligible(ctx, req, radius, now)
		if err != nil {
			return domain.ReasonNone, err
		}

		if len(candidates) == 0 {
			if radius >= s.cfg.MaxRadiusKm {
				// The search space is exhausted; record how far it went.
				s.commitEscalations(ctx, p, pendingEscalations)
				return domain.ReasonNoDonorsFound, p.Complete(domain.ReasonNoDonorsFound)
			}
			// Zero donors found: widen immediately and retry without
			// waiting out the escalation delay.
			radius = s.widen(radius)
			pendingEscalations++
			continue
		}

		s.commitEscalations(ctx, p, pendingEscalations)
		pendingEscalations = 0

		scored := s.scorer.Score(candidates, req)

		result, err := s.dispatcher.Dispatch(ctx, scored, req, p.Round)
		if err != nil {
			// Canceled mid-dispatch: completed sub-batches are still
			// recorded before surfacing the fault.
			if result.Successful > 0 || result.Failed > 0 {
				_ = p.RecordDispatch(result.Successful, result.Failed, s.clock.Now().Add(s.cfg.EscalationDelay))
			}
			return domain.ReasonNone, err
		}

		if err := p.RecordDispatch(result.Successful, result.Failed, s.clock.Now().Add(s.cfg.EscalationDelay)); err != nil {
			return domain.ReasonNone, err
		}

		s.metrics.RecordDispatch(ctx, req.Urgency.String(), result.Successful, result.Failed)
		s.metrics.RecordCycle(ctx, req.Urgency.String(), p.Round, p.CurrentRadiusKm, len(candidates), s.clock.Now().Sub(start))

		if err := s.store.UpdateMatchingCounters(ctx, p.RequestID, p.Counters()); err != nil {
			// Counter write-back is best effort; the registry remains the
			// source of truth until completion.
			s.logger.WarnContext(ctx, "matching counter write-back failed",
				"request_id", p.RequestID,
				"error", err)
		}

		s.logger.InfoContext(ctx, "matching cycle dispatched",
			"request_id", p.RequestID,
			"round", p.Round,
			"radius_km", p.CurrentRadiusKm,
			"candidates", len(candidates),
			"notified", result.Successful,
			"failed", result.Failed)

		return domain.ReasonNone, nil
	}
}

func (s *Scheduler) widen(radius float64) float64 {
	radius += s.cfg.RadiusIncrementKm
	if radius > s.cfg.MaxRadiusKm {
		radius = s.cfg.MaxRadiusKm
	}
	return radius
}

// commitEscalations applies n deferred radius escalations to the process.
func (s *Scheduler) commitEscalations(ctx context.Context, p *domain.Process, n int) {
	for i := 0; i < n; i++ {
		if err := p.Escalate(s.cfg.RadiusIncrementKm, s.cfg.MaxRadiusKm); err != nil {
			return
		}
		s.metrics.RecordEscalation(ctx, p.Round, p.CurrentRadiusKm)
	}
}

// finalize records completion, writes final counters back to the request
// record, and removes the process from the registry. Completed is
// terminal; removal is the last step of the lifecycle.
func (s *Scheduler) finalize(ctx context.Context, requestID uuid.UUID, reason domain.CompletionReason) {
	var counters bloodrequest.MatchingCounters
	if err := s.registry.WithProcess(requestID, func(p *domain.Process) error {
		counters = p.Counters()
		return nil
	}); err != nil {
		return
	}

	if err := s.store.UpdateMatchingCounters(ctx, requestID, counters); err != nil {
		s.logger.WarnContext(ctx, "final counter write-back failed",
			"request_id", requestID,
			"error", err)
	}

	s.registry.Remove(requestID)
	s.metrics.RecordCompletion(ctx, reason)
	s.metrics.SetActiveProcesses(int64(s.registry.Len()))

	s.logger.InfoContext(ctx, "matching process completed",
		"request_id", requestID,
		"reason", string(reason))
}
