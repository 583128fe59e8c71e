package matching

import (
	"context"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/lifelink/blood-donor-matching-backend/internal/domain/errors"
	domain "github.com/lifelink/blood-donor-matching-backend/internal/domain/matching"
)

// service implements the Service interface on top of the registry and
// scheduler.
type service struct {
	registry  *Registry
	scheduler *Scheduler
	store     RequestStore
	logger    *slog.Logger
}

// NewService creates the administrative matching service.
func NewService(registry *Registry, scheduler *Scheduler, store RequestStore, logger *slog.Logger) Service {
	return &service{
		registry:  registry,
		scheduler: scheduler,
		store:     store,
		logger:    logger,
	}
}

// StartMatching opens a matching process for the request and runs the
// first cycle synchronously at the request's configured radius.
func (s *service) StartMatching(ctx context.Context, requestID uuid.UUID) (uuid.UUID, error) {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return uuid.Nil, errors.NewNotFoundError("blood request").WithCause(err)
	}
	if req.Status.Terminal() {
		return uuid.Nil, errors.NewBusinessError("REQUEST_TERMINAL",
			"cannot start matching for a terminal request")
	}

	radius := req.SearchRadiusKm
	if radius <= 0 {
		radius = s.scheduler.cfg.InitialRadiusKm
	}

	p := domain.NewProcess(requestID, radius)
	if err := s.registry.Create(p); err != nil {
		return uuid.Nil, err
	}

	s.logger.InfoContext(ctx, "matching process opened",
		"request_id", requestID,
		"process_id", p.ID,
		"radius_km", radius,
		"urgency", req.Urgency.String())

	if err := s.scheduler.RunCycle(ctx, requestID); err != nil {
		// First cycle faults are recoverable; the process stays due and
		// the next sweep retries.
		s.logger.WarnContext(ctx, "first matching cycle deferred",
			"request_id", requestID,
			"error", err)
	}

	return p.ID, nil
}

// StopMatching completes the process as manually stopped. If a cycle is
// executing it finishes first; no further escalation is scheduled. The
// returned bool reports whether a process was active.
func (s *service) StopMatching(ctx context.Context, requestID uuid.UUID) (bool, error) {
	err := s.registry.WithProcess(requestID, func(p *domain.Process) error {
		return p.Complete(domain.ReasonManuallyStopped)
	})
	switch {
	case err == nil:
	case errors.IsType(err, errors.ErrorTypeNotFound):
		return false, nil
	default:
		return false, err
	}

	s.scheduler.finalize(ctx, requestID, domain.ReasonManuallyStopped)
	return true, nil
}

// RecordResponse counts a donor's answer against the request's process.
func (s *service) RecordResponse(ctx context.Context, requestID, donorID uuid.UUID, positive bool) error {
	err := s.registry.WithProcess(requestID, func(p *domain.Process) error {
		return p.RecordResponse(positive)
	})
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "donor response recorded",
		"request_id", requestID,
		"donor_id", donorID,
		"positive", positive)
	return nil
}

// GetStatistics aggregates the registry into the operator view.
func (s *service) GetStatistics(ctx context.Context) (*Statistics, error) {
	processes := s.registry.Snapshot()

	stats := &Statistics{
		TotalProcesses: len(processes),
		CycleFaults:    s.scheduler.CycleFaults(),
	}

	var radiusSum, roundSum float64
	for _, p := range processes {
		if p.Status == domain.StatusActive {
			stats.ActiveProcesses++
		}
		stats.TotalNotified += p.TotalNotified
		stats.FailedNotifications += p.FailedSends
		radiusSum += p.CurrentRadiusKm
		roundSum += float64(p.Round)
	}

	if len(processes) > 0 {
		stats.AverageRadiusKm = math.Round(radiusSum/float64(len(processes))*100) / 100
		stats.AverageRound = math.Round(roundSum/float64(len(processes))*100) / 100
	}

	return stats, nil
}
