package matching

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lifelink/blood-donor-matching-backend/internal/domain/bloodrequest"
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/bloodtype"
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/donor"
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/geo"
	domain "github.com/lifelink/blood-donor-matching-backend/internal/domain/matching"
)

// Service is the administrative control surface of the matching core.
type Service interface {
	// StartMatching opens a matching process for a blood request and runs
	// the first cycle synchronously. Returns the matching process ID.
	StartMatching(ctx context.Context, requestID uuid.UUID) (uuid.UUID, error)
	// StopMatching terminates an active process. Returns false when no
	// process is active for the request.
	StopMatching(ctx context.Context, requestID uuid.UUID) (bool, error)
	// RecordResponse counts a donor's answer to a notification.
	RecordResponse(ctx context.Context, requestID, donorID uuid.UUID, positive bool) error
	// GetStatistics reports aggregate state across all active processes.
	GetStatistics(ctx context.Context) (*Statistics, error)
}

// DonorRepository is the external donor store the filter queries. The
// repository applies the coarse predicates (compatibility, geofence,
// availability, cooldown, responder exclusion); the filter re-checks them
// and applies the notification-hour preference.
type DonorRepository interface {
	QueryEligibleDonors(ctx context.Context, compatible []bloodtype.Type, hospital geo.Coordinates, radiusKm float64, excluded []uuid.UUID) ([]*donor.Candidate, error)
}

// RequestStore is the externally owned blood request record. The core
// reads request state and writes back matching counters.
type RequestStore interface {
	GetRequest(ctx context.Context, requestID uuid.UUID) (*bloodrequest.Request, error)
	GetRequestStatus(ctx context.Context, requestID uuid.UUID) (bloodrequest.Status, error)
	GetResponderIDs(ctx context.Context, requestID uuid.UUID) ([]uuid.UUID, error)
	UpdateMatchingCounters(ctx context.Context, requestID uuid.UUID, counters bloodrequest.MatchingCounters) error
}

// Notifier delivers a single donor notification. Sends are fire-and-forget
// within a sub-batch: a failed send is counted, never retried in-cycle.
type Notifier interface {
	Send(ctx context.Context, donorID uuid.UUID, channels []string, template string, params map[string]string) error
}

// SweepLock guards the sweep when multiple scheduler instances share a
// registry of requests. The default deployment runs a single instance and
// uses NoopSweepLock.
type SweepLock interface {
	// Acquire returns true when this instance holds the sweep lease.
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// NoopSweepLock always grants the lease. Safe only for single-instance
// deployments.
type NoopSweepLock struct{}

func (NoopSweepLock) Acquire(ctx context.Context) (bool, error) { return true, nil }
func (NoopSweepLock) Release(ctx context.Context) error         { return nil }

// ScoredDonor is a candidate annotated with derived distance and score.
// Ephemeral: computed per cycle, never persisted.
type ScoredDonor struct {
	*donor.Candidate
	DistanceKm float64
	Score      int
}

// DispatchResult counts the outcome of one dispatch cycle.
type DispatchResult struct {
	Successful int
	Failed     int
}

// Statistics is the aggregate view exposed to operators.
type Statistics struct {
	TotalProcesses      int     `json:"total_processes"`
	ActiveProcesses     int     `json:"active_processes"`
	AverageRadiusKm     float64 `json:"average_radius_km"`
	AverageRound        float64 `json:"average_round"`
	TotalNotified       int     `json:"total_notified"`
	FailedNotifications int     `json:"failed_notifications"`
	CycleFaults         int64   `json:"cycle_faults"`
}

// MetricsCollector receives matching domain telemetry. Implementations
// must be safe for concurrent use.
type MetricsCollector interface {
	RecordCycle(ctx context.Context, urgency string, round int, radiusKm float64, candidates int, duration time.Duration)
	RecordDispatch(ctx context.Context, urgency string, successful, failed int)
	RecordEscalation(ctx context.Context, round int, radiusKm float64)
	RecordCompletion(ctx context.Context, reason domain.CompletionReason)
	RecordCycleFault(ctx context.Context, stage string)
	SetActiveProcesses(n int64)
}
