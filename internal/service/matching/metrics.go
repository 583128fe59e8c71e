package matching

import (
	"context"
	"time"

	domain "github.com/lifelink/blood-donor-matching-backend/internal/domain/matching"
)

// NoopMetrics discards all telemetry. Used in tests and as the default
// when no collector is wired.
type NoopMetrics struct{}

func (NoopMetrics) RecordCycle(ctx context.Context, urgency string, round int, radiusKm float64, candidates int, duration time.Duration) {
}
func (NoopMetrics) RecordDispatch(ctx context.Context, urgency string, successful, failed int) {}
func (NoopMetrics) RecordEscalation(ctx context.Context, round int, radiusKm float64)          {}
func (NoopMetrics) RecordCompletion(ctx context.Context, reason domain.CompletionReason)       {}
func (NoopMetrics) RecordCycleFault(ctx context.Context, stage string)                         {}
func (NoopMetrics) SetActiveProcesses(n int64)                                                 {}
