package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	domain "github.com/lifelink/blood-donor-matching-backend/internal/domain/matching"
)

// Registry holds the matching domain metrics. It implements the matching
// service's MetricsCollector interface.
type Registry struct {
	meter metric.Meter

	// Matching cycle metrics
	CycleDuration      metric.Float64Histogram
	CycleCandidates    metric.Int64Histogram
	CycleFaultCounter  metric.Int64Counter
	EscalationCounter  metric.Int64Counter
	EscalationRadius   metric.Float64Histogram
	CompletionCounter  metric.Int64Counter
	ActiveProcessGauge metric.Int64ObservableGauge

	// Notification metrics
	NotificationsSent   metric.Int64Counter
	NotificationsFailed metric.Int64Counter

	// API metrics
	APIRequestDuration metric.Float64Histogram
	APIRequestCounter  metric.Int64Counter

	mu              sync.RWMutex
	activeProcesses int64
}

// NewRegistry creates the metrics registry against the global meter
// provider.
func NewRegistry(meterName string) (*Registry, error) {
	r := &Registry{meter: otel.Meter(meterName)}

	if err := r.initMatchingMetrics(); err != nil {
		return nil, err
	}
	if err := r.initNotificationMetrics(); err != nil {
		return nil, err
	}
	if err := r.initAPIMetrics(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) initMatchingMetrics() error {
	var err error

	r.CycleDuration, err = r.meter.Float64Histogram(
		"bdm.matching.cycle_duration",
		metric.WithDescription("Duration of one matching cycle in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 50, 100, 500, 1000, 5000, 30000),
	)
	if err != nil {
		return err
	}

	r.CycleCandidates, err = r.meter.Int64Histogram(
		"bdm.matching.cycle_candidates",
		metric.WithDescription("Eligible candidates found per matching cycle"),
		metric.WithExplicitBucketBoundaries(0, 1, 5, 10, 25, 50, 100),
	)
	if err != nil {
		return err
	}

	r.CycleFaultCounter, err = r.meter.Int64Counter(
		"bdm.matching.cycle_fault_total",
		metric.WithDescription("Matching cycles that ended in a recoverable fault"),
	)
	if err != nil {
		return err
	}

	r.EscalationCounter, err = r.meter.Int64Counter(
		"bdm.matching.escalation_total",
		metric.WithDescription("Radius escalations performed"),
	)
	if err != nil {
		return err
	}

	r.EscalationRadius, err = r.meter.Float64Histogram(
		"bdm.matching.escalation_radius_km",
		metric.WithDescription("Search radius after each escalation"),
		metric.WithUnit("km"),
		metric.WithExplicitBucketBoundaries(15, 25, 35, 45, 55, 65, 75, 85, 95, 100),
	)
	if err != nil {
		return err
	}

	r.CompletionCounter, err = r.meter.Int64Counter(
		"bdm.matching.completion_total",
		metric.WithDescription("Matching processes completed, by reason"),
	)
	if err != nil {
		return err
	}

	r.ActiveProcessGauge, err = r.meter.Int64ObservableGauge(
		"bdm.matching.active_processes",
		metric.WithDescription("Matching processes currently in the registry"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()
			o.Observe(r.activeProcesses)
			return nil
		}),
	)

	return err
}

func (r *Registry) initNotificationMetrics() error {
	var err error

	r.NotificationsSent, err = r.meter.Int64Counter(
		"bdm.notification.sent_total",
		metric.WithDescription("Donor notifications accepted by the delivery service"),
	)
	if err != nil {
		return err
	}

	r.NotificationsFailed, err = r.meter.Int64Counter(
		"bdm.notification.failed_total",
		metric.WithDescription("Donor notifications that failed to send"),
	)

	return err
}

func (r *Registry) initAPIMetrics() error {
	var err error

	r.APIRequestDuration, err = r.meter.Float64Histogram(
		"bdm.api.request_duration",
		metric.WithDescription("API request duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 50, 100, 500, 1000, 5000),
	)
	if err != nil {
		return err
	}

	r.APIRequestCounter, err = r.meter.Int64Counter(
		"bdm.api.request_total",
		metric.WithDescription("Total number of API requests"),
	)

	return err
}

// RecordCycle records the outcome of one matching cycle.
func (r *Registry) RecordCycle(ctx context.Context, urgency string, round int, radiusKm float64, candidates int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("urgency", urgency),
		attribute.Int("round", round),
	)

	r.CycleDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	r.CycleCandidates.Record(ctx, int64(candidates), attrs)
}

// RecordDispatch records notification fan-out counts for a cycle.
func (r *Registry) RecordDispatch(ctx context.Context, urgency string, successful, failed int) {
	attrs := metric.WithAttributes(attribute.String("urgency", urgency))

	if successful > 0 {
		r.NotificationsSent.Add(ctx, int64(successful), attrs)
	}
	if failed > 0 {
		r.NotificationsFailed.Add(ctx, int64(failed), attrs)
	}
}

// RecordEscalation records one radius escalation.
func (r *Registry) RecordEscalation(ctx context.Context, round int, radiusKm float64) {
	r.EscalationCounter.Add(ctx, 1, metric.WithAttributes(attribute.Int("round", round)))
	r.EscalationRadius.Record(ctx, radiusKm)
}

// RecordCompletion records a process reaching its terminal state.
func (r *Registry) RecordCompletion(ctx context.Context, reason domain.CompletionReason) {
	r.CompletionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", string(reason)),
	))
}

// RecordCycleFault records a recoverable cycle failure.
func (r *Registry) RecordCycleFault(ctx context.Context, stage string) {
	r.CycleFaultCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
	))
}

// SetActiveProcesses updates the registry depth gauge.
func (r *Registry) SetActiveProcesses(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeProcesses = n
}

// RecordAPIRequest records API request metrics.
func (r *Registry) RecordAPIRequest(ctx context.Context, duration float64, method, path string, statusCode int) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status_code", statusCode),
	)

	r.APIRequestDuration.Record(ctx, duration, attrs)
	r.APIRequestCounter.Add(ctx, 1, attrs)
}
