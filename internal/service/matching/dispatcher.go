package matching

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/lifelink/blood-donor-matching-backend/internal/domain/bloodrequest"
)

// MessageTemplate identifies the notification template the downstream
// notification subsystem renders per donor.
const MessageTemplate = "blood_request_alert"

// DispatcherConfig controls batch sizing and fan-out pacing.
type DispatcherConfig struct {
	// Base batch size per urgency tier; grows by RoundIncrement per
	// escalation round, capped at MaxBatchSize.
	CriticalBatchSize  int           `koanf:"critical_batch_size"`
	UrgentBatchSize    int           `koanf:"urgent_batch_size"`
	ScheduledBatchSize int           `koanf:"scheduled_batch_size"`
	RoundIncrement     int           `koanf:"round_increment"`
	MaxBatchSize       int           `koanf:"max_batch_size"`
	SubBatchSize       int           `koanf:"sub_batch_size"`
	InterBatchDelay    time.Duration `koanf:"inter_batch_delay"`
}

// DefaultDispatcherConfig returns the production dispatch settings.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		CriticalBatchSize:  30,
		UrgentBatchSize:    20,
		ScheduledBatchSize: 10,
		RoundIncrement:     10,
		MaxBatchSize:       50,
		SubBatchSize:       5,
		InterBatchDelay:    2 * time.Second,
	}
}

// Dispatcher fans notifications out to the top-scored donors in throttled
// sub-batches. The inter-batch delay is backpressure toward downstream
// channels, not a correctness requirement. Individual send failures are
// counted and never retried within the cycle; the next escalation round
// re-dispatches against a freshly scored candidate set.
type Dispatcher struct {
	notifier Notifier
	logger   *slog.Logger
	cfg      DispatcherConfig
}

func NewDispatcher(notifier Notifier, logger *slog.Logger, cfg DispatcherConfig) *Dispatcher {
	if cfg.SubBatchSize <= 0 {
		cfg.SubBatchSize = 5
	}
	return &Dispatcher{
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
	}
}

// BatchSize returns how many donors to contact for the given urgency and
// escalation round.
func (d *Dispatcher) BatchSize(urgency bloodrequest.Urgency, round int) int {
	var base int
	switch urgency {
	case bloodrequest.UrgencyCritical:
		base = d.cfg.CriticalBatchSize
	case bloodrequest.UrgencyUrgent:
		base = d.cfg.UrgentBatchSize
	default:
		base = d.cfg.ScheduledBatchSize
	}

	size := base + d.cfg.RoundIncrement*(round-1)
	if size > d.cfg.MaxBatchSize {
		size = d.cfg.MaxBatchSize
	}
	return size
}

// Dispatch notifies the top-N scored donors for the request. Counters are
// folded into the result only after each sub-batch fully completes, so a
// cancellation blocking between sub-batches never reports a half-counted
// sub-batch.
func (d *Dispatcher) Dispatch(ctx context.Context, scored []*ScoredDonor, req *bloodrequest.Request, round int) (DispatchResult, error) {
	var result DispatchResult

	n := d.BatchSize(req.Urgency, round)
	if n > len(scored) {
		n = len(scored)
	}
	batch := scored[:n]

	limiter := rate.NewLimiter(rate.Every(d.cfg.InterBatchDelay), 1)

	for start := 0; start < len(batch); start += d.cfg.SubBatchSize {
		if err := limiter.Wait(ctx); err != nil {
			return result, err
		}

		end := start + d.cfg.SubBatchSize
		if end > len(batch) {
			end = len(batch)
		}

		successful, failed := 0, 0
		for _, s := range batch[start:end] {
			if err := d.notifier.Send(ctx, s.DonorID, s.ChannelPreferences, MessageTemplate, d.messageParams(s, req)); err != nil {
				failed++
				d.logger.WarnContext(ctx, "notification send failed",
					"request_id", req.ID,
					"donor_id", s.DonorID,
					"error", err)
				continue
			}
			successful++
		}

		result.Successful += successful
		result.Failed += failed
	}

	return result, nil
}

func (d *Dispatcher) messageParams(s *ScoredDonor, req *bloodrequest.Request) map[string]string {
	return map[string]string{
		"blood_type":  req.PatientBloodType.String(),
		"hospital":    req.HospitalName,
		"distance_km": fmt.Sprintf("%.2f", s.DistanceKm),
		"urgency":     req.Urgency.String(),
		"units":       strconv.Itoa(req.UnitsNeeded),
	}
}
