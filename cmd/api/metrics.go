package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lifelink/blood-donor-matching-backend/internal/service/matching"
)

// Prometheus gauges derived from the matching statistics snapshot. The
// OTel registry covers per-event metrics; these give the /metrics
// endpoint a cheap aggregate view without an OTLP collector.

var (
	activeProcesses = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bdm",
			Subsystem: "matching",
			Name:      "active_processes",
			Help:      "Matching processes currently running",
		},
	)

	totalNotified = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bdm",
			Subsystem: "matching",
			Name:      "notified_donors",
			Help:      "Donors notified across active processes",
		},
	)

	failedNotifications = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bdm",
			Subsystem: "matching",
			Name:      "failed_notifications",
			Help:      "Failed notification sends across active processes",
		},
	)

	averageRadius = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bdm",
			Subsystem: "matching",
			Name:      "average_radius_km",
			Help:      "Mean search radius across active processes",
		},
	)

	cycleFaults = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bdm",
			Subsystem: "matching",
			Name:      "cycle_faults",
			Help:      "Matching cycles that ended in a recoverable fault since startup",
		},
	)
)

// publishProcessStats periodically projects the statistics snapshot into
// the Prometheus gauges.
func publishProcessStats(ctx context.Context, svc matching.Service, logger *slog.Logger) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, err := svc.GetStatistics(ctx)
			if err != nil {
				logger.WarnContext(ctx, "statistics snapshot failed", "error", err)
				continue
			}

			activeProcesses.Set(float64(stats.ActiveProcesses))
			totalNotified.Set(float64(stats.TotalNotified))
			failedNotifications.Set(float64(stats.FailedNotifications))
			averageRadius.Set(stats.AverageRadiusKm)
			cycleFaults.Set(float64(stats.CycleFaults))
		}
	}
}
