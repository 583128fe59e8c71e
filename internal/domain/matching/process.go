package matching

import (
	"time"

	"github.com/google/uuid"

	"github.com/lifelink/blood-donor-matching-backend/internal/domain/bloodrequest"
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/errors"
)

// Process tracks escalation progress for a single blood request. It is
// owned exclusively by the matching core: created when matching starts,
// mutated by the scheduler and dispatcher, removed on completion.
type Process struct {
	ID                 uuid.UUID        `json:"id"`
	RequestID          uuid.UUID        `json:"request_id"`
	CurrentRadiusKm    float64          `json:"current_radius_km"`
	Round              int              `json:"round"`
	TotalNotified      int              `json:"total_notified"`
	TotalResponded     int              `json:"total_responded"`
	PositiveResponses  int              `json:"positive_responses"`
	FailedSends        int              `json:"failed_sends"`
	LastNotificationAt *time.Time       `json:"last_notification_at,omitempty"`
	NextEscalationAt   time.Time        `json:"next_escalation_at"`
	Status             Status           `json:"status"`
	CompletionReason   CompletionReason `json:"completion_reason,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

type Status int

const (
	StatusActive Status = iota
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// CompletionReason explains why a process reached the completed state.
type CompletionReason string

const (
	ReasonNone            CompletionReason = ""
	ReasonFulfilled       CompletionReason = "fulfilled"
	ReasonNoDonorsFound   CompletionReason = "no_donors_found"
	ReasonRadiusExhausted CompletionReason = "radius_exhausted"
	ReasonManuallyStopped CompletionReason = "manually_stopped"
	ReasonExpired         CompletionReason = "expired"
	ReasonError           CompletionReason = "error"
)

// NewProcess opens a matching process for a blood request at its configured
// starting radius. The first cycle is due immediately.
func NewProcess(requestID uuid.UUID, initialRadiusKm float64) *Process {
	now := clock.Now()
	return &Process{
		ID:               uuid.New(),
		RequestID:        requestID,
		CurrentRadiusKm:  initialRadiusKm,
		Round:            1,
		NextEscalationAt: now,
		Status:           StatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Escalate widens the search radius by incrementKm, capped at maxKm, and
// advances the notification round. Radius and round move together and the
// radius never decreases.
func (p *Process) Escalate(incrementKm, maxKm float64) error {
	if p.Status == StatusCompleted {
		return errors.ErrProcessCompleted
	}
	radius := p.CurrentRadiusKm + incrementKm
	if radius > maxKm {
		radius = maxKm
	}
	if radius < p.CurrentRadiusKm {
		radius = p.CurrentRadiusKm
	}
	p.CurrentRadiusKm = radius
	p.Round++
	p.UpdatedAt = clock.Now()
	return nil
}

// CanEscalate reports whether the radius still has room to widen.
func (p *Process) CanEscalate(maxKm float64) bool {
	return p.CurrentRadiusKm < maxKm
}

// RecordDispatch folds one dispatch cycle's outcome into the counters and
// schedules the next escalation.
func (p *Process) RecordDispatch(successful, failed int, nextEscalationAt time.Time) error {
	if p.Status == StatusCompleted {
		return errors.ErrProcessCompleted
	}
	now := clock.Now()
	p.TotalNotified += successful
	p.FailedSends += failed
	p.LastNotificationAt = &now
	p.NextEscalationAt = nextEscalationAt
	p.UpdatedAt = now
	return nil
}

// RecordResponse counts a donor's answer to a notification.
func (p *Process) RecordResponse(positive bool) error {
	if p.Status == StatusCompleted {
		return errors.ErrProcessCompleted
	}
	p.TotalResponded++
	if positive {
		p.PositiveResponses++
	}
	p.UpdatedAt = clock.Now()
	return nil
}

// Complete moves the process to its terminal state. Completed is terminal:
// completing twice is an error and the first reason wins.
func (p *Process) Complete(reason CompletionReason) error {
	if p.Status == StatusCompleted {
		return errors.ErrProcessCompleted
	}
	p.Status = StatusCompleted
	p.CompletionReason = reason
	p.UpdatedAt = clock.Now()
	return nil
}

// Due reports whether the process is eligible for a matching cycle.
func (p *Process) Due(now time.Time) bool {
	return p.Status == StatusActive && !p.NextEscalationAt.After(now)
}

// Counters projects the process state into the request-store write-back
// payload.
func (p *Process) Counters() bloodrequest.MatchingCounters {
	return bloodrequest.MatchingCounters{
		TotalNotified:        p.TotalNotified,
		LastNotificationSent: p.LastNotificationAt,
		NotificationRounds:   p.Round,
		CurrentRadiusKm:      p.CurrentRadiusKm,
	}
}
