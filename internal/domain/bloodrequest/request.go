package bloodrequest

import (
	"time"

	"github.com/google/uuid"

	"github.com/lifelink/blood-donor-matching-backend/internal/domain/bloodtype"
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/geo"
)

// Request is a projection of an externally owned blood request. The
// matching core reads it and writes back matching counters, but does not
// own its lifecycle.
type Request struct {
	ID               uuid.UUID       `json:"id"`
	PatientBloodType bloodtype.Type  `json:"patient_blood_type"`
	HospitalName     string          `json:"hospital_name"`
	HospitalLocation geo.Coordinates `json:"hospital_location"`
	UnitsNeeded      int             `json:"units_needed"`
	Urgency          Urgency         `json:"urgency"`
	SearchRadiusKm   float64         `json:"search_radius_km"`
	Status           Status          `json:"status"`
	NeededBy         *time.Time      `json:"needed_by,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

type Urgency int

const (
	UrgencyScheduled Urgency = iota
	UrgencyUrgent
	UrgencyCritical
)

func (u Urgency) String() string {
	switch u {
	case UrgencyScheduled:
		return "scheduled"
	case UrgencyUrgent:
		return "urgent"
	case UrgencyCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseUrgency maps a stored urgency string to its enum value. Unknown
// values degrade to scheduled, the least aggressive tier.
func ParseUrgency(s string) Urgency {
	switch s {
	case "critical":
		return UrgencyCritical
	case "urgent":
		return UrgencyUrgent
	default:
		return UrgencyScheduled
	}
}

type Status int

const (
	StatusPending Status = iota
	StatusActive
	StatusFulfilled
	StatusExpired
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusFulfilled:
		return "fulfilled"
	case StatusExpired:
		return "expired"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ParseStatus maps a stored status string to its enum value.
func ParseStatus(s string) Status {
	switch s {
	case "active":
		return StatusActive
	case "fulfilled":
		return StatusFulfilled
	case "expired":
		return StatusExpired
	case "cancelled":
		return StatusCancelled
	default:
		return StatusPending
	}
}

// Terminal reports whether the request no longer accepts donor matching.
func (s Status) Terminal() bool {
	return s == StatusFulfilled || s == StatusExpired || s == StatusCancelled
}

// MatchingCounters is the write-back payload the core pushes to the
// request store after each dispatch and on completion.
type MatchingCounters struct {
	TotalNotified        int
	LastNotificationSent *time.Time
	NotificationRounds   int
	CurrentRadiusKm      float64
}
