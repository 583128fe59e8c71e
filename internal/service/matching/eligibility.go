package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lifelink/blood-donor-matching-backend/internal/domain/bloodrequest"
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/bloodtype"
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/donor"
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/errors"
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/geo"
)

// DefaultCandidateCap bounds downstream scoring cost per cycle.
const DefaultCandidateCap = 100

// EligibilityFilter finds donors eligible for a blood request at a given
// search radius. An empty result is a normal outcome that drives
// escalation, not an error.
type EligibilityFilter struct {
	donorRepo    DonorRepository
	requestStore RequestStore
	candidateCap int
}

func NewEligibilityFilter(donorRepo DonorRepository, requestStore RequestStore, candidateCap int) *EligibilityFilter {
	if candidateCap <= 0 {
		candidateCap = DefaultCandidateCap
	}
	return &EligibilityFilter{
		donorRepo:    donorRepo,
		requestStore: requestStore,
		candidateCap: candidateCap,
	}
}

// FindEligible returns candidates that pass, in order: blood-type
// compatibility, geofence, availability and medical clearance, donation
// cooldown, prior-responder exclusion, and notification-hour preference.
// The repository applies the coarse predicates; everything is re-checked
// here so the core does not depend on repository precision.
func (f *EligibilityFilter) FindEligible(ctx context.Context, req *bloodrequest.Request, radiusKm float64, now time.Time) ([]*donor.Candidate, error) {
	compatible, err := bloodtype.CompatibleDonors(req.PatientBloodType)
	if err != nil {
		return nil, err
	}

	excluded, err := f.requestStore.GetResponderIDs(ctx, req.ID)
	if err != nil {
		return nil, errors.NewExternalError("request-store", fmt.Sprintf("responder set lookup failed: %v", err)).WithCause(err)
	}

	candidates, err := f.donorRepo.QueryEligibleDonors(ctx, compatible, req.HospitalLocation, radiusKm, excluded)
	if err != nil {
		return nil, errors.NewExternalError("donor-repository", fmt.Sprintf("donor query failed: %v", err)).WithCause(err)
	}

	compatSet := make(map[bloodtype.Type]struct{}, len(compatible))
	for _, t := range compatible {
		compatSet[t] = struct{}{}
	}
	excludedSet := make(map[uuid.UUID]struct{}, len(excluded))
	for _, id := range excluded {
		excludedSet[id] = struct{}{}
	}

	eligible := make([]*donor.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := compatSet[c.BloodType]; !ok {
			continue
		}
		if geo.DistanceKm(req.HospitalLocation, c.Coordinates) > radiusKm {
			continue
		}
		if !c.IsAvailable || !c.MedicallyCleared {
			continue
		}
		if c.OnCooldown(now) {
			continue
		}
		if _, answered := excludedSet[c.DonorID]; answered {
			continue
		}
		if !c.Notifiable(now) {
			continue
		}
		eligible = append(eligible, c)
		if len(eligible) == f.candidateCap {
			break
		}
	}

	return eligible, nil
}
