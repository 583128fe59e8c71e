package matching

import (
	"math"
	"sort"

	"github.com/lifelink/blood-donor-matching-backend/internal/domain/bloodrequest"
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/bloodtype"
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/donor"
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/geo"
)

// ScoringConfig names every constant of the ranking formula so the weights
// are tunable and independently testable.
type ScoringConfig struct {
	DistanceBase         float64 `koanf:"distance_base"`
	DistancePenaltyPerKm float64 `koanf:"distance_penalty_per_km"`
	ExactMatchScore      float64 `koanf:"exact_match_score"`
	UniversalDonorScore  float64 `koanf:"universal_donor_score"`
	CompatibleScore      float64 `koanf:"compatible_score"`
	PointsPerDonation    float64 `koanf:"points_per_donation"`
	DonationHistoryCap   float64 `koanf:"donation_history_cap"`
	AvailabilityScore    float64 `koanf:"availability_score"`
	ResponseRateWeight   float64 `koanf:"response_rate_weight"`
	CriticalBonus        float64 `koanf:"critical_bonus"`
	UrgentBonus          float64 `koanf:"urgent_bonus"`
}

// DefaultScoringConfig returns the production ranking weights.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		DistanceBase:         100,
		DistancePenaltyPerKm: 2,
		ExactMatchScore:      50,
		UniversalDonorScore:  45,
		CompatibleScore:      30,
		PointsPerDonation:    5,
		DonationHistoryCap:   50,
		AvailabilityScore:    20,
		ResponseRateWeight:   30,
		CriticalBonus:        25,
		UrgentBonus:          15,
	}
}

// ScoringEngine ranks eligible candidates for a request. Scoring is
// deterministic: identical inputs always yield identical ordering and
// scores. Ties keep filter order (stable sort).
type ScoringEngine struct {
	cfg ScoringConfig
}

func NewScoringEngine(cfg ScoringConfig) *ScoringEngine {
	return &ScoringEngine{cfg: cfg}
}

// Score returns the candidates ordered by descending score.
func (e *ScoringEngine) Score(candidates []*donor.Candidate, req *bloodrequest.Request) []*ScoredDonor {
	scored := make([]*ScoredDonor, 0, len(candidates))
	for _, c := range candidates {
		distance := geo.DistanceKm(req.HospitalLocation, c.Coordinates)
		scored = append(scored, &ScoredDonor{
			Candidate:  c,
			DistanceKm: distance,
			Score:      e.score(c, req, distance),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

func (e *ScoringEngine) score(c *donor.Candidate, req *bloodrequest.Request, distanceKm float64) int {
	total := e.distanceScore(distanceKm) +
		e.compatibilityScore(c.BloodType, req.PatientBloodType) +
		e.historyScore(c.HistoricalDonationCount) +
		e.availabilityScore(c.IsAvailable) +
		e.cfg.ResponseRateWeight*c.HistoricalResponseRate +
		e.urgencyBonus(req.Urgency)

	return int(math.Round(total))
}

func (e *ScoringEngine) distanceScore(distanceKm float64) float64 {
	return math.Max(0, e.cfg.DistanceBase-e.cfg.DistancePenaltyPerKm*distanceKm)
}

// compatibilityScore grades the donor/recipient pairing. Incompatible
// pairs score zero; they should not survive the filter but are scored
// defensively.
func (e *ScoringEngine) compatibilityScore(donorType, recipientType bloodtype.Type) float64 {
	if donorType == recipientType {
		return e.cfg.ExactMatchScore
	}
	if donorType.IsUniversalDonor() {
		return e.cfg.UniversalDonorScore
	}
	if ok, err := bloodtype.CanDonate(donorType, recipientType); err == nil && ok {
		return e.cfg.CompatibleScore
	}
	return 0
}

func (e *ScoringEngine) historyScore(donations int) float64 {
	return math.Min(e.cfg.PointsPerDonation*float64(donations), e.cfg.DonationHistoryCap)
}

func (e *ScoringEngine) availabilityScore(available bool) float64 {
	if available {
		return e.cfg.AvailabilityScore
	}
	return 0
}

func (e *ScoringEngine) urgencyBonus(u bloodrequest.Urgency) float64 {
	switch u {
	case bloodrequest.UrgencyCritical:
		return e.cfg.CriticalBonus
	case bloodrequest.UrgencyUrgent:
		return e.cfg.UrgentBonus
	default:
		return 0
	}
}
