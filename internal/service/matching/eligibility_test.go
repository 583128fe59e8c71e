package matching

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lifelink/blood-donor-matching-backend/internal/domain/bloodrequest"
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/bloodtype"
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/donor"
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/errors"
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/geo"
	"github.com/lifelink/blood-donor-matching-backend/internal/testutil/mocks"
)

var hospital = geo.Coordinates{Longitude: 78.40, Latitude: 17.44}

func testRequest(bt bloodtype.Type, urgency bloodrequest.Urgency) *bloodrequest.Request {
	return &bloodrequest.Request{
		ID:               uuid.New(),
		PatientBloodType: bt,
		HospitalName:     "City General",
		HospitalLocation: hospital,
		UnitsNeeded:      2,
		Urgency:          urgency,
		SearchRadiusKm:   15,
		Status:           bloodrequest.StatusActive,
	}
}

// nearbyCandidate returns an eligible candidate roughly offsetKm north of
// the hospital.
func nearbyCandidate(bt bloodtype.Type, offsetKm float64) *donor.Candidate {
	return &donor.Candidate{
		DonorID:          uuid.New(),
		BloodType:        bt,
		Coordinates:      geo.Coordinates{Longitude: hospital.Longitude, Latitude: hospital.Latitude + offsetKm/111.195},
		IsAvailable:      true,
		MedicallyCleared: true,
	}
}

func TestEligibilityFilter_FindEligible(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	eligible := nearbyCandidate(bloodtype.OPositive, 5)
	incompatible := nearbyCandidate(bloodtype.APositive, 5)
	tooFar := nearbyCandidate(bloodtype.OPositive, 40)
	unavailable := nearbyCandidate(bloodtype.OPositive, 5)
	unavailable.IsAvailable = false
	uncleared := nearbyCandidate(bloodtype.OPositive, 5)
	uncleared.MedicallyCleared = false
	recentDonor := nearbyCandidate(bloodtype.ONegative, 5)
	recent := now.AddDate(0, 0, -89)
	recentDonor.LastDonationAt = &recent
	restedDonor := nearbyCandidate(bloodtype.ONegative, 5)
	rested := now.AddDate(0, 0, -91)
	restedDonor.LastDonationAt = &rested
	alreadyAnswered := nearbyCandidate(bloodtype.OPositive, 5)
	sleeping := nearbyCandidate(bloodtype.OPositive, 5)
	sleeping.NotificationWindow = &donor.NotificationWindow{StartHour: 18, EndHour: 22}

	tests := []struct {
		name       string
		candidates []*donor.Candidate
		excluded   []uuid.UUID
		want       []uuid.UUID
	}{
		{
			name:       "compatible nearby donor passes",
			candidates: []*donor.Candidate{eligible},
			want:       []uuid.UUID{eligible.DonorID},
		},
		{
			name:       "incompatible blood type filtered",
			candidates: []*donor.Candidate{incompatible, eligible},
			want:       []uuid.UUID{eligible.DonorID},
		},
		{
			name:       "outside geofence filtered",
			candidates: []*donor.Candidate{tooFar, eligible},
			want:       []uuid.UUID{eligible.DonorID},
		},
		{
			name:       "unavailable and uncleared filtered",
			candidates: []*donor.Candidate{unavailable, uncleared, eligible},
			want:       []uuid.UUID{eligible.DonorID},
		},
		{
			name:       "cooldown boundary: 89 days excluded, 91 days included",
			candidates: []*donor.Candidate{recentDonor, restedDonor},
			want:       []uuid.UUID{restedDonor.DonorID},
		},
		{
			name:       "prior responders excluded",
			candidates: []*donor.Candidate{alreadyAnswered, eligible},
			excluded:   []uuid.UUID{alreadyAnswered.DonorID},
			want:       []uuid.UUID{eligible.DonorID},
		},
		{
			name:       "notification window filters by current hour",
			candidates: []*donor.Candidate{sleeping, eligible},
			want:       []uuid.UUID{eligible.DonorID},
		},
		{
			name:       "zero candidates is a normal outcome",
			candidates: []*donor.Candidate{},
			want:       []uuid.UUID{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.DonorRepository)
			store := new(mocks.RequestStore)
			req := testRequest(bloodtype.OPositive, bloodrequest.UrgencyCritical)

			excluded := tt.excluded
			if excluded == nil {
				excluded = []uuid.UUID{}
			}
			store.On("GetResponderIDs", ctx, req.ID).Return(excluded, nil)
			repo.On("QueryEligibleDonors", ctx, mock.Anything, req.HospitalLocation, 25.0, excluded).
				Return(tt.candidates, nil)

			filter := NewEligibilityFilter(repo, store, 0)
			got, err := filter.FindEligible(ctx, req, 25.0, now)
			require.NoError(t, err)

			gotIDs := make([]uuid.UUID, 0, len(got))
			for _, c := range got {
				gotIDs = append(gotIDs, c.DonorID)
			}
			assert.Equal(t, tt.want, gotIDs)
		})
	}
}

func TestEligibilityFilter_CompatibleTypesPassedToRepository(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.DonorRepository)
	store := new(mocks.RequestStore)
	req := testRequest(bloodtype.OPositive, bloodrequest.UrgencyUrgent)

	store.On("GetResponderIDs", ctx, req.ID).Return([]uuid.UUID{}, nil)
	repo.On("QueryEligibleDonors", ctx, []bloodtype.Type{bloodtype.OPositive, bloodtype.ONegative},
		req.HospitalLocation, 15.0, []uuid.UUID{}).
		Return([]*donor.Candidate{}, nil)

	filter := NewEligibilityFilter(repo, store, 0)
	_, err := filter.FindEligible(ctx, req, 15.0, time.Now())
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestEligibilityFilter_CandidateCap(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.DonorRepository)
	store := new(mocks.RequestStore)
	req := testRequest(bloodtype.ABPositive, bloodrequest.UrgencyScheduled)

	candidates := make([]*donor.Candidate, 10)
	for i := range candidates {
		candidates[i] = nearbyCandidate(bloodtype.OPositive, 3)
	}

	store.On("GetResponderIDs", ctx, req.ID).Return([]uuid.UUID{}, nil)
	repo.On("QueryEligibleDonors", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(candidates, nil)

	filter := NewEligibilityFilter(repo, store, 4)
	got, err := filter.FindEligible(ctx, req, 15.0, time.Now())
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestEligibilityFilter_RepositoryFault(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.DonorRepository)
	store := new(mocks.RequestStore)
	req := testRequest(bloodtype.BNegative, bloodrequest.UrgencyCritical)

	store.On("GetResponderIDs", ctx, req.ID).Return([]uuid.UUID{}, nil)
	repo.On("QueryEligibleDonors", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	filter := NewEligibilityFilter(repo, store, 0)
	_, err := filter.FindEligible(ctx, req, 15.0, time.Now())
	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err))
}
