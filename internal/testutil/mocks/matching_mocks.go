package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/lifelink/blood-donor-matching-backend/internal/domain/bloodrequest"
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/bloodtype"
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/donor"
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/geo"
)

// DonorRepository mock
type DonorRepository struct {
	mock.Mock
}

func (m *DonorRepository) QueryEligibleDonors(ctx context.Context, compatible []bloodtype.Type, hospital geo.Coordinates, radiusKm float64, excluded []uuid.UUID) ([]*donor.Candidate, error) {
	args := m.Called(ctx, compatible, hospital, radiusKm, excluded)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*donor.Candidate), args.Error(1)
}

// RequestStore mock
type RequestStore struct {
	mock.Mock
}

func (m *RequestStore) GetRequest(ctx context.Context, requestID uuid.UUID) (*bloodrequest.Request, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bloodrequest.Request), args.Error(1)
}

func (m *RequestStore) GetRequestStatus(ctx context.Context, requestID uuid.UUID) (bloodrequest.Status, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).(bloodrequest.Status), args.Error(1)
}

func (m *RequestStore) GetResponderIDs(ctx context.Context, requestID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *RequestStore) UpdateMatchingCounters(ctx context.Context, requestID uuid.UUID, counters bloodrequest.MatchingCounters) error {
	args := m.Called(ctx, requestID, counters)
	return args.Error(0)
}

// Notifier mock
type Notifier struct {
	mock.Mock
}

func (m *Notifier) Send(ctx context.Context, donorID uuid.UUID, channels []string, template string, params map[string]string) error {
	args := m.Called(ctx, donorID, channels, template, params)
	return args.Error(0)
}

// SweepLock mock
type SweepLock struct {
	mock.Mock
}

func (m *SweepLock) Acquire(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *SweepLock) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
