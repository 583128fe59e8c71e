package rest

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/lifelink/blood-donor-matching-backend/internal/service/matching"
)

type mockMatchingService struct {
	mock.Mock
}

func (m *mockMatchingService) StartMatching(ctx context.Context, requestID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *mockMatchingService) StopMatching(ctx context.Context, requestID uuid.UUID) (bool, error) {
	args := m.Called(ctx, requestID)
	return args.Bool(0), args.Error(1)
}

func (m *mockMatchingService) RecordResponse(ctx context.Context, requestID, donorID uuid.UUID, positive bool) error {
	args := m.Called(ctx, requestID, donorID, positive)
	return args.Error(0)
}

func (m *mockMatchingService) GetStatistics(ctx context.Context) (*matching.Statistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*matching.Statistics), args.Error(1)
}
