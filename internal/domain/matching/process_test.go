package matching

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_Escalate(t *testing.T) {
	p := NewProcess(uuid.New(), 15)

	require.NoError(t, p.Escalate(10, 100))
	assert.Equal(t, 25.0, p.CurrentRadiusKm)
	assert.Equal(t, 2, p.Round)

	// Radius caps at the maximum but the round still advances.
	p.CurrentRadiusKm = 95
	require.NoError(t, p.Escalate(10, 100))
	assert.Equal(t, 100.0, p.CurrentRadiusKm)
	assert.Equal(t, 3, p.Round)
	assert.False(t, p.CanEscalate(100))
}

func TestProcess_RadiusNonDecreasing(t *testing.T) {
	p := NewProcess(uuid.New(), 15)

	prev := p.CurrentRadiusKm
	for i := 0; i < 20; i++ {
		require.NoError(t, p.Escalate(10, 100))
		assert.GreaterOrEqual(t, p.CurrentRadiusKm, prev)
		assert.LessOrEqual(t, p.CurrentRadiusKm, 100.0)
		prev = p.CurrentRadiusKm
	}
}

func TestProcess_CompleteIsTerminal(t *testing.T) {
	p := NewProcess(uuid.New(), 15)

	require.NoError(t, p.Complete(ReasonFulfilled))
	assert.Equal(t, StatusCompleted, p.Status)
	assert.Equal(t, ReasonFulfilled, p.CompletionReason)

	// No transition leaves completed; the first reason wins.
	assert.Error(t, p.Complete(ReasonManuallyStopped))
	assert.Equal(t, ReasonFulfilled, p.CompletionReason)
	assert.Error(t, p.Escalate(10, 100))
	assert.Error(t, p.RecordDispatch(5, 0, time.Now()))
	assert.Error(t, p.RecordResponse(true))
}

func TestProcess_RecordDispatch(t *testing.T) {
	mock := &MockClock{CurrentTime: time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)}
	SetClock(mock)
	defer ResetClock()

	p := NewProcess(uuid.New(), 15)
	next := mock.Now().Add(20 * time.Minute)

	require.NoError(t, p.RecordDispatch(12, 3, next))
	assert.Equal(t, 12, p.TotalNotified)
	assert.Equal(t, 3, p.FailedSends)
	assert.Equal(t, next, p.NextEscalationAt)
	require.NotNil(t, p.LastNotificationAt)
	assert.Equal(t, mock.Now(), *p.LastNotificationAt)

	require.NoError(t, p.RecordDispatch(8, 0, next.Add(20*time.Minute)))
	assert.Equal(t, 20, p.TotalNotified)
}

func TestProcess_RecordResponse(t *testing.T) {
	p := NewProcess(uuid.New(), 15)

	require.NoError(t, p.RecordResponse(true))
	require.NoError(t, p.RecordResponse(false))
	require.NoError(t, p.RecordResponse(true))

	assert.Equal(t, 3, p.TotalResponded)
	assert.Equal(t, 2, p.PositiveResponses)
}

func TestProcess_Due(t *testing.T) {
	mock := &MockClock{CurrentTime: time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)}
	SetClock(mock)
	defer ResetClock()

	p := NewProcess(uuid.New(), 15)
	assert.True(t, p.Due(mock.Now()), "new process is due immediately")

	p.NextEscalationAt = mock.Now().Add(20 * time.Minute)
	assert.False(t, p.Due(mock.Now()))

	mock.Advance(20 * time.Minute)
	assert.True(t, p.Due(mock.Now()))

	require.NoError(t, p.Complete(ReasonManuallyStopped))
	assert.False(t, p.Due(mock.Now()), "completed process is never due")
}
