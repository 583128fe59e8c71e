package matching

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifelink/blood-donor-matching-backend/internal/domain/errors"
	domain "github.com/lifelink/blood-donor-matching-backend/internal/domain/matching"
)

func TestRegistry_CreateRejectsSecondProcess(t *testing.T) {
	r := NewRegistry()
	requestID := uuid.New()

	require.NoError(t, r.Create(domain.NewProcess(requestID, 15)))

	err := r.Create(domain.NewProcess(requestID, 15))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMatchingAlreadyActive)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	r := NewRegistry()
	p := domain.NewProcess(uuid.New(), 15)
	require.NoError(t, r.Create(p))

	got, ok := r.Get(p.RequestID)
	require.True(t, ok)
	got.CurrentRadiusKm = 999

	again, ok := r.Get(p.RequestID)
	require.True(t, ok)
	assert.Equal(t, 15.0, again.CurrentRadiusKm)
}

func TestRegistry_WithProcessNotFound(t *testing.T) {
	r := NewRegistry()
	err := r.WithProcess(uuid.New(), func(p *domain.Process) error { return nil })
	assert.ErrorIs(t, err, errors.ErrProcessNotFound)
}

func TestRegistry_WithProcessSerializesMutations(t *testing.T) {
	r := NewRegistry()
	p := domain.NewProcess(uuid.New(), 15)
	require.NoError(t, r.Create(p))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.WithProcess(p.RequestID, func(p *domain.Process) error {
				return p.RecordResponse(true)
			})
		}()
	}
	wg.Wait()

	got, ok := r.Get(p.RequestID)
	require.True(t, ok)
	assert.Equal(t, 50, got.TotalResponded)
	assert.Equal(t, 50, got.PositiveResponses)
}

func TestRegistry_Due(t *testing.T) {
	clk := &domain.MockClock{CurrentTime: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}
	domain.SetClock(clk)
	defer domain.ResetClock()

	r := NewRegistry()
	now := clk.Now()

	dueNow := domain.NewProcess(uuid.New(), 15) // due immediately on creation
	require.NoError(t, r.Create(dueNow))

	waiting := domain.NewProcess(uuid.New(), 15)
	require.NoError(t, r.Create(waiting))
	require.NoError(t, r.WithProcess(waiting.RequestID, func(p *domain.Process) error {
		return p.RecordDispatch(10, 0, now.Add(20*time.Minute))
	}))

	stopped := domain.NewProcess(uuid.New(), 15)
	require.NoError(t, r.Create(stopped))
	require.NoError(t, r.WithProcess(stopped.RequestID, func(p *domain.Process) error {
		return p.Complete(domain.ReasonManuallyStopped)
	}))

	due := r.Due(now)
	assert.Equal(t, []uuid.UUID{dueNow.RequestID}, due)

	// Once the escalation delay elapses the waiting process becomes due.
	due = r.Due(now.Add(21 * time.Minute))
	assert.ElementsMatch(t, []uuid.UUID{dueNow.RequestID, waiting.RequestID}, due)
}

func TestRegistry_RemoveAndSnapshot(t *testing.T) {
	r := NewRegistry()
	a := domain.NewProcess(uuid.New(), 15)
	b := domain.NewProcess(uuid.New(), 25)
	require.NoError(t, r.Create(a))
	require.NoError(t, r.Create(b))

	assert.Len(t, r.Snapshot(), 2)

	r.Remove(a.RequestID)
	assert.Equal(t, 1, r.Len())

	_, ok := r.Get(a.RequestID)
	assert.False(t, ok)

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, b.RequestID, snap[0].RequestID)
}
