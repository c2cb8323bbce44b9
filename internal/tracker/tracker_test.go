package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/triptap-rides/internal/api"
	"github.com/ukydev/triptap-rides/internal/handoff"
	"github.com/ukydev/triptap-rides/internal/i18n"
	"github.com/ukydev/triptap-rides/internal/models"
)

// MockStatusSource is a mock implementation of StatusSource
type MockStatusSource struct {
	mock.Mock
}

func (m *MockStatusSource) FetchStatus(ctx context.Context, requestID string) (models.TripStatus, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).(models.TripStatus), args.Error(1)
}

func status(code models.TripStatusCode) models.TripStatus {
	return models.TripStatus{
		RequestID:   "REQ123",
		Status:      code,
		InitiatedAt: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
	}
}

type recorder struct {
	mu    sync.Mutex
	views []View
}

func (r *recorder) TripUpdated(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
}

func (r *recorder) all() []View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]View(nil), r.views...)
}

func newTracker(src StatusSource, store handoff.Store, id string, opts ...Option) *Tracker {
	logger, _ := test.NewNullLogger()
	return New(src, store, id, i18n.New("en"), append([]Option{WithLogger(logger)}, opts...)...)
}

func TestScenarioC_StageSequence(t *testing.T) {
	src := new(MockStatusSource)
	for _, code := range []models.TripStatusCode{
		models.StatusRequested,
		models.StatusRequested,
		models.StatusAccepted,
		models.StatusInRoute,
		models.StatusCompleted,
	} {
		src.On("FetchStatus", mock.Anything, "REQ123").Return(status(code), nil).Once()
	}

	tr := newTracker(src, nil, "REQ123")
	var indexes []int
	for i := 0; i < 5; i++ {
		require.NoError(t, tr.Poll(context.Background()))
		indexes = append(indexes, tr.View().StageIndex)
	}

	assert.Equal(t, []int{0, 0, 1, 2, 5}, indexes)
	assert.True(t, tr.Done())
	src.AssertExpectations(t)
}

func TestScenarioD_ErrorThenRecovery(t *testing.T) {
	src := new(MockStatusSource)
	src.On("FetchStatus", mock.Anything, "REQ123").Return(status(models.StatusRequested), nil).Once()
	src.On("FetchStatus", mock.Anything, "REQ123").Return(models.TripStatus{}, errors.New("connection refused")).Once()
	src.On("FetchStatus", mock.Anything, "REQ123").Return(status(models.StatusAccepted), nil).Once()
	src.On("FetchStatus", mock.Anything, "REQ123").Return(status(models.StatusCompleted), nil).Once()

	rec := &recorder{}
	tr := newTracker(src, nil, "REQ123", WithInterval(5*time.Millisecond), WithObserver(rec))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, tr.Run(ctx))

	views := rec.all()
	require.Len(t, views, 4)
	assert.Empty(t, views[0].Error)
	assert.Equal(t, "Connection error", views[1].Error)
	assert.Equal(t, 0, views[1].StageIndex, "last good status is kept")
	require.NotNil(t, views[1].Status)
	assert.Equal(t, models.StatusRequested, views[1].Status.Status)
	assert.Empty(t, views[2].Error)
	assert.Equal(t, 1, views[2].StageIndex)
	assert.True(t, views[3].Terminal)
	assert.Equal(t, "Trip completed", views[3].Headline)
	src.AssertExpectations(t)
}

func TestProgressNeverRegresses(t *testing.T) {
	tr := newTracker(new(MockStatusSource), nil, "REQ123")

	assert.True(t, tr.apply(1, status(models.StatusInRoute), nil))
	assert.Equal(t, 2, tr.View().StageIndex)

	// A newer poll reporting an earlier stage does not move progress back.
	assert.True(t, tr.apply(2, status(models.StatusAccepted), nil))
	assert.Equal(t, 2, tr.View().StageIndex)
	assert.Equal(t, "Driver on the way", tr.View().Headline)

	// An older poll arriving late is dropped entirely.
	assert.False(t, tr.apply(1, status(models.StatusInProgress), nil))
	assert.Equal(t, 2, tr.View().StageIndex)
	assert.Equal(t, models.StatusAccepted, tr.View().Status.Status)

	assert.True(t, tr.apply(3, status(models.StatusArrivedAtPickup), nil))
	assert.Equal(t, 3, tr.View().StageIndex)
}

func TestOutOfOrderPolls(t *testing.T) {
	src := new(MockStatusSource)
	slowStarted := make(chan struct{})
	release := make(chan struct{})
	src.On("FetchStatus", mock.Anything, "REQ123").
		Run(func(mock.Arguments) {
			close(slowStarted)
			<-release
		}).
		Return(status(models.StatusRequested), nil).Once()
	src.On("FetchStatus", mock.Anything, "REQ123").Return(status(models.StatusInRoute), nil).Once()

	tr := newTracker(src, nil, "REQ123")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, tr.Poll(context.Background()))
	}()
	<-slowStarted
	require.NoError(t, tr.Poll(context.Background()))
	close(release)
	wg.Wait()

	v := tr.View()
	assert.Equal(t, 2, v.StageIndex)
	assert.Equal(t, models.StatusInRoute, v.Status.Status)
}

func TestCancelledIsSeparateTerminal(t *testing.T) {
	src := new(MockStatusSource)
	src.On("FetchStatus", mock.Anything, "REQ123").Return(status(models.StatusAccepted), nil).Once()
	src.On("FetchStatus", mock.Anything, "REQ123").Return(status(models.StatusCancelled), nil).Once()

	rec := &recorder{}
	tr := newTracker(src, nil, "REQ123", WithInterval(time.Millisecond), WithObserver(rec))
	require.NoError(t, tr.Run(context.Background()))

	v := tr.View()
	assert.True(t, v.Cancelled)
	assert.True(t, v.Terminal)
	assert.Equal(t, 1, v.StageIndex)
	assert.Equal(t, "Trip cancelled", v.Headline)
	assert.Equal(t, "The trip has been cancelled", v.Description)
	assert.Len(t, rec.all(), 2)
	src.AssertNumberOfCalls(t, "FetchStatus", 2)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	src := new(MockStatusSource)
	src.On("FetchStatus", mock.Anything, "REQ123").Return(status(models.StatusInRoute), nil)

	tr := newTracker(src, nil, "REQ123", WithInterval(time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := tr.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, tr.Done())
	assert.GreaterOrEqual(t, len(src.Calls), 2)
}

func TestRunWithoutRequestID(t *testing.T) {
	src := new(MockStatusSource)
	tr := newTracker(src, nil, "")

	assert.ErrorIs(t, tr.Run(context.Background()), ErrMissingRequestID)
	assert.Equal(t, "Trip ID not found", tr.View().Error)
	src.AssertNotCalled(t, "FetchStatus", mock.Anything, mock.Anything)
}

func TestErrorMessages(t *testing.T) {
	tr := newTracker(new(MockStatusSource), nil, "REQ123")

	tests := []struct {
		err  error
		want string
	}{
		{&api.Error{StatusCode: 404, Message: "Trip not found"}, "Trip not found"},
		{&api.Error{StatusCode: 200}, "Error loading trip status"},
		{api.ErrInvalidResponse, "Error loading trip status"},
		{errors.New("dial tcp: timeout"), "Connection error"},
	}
	for i, tt := range tests {
		tr.apply(uint64(i+1), models.TripStatus{}, tt.err)
		assert.Equal(t, tt.want, tr.View().Error)
	}
}

func TestHandoffMerge(t *testing.T) {
	ctx := context.Background()

	t.Run("record present", func(t *testing.T) {
		store := handoff.NewMemoryStore(0)
		require.NoError(t, store.Save(ctx, "REQ123", models.TripHandoff{
			Origin: "Airport", Destination: "Downtown", VehicleType: "Normal", Fare: 20, CustomerName: "Ana",
		}))
		src := new(MockStatusSource)
		src.On("FetchStatus", mock.Anything, "REQ123").Return(models.TripStatus{}, errors.New("offline")).Once()
		src.On("FetchStatus", mock.Anything, "REQ123").Return(status(models.StatusRequested), nil).Twice()

		tr := newTracker(src, store, "REQ123")
		assert.Error(t, tr.Poll(ctx))
		assert.Nil(t, tr.View().Handoff, "not read before a status arrives")

		require.NoError(t, tr.Poll(ctx))
		v := tr.View()
		require.NotNil(t, v.Handoff)
		assert.Equal(t, "Airport", v.Handoff.Origin)
		assert.Equal(t, 20.0, v.Handoff.Fare)

		// Later edits to the store are not re-read.
		require.NoError(t, store.Delete(ctx, "REQ123"))
		require.NoError(t, tr.Poll(ctx))
		assert.NotNil(t, tr.View().Handoff)
	})

	t.Run("record missing", func(t *testing.T) {
		src := new(MockStatusSource)
		src.On("FetchStatus", mock.Anything, "REQ404").Return(models.TripStatus{RequestID: "REQ404", Status: models.StatusAccepted}, nil).Once()

		tr := newTracker(src, handoff.NewMemoryStore(0), "REQ404")
		require.NoError(t, tr.Poll(ctx))
		v := tr.View()
		assert.Nil(t, v.Handoff)
		assert.Empty(t, v.Error)
		assert.Equal(t, 1, v.StageIndex)
	})
}

func TestStages(t *testing.T) {
	tr := newTracker(new(MockStatusSource), nil, "REQ123")

	for _, s := range tr.Stages() {
		assert.False(t, s.Reached)
		assert.False(t, s.Current)
	}
	assert.Equal(t, -1, tr.View().StageIndex)
	assert.Equal(t, "Looking for driver", tr.View().Headline)

	tr.apply(1, status(models.StatusArrivedAtPickup), nil)
	stages := tr.Stages()
	require.Len(t, stages, 6)
	for i, s := range stages {
		assert.Equal(t, models.StageList[i], s.Status)
		assert.Equal(t, i <= 3, s.Reached, "stage %d", i)
		assert.Equal(t, i == 3, s.Current, "stage %d", i)
	}
	assert.Equal(t, "Driver has arrived", stages[3].Title)
}

func TestDefaults(t *testing.T) {
	tr := New(new(MockStatusSource), nil, "REQ1", nil, WithInterval(0))
	assert.Equal(t, DefaultInterval, tr.Interval())
	assert.Equal(t, "Buscando conductor", tr.View().Headline)
}
