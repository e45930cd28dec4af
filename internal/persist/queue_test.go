package persist

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"animehub/internal/kvstore"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// MockStore mocks the kvstore.Store interface
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockStore) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// jitterStore records every write after a random delay.
type jitterStore struct {
	*kvstore.Memory
	mu      sync.Mutex
	history map[string][]string
}

func newJitterStore() *jitterStore {
	return &jitterStore{Memory: kvstore.NewMemory(), history: make(map[string][]string)}
}

func (s *jitterStore) Set(ctx context.Context, key, value string) error {
	time.Sleep(time.Duration(rand.IntN(300)) * time.Microsecond)
	s.mu.Lock()
	s.history[key] = append(s.history[key], value)
	s.mu.Unlock()
	return s.Memory.Set(ctx, key, value)
}

func (s *jitterStore) writes(key string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.history[key]...)
}

// blockingStore holds every call until its context ends.
type blockingStore struct {
	kvstore.Memory
	started chan struct{}
}

func (s *blockingStore) Set(ctx context.Context, key, value string) error {
	s.started <- struct{}{}
	<-ctx.Done()
	return ctx.Err()
}

func newFacilities(t *testing.T, secure, general kvstore.Store) *Facilities {
	t.Helper()
	f, err := NewFacilities(secure, general)
	require.NoError(t, err)
	return f
}

func TestQueue_PreservesOrderPerKey(t *testing.T) {
	general := newJitterStore()
	q := NewQueue(newFacilities(t, kvstore.NewMemory(), general), time.Second, zaptest.NewLogger(t))

	const n = 200
	for i := 0; i < n; i++ {
		require.NoError(t, q.Set(KeyFavorites, fmt.Sprint(i)))
		require.NoError(t, q.Set(KeyWatching, fmt.Sprint(i)))
	}
	require.NoError(t, q.Close(context.Background()))

	for _, key := range []string{KeyFavorites, KeyWatching} {
		writes := general.writes(key)
		require.Len(t, writes, n)
		for i, v := range writes {
			assert.Equal(t, fmt.Sprint(i), v, "key %s write %d out of order", key, i)
		}

		last, err := general.Get(context.Background(), key)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprint(n-1), last)
	}
}

func TestQueue_RoutesSessionToSecureFacility(t *testing.T) {
	secure, general := kvstore.NewMemory(), kvstore.NewMemory()
	q := NewQueue(newFacilities(t, secure, general), time.Second, zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, q.Set(KeySession, `{"id":"u1"}`))
	require.NoError(t, q.Set(KeyCompleted, `[]`))
	require.NoError(t, q.Flush(ctx))

	_, err := secure.Get(ctx, KeySession)
	assert.NoError(t, err)
	_, err = general.Get(ctx, KeySession)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)

	_, err = general.Get(ctx, KeyCompleted)
	assert.NoError(t, err)
	_, err = secure.Get(ctx, KeyCompleted)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)

	require.NoError(t, q.Close(ctx))
}

func TestQueue_DeleteAfterSet(t *testing.T) {
	secure := kvstore.NewMemory()
	q := NewQueue(newFacilities(t, secure, kvstore.NewMemory()), time.Second, zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, q.Set(KeySession, `{"id":"u1"}`))
	require.NoError(t, q.Delete(KeySession))
	require.NoError(t, q.Close(ctx))

	_, err := secure.Get(ctx, KeySession)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestQueue_FailureIsLoggedNotRetried(t *testing.T) {
	general := new(MockStore)
	general.On("Set", mock.Anything, KeyFavorites, "1").Return(errors.New("disk full")).Once()
	general.On("Set", mock.Anything, KeyFavorites, "2").Return(nil).Once()

	q := NewQueue(newFacilities(t, kvstore.NewMemory(), general), time.Second, zaptest.NewLogger(t))

	require.NoError(t, q.Set(KeyFavorites, "1"))
	require.NoError(t, q.Set(KeyFavorites, "2"))
	require.NoError(t, q.Close(context.Background()))

	assert.EqualValues(t, 1, q.Failures())
	general.AssertExpectations(t)
	general.AssertNumberOfCalls(t, "Set", 2)
}

func TestQueue_ClosedRejectsWork(t *testing.T) {
	q := NewQueue(newFacilities(t, kvstore.NewMemory(), kvstore.NewMemory()), time.Second, zaptest.NewLogger(t))
	require.NoError(t, q.Close(context.Background()))

	assert.ErrorIs(t, q.Set(KeyWatching, "[]"), ErrQueueClosed)
	assert.ErrorIs(t, q.Delete(KeySession), ErrQueueClosed)
}

func TestQueue_FlushWhenIdle(t *testing.T) {
	q := NewQueue(newFacilities(t, kvstore.NewMemory(), kvstore.NewMemory()), time.Second, zaptest.NewLogger(t))
	defer q.Close(context.Background())

	assert.NoError(t, q.Flush(context.Background()))
}

func TestQueue_CloseTimeoutCancelsInFlight(t *testing.T) {
	general := &blockingStore{started: make(chan struct{}, 1)}
	q := NewQueue(newFacilities(t, kvstore.NewMemory(), general), time.Minute, zaptest.NewLogger(t))

	require.NoError(t, q.Set(KeyFavorites, "1"))
	require.NoError(t, q.Set(KeyFavorites, "2"))
	<-general.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := q.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// the cancelled worker exits without starting the abandoned op
	require.NoError(t, q.Flush(context.Background()))
	assert.EqualValues(t, 1, q.Failures())
}

func TestNewFacilities(t *testing.T) {
	shared := kvstore.NewMemory()

	_, err := NewFacilities(shared, shared)
	assert.ErrorIs(t, err, ErrSharedFacility)

	_, err = NewFacilities(nil, shared)
	assert.Error(t, err)

	f, err := NewFacilities(kvstore.NewMemory(), shared)
	require.NoError(t, err)
	assert.Same(t, shared, f.For(KeyWatching))
	assert.NotSame(t, shared, f.For(KeySession))
}

func TestFacilities_CloseClosesBoth(t *testing.T) {
	secure, general := new(MockStore), new(MockStore)
	secure.On("Close").Return(nil)
	general.On("Close").Return(errors.New("busy"))

	f := newFacilities(t, secure, general)

	assert.EqualError(t, f.Close(), "busy")
	secure.AssertExpectations(t)
	general.AssertExpectations(t)
}

func TestKeys(t *testing.T) {
	assert.True(t, IsSecure(KeySession))
	assert.False(t, IsSecure(KeyFavorites))
	assert.True(t, IsKnown(KeyCompleted))
	assert.False(t, IsKnown("history"))
}
