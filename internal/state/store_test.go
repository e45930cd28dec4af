package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"animehub/internal/apperr"
	"animehub/pkg/models"
)

// recordingPersister keeps every write as the JSON it would have stored.
type recordingPersister struct {
	mu     sync.Mutex
	writes []string // "key" or "-key" for removals, in call order
	values map[string]string
}

func newRecordingPersister() *recordingPersister {
	return &recordingPersister{values: make(map[string]string)}
}

func (p *recordingPersister) Save(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writes = append(p.writes, key)
	p.values[key] = string(data)
}

func (p *recordingPersister) Remove(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writes = append(p.writes, "-"+key)
	delete(p.values, key)
}

func (p *recordingPersister) log() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.writes...)
}

func (p *recordingPersister) list(t *testing.T, key string) []models.Anime {
	t.Helper()
	p.mu.Lock()
	raw, ok := p.values[key]
	p.mu.Unlock()
	require.True(t, ok, "key %s was never persisted", key)

	var out []models.Anime
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func anime(id int) models.Anime {
	return models.Anime{ID: id, Title: fmt.Sprintf("Anime %d", id), Genres: []string{"Action"}, ReleaseYear: "2020"}
}

func newTestStore(t *testing.T) (*Store, *recordingPersister) {
	p := newRecordingPersister()
	return New(p, zaptest.NewLogger(t)), p
}

func TestAddToList_Idempotent(t *testing.T) {
	s, p := newTestStore(t)

	assert.True(t, s.AddToList(Favorites, anime(1)))
	assert.False(t, s.AddToList(Favorites, anime(1)))

	assert.Len(t, s.List(Favorites), 1)
	assert.Equal(t, []string{"favorites"}, p.log())
}

func TestAddToList_PreservesInsertionOrder(t *testing.T) {
	s, _ := newTestStore(t)

	for _, id := range []int{3, 1, 2} {
		s.AddToList(Watching, anime(id))
	}

	var ids []int
	for _, a := range s.List(Watching) {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []int{3, 1, 2}, ids)
}

func TestRemoveFromList(t *testing.T) {
	s, p := newTestStore(t)
	s.AddToList(Completed, anime(5))

	assert.True(t, s.RemoveFromList(Completed, 5))
	assert.False(t, s.Contains(Completed, 5))

	// absent id is not an error and still persists
	assert.False(t, s.RemoveFromList(Completed, 5))
	assert.Equal(t, []string{"completed", "completed", "completed"}, p.log())
	assert.Empty(t, p.list(t, "completed"))
}

func TestMoveToWatching_FromCompleted(t *testing.T) {
	s, p := newTestStore(t)
	s.AddToList(Completed, anime(7))

	s.MoveToWatching(anime(7))

	assert.True(t, s.Contains(Watching, 7))
	assert.False(t, s.Contains(Completed, 7))
	assert.Equal(t, []string{"completed", "watching", "completed"}, p.log())
	assert.Len(t, p.list(t, "watching"), 1)
	assert.Empty(t, p.list(t, "completed"))
}

func TestMoveToCompleted_FromWatching(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddToList(Watching, anime(8))

	s.MoveToCompleted(anime(8))

	assert.True(t, s.Contains(Completed, 8))
	assert.False(t, s.Contains(Watching, 8))
}

func TestMove_NeverInBothLists(t *testing.T) {
	s, _ := newTestStore(t)
	stop := make(chan struct{})
	violations := 0

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			snap := s.Snapshot()
			inWatching := len(snap.Watching) == 1
			inCompleted := len(snap.Completed) == 1
			if inWatching == inCompleted {
				violations++
			}
		}
	}()

	s.MoveToWatching(anime(1))
	for i := 0; i < 500; i++ {
		if i%2 == 0 {
			s.MoveToCompleted(anime(1))
		} else {
			s.MoveToWatching(anime(1))
		}
	}
	close(stop)
	wg.Wait()

	assert.Zero(t, violations)
}

func TestMove_FavoritesIndependent(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddToList(Favorites, anime(2))

	s.MoveToCompleted(anime(2))

	assert.True(t, s.Contains(Favorites, 2))
	assert.True(t, s.Contains(Completed, 2))
}

func TestToggleFavorite(t *testing.T) {
	s, _ := newTestStore(t)

	assert.True(t, s.ToggleFavorite(anime(4)))
	assert.True(t, s.Contains(Favorites, 4))

	assert.False(t, s.ToggleFavorite(anime(4)))
	assert.False(t, s.Contains(Favorites, 4))
}

func TestSetList_ReplacesWithoutPersisting(t *testing.T) {
	s, p := newTestStore(t)
	s.AddToList(Favorites, anime(1))

	s.SetList(Favorites, []models.Anime{anime(2), anime(3), anime(2)})

	got := s.List(Favorites)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].ID)
	assert.Equal(t, 3, got[1].ID)
	assert.Equal(t, []string{"favorites"}, p.log(), "only the AddToList write")
}

func TestPersistedSnapshotMatchesMemory(t *testing.T) {
	s, p := newTestStore(t)

	s.AddToList(Watching, anime(1))
	s.AddToList(Watching, anime(2))
	s.AddToList(Favorites, anime(2))
	s.MoveToCompleted(anime(1))
	s.ToggleFavorite(anime(3))
	s.RemoveFromList(Watching, 99)
	s.MoveToWatching(anime(1))
	s.ToggleFavorite(anime(2))
	s.AddToList(Completed, anime(9))

	for _, list := range Lists {
		if diff := cmp.Diff(s.List(list), p.list(t, string(list))); diff != "" {
			t.Errorf("%s persisted snapshot mismatch (-memory +persisted):\n%s", list, diff)
		}
	}
}

func TestUnknownList(t *testing.T) {
	s, p := newTestStore(t)

	assert.False(t, s.AddToList(ListName("history"), anime(1)))
	assert.False(t, s.RemoveFromList(ListName("history"), 1))
	s.SetList(ListName("history"), []models.Anime{anime(1)})

	assert.Empty(t, p.log())
	// the lock was released on every path
	assert.True(t, s.AddToList(Favorites, anime(1)))
}

func TestSessionLifecycle(t *testing.T) {
	s, p := newTestStore(t)
	session := &models.Session{ID: "u1", Name: "User", Email: "user@example.com", Token: "dummy-jwt-token"}

	assert.False(t, s.IsAuthenticated())

	s.LoginSuccess(session)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, session, s.Session())

	s.Logout()
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.Session())

	assert.Equal(t, []string{"session", "-session"}, p.log())
}

func TestRestoreSession_NotPersisted(t *testing.T) {
	s, p := newTestStore(t)

	s.RestoreSession(&models.Session{ID: "u1", Name: "User"})
	assert.True(t, s.IsAuthenticated())

	s.RestoreSession(nil)
	assert.False(t, s.IsAuthenticated())

	assert.Empty(t, p.log())
}

func TestUpdateProfile(t *testing.T) {
	s, p := newTestStore(t)

	err := s.UpdateProfile("Spike", "spike@bebop.io")
	assert.ErrorIs(t, err, apperr.ErrNotAuthenticated)

	s.LoginSuccess(&models.Session{ID: "u1", Name: "User", Email: "user@example.com", Token: "t"})

	assert.ErrorIs(t, s.UpdateProfile("", "spike@bebop.io"), apperr.ErrMissingFields)
	assert.ErrorIs(t, s.UpdateProfile("Spike", "nope"), apperr.ErrInvalidEmail)

	require.NoError(t, s.UpdateProfile(" Spike ", "spike@bebop.io"))
	got := s.Session()
	assert.Equal(t, "Spike", got.Name)
	assert.Equal(t, "spike@bebop.io", got.Email)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, []string{"session", "session"}, p.log())
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	s, _ := newTestStore(t)
	s.LoginSuccess(&models.Session{ID: "u1", Name: "User"})
	s.AddToList(Favorites, anime(1))

	snap := s.Snapshot()
	snap.Session.Name = "Mallory"
	snap.Favorites[0].Genres[0] = "Horror"
	snap.Favorites = append(snap.Favorites, anime(2))

	assert.Equal(t, "User", s.Session().Name)
	assert.Equal(t, []string{"Action"}, s.List(Favorites)[0].Genres)
	assert.Len(t, s.List(Favorites), 1)
}

func TestSnapshot_EmptyListsAreNotNil(t *testing.T) {
	s, _ := newTestStore(t)

	data, err := json.Marshal(s.Snapshot())
	require.NoError(t, err)
	assert.JSONEq(t, `{"session":null,"is_authenticated":false,"ready":false,"favorites":[],"watching":[],"completed":[]}`, string(data))
}

func TestRoute(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Equal(t, RouteLoading, s.Snapshot().Route())

	s.MarkReady()
	assert.Equal(t, RouteAuth, s.Snapshot().Route())

	s.LoginSuccess(&models.Session{ID: "u1"})
	assert.Equal(t, RouteApp, s.Snapshot().Route())
}

func TestWaitReady(t *testing.T) {
	s, _ := newTestStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.WaitReady(ctx), context.DeadlineExceeded)

	go s.MarkReady()
	require.NoError(t, s.WaitReady(context.Background()))
	assert.True(t, s.Ready())

	// second call is a no-op
	s.MarkReady()
}

func TestStats(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddToList(Favorites, anime(1))
	s.AddToList(Favorites, anime(2))
	s.AddToList(Watching, anime(3))

	assert.Equal(t, Stats{Favorites: 2, Watching: 1, Completed: 0}, s.Stats())
}

func TestSubscribe(t *testing.T) {
	s, _ := newTestStore(t)

	var got []Snapshot
	unsubscribe := s.Subscribe(func(snap Snapshot) {
		// listeners may read the store
		_ = s.Stats()
		got = append(got, snap)
	})

	s.AddToList(Favorites, anime(1))
	s.MarkReady()
	unsubscribe()
	unsubscribe()
	s.AddToList(Favorites, anime(2))

	require.Len(t, got, 2)
	assert.Len(t, got[0].Favorites, 1)
	assert.False(t, got[0].Ready)
	assert.True(t, got[1].Ready)
}

func TestConcurrentMutations(t *testing.T) {
	s, p := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.AddToList(Favorites, anime(id%10))
			s.ToggleFavorite(anime(100 + id))
			s.MoveToWatching(anime(id))
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.List(Favorites), 10+20)
	assert.Len(t, s.List(Watching), 20)
	if diff := cmp.Diff(s.List(Favorites), p.list(t, "favorites")); diff != "" {
		t.Errorf("favorites persisted snapshot mismatch (-memory +persisted):\n%s", diff)
	}
}

func TestParseListName(t *testing.T) {
	l, err := ParseListName(" Watching ")
	require.NoError(t, err)
	assert.Equal(t, Watching, l)

	_, err = ParseListName("plan-to-watch")
	assert.Error(t, err)
}
