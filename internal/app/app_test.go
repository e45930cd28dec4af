package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"animehub/internal/config"
	"animehub/internal/restore"
	"animehub/internal/state"
	"animehub/pkg/models"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		AppEnv:          "development",
		CatalogURL:      "http://127.0.0.1:0",
		SearchDebounce:  10 * time.Millisecond,
		AuthLatency:     0,
		SecureBackend:   config.BackendMemory,
		GeneralBackend:  config.BackendSQLite,
		SQLitePath:      filepath.Join(t.TempDir(), "animehub.db"),
		RestoreTimeout:  time.Second,
		ShutdownTimeout: time.Second,
	}
}

func TestApp_ListsSurviveRestart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	first, err := New(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	first.Restore(ctx)

	session, err := first.Auth.Login(ctx, "user@example.com", "secret1")
	require.NoError(t, err)
	first.Store.LoginSuccess(session)
	first.Store.AddToList(state.Favorites, models.Anime{ID: 1, Title: "Frieren", Genres: []string{}})
	first.Store.MoveToWatching(models.Anime{ID: 2, Title: "Dandadan", Genres: []string{}})
	require.NoError(t, first.Close(ctx))

	second, err := New(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer second.Close(ctx)

	report := second.Restore(ctx)
	assert.Empty(t, report.Failed())

	snap := second.Store.Snapshot()
	assert.True(t, snap.Ready)
	// the memory secure facility does not outlive the process
	assert.False(t, snap.IsAuthenticated)
	assert.Equal(t, restore.OutcomeAbsent, report.Outcomes["session"])
	require.Len(t, snap.Favorites, 1)
	assert.Equal(t, "Frieren", snap.Favorites[0].Title)
	require.Len(t, snap.Watching, 1)
	assert.Empty(t, snap.Completed)
}

func TestApp_MemoryBackendsAreDistinct(t *testing.T) {
	cfg := testConfig(t)
	cfg.GeneralBackend = config.BackendMemory

	a, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.NotSame(t, a.Facilities.Secure, a.Facilities.General)
	require.NoError(t, a.Close(context.Background()))
}

func TestApp_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.GeneralBackend = "floppy"

	_, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "general facility")
}

func TestApp_NotReadyUntilRestore(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.Close(ctx)

	assert.Equal(t, state.RouteLoading, a.Store.Snapshot().Route())
	a.Restore(ctx)
	assert.Equal(t, state.RouteAuth, a.Store.Snapshot().Route())
}
