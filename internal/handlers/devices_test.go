package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"littlesteps/internal/database"
	"littlesteps/internal/profile"
	"littlesteps/internal/storage"
)

func newSQLTestApp(t *testing.T) (*testApp, *database.DB) {
	t.Helper()
	db, err := database.Connect(database.NewPureSQLiteDialect(), database.DialectConfig{
		Path: filepath.Join(t.TempDir(), "devices.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.RunMigrations(context.Background())
	require.NoError(t, err)

	app := newTestAppWithStorage(t, 1000, func(deviceID string) storage.Storage {
		return storage.NewSQLStorage(db, deviceID)
	})
	return app, db
}

func TestCookielessRequestsWriteNothing(t *testing.T) {
	app, db := newSQLTestApp(t)
	paths := []string{"/wp-login.php", "/", "/milestones", "/profile-management", "/assistant?partial=1"}

	issued := map[string]bool{}
	for i := 0; i < 20; i++ {
		for _, path := range paths {
			rec := httptest.NewRecorder()
			app.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			require.Less(t, rec.Code, http.StatusInternalServerError, path)

			cookie := responseCookie(rec, DeviceCookieName)
			require.NotNil(t, cookie)
			issued[cookie.Value] = true
		}
	}
	assert.Len(t, issued, 20*len(paths))

	summaries, err := storage.Namespaces(context.Background(), db)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestSeedIsStoredOnceDeviceActs(t *testing.T) {
	app, db := newSQLTestApp(t)
	ctx := context.Background()

	home := app.get("/")
	require.Equal(t, http.StatusOK, home.Code)
	assert.Contains(t, home.Body.String(), "Aarav Kumar")

	summaries, err := storage.Namespaces(ctx, db)
	require.NoError(t, err)
	require.Empty(t, summaries)

	rec := app.post(t, "/profiles/"+profile.ExampleProfileID+"/select", url.Values{"return_to": {"/milestones"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	summaries, err = storage.Namespaces(ctx, db)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, app.deviceID, summaries[0].Namespace)
	assert.Equal(t, 2, summaries[0].Items)
}

func TestEvictIdleDropsDeviceCaches(t *testing.T) {
	app, _ := newSQLTestApp(t)

	rec := app.post(t, "/profiles", profileForm("Maya", "3 years"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = app.post(t, "/assistant/messages", url.Values{"message": {"Hello"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = app.post(t, "/activity-generator/generate", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	require.Equal(t, 1, app.registry.Len())
	require.Equal(t, 1, app.conversations.Len())
	require.Equal(t, 1, app.base.workspaces.Len())

	// nothing has been idle for an hour yet
	app.base.EvictIdle(time.Hour)
	assert.Equal(t, 1, app.registry.Len())

	// a negative age counts every device as idle
	app.base.EvictIdle(-time.Minute)
	assert.Equal(t, 0, app.registry.Len())
	assert.Equal(t, 0, app.conversations.Len())
	assert.Equal(t, 0, app.base.workspaces.Len())

	// profiles come back from storage on the next visit
	page := app.get("/profile-management")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Maya")
	assert.Contains(t, page.Body.String(), "Aarav Kumar")
}

func TestSweepIdleStopsWithContext(t *testing.T) {
	app := newTestApp(t, 100)
	require.Equal(t, http.StatusOK, app.get("/").Code)
	require.Equal(t, 1, app.registry.Len())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.base.SweepIdle(ctx, 5*time.Millisecond, -time.Minute)
		close(done)
	}()

	require.Eventually(t, func() bool { return app.registry.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
