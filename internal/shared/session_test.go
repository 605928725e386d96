package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "meridian_session", "test-secret", time.Hour, false)
}

func TestSessionRoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, sess)

	actor := Actor{ID: uuid.New(), Name: "A. Mercer", Roles: []string{RoleManager}}
	sess.SetActor(actor)
	sess.Set("theme", "dark")

	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr, req, sess))

	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)
	cookie := cookies[0]
	assert.Equal(t, "meridian_session", cookie.Name)
	assert.True(t, cookie.HttpOnly)

	// A second request carrying the cookie resolves the same actor.
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookie)
	loaded, err := sm.Load(ctx, req2)
	require.NoError(t, err)
	require.NotNil(t, loaded.Actor())
	assert.Equal(t, actor.ID, loaded.Actor().ID)
	assert.Equal(t, []string{RoleManager}, loaded.Actor().Roles)
	assert.Equal(t, "dark", loaded.Get("theme"))
}

func TestSessionDestroyClearsCookieAndState(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetActor(Actor{ID: uuid.New()})

	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr, req, sess))
	cookie := rr.Result().Cookies()[0]

	sm.Destroy(sess)
	rr2 := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr2, req, sess))
	cleared := rr2.Result().Cookies()[0]
	assert.Equal(t, -1, cleared.MaxAge)

	// The stored payload is gone; the cookie now resolves to a fresh session.
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookie)
	fresh, err := sm.Load(ctx, req2)
	require.NoError(t, err)
	assert.Nil(t, fresh.Actor())
}

func TestSessionUnknownCookieYieldsNewSession(t *testing.T) {
	sm := newTestSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "meridian_session", Value: "never-stored"})
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Nil(t, sess.Actor())
}
