package erpauth

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/triovision/erpauth/jwt"
)

func issueToken(t *testing.T) string {
	t.Helper()
	m, err := jwt.NewManager(jwt.Config{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		TTL:    time.Hour,
		Issuer: "erp",
	})
	require.NoError(t, err)
	token, err := m.Issue("Trio01", "asha", "asha@triovisioninternational.com")
	require.NoError(t, err)
	return token
}

func signIn(t *testing.T, c *Client, api *fakeAPI, token string) {
	t.Helper()
	api.respond("/auth/login", http.StatusOK, fmt.Sprintf(`{"success":true,"data":{"token":%q}}`, token))
	form := c.LoginForm()
	form.SetIdentifier("Trio01")
	form.SetPassword("pw")
	_, err := form.Submit(context.Background())
	require.NoError(t, err)
}

func TestWhoamiAndLogout(t *testing.T) {
	api := newFakeAPI(t)
	c := newTestClient(t, testConfig(api.srv.URL))

	_, err := c.Whoami()
	require.ErrorIs(t, err, ErrNotSignedIn)

	signIn(t, c, api, issueToken(t))
	info, err := c.Whoami()
	require.NoError(t, err)
	assert.Equal(t, "Trio01", info.UserID)
	assert.Equal(t, "asha", info.UserName)
	assert.Equal(t, "asha@triovisioninternational.com", info.Email)
	assert.False(t, info.Expired(time.Now()))

	require.NoError(t, c.Logout(context.Background()))
	assert.False(t, c.Session().SignedIn())
	assert.Equal(t, uint64(1), c.metrics.Value(MetricLogout))
}

func TestWhoamiOpaqueToken(t *testing.T) {
	api := newFakeAPI(t)
	c := newTestClient(t, testConfig(api.srv.URL))
	signIn(t, c, api, "opaque-token")
	_, err := c.Whoami()
	require.Error(t, err)
}

func TestFileSessionSurvivesRebuild(t *testing.T) {
	api := newFakeAPI(t)
	cfg := testConfig(api.srv.URL)
	cfg.Session.Backend = SessionFile
	cfg.Session.FilePath = filepath.Join(t.TempDir(), "session.json")

	first := newTestClient(t, cfg)
	signIn(t, first, api, "persisted")

	second := newTestClient(t, cfg)
	assert.Equal(t, "persisted", second.Session().Token())

	require.NoError(t, second.Logout(context.Background()))
	third := newTestClient(t, cfg)
	assert.Empty(t, third.Session().Token())
}

func TestRedisSessionBackend(t *testing.T) {
	api := newFakeAPI(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig(api.srv.URL)
	cfg.Session.Backend = SessionRedis
	c, err := New().WithConfig(cfg).WithRedis(rdb).Build()
	require.NoError(t, err)
	defer c.Close()

	signIn(t, c, api, "in-redis")
	got, err := mr.Get("erpauth:token")
	require.NoError(t, err)
	assert.Equal(t, "in-redis", got)
}

func TestZeroClientNotReady(t *testing.T) {
	var c Client
	_, err := c.LoginForm().Submit(context.Background())
	assert.ErrorIs(t, err, ErrClientNotReady)
	assert.ErrorIs(t, c.Logout(context.Background()), ErrClientNotReady)
	_, err = c.Whoami()
	assert.ErrorIs(t, err, ErrClientNotReady)
}
