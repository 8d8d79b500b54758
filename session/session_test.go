package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/triovision/erpauth/jwt"
)

func TestManagerPreloadsFromStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, "tok-1"))

	m, err := NewManager(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", m.Token())
	assert.True(t, m.SignedIn())

	require.NoError(t, m.Clear(ctx))
	assert.Empty(t, m.Token())
	persisted, _ := store.Load(ctx)
	assert.Empty(t, persisted)
}

func TestManagerSetEmptyDeletes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m, err := NewManager(ctx, store)
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, "abc"))
	got, _ := store.Load(ctx)
	assert.Equal(t, "abc", got)

	require.NoError(t, m.Set(ctx, ""))
	got, _ = store.Load(ctx)
	assert.Empty(t, got)
}

type failingStore struct{ MemoryStore }

func (*failingStore) Save(context.Context, string) error { return errors.New("disk full") }

func TestManagerKeepsTokenWhenPersistFails(t *testing.T) {
	ctx := context.Background()
	m, err := NewManager(ctx, &failingStore{})
	require.NoError(t, err)

	assert.Error(t, m.Set(ctx, "abc"))
	assert.Equal(t, "abc", m.Token())
}

func TestFileStoreRoundTripAndPreservesOtherKeys(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(`{"theme":"dark"}`), 0o600))

	s := NewFileStore(path)
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Save(ctx, "tok-2"))
	got, err = NewFileStore(path).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got)

	require.NoError(t, s.Delete(ctx))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark"}`, string(data))
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, s.Delete(context.Background()))
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	s := NewRedisStore(rdb, "erp")

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Save(ctx, "tok-3"))
	stored, err := mr.Get("erp:token")
	require.NoError(t, err)
	assert.Equal(t, "tok-3", stored)

	require.NoError(t, s.Delete(ctx))
	assert.False(t, mr.Exists("erp:token"))
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	_, err = NewRedisStore(rdb, "erp").Load(context.Background())
	assert.ErrorIs(t, err, ErrRedisUnavailable)
}

func TestInspect(t *testing.T) {
	m, err := jwt.NewManager(jwt.Config{Secret: []byte("inspect-secret-value"), TTL: time.Hour, Issuer: "erp"})
	require.NoError(t, err)
	token, err := m.Issue("Trio", "asha", "asha@triovisioninternational.com")
	require.NoError(t, err)

	info, err := Inspect(token)
	require.NoError(t, err)
	assert.Equal(t, "Trio", info.UserID)
	assert.Equal(t, "asha", info.UserName)
	assert.Equal(t, "erp", info.Issuer)
	assert.False(t, info.Expired(time.Now()))
	assert.True(t, info.Expired(time.Now().Add(2*time.Hour)))

	_, err = Inspect("opaque-token")
	assert.Error(t, err)
}
