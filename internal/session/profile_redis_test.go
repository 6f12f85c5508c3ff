package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// setupTestRedis: тесты пропускаются, если Redis недоступен.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	opt, err := redis.ParseURL(url)
	require.NoError(t, err)

	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Skipf("redis unavailable: %v", err)
	}

	t.Cleanup(func() { _ = rdb.Close() })

	return rdb
}

func TestRedisProfileStore_SaveLoadClear(t *testing.T) {
	rdb := setupTestRedis(t)
	ctx := context.Background()

	st := NewRedisProfileStore(rdb, "clinic:test:profile:"+t.Name())
	t.Cleanup(func() { _ = st.Clear(context.Background()) })

	require.NoError(t, st.Probe(ctx))

	p, err := st.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, p)

	require.NoError(t, st.Save(ctx, adminProfile))

	p, err = st.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, &adminProfile, p)

	require.NoError(t, st.Clear(ctx))

	p, err = st.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, p)
}
