package cache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counts struct {
	Users int64 `json:"users"`
}

// mapKV 进程内 KV，语义对齐 redis 的 GET/SET/DEL/INCR（忽略 ttl）
type mapKV struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMapKV() *mapKV { return &mapKV{m: map[string][]byte{}} }

func (k *mapKV) Get(_ context.Context, key string) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	b, ok := k.m[key]
	if !ok {
		return nil, redis.Nil
	}
	return b, nil
}

func (k *mapKV) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.m[key] = val
	return nil
}

func (k *mapKV) Del(_ context.Context, keys ...string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, key := range keys {
		delete(k.m, key)
	}
	return nil
}

func (k *mapKV) Incr(_ context.Context, key string) (int64, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	n, _ := strconv.ParseInt(string(k.m[key]), 10, 64)
	n++
	k.m[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func TestGetOrLoadJSON_WithoutRedis(t *testing.T) {
	c := New("", "", 0)
	assert.Nil(t, c.RDB)
	require.NoError(t, c.Ping(context.Background()))

	calls := 0
	load := func(ctx context.Context) (*counts, error) {
		calls++
		return &counts{Users: 7}, nil
	}
	v, err := GetOrLoadJSON(c, context.Background(), "stats", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.Users)

	_, err = GetOrLoadJSON(c, context.Background(), "stats", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "no redis means every call reloads")
}

func TestGetOrLoadJSON_LoaderErrorPropagates(t *testing.T) {
	c := New("", "", 0)
	boom := errors.New("db down")
	v, err := GetOrLoadJSON(c, context.Background(), "stats", time.Minute, func(ctx context.Context) (*counts, error) {
		return nil, boom
	})
	assert.Nil(t, v)
	assert.ErrorIs(t, err, boom)
}

func TestDeleteAndCloseWithoutRedis(t *testing.T) {
	c := New("", "", 0)
	assert.NoError(t, c.Delete(context.Background(), "a", "b"))
	assert.NoError(t, c.Close())
}

func TestGetOrLoadJSON_CachesInKV(t *testing.T) {
	c := NewWithKV(newMapKV())
	calls := 0
	load := func(ctx context.Context) (*counts, error) {
		calls++
		return &counts{Users: 3}, nil
	}
	for i := 0; i < 3; i++ {
		v, err := GetOrLoadJSON(c, context.Background(), "stats", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, int64(3), v.Users)
	}
	assert.Equal(t, 1, calls)
}

func TestGetOrLoadJSON_UndecodableEntryReloads(t *testing.T) {
	kv := newMapKV()
	c := NewWithKV(kv)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "stats", []byte("{not json"), time.Minute))

	v, err := GetOrLoadJSON(c, ctx, "stats", time.Minute, func(ctx context.Context) (*counts, error) {
		return &counts{Users: 4}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), v.Users)

	b, err := kv.Get(ctx, "stats")
	require.NoError(t, err)
	assert.JSONEq(t, `{"users":4}`, string(b))
}

func TestGeneration_InFlightLoadDoesNotOutliveBump(t *testing.T) {
	c := NewWithKV(newMapKV())
	ctx := context.Background()

	gen, err := c.Generation(ctx, "stats")
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	started, release := make(chan struct{}), make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = GetOrLoadJSON(c, ctx, VersionedKey("stats", gen), time.Minute, func(ctx context.Context) (*counts, error) {
			close(started)
			<-release
			return &counts{Users: 1}, nil
		})
	}()
	<-started

	// 回源进行中发生写入
	require.NoError(t, c.Bump(ctx, "stats"))
	close(release)
	<-done

	gen, err = c.Generation(ctx, "stats")
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
	v, err := GetOrLoadJSON(c, ctx, VersionedKey("stats", gen), time.Minute, func(ctx context.Context) (*counts, error) {
		return &counts{Users: 2}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.Users, "stale write-back from the old generation must not be served")
}

func TestGenerationWithoutRedis(t *testing.T) {
	c := New("", "", 0)
	require.NoError(t, c.Bump(context.Background(), "stats"))
	gen, err := c.Generation(context.Background(), "stats")
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)
	assert.Equal(t, "stats:v0", VersionedKey("stats", gen))
}
