package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// KV 缓存用到的最小 redis 命令集；Get 未命中返回 redis.Nil
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
}

type redisKV struct{ rdb *redis.Client }

func (r redisKV) Get(ctx context.Context, key string) ([]byte, error) {
	return r.rdb.Get(ctx, key).Bytes()
}

func (r redisKV) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, val, ttl).Err()
}

func (r redisKV) Del(ctx context.Context, keys ...string) error {
	return r.rdb.Del(ctx, keys...).Err()
}

func (r redisKV) Incr(ctx context.Context, key string) (int64, error) {
	return r.rdb.Incr(ctx, key).Result()
}

// Cache kv 为 nil 时退化为仅 singleflight 合并回源（不缓存）
type Cache struct {
	RDB *redis.Client
	kv  KV
	sf  singleflight.Group
}

func New(addr, pass string, db int) *Cache {
	if addr == "" {
		return &Cache{}
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
	return &Cache{RDB: rdb, kv: redisKV{rdb}}
}

// NewWithKV 用自定义存储构造，连接由调用方管理
func NewWithKV(kv KV) *Cache { return &Cache{kv: kv} }

func (c *Cache) Ping(ctx context.Context) error {
	if c.RDB == nil {
		return nil
	}
	return c.RDB.Ping(ctx).Err()
}

// GetOrLoad 回源失败不写缓存，错误原样返回
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if c.kv != nil {
		if b, err := c.kv.Get(ctx, key); err == nil {
			return b, nil
		}
	}
	v, err, _ := c.sf.Do(key, func() (any, error) {
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		if c.kv != nil && ttl > 0 {
			_ = c.kv.Set(ctx, key, b, ttl)
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func genKey(name string) string { return name + ":gen" }

// VersionedKey 同一 name 的缓存按代号分桶；Bump 之后旧桶不再被读取
func VersionedKey(name string, gen int64) string { return fmt.Sprintf("%s:v%d", name, gen) }

// Generation name 的当前代号，从未 Bump 过为 0
func (c *Cache) Generation(ctx context.Context, name string) (int64, error) {
	if c.kv == nil {
		return 0, nil
	}
	b, err := c.kv.Get(ctx, genKey(name))
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(string(b), 10, 64)
}

// Bump 代号加一。进行中的旧代回源即使写回也只落在旧桶
func (c *Cache) Bump(ctx context.Context, name string) error {
	if c.kv == nil {
		return nil
	}
	_, err := c.kv.Incr(ctx, genKey(name))
	return err
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c.kv == nil || len(keys) == 0 {
		return nil
	}
	return c.kv.Del(ctx, keys...)
}

func (c *Cache) Close() error {
	if c.RDB == nil {
		return nil
	}
	return c.RDB.Close()
}
