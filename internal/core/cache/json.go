package cache

import (
	"context"
	"encoding/json"
	"time"
)

// GetOrLoadJSON 缓存条目无法解码时删除该条目并直接回源，解码失败不向调用方暴露
func GetOrLoadJSON[T any](
	c *Cache,
	ctx context.Context,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (*T, error),
) (*T, error) {
	encode := func(ctx context.Context) ([]byte, error) {
		v, e := load(ctx)
		if e != nil {
			return nil, e
		}
		return json.Marshal(v)
	}
	b, err := c.GetOrLoad(ctx, key, ttl, encode)
	if err != nil {
		return nil, err
	}
	if out, ok := decode[T](b); ok {
		return out, nil
	}

	_ = c.Delete(ctx, key)
	b, err = c.GetOrLoad(ctx, key, ttl, encode)
	if err != nil {
		return nil, err
	}
	if out, ok := decode[T](b); ok {
		return out, nil
	}
	return load(ctx)
}

func decode[T any](b []byte) (*T, bool) {
	if string(b) == "null" {
		return nil, true
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, false
	}
	return &out, true
}
