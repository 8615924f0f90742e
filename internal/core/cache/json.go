package cache

import (
	"context"
	"encoding/json"
	"time"
)

// LoadJSON 按 JSON 读穿缓存；缓存里的坏数据会被删掉并重新回源
func LoadJSON[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if c == nil {
		return load(ctx)
	}
	encode := func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	}

	b, err := c.GetOrLoad(ctx, key, ttl, encode)
	if err != nil {
		return zero, err
	}
	var out T
	if json.Unmarshal(b, &out) == nil {
		return out, nil
	}

	_ = c.Del(ctx, key)
	if b, err = c.GetOrLoad(ctx, key, ttl, encode); err != nil {
		return zero, err
	}
	if err = json.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}
