package storage

import (
	"context"

	redisclient "github.com/dmoreno/shopfront/pkg/redis"
)

// Redis adapts the shared redis client into the snapshot Store surface.
// Used on shared terminals where the local filesystem is not durable.
type Redis struct {
	client *redisclient.Client
}

func NewRedis(client *redisclient.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.client.SnapshotKey(key))
	if redisclient.IsMissing(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(val), true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.client.SnapshotKey(key), string(value), 0)
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	namespaced := make([]string, 0, len(keys))
	for _, key := range keys {
		namespaced = append(namespaced, r.client.SnapshotKey(key))
	}
	return r.client.Del(ctx, namespaced...)
}
