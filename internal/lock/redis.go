package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// Delete the key only if it still holds our token. A lease that expired and
// was re-acquired by another caller must not be removable by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
else
    return 0
end
`)

// Redis implements Locker over a shared Redis instance, so the lease is
// visible to every service instance. SET NX carries the ttl: a crashed holder
// self-expires instead of deadlocking the key.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) TryAcquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return "", false, nil
	}

	return token, true, nil
}

func (r *Redis) Release(ctx context.Context, key string, token string) error {
	_, err := releaseScript.Run(ctx, r.client, []string{key}, token).Result()
	if err == redis.Nil {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("redis release: %w", err)
	}

	return nil
}
