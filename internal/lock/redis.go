package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "paperbase:job:"

// DefaultTTL bounds how long a crashed holder can block a key.
const DefaultTTL = 10 * time.Minute

// redisKeyed implements Keyed on Redis SETNX with a TTL, for deployments that
// run more than one instance against the same document store. The owner id
// prevents one instance from releasing another instance's guard.
type redisKeyed struct {
	client  *redis.Client
	ttl     time.Duration
	ownerID string
}

// NewRedis returns a Redis-backed keyed guard. A non-positive ttl falls back
// to DefaultTTL.
func NewRedis(client *redis.Client, ttl time.Duration) Keyed {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisKeyed{client: client, ttl: ttl, ownerID: generateOwnerID()}
}

// generateOwnerID creates a unique identifier for this guard holder.
// Format: hostname:pid:random
func generateOwnerID() string {
	hostname, _ := os.Hostname()
	randomBytes := make([]byte, 8)
	_, _ = rand.Read(randomBytes)
	return fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), hex.EncodeToString(randomBytes))
}

// releaseScript deletes the key only when this instance still owns it.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

func (r *redisKeyed) TryAcquire(ctx context.Context, key string) (func(), bool, error) {
	full := keyPrefix + key
	ok, err := r.client.SetNX(ctx, full, r.ownerID, r.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire guard %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		// Release must not inherit the caller's (possibly canceled) context.
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = releaseScript.Run(rctx, r.client, []string{full}, r.ownerID).Result()
	}
	return release, true, nil
}
