package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every key this service writes.
const KeyPrefix = "gradvillage:"

var client *redis.Client

var pingClient = func(ctx context.Context, c *redis.Client) error {
	return c.Ping(ctx).Err()
}

// Init connects the shared client from a redis:// URL. A non-empty password
// overrides whatever the URL carries.
func Init(url, password string) error {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return err
	}
	if password != "" {
		opts.Password = password
	}
	client = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return pingClient(ctx, client)
}

// SetClient swaps the shared client; nil disables Redis-backed features.
func SetClient(c *redis.Client) {
	client = c
}

func GetClient() *redis.Client {
	return client
}

// Ready reports whether a client is configured.
func Ready() bool {
	return client != nil
}

func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}

func key(k string) string {
	return KeyPrefix + k
}

// TryLock stores marker under k only when k is absent.
func TryLock(ctx context.Context, k, marker string, ttl time.Duration) (bool, error) {
	return client.SetNX(ctx, key(k), marker, ttl).Result()
}

// Load returns the value under k. A missing key is not an error.
func Load(ctx context.Context, k string) (string, bool, error) {
	val, err := client.Get(ctx, key(k)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Store overwrites k with value.
func Store(ctx context.Context, k, value string, ttl time.Duration) error {
	return client.Set(ctx, key(k), value, ttl).Err()
}

// Release deletes k.
func Release(ctx context.Context, k string) error {
	return client.Del(ctx, key(k)).Err()
}
