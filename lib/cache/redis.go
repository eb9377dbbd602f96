package cache

import (
	"time"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"
)

// Redis is a Cache backed by a redis server, letting multiple catalog
// instances share computed pages and counts.
type Redis struct {
	db *redis.Client
}

// NewRedis connects to a redis server and verifies the connection.
func NewRedis(address, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	if err := client.Ping().Err(); err != nil {
		return nil, errors.Wrap(err, "failed to ping redis server")
	}
	return &Redis{db: client}, nil
}

// Get implements Cache.
func (r *Redis) Get(key string) ([]byte, bool, error) {
	value, err := r.db.Get(key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}
	return value, true, nil
}

// Put implements Cache.
func (r *Redis) Put(key string, value []byte, ttl time.Duration) error {
	if err := r.db.Set(key, value, ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.db.Close()
}
