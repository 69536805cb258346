package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
)

// Locker hands out named, expiring locks. Acquire fails instead of waiting
// when somebody else holds the lock.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(), err error)
}

// Local is used when no Redis is configured; it always succeeds.
type Local struct{}

func (Local) Acquire(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}

type Redis struct {
	client *goredislib.Client
	rs     *redsync.Redsync
}

func NewRedis(addr string) *Redis {
	client := goredislib.NewClient(&goredislib.Options{Addr: addr})
	return &Redis{
		client: client,
		rs:     redsync.New(goredis.NewPool(client)),
	}
}

// New returns a Redis-backed locker when addr is set and Local otherwise.
func New(addr string) Locker {
	if addr == "" {
		return Local{}
	}
	return NewRedis(addr)
}

func (r *Redis) Acquire(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	mutex := r.rs.NewMutex(name, redsync.WithExpiry(ttl), redsync.WithTries(1))
	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return func() {
		// the lock expires on its own if unlock fails
		_, _ = mutex.UnlockContext(context.Background())
	}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
