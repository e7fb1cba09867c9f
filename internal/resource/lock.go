package resource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BillTrackerSaas/internal/logger"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrLocked is returned when another run holds the lock.
var ErrLocked = errors.New("lock held by another run")

// RedisPinger adapts a redis client to Pinger.
type RedisPinger struct {
	Client *redis.Client
}

func (p RedisPinger) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx).Err()
}

// ConnectRedis dials addr and checks it answers. An empty addr returns a nil
// client and no error.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: 10,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return rdb, nil
}

// RunLock serialises runs across processes with a redis lock. A nil client
// makes every Acquire succeed.
type RunLock struct {
	locker *redislock.Client
	key    string
	ttl    time.Duration
	log    logrus.FieldLogger
}

func NewRunLock(rdb *redis.Client, key string, ttl time.Duration) *RunLock {
	l := &RunLock{key: key, ttl: ttl, log: logger.L()}
	if rdb != nil {
		l.locker = redislock.New(rdb)
	}
	return l
}

// Enabled reports whether a redis client backs the lock.
func (l *RunLock) Enabled() bool { return l != nil && l.locker != nil }

// Acquire obtains the lock and keeps it alive until release is called. It
// returns ErrLocked when another run holds it. When redis fails for any other
// reason the run proceeds unlocked.
func (l *RunLock) Acquire(ctx context.Context) (release func(), err error) {
	noop := func() {}
	if !l.Enabled() {
		return noop, nil
	}
	lock, err := l.locker.Obtain(ctx, l.key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLocked
	}
	if err != nil {
		logger.LogError(l.log, "resource", "Acquire", "redis lock unavailable, continuing without lock", l.key, err)
		return noop, nil
	}
	stop, stopped := make(chan struct{}), make(chan struct{})
	go func() {
		defer close(stopped)
		keepAlive(lock, l.ttl, stop, l.log.WithField("key", l.key))
	}()
	return func() {
		close(stop)
		<-stopped
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.log.WithError(err).WithField("key", l.key).Warn("release lock")
		}
	}, nil
}

type refresher interface {
	Refresh(ctx context.Context, ttl time.Duration, opt *redislock.Options) error
}

// keepAlive extends the lock every third of ttl until stop closes. A failed
// refresh ends it; the lock then lapses at its ttl.
func keepAlive(lock refresher, ttl time.Duration, stop <-chan struct{}, log logrus.FieldLogger) {
	interval := ttl / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			err := lock.Refresh(ctx, ttl, nil)
			cancel()
			if err != nil {
				log.WithError(err).Warn("refresh lock")
				return
			}
		}
	}
}
