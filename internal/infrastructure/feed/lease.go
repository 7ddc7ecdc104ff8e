package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const primaryLeaseKey = "medreminder:primary"

// ErrLeaseHeld is returned when another node already holds the primary lease.
var ErrLeaseHeld = errors.New("primary lease held by another node")

var (
	renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
)

// Lease marks this node as the only one holding reminder triggers.
// It is renewed in the background until Release; Lost is closed when
// renewal fails for longer than the TTL or another node took the key.
type Lease struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration

	lost     chan struct{}
	lostOnce sync.Once
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// AcquirePrimary takes the primary lease or returns ErrLeaseHeld.
func (r *Redis) AcquirePrimary(ctx context.Context, ttl time.Duration) (*Lease, error) {
	l := &Lease{
		client: r.client,
		key:    primaryLeaseKey,
		token:  uuid.NewString(),
		ttl:    ttl,
		lost:   make(chan struct{}),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	ok, err := r.client.SetNX(ctx, l.key, l.token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire primary lease: %w", err)
	}
	if !ok {
		return nil, ErrLeaseHeld
	}
	r.log.Info(fmt.Sprintf("Primary lease acquired (ttl %s).", ttl))
	go l.renew(r)
	return l, nil
}

func (l *Lease) renew(r *Redis) {
	defer close(l.done)
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	lastRenewed := time.Now()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), l.ttl/3)
		n, err := renewScript.Run(ctx, l.client, []string{l.key}, l.token, l.ttl.Milliseconds()).Int()
		cancel()
		switch {
		case err == nil && n == 1:
			lastRenewed = time.Now()
		case err == nil:
			r.log.Warn("Primary lease taken over by another node.")
			l.markLost()
			return
		default:
			r.log.Warn(fmt.Sprintf("Primary lease renewal failed: %v", err))
			if time.Since(lastRenewed) > l.ttl {
				l.markLost()
				return
			}
		}
	}
}

func (l *Lease) markLost() {
	l.lostOnce.Do(func() { close(l.lost) })
}

// Lost is closed once this node can no longer assume it is the primary.
func (l *Lease) Lost() <-chan struct{} {
	return l.lost
}

// Release stops renewal and deletes the key if this node still owns it.
func (l *Lease) Release(ctx context.Context) error {
	l.stopOnce.Do(func() { close(l.stop) })
	<-l.done
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release primary lease: %w", err)
	}
	return nil
}
