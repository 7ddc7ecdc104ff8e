package feed

import (
	"context"
	"fmt"
	"medreminder/internal/pkg/logger"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "medreminder:medications:"

// Redis is a Feed whose signals travel over Redis pub/sub, so every API
// instance observing an owner sees changes written by any other instance.
// Incoming messages are relayed into a Local hub; one Redis subscription is
// held per owner while that owner has local subscribers.
type Redis struct {
	client *redis.Client
	local  *Local
	log    logger.Logger

	mu     sync.Mutex
	relays map[string]*relay
}

type relay struct {
	refs   int
	pubsub *redis.PubSub
}

// NewRedis connects to the Redis server at url (redis://...).
func NewRedis(ctx context.Context, url string, log logger.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	log.Info("Connected to Redis change feed.")
	return &Redis{
		client: client,
		local:  NewLocal(),
		log:    log,
		relays: make(map[string]*relay),
	}, nil
}

func channelFor(ownerID string) string {
	return channelPrefix + ownerID
}

// Publish sends a change signal for ownerID to every instance.
func (r *Redis) Publish(ctx context.Context, ownerID string) error {
	if err := r.client.Publish(ctx, channelFor(ownerID), "changed").Err(); err != nil {
		return fmt.Errorf("publish change for owner %s: %w", ownerID, err)
	}
	return nil
}

// Subscribe registers a local subscriber and makes sure a Redis relay exists for ownerID.
func (r *Redis) Subscribe(ownerID string) (<-chan struct{}, func()) {
	ch, release := r.local.Subscribe(ownerID)
	r.acquire(ownerID)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			release()
			r.releaseRelay(ownerID)
		})
	}
}

func (r *Redis) acquire(ownerID string) {
	r.mu.Lock()
	if rl, ok := r.relays[ownerID]; ok {
		rl.refs++
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	// Subscribe without holding r.mu so a slow Redis only delays this owner.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pubsub := r.client.Subscribe(ctx, channelFor(ownerID))
	// Wait for the subscription confirmation so no change published after
	// Subscribe returns is missed. On failure go-redis keeps retrying in the background.
	if _, err := pubsub.Receive(ctx); err != nil {
		r.log.Warn(fmt.Sprintf("Redis subscription for owner %s not confirmed yet: %v", ownerID, err))
	}

	r.mu.Lock()
	if rl, ok := r.relays[ownerID]; ok {
		// Another subscriber set up the relay meanwhile.
		rl.refs++
		r.mu.Unlock()
		_ = pubsub.Close()
		return
	}
	r.relays[ownerID] = &relay{refs: 1, pubsub: pubsub}
	r.mu.Unlock()

	go func() {
		for range pubsub.Channel() {
			_ = r.local.Publish(context.Background(), ownerID)
		}
	}()
}

func (r *Redis) releaseRelay(ownerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rl, ok := r.relays[ownerID]
	if !ok {
		return
	}
	rl.refs--
	if rl.refs > 0 {
		return
	}
	delete(r.relays, ownerID)
	if err := rl.pubsub.Close(); err != nil {
		r.log.Error(fmt.Sprintf("Failed to close Redis subscription for owner %s", ownerID), err)
	}
}

// Close releases every relay and the client.
func (r *Redis) Close() error {
	r.mu.Lock()
	for ownerID, rl := range r.relays {
		_ = rl.pubsub.Close()
		delete(r.relays, ownerID)
	}
	r.mu.Unlock()
	return r.client.Close()
}
