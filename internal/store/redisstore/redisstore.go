// Package redisstore implements the store contract on Redis. Collections
// are hashes keyed by their path, change notification rides pub/sub: every
// write or remove publishes on the collection's channel and subscribers
// re-read the full child set, preserving full-children snapshot semantics.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/eventflow-app/eventflow/internal/store"
)

const (
	keyPrefix     = "ef:"
	channelPrefix = "ef:watch:"

	subscriberBuffer = 16
)

type Store struct {
	client *redis.Client
}

func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func hashKey(collection store.Path) string {
	return keyPrefix + strings.Join(collection, ":")
}

func channel(collection store.Path) string {
	return channelPrefix + strings.Join(collection, ":")
}

func (s *Store) Write(ctx context.Context, path store.Path, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %w", path, err)
	}

	parent, id := path.Parent()
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, hashKey(parent), id, string(raw))
	pipe.Publish(ctx, channel(parent), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, wrapCtx(err))
	}
	return nil
}

// Remove drops the node at path and, when the path names a collection, the
// collection's own hash. Absent nodes remove cleanly.
func (s *Store) Remove(ctx context.Context, path store.Path) error {
	parent, id := path.Parent()
	pipe := s.client.TxPipeline()
	pipe.HDel(ctx, hashKey(parent), id)
	pipe.Del(ctx, hashKey(path))
	pipe.Publish(ctx, channel(parent), id)
	pipe.Publish(ctx, channel(path), "")
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, wrapCtx(err))
	}
	return nil
}

func (s *Store) ReadOnce(ctx context.Context, path store.Path) (json.RawMessage, error) {
	parent, id := path.Parent()
	raw, err := s.client.HGet(ctx, hashKey(parent), id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, wrapCtx(err))
	}
	return json.RawMessage(raw), nil
}

// GenerateID mints a fresh child key. Ids are generated client-side, the
// same way the managed backends hand out push keys.
func (s *Store) GenerateID(ctx context.Context, prefix store.Path) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", wrapCtx(err)
	}
	return uuid.NewString(), nil
}

func (s *Store) Subscribe(ctx context.Context, path store.Path) (store.Subscription, error) {
	pubsub := s.client.Subscribe(ctx, channel(path))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", path, wrapCtx(err))
	}

	sub := &subscription{
		pubsub:    pubsub,
		snapshots: make(chan store.Snapshot, subscriberBuffer),
		errs:      make(chan error, 1),
	}

	initial, err := s.readChildren(ctx, path)
	if err != nil {
		pubsub.Close()
		return nil, err
	}
	sub.push(initial)

	go sub.run(s, path)
	return sub, nil
}

func (s *Store) Watch(ctx context.Context, path store.Path) (store.NodeSubscription, error) {
	parent, id := path.Parent()
	pubsub := s.client.Subscribe(ctx, channel(parent))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, wrapCtx(err))
	}

	sub := &nodeSubscription{
		pubsub: pubsub,
		values: make(chan json.RawMessage, subscriberBuffer),
	}

	raw, err := s.ReadOnce(ctx, path)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		pubsub.Close()
		return nil, err
	}
	sub.push(raw)

	go sub.run(s, path, id)
	return sub, nil
}

func (s *Store) readChildren(ctx context.Context, path store.Path) (store.Snapshot, error) {
	fields, err := s.client.HGetAll(ctx, hashKey(path)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read children of %s: %w", path, wrapCtx(err))
	}
	snap := make(store.Snapshot, len(fields))
	for id, raw := range fields {
		snap[id] = json.RawMessage(raw)
	}
	return snap, nil
}

func wrapCtx(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return store.ErrTimeout
	}
	return err
}

type subscription struct {
	pubsub    *redis.PubSub
	snapshots chan store.Snapshot
	errs      chan error
	canceled  atomic.Bool
	cancel    sync.Once
}

func (sub *subscription) Snapshots() <-chan store.Snapshot { return sub.snapshots }

func (sub *subscription) Errs() <-chan error { return sub.errs }

func (sub *subscription) Cancel() {
	sub.cancel.Do(func() {
		sub.canceled.Store(true)
		sub.pubsub.Close()
	})
}

// run re-reads the full child set on every notification. The pub/sub
// message only says that something changed; the snapshot delivered to the
// consumer is always a complete materialization.
func (sub *subscription) run(s *Store, path store.Path) {
	defer close(sub.snapshots)
	for range sub.pubsub.Channel() {
		if sub.canceled.Load() {
			return
		}
		snap, err := s.readChildren(context.Background(), path)
		if err != nil {
			select {
			case sub.errs <- err:
			default:
			}
			continue
		}
		if sub.canceled.Load() {
			return
		}
		sub.push(snap)
	}
}

func (sub *subscription) push(snap store.Snapshot) {
	for {
		select {
		case sub.snapshots <- snap:
			return
		default:
			select {
			case <-sub.snapshots:
			default:
			}
		}
	}
}

type nodeSubscription struct {
	pubsub   *redis.PubSub
	values   chan json.RawMessage
	canceled atomic.Bool
	cancel   sync.Once
}

func (sub *nodeSubscription) Values() <-chan json.RawMessage { return sub.values }

func (sub *nodeSubscription) Cancel() {
	sub.cancel.Do(func() {
		sub.canceled.Store(true)
		sub.pubsub.Close()
	})
}

func (sub *nodeSubscription) run(s *Store, path store.Path, id string) {
	defer close(sub.values)
	for msg := range sub.pubsub.Channel() {
		if msg.Payload != id {
			continue
		}
		if sub.canceled.Load() {
			return
		}
		raw, err := s.ReadOnce(context.Background(), path)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			continue
		}
		if sub.canceled.Load() {
			return
		}
		sub.push(raw)
	}
}

func (sub *nodeSubscription) push(raw json.RawMessage) {
	for {
		select {
		case sub.values <- raw:
			return
		default:
			select {
			case <-sub.values:
			default:
			}
		}
	}
}
