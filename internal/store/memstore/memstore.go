// Package memstore is an in-memory implementation of the store contract.
// It backs unit tests and the no-infrastructure dev mode; semantics match
// the Redis-backed store: full-children snapshots, idempotent removes and
// synchronous listener teardown.
package memstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/eventflow-app/eventflow/internal/store"
)

const subscriberBuffer = 16

type Store struct {
	mu       sync.Mutex
	data     map[string]map[string]json.RawMessage // collection path -> child id -> value
	colSubs  map[string][]*subscription
	nodeSubs map[string][]*nodeSubscription

	writes    int
	removes   int
	reads     int
	generated int

	generateErr error
	writeErr    error
	writePrefix string
	removeErr   error
	remPrefix   string
}

func New() *Store {
	return &Store{
		data:     make(map[string]map[string]json.RawMessage),
		colSubs:  make(map[string][]*subscription),
		nodeSubs: make(map[string][]*nodeSubscription),
	}
}

func (s *Store) Write(ctx context.Context, path store.Path, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.writeErr != nil && strings.HasPrefix(path.String(), s.writePrefix) {
		return s.writeErr
	}

	parent, id := path.Parent()
	key := parent.String()
	children, ok := s.data[key]
	if !ok {
		children = make(map[string]json.RawMessage)
		s.data[key] = children
	}
	children[id] = raw

	s.notifyCollection(key)
	s.notifyNode(path.String(), raw)
	return nil
}

// Remove deletes the node at path, or the entire collection when the path
// addresses one. Removing something absent succeeds silently.
func (s *Store) Remove(ctx context.Context, path store.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removes++
	if s.removeErr != nil && strings.HasPrefix(path.String(), s.remPrefix) {
		return s.removeErr
	}

	parent, id := path.Parent()
	key := parent.String()
	if children, ok := s.data[key]; ok {
		delete(children, id)
		s.notifyCollection(key)
	}
	if _, ok := s.data[path.String()]; ok {
		delete(s.data, path.String())
		s.notifyCollection(path.String())
	}
	s.notifyNode(path.String(), nil)
	return nil
}

func (s *Store) ReadOnce(ctx context.Context, path store.Path) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, store.ErrTimeout
		}
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++

	parent, id := path.Parent()
	raw, ok := s.data[parent.String()][id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return raw, nil
}

func (s *Store) GenerateID(ctx context.Context, prefix store.Path) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generated++
	if s.generateErr != nil {
		return "", s.generateErr
	}
	return uuid.NewString(), nil
}

func (s *Store) Subscribe(ctx context.Context, path store.Path) (store.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := path.String()
	sub := &subscription{
		owner:     s,
		key:       key,
		snapshots: make(chan store.Snapshot, subscriberBuffer),
		errs:      make(chan error, 1),
	}
	s.colSubs[key] = append(s.colSubs[key], sub)
	sub.push(s.snapshotLocked(key))
	return sub, nil
}

func (s *Store) Watch(ctx context.Context, path store.Path) (store.NodeSubscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := path.String()
	sub := &nodeSubscription{
		owner:  s,
		key:    key,
		values: make(chan json.RawMessage, subscriberBuffer),
	}
	s.nodeSubs[key] = append(s.nodeSubs[key], sub)

	parent, id := path.Parent()
	sub.push(s.data[parent.String()][id])
	return sub, nil
}

// snapshotLocked copies the full child set so consumers never observe a
// partially applied write. Callers must hold s.mu.
func (s *Store) snapshotLocked(key string) store.Snapshot {
	snap := make(store.Snapshot, len(s.data[key]))
	for id, raw := range s.data[key] {
		snap[id] = raw
	}
	return snap
}

func (s *Store) notifyCollection(key string) {
	for _, sub := range s.colSubs[key] {
		sub.push(s.snapshotLocked(key))
	}
}

func (s *Store) notifyNode(key string, raw json.RawMessage) {
	for _, sub := range s.nodeSubs[key] {
		sub.push(raw)
	}
}

type subscription struct {
	owner     *Store
	key       string
	snapshots chan store.Snapshot
	errs      chan error
	cancel    sync.Once
}

func (sub *subscription) Snapshots() <-chan store.Snapshot { return sub.snapshots }

func (sub *subscription) Errs() <-chan error { return sub.errs }

// Cancel deregisters the listener before returning; a remote change after
// Cancel can no longer reach this subscriber.
func (sub *subscription) Cancel() {
	sub.cancel.Do(func() {
		s := sub.owner
		s.mu.Lock()
		defer s.mu.Unlock()
		subs := s.colSubs[sub.key]
		for i, candidate := range subs {
			if candidate == sub {
				s.colSubs[sub.key] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(sub.snapshots)
	})
}

// push delivers without blocking the store: when the consumer lags, the
// oldest pending snapshot is dropped so the latest state always arrives.
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
	owner  *Store
	key    string
	values chan json.RawMessage
	cancel sync.Once
}

func (sub *nodeSubscription) Values() <-chan json.RawMessage { return sub.values }

func (sub *nodeSubscription) Cancel() {
	sub.cancel.Do(func() {
		s := sub.owner
		s.mu.Lock()
		defer s.mu.Unlock()
		subs := s.nodeSubs[sub.key]
		for i, candidate := range subs {
			if candidate == sub {
				s.nodeSubs[sub.key] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(sub.values)
	})
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
