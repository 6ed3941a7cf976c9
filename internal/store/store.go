// Package store defines the contract of the remote document store the
// application synchronizes against: upsert writes, idempotent removes,
// bounded single-shot reads, server-side id generation and push-style
// subscriptions that deliver complete child snapshots.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrNotFound is returned by ReadOnce when no value exists at the path.
	ErrNotFound = errors.New("not found")
	// ErrTimeout is returned when a bounded read exceeds its deadline.
	ErrTimeout = errors.New("store operation timed out")
)

// Snapshot is a complete, point-in-time mapping from child id to raw value
// for one collection node. Implementations always deliver the full child
// set, never deltas, and the map is never mutated after delivery.
type Snapshot map[string]json.RawMessage

// Subscription is a live feed of collection snapshots. Cancel deregisters
// the underlying listener exactly once and returns only after no further
// snapshot can be delivered; Snapshots is closed afterwards.
type Subscription interface {
	Snapshots() <-chan Snapshot
	Errs() <-chan error
	Cancel()
}

// NodeSubscription is a live feed of a single node's value. A nil value
// means the node is absent or failed to materialize.
type NodeSubscription interface {
	Values() <-chan json.RawMessage
	Cancel()
}

// Database is the request/response and push surface of the remote store.
// Every method honours context cancellation; writes are full overwrites of
// the node at the path and removes succeed for absent nodes.
type Database interface {
	Write(ctx context.Context, path Path, value any) error
	Remove(ctx context.Context, path Path) error
	ReadOnce(ctx context.Context, path Path) (json.RawMessage, error)
	GenerateID(ctx context.Context, prefix Path) (string, error)
	Subscribe(ctx context.Context, path Path) (Subscription, error)
	Watch(ctx context.Context, path Path) (NodeSubscription, error)
}
