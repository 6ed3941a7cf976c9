// Package collection maintains live, locally cached views of remote
// collections. Each subscription is scoped to one user and one namespace
// and delivers complete id-to-entity snapshots in store delivery order.
package collection

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/eventflow-app/eventflow/internal/auth"
	"github.com/eventflow-app/eventflow/internal/metrics"
	"github.com/eventflow-app/eventflow/internal/store"
)

const streamBuffer = 16

// Collection subscribes to one namespace of the store on behalf of the
// signed-in user. It holds no state of its own: every Subscribe call
// re-reads the current identity and owns a fresh stream.
type Collection[T any] struct {
	db        store.Database
	identity  *auth.Identity
	namespace string
	log       *logrus.Logger
}

func New[T any](db store.Database, identity *auth.Identity, namespace string, log *logrus.Logger) *Collection[T] {
	return &Collection[T]{db: db, identity: identity, namespace: namespace, log: log}
}

// Stream is a cancellable feed of snapshots. Snapshots is closed when the
// stream ends; Errs carries subscription errors for callers that need to
// tell "empty" apart from "failed" (the snapshot itself stays empty in
// both cases).
type Stream[T any] struct {
	snapshots chan map[string]T
	errs      chan error
	sub       store.Subscription
	canceled  atomic.Bool
	once      sync.Once
}

func (s *Stream[T]) Snapshots() <-chan map[string]T { return s.snapshots }

func (s *Stream[T]) Errs() <-chan error { return s.errs }

// Cancel deregisters the remote listener exactly once, before returning.
// Snapshots received remotely after Cancel are never delivered.
func (s *Stream[T]) Cancel() {
	s.once.Do(func() {
		s.canceled.Store(true)
		if s.sub != nil {
			s.sub.Cancel()
		}
	})
}

// Subscribe opens a live view of /{namespace}/{ownerID}. When ownerID is
// blank or does not match the signed-in identity, the stream yields a
// single empty snapshot and terminates: callers never observe another
// user's data. Establishment errors degrade the same way, with the cause
// reported on Errs.
func (c *Collection[T]) Subscribe(ctx context.Context, ownerID string) *Stream[T] {
	if ownerID == "" || ownerID != c.identity.UserID() {
		return emptyStream[T](nil)
	}

	sub, err := c.db.Subscribe(ctx, store.Path{c.namespace, ownerID})
	if err != nil {
		c.log.WithError(err).WithField("namespace", c.namespace).Warn("subscription failed")
		return emptyStream[T](err)
	}

	stream := &Stream[T]{
		snapshots: make(chan map[string]T, streamBuffer),
		errs:      make(chan error, 1),
		sub:       sub,
	}
	go stream.run(sub, c.namespace, c.log)
	return stream
}

func (s *Stream[T]) run(sub store.Subscription, namespace string, log *logrus.Logger) {
	defer close(s.snapshots)
	snaps, errs := sub.Snapshots(), sub.Errs()
	for {
		select {
		case raw, ok := <-snaps:
			if !ok {
				return
			}
			if s.canceled.Load() {
				return
			}
			s.push(decode[T](raw, namespace, log))
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			select {
			case s.errs <- err:
			default:
			}
		}
	}
}

// decode materializes the full mapping. Children that fail to decode are
// skipped, matching the store's tolerance for foreign shapes in a node.
func decode[T any](raw store.Snapshot, namespace string, log *logrus.Logger) map[string]T {
	out := make(map[string]T, len(raw))
	for id, child := range raw {
		var value T
		if err := json.Unmarshal(child, &value); err != nil {
			log.WithError(err).WithField("id", id).Debug("skipping undecodable child")
			continue
		}
		out[id] = value
	}
	metrics.SnapshotsDelivered.WithLabelValues(namespace).Inc()
	return out
}

func (s *Stream[T]) push(snap map[string]T) {
	for {
		select {
		case s.snapshots <- snap:
			return
		default:
			select {
			case <-s.snapshots:
			default:
			}
		}
	}
}

// emptyStream yields one empty snapshot and closes. The fail-closed path
// for identity mismatches and subscription failures.
func emptyStream[T any](cause error) *Stream[T] {
	s := &Stream[T]{
		snapshots: make(chan map[string]T, 1),
		errs:      make(chan error, 1),
	}
	s.snapshots <- map[string]T{}
	close(s.snapshots)
	if cause != nil {
		s.errs <- cause
	}
	close(s.errs)
	return s
}
