package collection

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/eventflow-app/eventflow/internal/auth"
	"github.com/eventflow-app/eventflow/internal/store"
)

// Node watches a single store node, such as the user's own profile record
// at /Users/{userId}. Same identity scoping and cancellation discipline as
// Collection; a nil value means the node is absent or failed to decode.
type Node[T any] struct {
	db       store.Database
	identity *auth.Identity
	path     func(ownerID string) store.Path
	log      *logrus.Logger
}

func NewNode[T any](db store.Database, identity *auth.Identity, path func(ownerID string) store.Path, log *logrus.Logger) *Node[T] {
	return &Node[T]{db: db, identity: identity, path: path, log: log}
}

type NodeStream[T any] struct {
	values   chan *T
	sub      store.NodeSubscription
	canceled atomic.Bool
	once     sync.Once
}

func (s *NodeStream[T]) Values() <-chan *T { return s.values }

func (s *NodeStream[T]) Cancel() {
	s.once.Do(func() {
		s.canceled.Store(true)
		if s.sub != nil {
			s.sub.Cancel()
		}
	})
}

func (n *Node[T]) Subscribe(ctx context.Context, ownerID string) *NodeStream[T] {
	if ownerID == "" || ownerID != n.identity.UserID() {
		return emptyNodeStream[T]()
	}

	sub, err := n.db.Watch(ctx, n.path(ownerID))
	if err != nil {
		n.log.WithError(err).Warn("node watch failed")
		return emptyNodeStream[T]()
	}

	stream := &NodeStream[T]{
		values: make(chan *T, streamBuffer),
		sub:    sub,
	}
	go stream.run(sub, n.log)
	return stream
}

func (s *NodeStream[T]) run(sub store.NodeSubscription, log *logrus.Logger) {
	defer close(s.values)
	for raw := range sub.Values() {
		if s.canceled.Load() {
			return
		}
		s.push(decodeNode[T](raw, log))
	}
}

func decodeNode[T any](raw json.RawMessage, log *logrus.Logger) *T {
	if raw == nil {
		return nil
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		log.WithError(err).Debug("skipping undecodable node value")
		return nil
	}
	return &value
}

func (s *NodeStream[T]) push(value *T) {
	for {
		select {
		case s.values <- value:
			return
		default:
			select {
			case <-s.values:
			default:
			}
		}
	}
}

func emptyNodeStream[T any]() *NodeStream[T] {
	s := &NodeStream[T]{values: make(chan *T, 1)}
	s.values <- nil
	close(s.values)
	return s
}
