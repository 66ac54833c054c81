// Package memory provides an in-process Store with the same compare-and-swap
// semantics as the postgres implementation. It backs the service tests and
// doubles as a lightweight backend for local development.
package memory

import (
	"context"
	"sync"

	"github.com/cribnosh/group-ordering/internal/domain/model"
)

type Store struct {
	mu       sync.Mutex
	orders   map[string]*model.GroupOrder // keyed by GroupOrderID
	byToken  map[string]string
	messages []*model.OutboxMessage
	nextID   int64
}

func New() *Store {
	return &Store{
		orders:  make(map[string]*model.GroupOrder),
		byToken: make(map[string]string),
	}
}

func (s *Store) Create(_ context.Context, o *model.GroupOrder, msgs []*model.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.GroupOrderID] = o.Clone()
	if o.ShareToken != "" {
		s.byToken[o.ShareToken] = o.GroupOrderID
	}
	s.appendLocked(msgs)
	return nil
}

func (s *Store) Get(_ context.Context, groupOrderID string) (*model.GroupOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[groupOrderID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return o.Clone(), nil
}

func (s *Store) GetByShareToken(_ context.Context, token string) (*model.GroupOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byToken[token]
	if !ok {
		return nil, model.ErrNotFound
	}
	o, ok := s.orders[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return o.Clone(), nil
}

// UpdateCAS persists o only if the stored revision still equals
// expectedRevision; otherwise the write is rejected with
// ErrConcurrentModification and no message is recorded.
func (s *Store) UpdateCAS(_ context.Context, o *model.GroupOrder, expectedRevision int64, msgs []*model.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.orders[o.GroupOrderID]
	if !ok {
		return model.ErrNotFound
	}
	if cur.Revision != expectedRevision {
		return model.ErrConcurrentModification
	}

	if cur.ShareToken != "" && cur.ShareToken != o.ShareToken {
		delete(s.byToken, cur.ShareToken)
	}
	if o.ShareToken != "" {
		s.byToken[o.ShareToken] = o.GroupOrderID
	}
	s.orders[o.GroupOrderID] = o.Clone()
	s.appendLocked(msgs)
	return nil
}

// ListExpired returns active orders whose lifetime elapsed, for the periodic
// sweep.
func (s *Store) ListExpired(_ context.Context, now int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, o := range s.orders {
		if o.Status == model.StatusActive && !o.ExpiresAt.IsZero() && o.ExpiresAt.Unix() < now {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ListClosed returns orders awaiting conversion into a main order.
func (s *Store) ListClosed(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, o := range s.orders {
		if o.Status == model.StatusClosed {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Messages returns everything recorded so far; tests assert on it.
func (s *Store) Messages() []*model.OutboxMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.OutboxMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Store) appendLocked(msgs []*model.OutboxMessage) {
	for _, m := range msgs {
		s.nextID++
		c := *m
		c.ID = s.nextID
		s.messages = append(s.messages, &c)
	}
}
