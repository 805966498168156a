package inmem

import (
	"context"
	"sync"

	"github.com/igolaizola/emacross/pkg/subscriber"
)

type Store struct {
	lock sync.RWMutex
	subs map[int64]subscriber.Subscriber
}

func New() *Store {
	return &Store{subs: make(map[int64]subscriber.Subscriber)}
}

func (s *Store) Add(_ context.Context, sub subscriber.Subscriber) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.subs[sub.ID] = sub
	return nil
}

func (s *Store) Remove(_ context.Context, id int64) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.subs, id)
	return nil
}

func (s *Store) List(_ context.Context) ([]subscriber.Subscriber, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	subs := make([]subscriber.Subscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	subscriber.Sort(subs)
	return subs, nil
}

func (s *Store) Close() error {
	return nil
}
