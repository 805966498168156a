package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/boltdb/bolt"
	"github.com/igolaizola/emacross/pkg/subscriber"
)

var bucket = []byte("subscribers")

func New(path string) (*Store, error) {
	// It will be created if it doesn't exist.
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("bolt: couldn't open bolt db %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
			return err
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("bolt: couldn't create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

type Store struct {
	db *bolt.DB
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) List(_ context.Context) ([]subscriber.Subscriber, error) {
	var subs []subscriber.Subscriber
	if err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(k, v []byte) error {
			var sub subscriber.Subscriber
			if err := json.Unmarshal(v, &sub); err != nil {
				return fmt.Errorf("couldn't decode %s: %w", k, err)
			}
			subs = append(subs, sub)
			return nil
		})
	}); err != nil {
		return nil, fmt.Errorf("bolt: couldn't query: %w", err)
	}
	subscriber.Sort(subs)
	return subs, nil
}

func (s *Store) Add(_ context.Context, sub subscriber.Subscriber) error {
	key := key(sub.ID)
	if err := s.db.Update(func(tx *bolt.Tx) error {
		byt, err := json.Marshal(sub)
		if err != nil {
			return fmt.Errorf("couldn't encode: %w", err)
		}
		return tx.Bucket(bucket).Put(key, byt)
	}); err != nil {
		return fmt.Errorf("bolt: couldn't put %s: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(_ context.Context, id int64) error {
	key := key(id)
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete(key)
	}); err != nil {
		return fmt.Errorf("bolt: couldn't delete %s: %w", key, err)
	}
	return nil
}

func key(id int64) []byte {
	return []byte(strconv.FormatInt(id, 10))
}
