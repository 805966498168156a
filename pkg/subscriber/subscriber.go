package subscriber

import (
	"context"
	"sort"
	"time"
)

type Subscriber struct {
	ID    int64     `json:"id"`
	Name  string    `json:"name"`
	Since time.Time `json:"since"`
}

// Registry stores notification targets. List must return a consistent
// snapshot.
type Registry interface {
	Add(ctx context.Context, s Subscriber) error
	Remove(ctx context.Context, id int64) error
	List(ctx context.Context) ([]Subscriber, error)
	Close() error
}

// Sort orders subscribers by id.
func Sort(subs []Subscriber) {
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].ID < subs[j].ID
	})
}
