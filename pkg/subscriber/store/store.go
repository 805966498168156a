package store

import (
	"errors"
	"fmt"

	"github.com/igolaizola/emacross/pkg/subscriber"
	"github.com/igolaizola/emacross/pkg/subscriber/bolt"
	"github.com/igolaizola/emacross/pkg/subscriber/inmem"
	"github.com/igolaizola/emacross/pkg/subscriber/redis"
	"github.com/igolaizola/emacross/pkg/subscriber/sqlite"
)

var ErrNotFound = errors.New("store: not found")

// New opens the registry backend by name. dsn is a file path for bolt and
// sqlite, a redis url for redis and is ignored for memory.
func New(name, dsn string) (subscriber.Registry, error) {
	var reg subscriber.Registry
	var err error
	switch name {
	case "bolt":
		reg, err = bolt.New(dsn)
	case "redis":
		reg, err = redis.New(dsn)
	case "sqlite":
		reg, err = sqlite.New(dsn)
	case "memory":
		reg = inmem.New()
	default:
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return reg, nil
}
