package repository

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrNotFound is returned by Store.Get for a key that holds no value.
	ErrNotFound = errors.New("key not found")
	// ErrFeedClosed is returned by Dispatch when the change feed ends while
	// its context is still live.
	ErrFeedClosed = errors.New("change feed closed")
)

// Change is delivered on a watch channel whenever a key is written or
// deleted. Origin is the Origin() of the writing store, or empty when the
// backend cannot tell.
type Change struct {
	Key    string `json:"key"`
	Origin string `json:"origin"`
}

// Store is a whole-value key-value store with a change feed. Values are
// read whole and written whole; there are no transactions and concurrent
// writers race with last-writer-wins semantics.
type Store interface {
	// Origin identifies this store handle in the change feed.
	Origin() string
	Ping(ctx context.Context) error
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, keys ...string) error
	// Watch streams changes to every key until ctx is done, then closes the
	// returned channel.
	Watch(ctx context.Context) (<-chan Change, error)
	Close() error
}

func SetJSON(ctx context.Context, s Store, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, data)
}

func GetJSON(ctx context.Context, s Store, key string, dest interface{}) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// IsForeign reports whether c was written through a handle other than s.
func IsForeign(s Store, c Change) bool {
	return c.Origin != s.Origin()
}

// Dispatch watches s and hands every change to each handler in turn. It
// returns ctx.Err() once ctx is done, or ErrFeedClosed if the backend ends
// the feed first.
func Dispatch(ctx context.Context, s Store, handlers ...func(Change)) error {
	changes, err := s.Watch(ctx)
	if err != nil {
		return err
	}
	for c := range changes {
		for _, h := range handlers {
			h(c)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrFeedClosed
}
