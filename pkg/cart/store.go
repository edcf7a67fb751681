// Package cart holds the line items of one terminal's shopping cart and
// persists them as a whole on every mutation.
package cart

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/cloudkitchen/pkg/models"
	"github.com/example/cloudkitchen/pkg/repository"
)

// Store is not safe for concurrent use; its owner serialises access.
// Operations never fail: persistence problems are logged and the in-memory
// cart stays authoritative.
type Store struct {
	kv       repository.Store
	key      string
	logger   *zap.Logger
	items    []models.CartItem
	onChange func([]models.CartItem)
}

func NewStore(kv repository.Store, key string, logger *zap.Logger) *Store {
	return &Store{
		kv:     kv,
		key:    key,
		logger: logger.Named("cart").With(zap.String("key", key)),
	}
}

// OnChange registers fn to be called with a copy of the items after every
// mutation and reload.
func (s *Store) OnChange(fn func([]models.CartItem)) {
	s.onChange = fn
}

func (s *Store) Key() string {
	return s.key
}

// Load replaces the in-memory cart with the persisted one. Missing or
// malformed data yields an empty cart. If the read fails the current items
// are kept, so a later mutation cannot persist an empty cart over the real one.
func (s *Store) Load(ctx context.Context) {
	items, err := s.read(ctx)
	if err != nil {
		s.logger.Warn("Failed to read cart, keeping current items", zap.Error(err))
		return
	}
	s.items = items
	s.changed()
}

func (s *Store) read(ctx context.Context) ([]models.CartItem, error) {
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var stored []models.CartItem
	if err := json.Unmarshal(data, &stored); err != nil {
		s.logger.Warn("Discarding malformed cart", zap.Error(err))
		return nil, nil
	}

	items := make([]models.CartItem, 0, len(stored))
	for _, item := range stored {
		if item.Quantity <= 0 {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Add increments the quantity of the item called name, or appends it with
// quantity 1.
func (s *Store) Add(ctx context.Context, name string, price decimal.Decimal, image string) {
	if i := s.index(name); i >= 0 {
		s.items[i].Quantity++
	} else {
		s.items = append(s.items, models.CartItem{
			Name:     name,
			Price:    price,
			Image:    image,
			Quantity: 1,
		})
	}
	s.commit(ctx)
}

// Remove drops every item called name. Removing an absent item is a no-op.
func (s *Store) Remove(ctx context.Context, name string) {
	if s.index(name) < 0 {
		return
	}
	s.items = s.without(name)
	s.commit(ctx)
}

// ChangeQuantity adds delta to the item called name. A result of zero or
// less removes the item. Unknown names are ignored.
func (s *Store) ChangeQuantity(ctx context.Context, name string, delta int) {
	i := s.index(name)
	if i < 0 {
		return
	}
	if s.items[i].Quantity+delta <= 0 {
		s.items = s.without(name)
	} else {
		s.items[i].Quantity += delta
	}
	s.commit(ctx)
}

// Clear empties the cart and persists the empty list.
func (s *Store) Clear(ctx context.Context) {
	s.items = nil
	s.commit(ctx)
}

// Items returns a copy of the cart in display order.
func (s *Store) Items() []models.CartItem {
	return models.CloneItems(s.items)
}

func (s *Store) Len() int {
	return len(s.items)
}

func (s *Store) IsEmpty() bool {
	return len(s.items) == 0
}

func (s *Store) index(name string) int {
	for i, item := range s.items {
		if item.Name == name {
			return i
		}
	}
	return -1
}

func (s *Store) without(name string) []models.CartItem {
	kept := s.items[:0:0]
	for _, item := range s.items {
		if item.Name != name {
			kept = append(kept, item)
		}
	}
	return kept
}

func (s *Store) commit(ctx context.Context) {
	items := s.items
	if items == nil {
		items = []models.CartItem{}
	}
	if err := repository.SetJSON(ctx, s.kv, s.key, items); err != nil {
		s.logger.Error("Failed to persist cart", zap.Error(err))
	}
	s.changed()
}

func (s *Store) changed() {
	if s.onChange != nil {
		s.onChange(s.Items())
	}
}
