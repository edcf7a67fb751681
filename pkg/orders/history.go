// Package orders persists the append-only order history shared by every
// terminal and the sales dashboard.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/cloudkitchen/pkg/models"
	"github.com/example/cloudkitchen/pkg/repository"
)

// History reads and writes the whole order list under one key. Appends from
// two processes race and the last writer wins.
type History struct {
	kv     repository.Store
	key    string
	logger *zap.Logger
}

func NewHistory(kv repository.Store, key string, logger *zap.Logger) *History {
	return &History{
		kv:     kv,
		key:    key,
		logger: logger.Named("history").With(zap.String("key", key)),
	}
}

func (h *History) Key() string {
	return h.key
}

// All returns every recorded order in insertion order. Missing or malformed
// data reads as an empty history, and so does a failed read, which is logged.
func (h *History) All(ctx context.Context) []models.Order {
	list, err := h.load(ctx)
	if err != nil {
		h.logger.Warn("Failed to read order history", zap.Error(err))
		return []models.Order{}
	}
	return list
}

// load is All without the fallback for backend errors. Only a missing or
// malformed value yields an empty list.
func (h *History) load(ctx context.Context) ([]models.Order, error) {
	data, err := h.kv.Get(ctx, h.key)
	if errors.Is(err, repository.ErrNotFound) {
		return []models.Order{}, nil
	}
	if err != nil {
		return nil, err
	}

	var list []models.Order
	if err := json.Unmarshal(data, &list); err != nil {
		h.logger.Warn("Discarding malformed order history", zap.Error(err))
		return []models.Order{}, nil
	}
	if list == nil {
		list = []models.Order{}
	}
	return list, nil
}

// Append adds order to the end of the history. A failed read aborts the
// append so the stored history is never replaced by a partial one.
func (h *History) Append(ctx context.Context, order models.Order) error {
	list, err := h.load(ctx)
	if err != nil {
		return fmt.Errorf("failed to read order history before saving order %d: %w", order.OrderID, err)
	}
	list = append(list, order)
	if err := repository.SetJSON(ctx, h.kv, h.key, list); err != nil {
		return fmt.Errorf("failed to save order %d: %w", order.OrderID, err)
	}
	return nil
}

// Clear deletes the whole history. It cannot be undone.
func (h *History) Clear(ctx context.Context) error {
	if err := h.kv.Del(ctx, h.key); err != nil {
		return fmt.Errorf("failed to clear order history: %w", err)
	}
	return nil
}
