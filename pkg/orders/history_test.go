package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/cloudkitchen/pkg/models"
	"github.com/example/cloudkitchen/pkg/repository"
)

const ordersKey = "ck.orders.v1"

func order(id int, total string) models.Order {
	return models.Order{
		OrderID:   id,
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Items:     []models.CartItem{{Name: "Pizza", Price: decimal.NewFromInt(249), Quantity: 1}},
		Total:     decimal.RequireFromString(total),
	}
}

func TestHistory_AppendAll(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(repository.NewMemoryRepository(), ordersKey, zap.NewNop())

	assert.Empty(t, h.All(ctx))

	require.NoError(t, h.Append(ctx, order(111111, "338.82")))
	require.NoError(t, h.Append(ctx, order(222222, "774.24")))

	all := h.All(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, 111111, all[0].OrderID)
	assert.Equal(t, 222222, all[1].OrderID)
	assert.True(t, all[1].Total.Equal(decimal.RequireFromString("774.24")))
}

func TestHistory_MalformedReadsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryRepository()
	require.NoError(t, kv.Set(ctx, ordersKey, []byte("garbage")))

	h := NewHistory(kv, ordersKey, zap.NewNop())
	assert.Empty(t, h.All(ctx))

	// Appending over garbage starts a fresh history.
	require.NoError(t, h.Append(ctx, order(1, "1")))
	assert.Len(t, h.All(ctx), 1)
}

func TestHistory_Clear(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryRepository()
	h := NewHistory(kv, ordersKey, zap.NewNop())
	require.NoError(t, h.Append(ctx, order(1, "1")))

	require.NoError(t, h.Clear(ctx))

	assert.Empty(t, h.All(ctx))
	_, err := kv.Get(ctx, ordersKey)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

type failingStore struct {
	*repository.MemoryRepository
}

func (failingStore) Set(context.Context, string, []byte) error { return errors.New("disk full") }
func (failingStore) Del(context.Context, ...string) error      { return errors.New("disk full") }

func TestHistory_WriteErrors(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(failingStore{repository.NewMemoryRepository()}, ordersKey, zap.NewNop())

	assert.ErrorContains(t, h.Append(ctx, order(42, "1")), "order 42")
	assert.Error(t, h.Clear(ctx))
}

type flakyGetStore struct {
	*repository.MemoryRepository
	getErr error
}

func (f *flakyGetStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.MemoryRepository.Get(ctx, key)
}

func TestHistory_AppendKeepsHistoryOnReadError(t *testing.T) {
	ctx := context.Background()
	kv := &flakyGetStore{MemoryRepository: repository.NewMemoryRepository()}
	h := NewHistory(kv, ordersKey, zap.NewNop())

	require.NoError(t, h.Append(ctx, order(111111, "338.82")))
	require.NoError(t, h.Append(ctx, order(222222, "469.80")))

	readErr := errors.New("i/o timeout")
	kv.getErr = readErr
	err := h.Append(ctx, order(333333, "100"))
	assert.ErrorIs(t, err, readErr)
	assert.ErrorContains(t, err, "order 333333")
	assert.Empty(t, h.All(ctx))

	kv.getErr = nil
	all := h.All(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, 111111, all[0].OrderID)
	assert.Equal(t, 222222, all[1].OrderID)
}
