package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c, ok := <-ch:
		require.True(t, ok, "watch channel closed")
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
		return Change{}
	}
}

func TestMemoryRepository_GetSetDel(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Set(ctx, "k", []byte("v1")))
	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))

	// Returned slices are copies.
	got[0] = 'x'
	again, _ := repo.Get(ctx, "k")
	assert.Equal(t, "v1", string(again))

	require.NoError(t, repo.Del(ctx, "k"))
	_, err = repo.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepository_ForkSharesData(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryRepository()
	b := a.Fork()

	assert.NotEqual(t, a.Origin(), b.Origin())

	require.NoError(t, a.Set(ctx, "cart", []byte("[]")))
	got, err := b.Get(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}

func TestMemoryRepository_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := NewMemoryRepository()
	b := a.Fork()

	changes, err := a.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, a.Set(ctx, "ck.cart.v1", []byte("[]")))
	require.NoError(t, b.Set(ctx, "ck.orders.v1", []byte("[]")))
	require.NoError(t, b.Del(ctx, "ck.cart.v1"))

	c := receive(t, changes)
	assert.Equal(t, "ck.cart.v1", c.Key)
	assert.False(t, IsForeign(a, c))

	c = receive(t, changes)
	assert.Equal(t, "ck.orders.v1", c.Key)
	assert.True(t, IsForeign(a, c))

	c = receive(t, changes)
	assert.Equal(t, "ck.cart.v1", c.Key)
	assert.Equal(t, b.Origin(), c.Origin)

	cancel()
	for range changes {
	}
}

func TestMemoryRepository_WriterNeverBlocks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	repo := NewMemoryRepository()

	changes, err := repo.Watch(ctx)
	require.NoError(t, err)

	// Nobody is reading yet; writes must still complete.
	for i := 0; i < 100; i++ {
		require.NoError(t, repo.Set(ctx, "k", []byte{byte(i)}))
	}

	for i := 0; i < 100; i++ {
		assert.Equal(t, "k", receive(t, changes).Key)
	}

	cancel()
	for range changes {
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	type payload struct {
		Name string `json:"name"`
	}

	require.NoError(t, SetJSON(ctx, repo, "p", payload{Name: "Mojito"}))

	var got payload
	require.NoError(t, GetJSON(ctx, repo, "p", &got))
	assert.Equal(t, "Mojito", got.Name)

	assert.ErrorIs(t, GetJSON(ctx, repo, "none", &got), ErrNotFound)

	require.NoError(t, repo.Set(ctx, "bad", []byte("{not json")))
	assert.Error(t, GetJSON(ctx, repo, "bad", &got))
}

func TestDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	repo := NewMemoryRepository()

	got := make(chan Change, 4)
	done := make(chan error, 1)
	go func() {
		done <- Dispatch(ctx, repo, func(c Change) {
			select {
			case got <- c:
			default:
			}
		})
	}()

	// The watch may not be registered yet; keep writing until one arrives.
	require.Eventually(t, func() bool {
		require.NoError(t, repo.Set(context.Background(), "k", []byte("v")))
		select {
		case c := <-got:
			return c.Key == "k" && !IsForeign(repo, c)
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch did not return")
	}
}
