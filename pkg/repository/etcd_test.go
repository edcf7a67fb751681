package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pb "go.etcd.io/etcd/api/v3/etcdserverpb"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

const testPrefix = "/ck/kv/"

// fakeKV is an in-memory clientv3.KV with a global revision counter.
type fakeKV struct {
	clientv3.KV

	mu   sync.Mutex
	rev  int64
	data map[string]*mvccpb.KeyValue
}

func (f *fakeKV) header() *pb.ResponseHeader {
	return &pb.ResponseHeader{Revision: f.rev}
}

func (f *fakeKV) Put(_ context.Context, key, val string, _ ...clientv3.OpOption) (*clientv3.PutResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rev++
	f.data[key] = &mvccpb.KeyValue{Key: []byte(key), Value: []byte(val), ModRevision: f.rev}
	return &clientv3.PutResponse{Header: f.header()}, nil
}

func (f *fakeKV) Get(_ context.Context, key string, _ ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	resp := &clientv3.GetResponse{Header: f.header()}
	if kv, ok := f.data[key]; ok {
		resp.Kvs = []*mvccpb.KeyValue{kv}
		resp.Count = 1
	}
	return resp, nil
}

func (f *fakeKV) Txn(context.Context) clientv3.Txn {
	return &fakeTxn{kv: f}
}

type fakeTxn struct {
	kv  *fakeKV
	ops []clientv3.Op
}

func (t *fakeTxn) If(...clientv3.Cmp) clientv3.Txn  { return t }
func (t *fakeTxn) Else(...clientv3.Op) clientv3.Txn { return t }

func (t *fakeTxn) Then(ops ...clientv3.Op) clientv3.Txn {
	t.ops = append(t.ops, ops...)
	return t
}

func (t *fakeTxn) Commit() (*clientv3.TxnResponse, error) {
	t.kv.mu.Lock()
	defer t.kv.mu.Unlock()
	t.kv.rev++
	for _, op := range t.ops {
		delete(t.kv.data, string(op.KeyBytes()))
	}
	return &clientv3.TxnResponse{Header: t.kv.header(), Succeeded: true}, nil
}

// fakeWatcher hands out a channel the test feeds directly.
type fakeWatcher struct {
	clientv3.Watcher
	ch chan clientv3.WatchResponse
}

func (w *fakeWatcher) Watch(context.Context, string, ...clientv3.OpOption) clientv3.WatchChan {
	return w.ch
}

func (w *fakeWatcher) Close() error { return nil }

func newTestEtcd(t *testing.T) (*EtcdRepository, *fakeKV, *fakeWatcher) {
	t.Helper()
	kv := &fakeKV{data: make(map[string]*mvccpb.KeyValue)}
	w := &fakeWatcher{ch: make(chan clientv3.WatchResponse, 8)}

	cli := clientv3.NewCtxClient(context.Background())
	cli.KV = kv
	cli.Watcher = w

	return NewEtcdRepositoryFromClient(cli, testPrefix, zap.NewNop()), kv, w
}

func putEvent(key string, rev int64) *clientv3.Event {
	return &clientv3.Event{
		Type: mvccpb.PUT,
		Kv:   &mvccpb.KeyValue{Key: []byte(testPrefix + key), ModRevision: rev},
	}
}

func TestEtcdRepository_GetSetDel(t *testing.T) {
	repo, kv, _ := newTestEtcd(t)
	ctx := context.Background()

	require.NoError(t, repo.Ping(ctx))

	_, err := repo.Get(ctx, "ck.cart.v1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Set(ctx, "ck.cart.v1", []byte(`[]`)))
	assert.Contains(t, kv.data, testPrefix+"ck.cart.v1")

	got, err := repo.Get(ctx, "ck.cart.v1")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, repo.Del(ctx, "ck.cart.v1"))
	_, err = repo.Get(ctx, "ck.cart.v1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, repo.Del(ctx))
}

func TestEtcdRepository_WatchTagsOwnRevisions(t *testing.T) {
	repo, kv, w := newTestEtcd(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := repo.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.Set(ctx, "ck.orders.v1", []byte(`[]`)))
	own := kv.rev

	w.ch <- clientv3.WatchResponse{Events: []*clientv3.Event{
		putEvent("ck.orders.v1", own),
		putEvent("t1:ck.cart.v1", own+100),
	}}

	first := <-changes
	assert.Equal(t, "ck.orders.v1", first.Key)
	assert.False(t, IsForeign(repo, first))

	second := <-changes
	assert.Equal(t, "t1:ck.cart.v1", second.Key)
	assert.True(t, IsForeign(repo, second))

	cancel()
	close(w.ch)
	_, open := <-changes
	assert.False(t, open)
}

func TestEtcdRepository_FeedEndsOnWatchError(t *testing.T) {
	repo, _, w := newTestEtcd(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Dispatch(ctx, repo, func(Change) {})
	}()

	// A compacted watch reports an error and etcd closes the channel.
	w.ch <- clientv3.WatchResponse{CompactRevision: 42}
	close(w.ch)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrFeedClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch did not return after the watch ended")
	}
}

func TestEtcdRepository_OwnRevisionWindow(t *testing.T) {
	repo, _, _ := newTestEtcd(t)

	for rev := int64(1); rev <= ownRevisionWindow+1; rev++ {
		repo.remember(rev)
	}

	assert.False(t, repo.isOwn(1))
	assert.True(t, repo.isOwn(2))
	assert.True(t, repo.isOwn(ownRevisionWindow+1))
	assert.Len(t, repo.ownFIFO, ownRevisionWindow)
}
