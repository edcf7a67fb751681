package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"github.com/example/cloudkitchen/pkg/config"
)

// ownRevisionWindow bounds how many of our own write revisions are kept to
// recognise our writes on the watch stream.
const ownRevisionWindow = 1024

// EtcdRepository keeps values under a key prefix in etcd and uses the native
// watch API as the change feed. etcd events carry no writer identity, so the
// repository remembers the revisions it produced and tags only those with its
// own origin. An event that races ahead of remember is reported as foreign,
// which only costs the reader a redundant re-read.
type EtcdRepository struct {
	client *clientv3.Client
	prefix string
	origin string
	logger *zap.Logger

	mu      sync.Mutex
	own     map[int64]struct{}
	ownFIFO []int64
}

func NewEtcdRepository(cfg *config.EtcdConfig, prefix string, logger *zap.Logger) (*EtcdRepository, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}
	return NewEtcdRepositoryFromClient(cli, prefix, logger), nil
}

func NewEtcdRepositoryFromClient(cli *clientv3.Client, prefix string, logger *zap.Logger) *EtcdRepository {
	return &EtcdRepository{
		client: cli,
		prefix: prefix,
		origin: uuid.NewString(),
		logger: logger.Named("etcd-store"),
		own:    make(map[int64]struct{}),
	}
}

func (r *EtcdRepository) Origin() string {
	return r.origin
}

func (r *EtcdRepository) Ping(ctx context.Context) error {
	_, err := r.client.Get(ctx, r.prefix, clientv3.WithCountOnly())
	return err
}

func (r *EtcdRepository) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := r.client.Get(ctx, r.prefix+key)
	if err != nil {
		return nil, err
	}
	if len(resp.Kvs) == 0 {
		return nil, ErrNotFound
	}
	return resp.Kvs[0].Value, nil
}

func (r *EtcdRepository) Set(ctx context.Context, key string, value []byte) error {
	resp, err := r.client.Put(ctx, r.prefix+key, string(value))
	if err != nil {
		return err
	}
	r.remember(resp.Header.Revision)
	return nil
}

func (r *EtcdRepository) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ops := make([]clientv3.Op, 0, len(keys))
	for _, key := range keys {
		ops = append(ops, clientv3.OpDelete(r.prefix+key))
	}
	resp, err := r.client.Txn(ctx).Then(ops...).Commit()
	if err != nil {
		return err
	}
	r.remember(resp.Header.Revision)
	return nil
}

// Watch closes the returned channel when ctx is done or when etcd ends the
// watch, for example after compaction. The second case is logged and the
// caller sees the channel close with ctx still live.
func (r *EtcdRepository) Watch(ctx context.Context) (<-chan Change, error) {
	wch := r.client.Watch(ctx, r.prefix, clientv3.WithPrefix())

	out := make(chan Change)
	go func() {
		defer close(out)
		for wresp := range wch {
			if err := wresp.Err(); err != nil {
				r.logger.Error("etcd watch ended", zap.String("prefix", r.prefix), zap.Error(err))
				return
			}
			for _, ev := range wresp.Events {
				c := Change{Key: strings.TrimPrefix(string(ev.Kv.Key), r.prefix)}
				if r.isOwn(ev.Kv.ModRevision) {
					c.Origin = r.origin
				}
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (r *EtcdRepository) Close() error {
	return r.client.Close()
}

func (r *EtcdRepository) remember(rev int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.own[rev] = struct{}{}
	r.ownFIFO = append(r.ownFIFO, rev)
	if len(r.ownFIFO) > ownRevisionWindow {
		delete(r.own, r.ownFIFO[0])
		r.ownFIFO = r.ownFIFO[1:]
	}
}

func (r *EtcdRepository) isOwn(rev int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.own[rev]
	return ok
}
