package grpc

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/example/cloudkitchen/pkg/config"
)

type fakePinger struct {
	mu  sync.Mutex
	err error
}

func (p *fakePinger) Ping(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *fakePinger) set(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func serve(t *testing.T, s *HealthServer) grpc.DialOption {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
}

func TestHealthServer_Check(t *testing.T) {
	store := &fakePinger{}
	s := NewHealthServer(&config.ServerConfig{}, zap.NewNop(), map[string]Pinger{"store": store})
	dialer := serve(t, s)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := Probe(ctx, "passthrough:///bufnet", "", dialer)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING.String(), status, "not serving before the first check")

	assert.True(t, s.Check(ctx))
	status, err = Probe(ctx, "passthrough:///bufnet", "", dialer)
	require.NoError(t, err)
	assert.Equal(t, "SERVING", status)

	store.set(errors.New("connection refused"))
	assert.False(t, s.Check(ctx))
	status, err = Probe(ctx, "passthrough:///bufnet", "store", dialer)
	require.NoError(t, err)
	assert.Equal(t, "NOT_SERVING", status)
}

func TestHealthServer_Run(t *testing.T) {
	store := &fakePinger{err: errors.New("down")}
	s := NewHealthServer(&config.ServerConfig{}, zap.NewNop(), map[string]Pinger{"store": store})
	s.SetInterval(10 * time.Millisecond)
	dialer := serve(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	store.set(nil)
	assert.Eventually(t, func() bool {
		status, err := Probe(context.Background(), "passthrough:///bufnet", "", dialer)
		return err == nil && status == "SERVING"
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	<-done
}

func TestProbe_UnknownService(t *testing.T) {
	s := NewHealthServer(&config.ServerConfig{}, zap.NewNop(), nil)
	dialer := serve(t, s)

	_, err := Probe(context.Background(), "passthrough:///bufnet", "nope", dialer)
	assert.Error(t, err)
}
