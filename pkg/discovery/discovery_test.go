package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/api/v3/mvccpb"
	"go.uber.org/zap"
)

func TestKeys(t *testing.T) {
	instance := &ServiceInstance{Name: "storefront", Host: "10.0.0.5", GRPCPort: 50061, HTTPPort: 8080}

	assert.Equal(t, "/services/storefront/10.0.0.5:50061", instanceKey("/services/", instance))
	assert.Equal(t, "/services/storefront/", serviceKey("/services/", "storefront"))
	assert.Equal(t, "/services/storefront/", serviceKey("/services/", "storefront/"))
	assert.Equal(t, "10.0.0.5:8080", instance.HTTPAddr())
}

func TestDecodeInstances(t *testing.T) {
	kvs := []*mvccpb.KeyValue{
		{Key: []byte("/services/storefront/a:1"), Value: []byte(`{"name":"storefront","host":"a","grpc_port":1,"http_port":8080}`)},
		{Key: []byte("/services/storefront/b:2"), Value: []byte("a:2")},
	}

	instances := decodeInstances(kvs, zap.NewNop())
	require.Len(t, instances, 1)
	assert.Equal(t, "a", instances[0].Host)
	assert.Equal(t, 8080, instances[0].HTTPPort)
}
