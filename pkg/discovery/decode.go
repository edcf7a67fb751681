package discovery

import (
	"encoding/json"

	"go.etcd.io/etcd/api/v3/mvccpb"
	"go.uber.org/zap"
)

func decodeInstances(kvs []*mvccpb.KeyValue, logger *zap.Logger) []*ServiceInstance {
	instances := make([]*ServiceInstance, 0, len(kvs))
	for _, kv := range kvs {
		var instance ServiceInstance
		if err := json.Unmarshal(kv.Value, &instance); err != nil {
			logger.Warn("Skipping malformed instance", zap.ByteString("key", kv.Key), zap.Error(err))
			continue
		}
		instances = append(instances, &instance)
	}
	return instances
}
