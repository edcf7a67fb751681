package repository

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/example/cloudkitchen/pkg/config"
)

const etcdKeyPrefix = "/cloudkitchen/kv/"

// Open returns the Store selected by storage.driver.
func Open(cfg *config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.Storage.Driver {
	case "memory", "":
		return NewMemoryRepository(), nil
	case "redis":
		return NewRedisRepository(&cfg.Redis), nil
	case "etcd":
		return NewEtcdRepository(&cfg.Etcd, etcdKeyPrefix, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
