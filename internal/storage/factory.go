package storage

import (
	"context"
	"fmt"
	"sync"

	"herald/internal/config"
)

type FactoryFunc func(ctx context.Context, cfg config.StorageConfig) (StorageInterface, error)

var (
	factoryMu    sync.RWMutex
	factoryFuncs = map[string]FactoryFunc{}
)

func RegisterFactory(storageType string, fn FactoryFunc) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factoryFuncs[storageType] = fn
}

func New(ctx context.Context, cfg config.StorageConfig) (StorageInterface, error) {
	storageType := cfg.Type
	if storageType == "" {
		storageType = "sqlite"
	}

	factoryMu.RLock()
	fn, exists := factoryFuncs[storageType]
	factoryMu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}

	return fn(ctx, cfg)
}
