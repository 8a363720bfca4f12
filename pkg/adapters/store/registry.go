package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/glint-analytics/glint-engine/pkg/apperrors"
	"github.com/glint-analytics/glint-engine/pkg/config"
)

// AdapterInfo describes a registered store adapter.
type AdapterInfo struct {
	Driver      string `json:"driver"`       // "sqlite", "postgres", "mssql"
	DisplayName string `json:"display_name"` // "SQLite (embedded)", "PostgreSQL"
	Description string `json:"description"`
}

// Registration contains info plus the factory for opening a store.
type Registration struct {
	Info AdapterInfo
	Open func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Registration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg Registration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Driver] = reg
}

// RegisteredAdapters returns info for all registered adapters.
func RegisteredAdapters() []AdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]AdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	return result
}

// IsRegistered checks if a driver is available in this build.
func IsRegistered(driver string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[driver]
	return ok
}

// Open creates a store for the configured driver. Drivers excluded from the
// build (missing build tag) are reported as unsupported, naming the drivers
// this binary was compiled with.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error) {
	registryMu.RLock()
	reg, ok := registry[cfg.Store.Driver]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("driver %q (compiled in: %s): %w",
			cfg.Store.Driver, strings.Join(registeredDrivers(), ", "),
			apperrors.ErrUnsupportedDriver)
	}

	s, err := reg.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	return s, nil
}

// registeredDrivers lists registered driver names in stable order.
func registeredDrivers() []string {
	infos := RegisteredAdapters()
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Driver)
	}
	sort.Strings(names)
	return names
}
