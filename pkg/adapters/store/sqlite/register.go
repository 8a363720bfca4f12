package sqlite

import (
	"context"

	"go.uber.org/zap"

	"github.com/glint-analytics/glint-engine/pkg/adapters/store"
	"github.com/glint-analytics/glint-engine/pkg/config"
)

func init() {
	store.Register(store.Registration{
		Info: store.AdapterInfo{
			Driver:      config.StoreDriverSQLite,
			DisplayName: "SQLite (embedded)",
			Description: "In-memory store seeded from ingested files",
		},
		Open: func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, error) {
			return New(cfg.Store.Table, cfg.Schema.SampleSize, logger)
		},
	})
}
