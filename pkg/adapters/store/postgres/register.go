//go:build postgres || all_adapters

package postgres

import (
	"context"

	"go.uber.org/zap"

	"github.com/glint-analytics/glint-engine/pkg/adapters/store"
	"github.com/glint-analytics/glint-engine/pkg/config"
)

func init() {
	store.Register(store.Registration{
		Info: store.AdapterInfo{
			Driver:      config.StoreDriverPostgres,
			DisplayName: "PostgreSQL",
			Description: "Reads an existing PostgreSQL table",
		},
		Open: func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, error) {
			pgCfg := cfg.Store.Postgres
			pgCfg.Host = config.ResolveHostForDocker(pgCfg.Host)
			return Open(ctx,
				pgCfg.ConnectionString(),
				cfg.Store.Table,
				cfg.Schema.SampleSize,
				logger)
		},
	})
}
