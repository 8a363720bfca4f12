//go:build mssql || all_adapters

package mssql

import (
	"context"

	"go.uber.org/zap"

	"github.com/glint-analytics/glint-engine/pkg/adapters/store"
	"github.com/glint-analytics/glint-engine/pkg/config"
)

func init() {
	store.Register(store.Registration{
		Info: store.AdapterInfo{
			Driver:      config.StoreDriverSQLServer,
			DisplayName: "SQL Server",
			Description: "Reads an existing SQL Server table",
		},
		Open: func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, error) {
			msCfg := cfg.Store.SQLServer
			msCfg.Host = config.ResolveHostForDocker(msCfg.Host)
			return Open(ctx,
				msCfg.ConnectionString(),
				cfg.Store.Table,
				cfg.Schema.SampleSize,
				logger)
		},
	})
}
