// Package store selects a leave.Store backend from configuration.
package store

import (
	"context"
	"fmt"

	"github.com/warp/leave-manager/config"
	"github.com/warp/leave-manager/leave"
	"github.com/warp/leave-manager/store/memory"
	"github.com/warp/leave-manager/store/mongostore"
	"github.com/warp/leave-manager/store/sqlite"
)

// Open connects the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (leave.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverMongo:
		s, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverMemory:
		return memory.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
