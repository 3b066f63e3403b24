package store

import (
	"context"
	"fmt"

	"circloth_server/config"
	"circloth_server/logger"

	"go.uber.org/zap"
)

// Open builds the configured store, wrapped with metrics
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverDynamo:
		client, err := NewDynamoDBClient(ctx, cfg.AWS.Region, cfg.AWS.Endpoint)
		if err != nil {
			return nil, err
		}
		tables := Tables{
			Items:    cfg.Storage.Tables.Items,
			Users:    cfg.Storage.Tables.Users,
			Actions:  cfg.Storage.Tables.Actions,
			Chats:    cfg.Storage.Tables.Chats,
			Messages: cfg.Storage.Tables.Messages,
		}
		logger.Info("using DynamoDB store", zap.String("region", cfg.AWS.Region))
		return Instrument(NewDynamoStore(client, tables)), nil

	case config.DriverPostgres, config.DriverSQLite:
		s, err := OpenSQL(cfg.Storage.Driver, cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		if cfg.Storage.AutoMigrate {
			if err := s.Migrate(); err != nil {
				s.Close()
				return nil, err
			}
		}
		logger.Info("using SQL store", zap.String("driver", cfg.Storage.Driver))
		return Instrument(s), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
