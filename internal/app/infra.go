package app

import (
	"context"
	"fmt"

	"atelier-auth/internal/config"
	"atelier-auth/internal/db"
	"atelier-auth/internal/redis"

	"go.uber.org/zap"
)

type Infra struct {
	DB *db.DB
	// AdminDB bypasses row-level security. Only the user bootstrap uses it.
	AdminDB *db.DB
	Redis   *redis.Client
}

func setupInfra(ctx context.Context, cfg config.Config, log *zap.Logger) (*Infra, error) {
	appDB, err := db.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	adminDB := appDB
	if cfg.DatabaseAdminDSN != cfg.DatabaseDSN {
		adminDB, err = db.Open(ctx, cfg.DatabaseAdminDSN)
		if err != nil {
			_ = appDB.Close()
			return nil, fmt.Errorf("admin pool: %w", err)
		}
	}

	if err := db.Migrate(ctx, adminDB.DB); err != nil {
		closeDBs(appDB, adminDB)
		return nil, err
	}

	log.Info("database ready", zap.Bool("separate_admin_pool", adminDB != appDB))

	redisClient, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		closeDBs(appDB, adminDB)
		return nil, err
	}

	log.Info("redis ready", zap.String("addr", cfg.RedisAddr))

	return &Infra{
		DB:      appDB,
		AdminDB: adminDB,
		Redis:   redisClient,
	}, nil
}

func (i *Infra) Close() error {
	redisErr := i.Redis.Close()
	dbErr := closeDBs(i.DB, i.AdminDB)
	if dbErr != nil {
		return dbErr
	}
	return redisErr
}

func closeDBs(appDB, adminDB *db.DB) error {
	err := appDB.Close()
	if adminDB != appDB {
		if adminErr := adminDB.Close(); err == nil {
			err = adminErr
		}
	}
	return err
}
