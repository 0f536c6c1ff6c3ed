package database

import (
	"context"
	"time"

	"github.com/umtracker/platform/pkg/common/config"
	"github.com/umtracker/platform/pkg/common/logger"
	"github.com/umtracker/platform/pkg/common/retry"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const connectAttempts = 5

// GormConfig is shared by the service and the admin CLI. TranslateError makes
// unique violations surface as gorm.ErrDuplicatedKey.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	}
}

// OpenPostgres connects with a short backoff so the service tolerates a
// database that is still starting.
func OpenPostgres(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	var db *gorm.DB
	err := retry.Do(ctx, connectAttempts, 500*time.Millisecond, func() error {
		var err error
		db, err = gorm.Open(postgres.Open(cfg.PostgresDSN()), GormConfig())
		if err != nil {
			logger.Log.WithError(err).Warn("PostgreSQL not reachable yet")
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	if err != nil {
		logger.Log.WithError(err).Error("Failed to connect to PostgreSQL")
		return nil, err
	}

	logger.Log.Info("Connected to PostgreSQL")
	return db, nil
}

func ClosePostgres(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping reports whether the pool can reach the database.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
