package database

import (
	"fmt"
	"time"

	"go-dropship-admin/pkg/config"
	"go-dropship-admin/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newGormLogger(log *logger.Logger, level gormlogger.LogLevel) gormlogger.Interface {
	return gormlogger.New(
		log.Named("gorm"),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

func ConnectDB(cfg config.DatabaseConfig, log *logger.Logger) (*gorm.DB, error) {
	// Simple protocol keeps us compatible with transaction-mode poolers (pgbouncer, Supabase).
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:         newGormLogger(log, gormlogger.Warn),
		PrepareStmt:    false,
		TranslateError: true,
		// Staff -> principal is a lookup-only reference.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("Database connection established")
	return db, nil
}
