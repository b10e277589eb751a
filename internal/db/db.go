package db

import (
	"context"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/internal/config"
)

// Open returns a pooled gorm DB for the configured MySQL instance.
func Open(cfg config.MySQLConfig) (*gorm.DB, error) {
	gdb, err := gorm.Open(mysql.Open(cfg.DSN()), Options())
	if err != nil {
		return nil, err
	}
	if err := ApplyPool(gdb, cfg); err != nil {
		return nil, err
	}
	return gdb, nil
}

// Options is the gorm configuration shared by every dialector.
func Options() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}
}

// ApplyPool bounds the underlying database/sql pool.
func ApplyPool(gdb *gorm.DB, cfg config.MySQLConfig) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}

	lifetime := time.Duration(cfg.ConnMaxLifetime) * time.Second
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}
	sqlDB.SetConnMaxLifetime(lifetime)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	return nil
}

// Ping checks connectivity within ctx.
func Ping(ctx context.Context, gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the pool.
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
