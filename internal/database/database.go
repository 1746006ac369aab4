// Package database opens the MySQL pool and migrates the schema.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"agromart.store/app/internal/config"
	"agromart.store/app/internal/http/middleware"
	"agromart.store/app/internal/modules/cart"
	"agromart.store/app/internal/modules/catalog"
	"agromart.store/app/internal/modules/orders"
	"agromart.store/app/internal/modules/payments"
	"agromart.store/app/internal/modules/users"
)

// Open connects with TranslateError on so duplicate keys surface as
// gorm.ErrDuplicatedKey.
func Open(ctx context.Context, cfg config.DBConfig, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// Models lists every table, parents first.
func Models() []any {
	return []any{
		&users.User{},
		&middleware.Session{},
		&catalog.Category{},
		&catalog.Product{},
		&cart.Item{},
		&orders.Order{},
		&orders.Line{},
		&payments.CallbackEvent{},
	}
}

func Migrate(ctx context.Context, db *gorm.DB, log *slog.Logger) error {
	start := time.Now()
	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.InfoContext(ctx, "db_migrated", "tables", len(Models()), "took", time.Since(start))
	return nil
}

// Close is safe on a nil db.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
