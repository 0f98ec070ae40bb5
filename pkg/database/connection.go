// Package database opens the run history store.
package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
)

type DB struct {
	*gorm.DB
}

// PoolSettings size the sql connection pool
type PoolSettings struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

var postgresPool = PoolSettings{MaxIdleConns: 5, MaxOpenConns: 20, ConnMaxLifetime: time.Hour}

// sqlite locks the whole file on write, and every connection to :memory:
// is a separate database
var sqlitePool = PoolSettings{MaxIdleConns: 1, MaxOpenConns: 1}

const sqliteScheme = "sqlite://"

// NewConnection opens postgres:// URLs with the postgres driver and
// sqlite://<path> URLs (including sqlite://:memory:) with sqlite.
func NewConnection(databaseURL string, isDevelopment bool) (*DB, error) {
	dialector, pool, err := open(databaseURL)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Error
	if isDevelopment {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"dialect":        dialector.Name(),
		"max_open_conns": pool.MaxOpenConns,
	}).Info("Run history database connected")

	return &DB{db}, nil
}

func open(databaseURL string) (gorm.Dialector, PoolSettings, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.Open(databaseURL), postgresPool, nil
	case strings.HasPrefix(databaseURL, sqliteScheme):
		path := strings.TrimPrefix(databaseURL, sqliteScheme)
		if path == "" {
			return nil, PoolSettings{}, fmt.Errorf("sqlite url %q has no path", databaseURL)
		}
		return sqlite.Open(path), sqlitePool, nil
	}
	return nil, PoolSettings{}, fmt.Errorf("unsupported database url %q (want postgres:// or sqlite://)", databaseURL)
}

// Migrate creates or updates the run history schema
func (db *DB) Migrate() error {
	if err := db.AutoMigrate(&models.OptimizationRun{}); err != nil {
		return fmt.Errorf("failed to migrate optimization runs: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HealthCheck pings the underlying connection pool
func (db *DB) HealthCheck() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
