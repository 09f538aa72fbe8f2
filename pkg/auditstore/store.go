package auditstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store is a SQL-backed transaction audit trail. It supports the same
// SQLite/PostgreSQL backend pair as the configuration it's built from, and
// opens either one through the same gorm.DB handle.
type Store struct {
	db *gorm.DB
}

// Open connects to the configured backend and migrates the schema.
// PostgreSQL deployments that manage schema changes through RunMigrations
// instead of AutoMigrate can call Open after running those migrations;
// AutoMigrate is a no-op once the schema already matches.
func Open(cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch cfg.Type {
	case DatabaseTypeSQLite:
		if err := ensureDir(cfg.SQLite.Path); err != nil {
			return nil, fmt.Errorf("auditstore: create database directory: %w", err)
		}
		dsn := cfg.SQLite.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		dialector = sqlite.Open(dsn)
	case DatabaseTypePostgres:
		dialector = postgres.Open(cfg.Postgres.DSN())
	default:
		return nil, fmt.Errorf("auditstore: unsupported database type %q", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("auditstore: connect: %w", err)
	}

	if cfg.Type == DatabaseTypePostgres {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("auditstore: underlying db: %w", err)
		}
		sqlDB.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	}

	if err := db.AutoMigrate(AllModels()...); err != nil {
		return nil, fmt.Errorf("auditstore: migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// RecordStarted inserts (or, on a retry of the same transaction ID,
// updates) the opening record of a transaction.
func (s *Store) RecordStarted(ctx context.Context, rec TransactionRecord) error {
	return s.db.WithContext(ctx).Save(&rec).Error
}

// RecordFinished fills in the completion fields of an already-started
// transaction record.
func (s *Store) RecordFinished(ctx context.Context, id string, conditionCode, deliveryCode string) error {
	return s.db.WithContext(ctx).
		Model(&TransactionRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"condition_code": conditionCode,
			"delivery_code":  deliveryCode,
			"completed_at":   gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

// Get returns the audit record for a transaction ID, if one exists.
func (s *Store) Get(ctx context.Context, id string) (TransactionRecord, bool, error) {
	var rec TransactionRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return TransactionRecord{}, false, nil
	}
	if err != nil {
		return TransactionRecord{}, false, err
	}
	return rec, true, nil
}

// List returns the most recent records, newest first, up to limit.
func (s *Store) List(ctx context.Context, limit int) ([]TransactionRecord, error) {
	var recs []TransactionRecord
	err := s.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&recs).Error
	return recs, err
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
