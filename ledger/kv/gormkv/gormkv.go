// Package gormkv stores ledger entries in a single SQL table through gorm.
// SQLite is used for file paths and postgres for postgres:// URLs.
package gormkv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/beesaferoot/rentledger/ledger/kv"
)

// Entry is one stored key
type Entry struct {
	Key       string    `gorm:"column:entry_key;primaryKey;size:64"`
	Value     string    `gorm:"column:entry_value;type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Entry) TableName() string {
	return "ledger_entries"
}

// Store is a kv.Store backed by gorm
type Store struct {
	db *gorm.DB
}

var _ kv.Store = (*Store)(nil)

// Dialector picks the gorm driver for dsn
func Dialector(dsn string) gorm.Dialector {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return postgres.Open(dsn)
	}
	return sqlite.Open(dsn)
}

// Open connects to dsn and prepares the entries table
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database url is empty")
	}
	db, err := gorm.Open(Dialector(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(db)
}

// New wraps an open connection and migrates the entries table
func New(db *gorm.DB) (*Store, error) {
	if db.Dialector.Name() == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// a single connection keeps sqlite writers serialized
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to create %s table: %w", Entry{}.TableName(), err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var e Entry
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return e.Value, true, nil
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := s.db.WithContext(ctx).Model(&Entry{}).Order("entry_key").Pluck("entry_key", &keys).Error; err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}

// Apply writes the batch inside one transaction
func (s *Store) Apply(ctx context.Context, b kv.Batch) error {
	if b.Empty() {
		return nil
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	for _, key := range b.Delete {
		if err := tx.Where("entry_key = ?", key).Delete(&Entry{}).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}

	now := time.Now().UTC()
	for _, key := range kv.SortedKeys(b.Set) {
		e := Entry{Key: key, Value: b.Set[key], UpdatedAt: now}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entry_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"entry_value", "updated_at"}),
		}).Create(&e).Error
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Entry{}).Error
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
