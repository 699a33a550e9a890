package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormStore is a database-backed Store. SQLite (pure Go, zero config) is
// the default driver; PostgreSQL serves multi-replica deployments where the
// cache must actually be shared. Expired rows are treated as misses and
// reaped opportunistically on write.
type GormStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// cacheRow is the persisted cache entry.
type cacheRow struct {
	Key       string    `gorm:"primaryKey;size:255"`
	Value     []byte    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
}

func (cacheRow) TableName() string { return "cache_entries" }

// OpenSQLite creates a SQLite-backed cache store at path.
func OpenSQLite(path string, slogger *slog.Logger) (*GormStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(path+"?_pragma=journal_mode(WAL)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite cache: %w", err)
	}
	return newGormStore(db, slogger)
}

// OpenPostgres creates a PostgreSQL-backed cache store.
func OpenPostgres(dsn string, slogger *slog.Logger) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening postgres cache: %w", err)
	}
	return newGormStore(db, slogger)
}

func newGormStore(db *gorm.DB, slogger *slog.Logger) (*GormStore, error) {
	if err := db.AutoMigrate(&cacheRow{}); err != nil {
		return nil, fmt.Errorf("migrating cache table: %w", err)
	}
	return &GormStore{db: db, logger: slogger}, nil
}

func (s *GormStore) Get(ctx context.Context, key string) ([]byte, error) {
	var row cacheRow
	err := s.db.WithContext(ctx).First(&row, "key = ?", KeyPrefix+key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}
	if time.Now().After(row.ExpiresAt) {
		return nil, ErrMiss
	}
	return row.Value, nil
}

func (s *GormStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	row := cacheRow{
		Key:       KeyPrefix + key,
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}

	// Opportunistic reap of expired rows; failures only cost space.
	if err := s.db.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&cacheRow{}).Error; err != nil {
		s.logger.WarnContext(ctx, "reaping expired cache rows failed", slog.String("error", err.Error()))
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&cacheRow{}, "key = ?", KeyPrefix+key).Error; err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
