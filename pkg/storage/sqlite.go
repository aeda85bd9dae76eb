package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type snapshotRow struct {
	Key       string `gorm:"primaryKey;column:key"`
	Blob      []byte `gorm:"column:blob"`
	UpdatedAt time.Time
}

func (snapshotRow) TableName() string { return "snapshots" }

// SQLite persists snapshots in a local database file so session and cart
// state survive restarts.
type SQLite struct {
	conn *gorm.DB
}

// OpenSQLite opens (and migrates) the snapshot database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening snapshot db: %w", err)
	}

	if err := conn.AutoMigrate(&snapshotRow{}); err != nil {
		return nil, fmt.Errorf("migrating snapshot schema: %w", err)
	}

	return &SQLite{conn: conn}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var row snapshotRow
	err := s.conn.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return row.Blob, true, nil
}

func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	row := snapshotRow{Key: key, Blob: value, UpdatedAt: time.Now().UTC()}
	return s.conn.WithContext(ctx).Save(&row).Error
}

func (s *SQLite) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.conn.WithContext(ctx).Delete(&snapshotRow{}, "key IN ?", keys).Error
}

// Close shuts down the pooled connections.
func (s *SQLite) Close() error {
	sqlDB, err := s.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifies the datasource is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	sqlDB, err := s.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
