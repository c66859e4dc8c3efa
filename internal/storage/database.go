package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ericogr/duel-arena/internal/logging"
)

// OpenDB opens the database named by dsn and migrates the schema. URLs
// starting with postgres:// or postgresql:// use PostgreSQL; anything else
// is a SQLite path (":memory:" included).
func OpenDB(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	var (
		db     *gorm.DB
		err    error
		driver string
	)
	if isPostgres(dsn) {
		driver = "postgres"
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		driver = "sqlite"
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if dsn == ":memory:" {
		// every pooled connection would get its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&CharacterProfile{}, &EquippedItem{}, &MatchOutcome{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logging.Info("database ready", logging.Fields{"driver": driver})
	return db, nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func ensureDir(dsn string) error {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database directory %s: %w", dir, err)
	}
	return nil
}
