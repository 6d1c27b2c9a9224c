package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects gorm to postgres or sqlite. Driver errors are translated so
// unique violations surface as gorm.ErrDuplicatedKey.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		if err := tuneSQLite(gdb, dsn); err != nil {
			return nil, err
		}
	}
	return gdb, nil
}

func tuneSQLite(gdb *gorm.DB, dsn string) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	// One connection keeps in-memory databases shared and avoids SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)
	pragmas := []string{"PRAGMA foreign_keys = ON"}
	if !strings.Contains(dsn, ":memory:") && !strings.Contains(dsn, "mode=memory") {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	for _, stmt := range pragmas {
		if err := gdb.Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return nil
}

// Migrate applies the SQL migrations through gorm's underlying *sql.DB.
func Migrate(gdb *gorm.DB, migrationsDir string) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB, migrationsDir)
}
