package client

import (
	"fmt"
	"strings"
	"time"

	"codehut/internal/model"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryDatabaseURL is used when no DATABASE_URL is configured.
const MemoryDatabaseURL = "file:codehut?mode=memory&cache=shared"

// InitDatabase opens the store named by databaseURL and migrates the schema.
// An empty URL selects the in-process SQLite store.
func InitDatabase(databaseURL string) (*gorm.DB, error) {
	dialector, inMemory := dialectorFor(databaseURL)

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	if inMemory {
		// every connection to a shared-cache memory db must stay open or the data is dropped
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := db.AutoMigrate(model.All()...); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	log.WithFields(log.Fields{
		"driver":    dialector.Name(),
		"in_memory": inMemory,
	}).Info("Database ready")

	return db, nil
}

func dialectorFor(databaseURL string) (gorm.Dialector, bool) {
	switch {
	case databaseURL == "":
		return sqlite.Open(MemoryDatabaseURL), true
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.Open(databaseURL), false
	case strings.HasPrefix(databaseURL, "mysql://"):
		return mysql.Open(strings.TrimPrefix(databaseURL, "mysql://")), false
	case strings.HasPrefix(databaseURL, "sqlite://"):
		dsn := strings.TrimPrefix(databaseURL, "sqlite://")
		return sqlite.Open(dsn), strings.Contains(dsn, "mode=memory")
	default:
		return sqlite.Open(databaseURL), strings.Contains(databaseURL, "mode=memory")
	}
}
