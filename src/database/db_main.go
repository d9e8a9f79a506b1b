package database

import (
	"fmt"
	"time"

	"hbrelay/src/database/migrations"
	"hbrelay/src/model"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// MainDB is the read/write connection holding settings and the delivery
// failure log.
var MainDB *gorm.DB

func dialector(config Config) (gorm.Dialector, error) {
	switch config.Driver {
	case DriverPostgres, "":
		return postgres.Open(config.DatabaseURL), nil
	case DriverSQLite:
		return sqlite.Open(config.SQLitePath), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
}

// InitMainDB opens the main database and runs migrations.
// This should be called once at startup.
func InitMainDB() error {
	config := GetConfig()

	d, err := dialector(config)
	if err != nil {
		return err
	}

	db, err := gorm.Open(d, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.LogLevel(config.GormLogLevel)),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	if err := Migrate(db); err != nil {
		return err
	}

	// Assign to the global variable only after a successful migration.
	MainDB = db

	logrus.WithField("driver", config.Driver).Info("[database] MainDB connection established")
	return nil
}

// Migrate creates the schema and applies pending data migrations.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Setting{},
		&model.Exception{},
		&migrations.DataMigration{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("failed to run data migrations: %w", err)
	}

	logrus.Info("[database] migrations completed")
	return nil
}
