package db

import (
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/gormlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the SQLite database at dbPath and migrates it to the
// current schema.
func Open(dbPath string) (*gorm.DB, error) {
	newLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,     // Slow SQL threshold
			LogLevel:                  gormlogger.Warn, // Log level (Warn, Error, Info)
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true, // Catalog batches are large; keep the params out of the log
			Colorful:                  true,
		},
	)

	// Foreign keys are off by default in SQLite. The busy timeout makes an
	// overlapping refresh wait for the write lock instead of failing fast.
	dsn := "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)"

	gdb, err := gorm.Open(gormlite.Open(dsn), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	return gdb, nil
}

// Migrate brings the schema up to the level described by Schema.
func Migrate(gdb *gorm.DB) error {
	err := gdb.AutoMigrate(
		&Mod{},
		&Category{},
		&ModCategory{},
		&User{},
		&RatingType{},
		&Rating{},
		&ModImport{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}
	if err := seedRatingTypes(gdb); err != nil {
		return fmt.Errorf("failed to seed rating types: %w", err)
	}
	return nil
}
