package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sujalbistaa/cleancook/internal/models"
)

// Open returns a GORM connection for a DATABASE_URL of the form
// "postgres://..." / "postgresql://..." or "sqlite://<path>".
func Open(dbURL string, log logrus.FieldLogger) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch {
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		// pgx understands the URL form directly.
		dialector = postgres.Open(dbURL)
		log.Info("Connecting to PostgreSQL database...")
	case strings.HasPrefix(dbURL, "sqlite://"):
		dsn := strings.TrimPrefix(dbURL, "sqlite://")
		dialector = sqlite.Open(dsn)
		log.WithField("dsn", dsn).Info("Connecting to SQLite database")
	default:
		return nil, fmt.Errorf("invalid DATABASE_URL prefix %q: must start with 'postgres://' or 'sqlite://'", dbURL)
	}

	return open(dialector)
}

func open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	return db, nil
}

// Migrate creates or updates the stories, story_likes, threads and comments tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}
