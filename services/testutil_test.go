package services

import (
	"fmt"
	"io"
	"sync/atomic"
	"testing"

	"nutriplan-backend/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBSeq atomic.Int64

// newTestDB opens a fresh in-memory SQLite database with the full schema.
// Each test gets its own named shared-cache DB so gorm's connection pool
// sees one database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Enterprise{},
		&models.OrganizationUser{},
		&models.UserSettings{},
		&models.UserSettingsHistory{},
		&models.MealPlan{},
		&models.Alert{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.Out = io.Discard
	return logger
}
