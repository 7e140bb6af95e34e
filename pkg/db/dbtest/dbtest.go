// Package dbtest opens throwaway SQLite databases with the full schema for
// repository and service tests.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shareit/shareit-backend/pkg/db/models"
)

// New returns an isolated in-memory database migrated with every model.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// SeedUser inserts a user with the given name and a derived email.
func SeedUser(t testing.TB, db *gorm.DB, name string) models.User {
	t.Helper()
	user := models.User{Name: name, Email: name + "@example.com"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// SeedItem inserts an item owned by ownerID.
func SeedItem(t testing.TB, db *gorm.DB, ownerID int64, name string, available bool) models.Item {
	t.Helper()
	item := models.Item{Name: name, Description: name + " description", Available: available, OwnerID: ownerID}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

// SeedBooking inserts a booking as-is, bypassing business rules.
func SeedBooking(t testing.TB, db *gorm.DB, booking models.Booking) models.Booking {
	t.Helper()
	if err := db.Create(&booking).Error; err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return booking
}

// OutboxEvents returns the outbox rows of one aggregate in emission order.
func OutboxEvents(t testing.TB, db *gorm.DB, aggregateType string, aggregateID int64) []models.OutboxEvent {
	t.Helper()
	var rows []models.OutboxEvent
	err := db.Where("aggregate_type = ? AND aggregate_id = ?", aggregateType, aggregateID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		t.Fatalf("list outbox events: %v", err)
	}
	return rows
}
