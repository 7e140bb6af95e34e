package models

import (
	"time"

	"github.com/shareit/shareit-backend/pkg/enums"
)

// Booking reserves an item for [StartDate, EndDate).
type Booking struct {
	ID        int64               `gorm:"column:id;primaryKey;autoIncrement"`
	ItemID    int64               `gorm:"column:item_id;not null;index"`
	BookerID  int64               `gorm:"column:booker_id;not null;index"`
	StartDate time.Time           `gorm:"column:start_date;not null"`
	EndDate   time.Time           `gorm:"column:end_date;not null"`
	Status    enums.BookingStatus `gorm:"column:status;type:varchar(16);not null"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Item   *Item `gorm:"foreignKey:ItemID"`
	Booker *User `gorm:"foreignKey:BookerID"`
}
