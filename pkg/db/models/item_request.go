package models

import "time"

// ItemRequest is a user's wish for an item nobody has listed yet.
type ItemRequest struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Description string    `gorm:"column:description;not null"`
	RequestorID int64     `gorm:"column:requestor_id;not null;index"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

func (ItemRequest) TableName() string {
	return "item_requests"
}
