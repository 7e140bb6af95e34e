package models

import "time"

type Comment struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Text      string    `gorm:"column:text;not null"`
	ItemID    int64     `gorm:"column:item_id;not null;index"`
	AuthorID  int64     `gorm:"column:author_id;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`

	Author *User `gorm:"foreignKey:AuthorID"`
}
