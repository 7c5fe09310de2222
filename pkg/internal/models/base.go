package models

import "time"

// BaseModel uses hard deletes on purpose: removing a ticket must take its
// review and image with it, not leave soft-deleted rows behind a unique index.
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
