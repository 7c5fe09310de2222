package models

import "gorm.io/datatypes"

// Ticket is a request for a book review. A ticket carries at most one review;
// the one-to-one lives on Review.TicketID.
type Ticket struct {
	BaseModel

	Title       string  `json:"title" gorm:"size:128"`
	Description string  `json:"description" gorm:"size:2048"`
	Image       *string `json:"image"`
	// Metadata of the uploaded image before normalization (original
	// filename, mime type, byte size).
	ImageMeta datatypes.JSONMap `json:"image_meta,omitempty"`

	AccountID uint     `json:"account_id"`
	Account   *Account `json:"account,omitempty" gorm:"foreignKey:AccountID"`

	Review *Review `json:"review,omitempty" gorm:"foreignKey:TicketID"`
}
