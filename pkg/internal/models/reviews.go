package models

// Review answers exactly one ticket. The unique index on TicketID enforces
// the one-to-one in the schema so concurrent answers to the same ticket
// cannot both land.
type Review struct {
	BaseModel

	Title   string `json:"title" gorm:"size:128"`
	Rating  int    `json:"rating"`
	Content string `json:"content" gorm:"size:2048"`

	AccountID uint     `json:"account_id"`
	Account   *Account `json:"account,omitempty" gorm:"foreignKey:AccountID"`

	TicketID uint    `json:"ticket_id" gorm:"uniqueIndex"`
	Ticket   *Ticket `json:"ticket,omitempty" gorm:"foreignKey:TicketID"`
}
