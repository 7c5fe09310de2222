package models

// Account mirrors the identity owned by the gateway. Lifecycle (signup,
// password, sessions) lives there; we only keep what the feed needs.
type Account struct {
	BaseModel

	Name string `json:"name" gorm:"uniqueIndex"`
	Nick string `json:"nick"`
	Bio  string `json:"bio"`

	Tickets []Ticket `json:"tickets,omitempty" gorm:"foreignKey:AccountID"`
	Reviews []Review `json:"reviews,omitempty" gorm:"foreignKey:AccountID"`
}
