package models

// Subscription is a directed follow edge. The composite unique index is the
// real guard against two concurrent follows creating a duplicate edge; the
// service-level check only exists to produce a friendly error first.
type Subscription struct {
	BaseModel

	FollowerID uint     `json:"follower_id" gorm:"uniqueIndex:idx_subscriptions_follower_followed"`
	FollowedID uint     `json:"followed_id" gorm:"uniqueIndex:idx_subscriptions_follower_followed"`
	Follower   *Account `json:"follower,omitempty" gorm:"foreignKey:FollowerID"`
	Followed   *Account `json:"followed,omitempty" gorm:"foreignKey:FollowedID"`
}
