package models

import "time"

// Follow is a directed edge: Follower follows Followed. Each ordered pair
// appears at most once and a user cannot follow themselves.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follows_pair,priority:1;check:chk_follows_not_self,follower_id <> followed_id" json:"follower"`
	Follower   *User     `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	FollowedID uint      `gorm:"not null;uniqueIndex:idx_follows_pair,priority:2;index:idx_follows_followed" json:"followed"`
	Followed   *User     `gorm:"foreignKey:FollowedID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}
