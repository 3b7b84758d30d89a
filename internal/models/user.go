// Package models contains data structures for the application's domain models.
package models

import "time"

const (
	MaxUsernameLen = 150
	MaxBioLen      = 150
)

// User represents an account. Follower and following counts are never
// stored; they are selected by the aggregation scopes in the repository.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email      string    `gorm:"size:254;uniqueIndex;not null" json:"-"`
	Password   string    `gorm:"not null" json:"-"`
	Bio        string    `gorm:"size:150;not null;default:''" json:"bio"`
	Verified   bool      `gorm:"not null;default:false" json:"verified"`
	DateJoined time.Time `gorm:"autoCreateTime" json:"date_joined"`
	UpdatedAt  time.Time `json:"updated_at"`

	FollowersCount int64 `gorm:"->;-:migration" json:"followers_count"`
	FollowingCount int64 `gorm:"->;-:migration" json:"following_count"`
	IsFollowing    bool  `gorm:"->;-:migration" json:"is_following"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// OwnProfile is the signed-in owner's view of their account. Email is
// never part of the public User representation.
type OwnProfile struct {
	*User
	Email string `json:"email"`
}

// OwnProfile returns u with its email exposed.
func (u *User) OwnProfile() OwnProfile {
	return OwnProfile{User: u, Email: u.Email}
}

// UserBrief is the compact author representation embedded in threads,
// replies and follower listings.
type UserBrief struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Verified bool   `json:"verified"`
}

// Brief returns the compact representation of u, or nil for a nil user.
func (u *User) Brief() *UserBrief {
	if u == nil {
		return nil
	}
	return &UserBrief{ID: u.ID, Username: u.Username, Verified: u.Verified}
}
