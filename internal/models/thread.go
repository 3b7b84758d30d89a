package models

import (
	"encoding/json"
	"time"
)

const MaxContentLen = 500

// RecentRepliesPerThread bounds the reply preview attached to list items.
const RecentRepliesPerThread = 3

// Thread is a top-level post. A repost is a Thread with IsRepost set and
// OriginalThreadID pointing at the reposted thread; deleting the original
// nulls the pointer rather than removing the repost.
type Thread struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	AuthorID         uint      `gorm:"not null;index:idx_threads_author_created,priority:1" json:"-"`
	Author           *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	Content          string    `gorm:"size:500;not null;default:''" json:"content"`
	IsRepost         bool      `gorm:"not null;default:false" json:"is_repost"`
	OriginalThreadID *uint     `gorm:"index" json:"original_thread"`
	OriginalThread   *Thread   `gorm:"foreignKey:OriginalThreadID;constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt        time.Time `gorm:"index:idx_threads_author_created,priority:2;index:idx_threads_created_at" json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	LikesCount   int64 `gorm:"->;-:migration" json:"likes_count"`
	RepliesCount int64 `gorm:"->;-:migration" json:"replies_count"`
	RepostsCount int64 `gorm:"->;-:migration" json:"reposts_count"`
	IsLiked      bool  `gorm:"->;-:migration" json:"is_liked"`
	IsReposted   bool  `gorm:"->;-:migration" json:"is_reposted"`

	RecentReplies []*Reply `gorm:"-" json:"recent_replies"`
	// Replies is only populated on thread detail.
	Replies []*Reply `gorm:"-" json:"replies,omitempty"`
}

// TableName specifies the table name for GORM
func (Thread) TableName() string {
	return "threads"
}

// MarshalJSON renders the author as a UserBrief.
func (t Thread) MarshalJSON() ([]byte, error) {
	type alias Thread
	return json.Marshal(struct {
		alias
		Author *UserBrief `json:"author"`
	}{alias: alias(t), Author: t.Author.Brief()})
}
