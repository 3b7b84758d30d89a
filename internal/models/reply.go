package models

import (
	"encoding/json"
	"time"
)

// Reply is a comment on a thread, ordered oldest first under its thread.
type Reply struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ThreadID  uint      `gorm:"not null;index:idx_replies_thread_created,priority:1" json:"thread"`
	Thread    *Thread   `gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE" json:"-"`
	AuthorID  uint      `gorm:"not null;index" json:"-"`
	Author    *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	Content   string    `gorm:"size:500;not null" json:"content"`
	CreatedAt time.Time `gorm:"index:idx_replies_thread_created,priority:2" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	LikesCount int64 `gorm:"->;-:migration" json:"likes_count"`
	IsLiked    bool  `gorm:"->;-:migration" json:"is_liked"`
}

// TableName specifies the table name for GORM
func (Reply) TableName() string {
	return "replies"
}

// MarshalJSON renders the author as a UserBrief.
func (r Reply) MarshalJSON() ([]byte, error) {
	type alias Reply
	return json.Marshal(struct {
		alias
		Author *UserBrief `json:"author"`
	}{alias: alias(r), Author: r.Author.Brief()})
}
