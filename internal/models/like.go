package models

import (
	"encoding/json"
	"time"
)

// Like records one user liking exactly one thread or reply. The two
// nullable target columns are each unique per user, and a check constraint
// keeps exactly one of them set.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_thread,priority:1;uniqueIndex:idx_likes_user_reply,priority:1" json:"user"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ThreadID  *uint     `gorm:"uniqueIndex:idx_likes_user_thread,priority:2;index:idx_likes_thread;check:chk_likes_single_target,(thread_id IS NULL) <> (reply_id IS NULL)" json:"thread"`
	Thread    *Thread   `gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE" json:"-"`
	ReplyID   *uint     `gorm:"uniqueIndex:idx_likes_user_reply,priority:2;index:idx_likes_reply" json:"reply"`
	Reply     *Reply    `gorm:"foreignKey:ReplyID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Like) TableName() string {
	return "likes"
}

// Target returns the domain view of the like's target columns.
func (l *Like) Target() (LikeTarget, error) {
	return NewLikeTarget(l.ThreadID, l.ReplyID)
}

// LikeTargetKind discriminates LikeTarget.
type LikeTargetKind string

const (
	LikeTargetThread LikeTargetKind = "thread"
	LikeTargetReply  LikeTargetKind = "reply"
)

// Label is the capitalized kind used in user-facing messages.
func (k LikeTargetKind) Label() string {
	switch k {
	case LikeTargetThread:
		return "Thread"
	case LikeTargetReply:
		return "Reply"
	default:
		return "Target"
	}
}

// LikeTarget is either a thread or a reply, never both.
type LikeTarget struct {
	Kind LikeTargetKind
	ID   uint
}

func ThreadTarget(id uint) LikeTarget { return LikeTarget{Kind: LikeTargetThread, ID: id} }

func ReplyTarget(id uint) LikeTarget { return LikeTarget{Kind: LikeTargetReply, ID: id} }

// NewLikeTarget builds a target from optional thread and reply ids.
// Exactly one must be set.
func NewLikeTarget(threadID, replyID *uint) (LikeTarget, error) {
	switch {
	case threadID != nil && replyID == nil:
		return ThreadTarget(*threadID), nil
	case replyID != nil && threadID == nil:
		return ReplyTarget(*replyID), nil
	default:
		return LikeTarget{}, NewAmbiguousTargetError()
	}
}

// Column is the likes column holding this target's id.
func (t LikeTarget) Column() string {
	if t.Kind == LikeTargetReply {
		return "reply_id"
	}
	return "thread_id"
}

// Apply sets the matching target column on l and clears the other.
func (t LikeTarget) Apply(l *Like) {
	id := t.ID
	switch t.Kind {
	case LikeTargetReply:
		l.ReplyID, l.ThreadID = &id, nil
	default:
		l.ThreadID, l.ReplyID = &id, nil
	}
}

// MarshalJSON renders the target as {"kind": ..., "id": ...}.
func (t LikeTarget) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind LikeTargetKind `json:"kind"`
		ID   uint           `json:"id"`
	}{t.Kind, t.ID})
}
