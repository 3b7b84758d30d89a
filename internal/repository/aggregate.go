package repository

import (
	"context"

	"threadline/internal/models"

	"gorm.io/gorm"
)

// Counts are selected as correlated subqueries in the same statement that
// loads the rows. Viewer flags use EXISTS bound to the viewer; anonymous
// viewers get literal false so the scanned shape never changes.

const threadCountsSelect = "threads.*, " +
	"(SELECT COUNT(*) FROM likes WHERE likes.thread_id = threads.id) AS likes_count, " +
	"(SELECT COUNT(*) FROM replies WHERE replies.thread_id = threads.id) AS replies_count, " +
	"(SELECT COUNT(*) FROM threads AS reposts WHERE reposts.original_thread_id = threads.id AND reposts.is_repost = TRUE) AS reposts_count"

const threadViewerSelect = ", " +
	"EXISTS(SELECT 1 FROM likes WHERE likes.thread_id = threads.id AND likes.user_id = ?) AS is_liked, " +
	"EXISTS(SELECT 1 FROM threads AS mine WHERE mine.original_thread_id = threads.id AND mine.is_repost = TRUE AND mine.author_id = ?) AS is_reposted"

const replyCountsSelect = "replies.*, " +
	"(SELECT COUNT(*) FROM likes WHERE likes.reply_id = replies.id) AS likes_count"

const replyViewerSelect = ", EXISTS(SELECT 1 FROM likes WHERE likes.reply_id = replies.id AND likes.user_id = ?) AS is_liked"

const userCountsSelect = "users.*, " +
	"(SELECT COUNT(*) FROM follows WHERE follows.followed_id = users.id) AS followers_count, " +
	"(SELECT COUNT(*) FROM follows WHERE follows.follower_id = users.id) AS following_count"

const userViewerSelect = ", EXISTS(SELECT 1 FROM follows WHERE follows.followed_id = users.id AND follows.follower_id = ?) AS is_following"

func threadAggregates(db *gorm.DB, viewerID uint) *gorm.DB {
	if viewerID != 0 {
		return db.Select(threadCountsSelect+threadViewerSelect, viewerID, viewerID)
	}
	return db.Select(threadCountsSelect + ", false AS is_liked, false AS is_reposted")
}

func replyColumns(viewerID uint) (string, []any) {
	if viewerID != 0 {
		return replyCountsSelect + replyViewerSelect, []any{viewerID}
	}
	return replyCountsSelect + ", false AS is_liked", nil
}

func replyAggregates(db *gorm.DB, viewerID uint) *gorm.DB {
	cols, args := replyColumns(viewerID)
	return db.Select(cols, args...)
}

func userAggregates(db *gorm.DB, viewerID uint) *gorm.DB {
	if viewerID != 0 {
		return db.Select(userCountsSelect+userViewerSelect, viewerID)
	}
	return db.Select(userCountsSelect + ", false AS is_following")
}

// attachAuthors loads the authors of replies with one query.
func attachAuthors(ctx context.Context, db *gorm.DB, replies []*models.Reply) error {
	if len(replies) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(replies))
	seen := make(map[uint]struct{}, len(replies))
	for _, r := range replies {
		if _, ok := seen[r.AuthorID]; ok {
			continue
		}
		seen[r.AuthorID] = struct{}{}
		ids = append(ids, r.AuthorID)
	}

	var users []*models.User
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return err
	}
	byID := make(map[uint]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, r := range replies {
		r.Author = byID[r.AuthorID]
	}
	return nil
}
