package repository

import (
	"context"
	"errors"
	"fmt"

	"threadline/internal/models"
	"threadline/internal/observability"

	"gorm.io/gorm"
)

// ReplyFilter narrows reply listings. A zero ThreadID lists all replies.
type ReplyFilter struct {
	ThreadID uint
}

// ReplyRepository defines persistence operations for replies.
type ReplyRepository interface {
	Create(ctx context.Context, reply *models.Reply) error
	GetByID(ctx context.Context, id uint) (*models.Reply, error)
	GetDetail(ctx context.Context, id, viewerID uint) (*models.Reply, error)
	List(ctx context.Context, filter ReplyFilter, viewerID uint, page Page) ([]*models.Reply, error)
	RecentByThreads(ctx context.Context, threadIDs []uint, perThread int, viewerID uint) (map[uint][]*models.Reply, error)
	UpdateContent(ctx context.Context, id uint, content string) error
	Delete(ctx context.Context, id uint) error
}

type replyRepository struct {
	db *gorm.DB
}

func NewReplyRepository(db *gorm.DB) ReplyRepository {
	return &replyRepository{db: db}
}

func (r *replyRepository) Create(ctx context.Context, reply *models.Reply) error {
	if err := r.db.WithContext(ctx).Omit("Author", "Thread").Create(reply).Error; err != nil {
		if isForeignKeyViolation(err) {
			return models.NewNotFoundError("Thread", reply.ThreadID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *replyRepository) GetByID(ctx context.Context, id uint) (*models.Reply, error) {
	var reply models.Reply
	if err := r.db.WithContext(ctx).Take(&reply, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Reply", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &reply, nil
}

func (r *replyRepository) GetDetail(ctx context.Context, id, viewerID uint) (*models.Reply, error) {
	var reply models.Reply
	err := replyAggregates(readDB(r.db).WithContext(ctx).Model(&models.Reply{}), viewerID).
		Preload("Author").
		Where("replies.id = ?", id).
		Take(&reply).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Reply", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &reply, nil
}

// List returns aggregated replies oldest first.
func (r *replyRepository) List(ctx context.Context, filter ReplyFilter, viewerID uint, page Page) ([]*models.Reply, error) {
	defer observability.TrackQuery("list", "replies")()

	q := replyAggregates(readDB(r.db).WithContext(ctx).Model(&models.Reply{}), viewerID).Preload("Author")
	if filter.ThreadID != 0 {
		q = q.Where("replies.thread_id = ?", filter.ThreadID)
	}
	q = q.Order("replies.created_at ASC").Order("replies.id ASC")

	replies := []*models.Reply{}
	if err := page.apply(q).Find(&replies).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return replies, nil
}

const recentRepliesSQL = `SELECT * FROM (
	SELECT %s,
		ROW_NUMBER() OVER (PARTITION BY replies.thread_id ORDER BY replies.created_at DESC, replies.id DESC) AS preview_rank
	FROM replies
	WHERE replies.thread_id IN ?
) AS ranked
WHERE ranked.preview_rank <= ?
ORDER BY ranked.thread_id, ranked.preview_rank`

// RecentByThreads returns up to perThread newest replies for each thread id
// with one windowed statement plus one author lookup.
func (r *replyRepository) RecentByThreads(ctx context.Context, threadIDs []uint, perThread int, viewerID uint) (map[uint][]*models.Reply, error) {
	out := make(map[uint][]*models.Reply, len(threadIDs))
	if len(threadIDs) == 0 || perThread <= 0 {
		return out, nil
	}
	defer observability.TrackQuery("recent_by_threads", "replies")()

	cols, args := replyColumns(viewerID)
	args = append(args, threadIDs, perThread)

	db := readDB(r.db)
	var replies []*models.Reply
	if err := db.WithContext(ctx).Raw(fmt.Sprintf(recentRepliesSQL, cols), args...).Scan(&replies).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := attachAuthors(ctx, db, replies); err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, reply := range replies {
		out[reply.ThreadID] = append(out[reply.ThreadID], reply)
	}
	return out, nil
}

func (r *replyRepository) UpdateContent(ctx context.Context, id uint, content string) error {
	res := r.db.WithContext(ctx).Model(&models.Reply{ID: id}).Update("content", content)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Reply", id)
	}
	return nil
}

func (r *replyRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Reply{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Reply", id)
	}
	return nil
}
