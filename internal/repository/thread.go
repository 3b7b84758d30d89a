package repository

import (
	"context"
	"errors"
	"strings"

	"threadline/internal/models"
	"threadline/internal/observability"

	"gorm.io/gorm"
)

// ThreadFilter narrows thread listings. Zero values do not filter.
type ThreadFilter struct {
	// AuthorIDs restricts to threads by any of these authors. A non-nil
	// empty slice matches nothing.
	AuthorIDs []uint
	AuthorID  uint
	Query     string
}

// ThreadRepository defines persistence operations for threads.
type ThreadRepository interface {
	Create(ctx context.Context, thread *models.Thread) error
	GetByID(ctx context.Context, id uint) (*models.Thread, error)
	GetDetail(ctx context.Context, id, viewerID uint) (*models.Thread, error)
	List(ctx context.Context, filter ThreadFilter, viewerID uint, page Page) ([]*models.Thread, error)
	UpdateContent(ctx context.Context, id uint, content string) error
	Delete(ctx context.Context, id uint) error
}

type threadRepository struct {
	db *gorm.DB
}

func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &threadRepository{db: db}
}

func (r *threadRepository) Create(ctx context.Context, thread *models.Thread) error {
	if err := r.db.WithContext(ctx).Omit("Author", "OriginalThread").Create(thread).Error; err != nil {
		if isForeignKeyViolation(err) {
			if thread.OriginalThreadID != nil {
				return models.NewNotFoundError("Thread", *thread.OriginalThreadID)
			}
			return models.NewNotFoundError("User", thread.AuthorID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// GetByID returns the bare row, used for ownership checks.
func (r *threadRepository) GetByID(ctx context.Context, id uint) (*models.Thread, error) {
	var thread models.Thread
	if err := r.db.WithContext(ctx).Take(&thread, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Thread", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &thread, nil
}

func (r *threadRepository) GetDetail(ctx context.Context, id, viewerID uint) (*models.Thread, error) {
	var thread models.Thread
	err := threadAggregates(readDB(r.db).WithContext(ctx).Model(&models.Thread{}), viewerID).
		Preload("Author").
		Where("threads.id = ?", id).
		Take(&thread).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Thread", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &thread, nil
}

// List returns aggregated threads newest first.
func (r *threadRepository) List(ctx context.Context, filter ThreadFilter, viewerID uint, page Page) ([]*models.Thread, error) {
	threads := []*models.Thread{}
	if filter.AuthorIDs != nil && len(filter.AuthorIDs) == 0 {
		return threads, nil
	}
	defer observability.TrackQuery("list", "threads")()

	q := threadAggregates(readDB(r.db).WithContext(ctx).Model(&models.Thread{}), viewerID).
		Preload("Author")
	if len(filter.AuthorIDs) > 0 {
		q = q.Where("threads.author_id IN ?", filter.AuthorIDs)
	}
	if filter.AuthorID != 0 {
		q = q.Where("threads.author_id = ?", filter.AuthorID)
	}
	if s := strings.TrimSpace(filter.Query); s != "" {
		q = q.Where(`LOWER(threads.content) LIKE ? ESCAPE '\'`, containsPattern(s))
	}

	q = q.Order("threads.created_at DESC").Order("threads.id DESC")
	if err := page.apply(q).Find(&threads).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return threads, nil
}

func (r *threadRepository) UpdateContent(ctx context.Context, id uint, content string) error {
	res := r.db.WithContext(ctx).Model(&models.Thread{ID: id}).Update("content", content)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Thread", id)
	}
	return nil
}

// Delete removes the thread; its replies and likes cascade and reposts of it
// keep existing with original_thread set to NULL.
func (r *threadRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Thread{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Thread", id)
	}
	return nil
}
