package repository

import (
	"context"

	"threadline/internal/models"

	"gorm.io/gorm"
)

// LikeRepository persists likes. The unique indexes on (user, thread) and
// (user, reply) decide duplicates, so concurrent likes race safely.
type LikeRepository interface {
	Create(ctx context.Context, userID uint, target models.LikeTarget) (*models.Like, error)
	Delete(ctx context.Context, userID uint, target models.LikeTarget) error
	Exists(ctx context.Context, userID uint, target models.LikeTarget) (bool, error)
	Count(ctx context.Context, target models.LikeTarget) (int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Create(ctx context.Context, userID uint, target models.LikeTarget) (*models.Like, error) {
	like := &models.Like{UserID: userID}
	target.Apply(like)

	if err := r.db.WithContext(ctx).Omit("User", "Thread", "Reply").Create(like).Error; err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, models.NewAlreadyLikedError(target)
		case isForeignKeyViolation(err):
			return nil, models.NewNotFoundError(target.Kind.Label(), target.ID)
		default:
			return nil, models.NewInternalError(err)
		}
	}
	return like, nil
}

func (r *likeRepository) Delete(ctx context.Context, userID uint, target models.LikeTarget) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND "+target.Column()+" = ?", userID, target.ID).
		Delete(&models.Like{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotLikedError(target)
	}
	return nil
}

func (r *likeRepository) Exists(ctx context.Context, userID uint, target models.LikeTarget) (bool, error) {
	var count int64
	err := readDB(r.db).WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND "+target.Column()+" = ?", userID, target.ID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *likeRepository) Count(ctx context.Context, target models.LikeTarget) (int64, error) {
	var count int64
	err := readDB(r.db).WithContext(ctx).Model(&models.Like{}).
		Where(target.Column()+" = ?", target.ID).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
