package repository

import (
	"context"

	"threadline/internal/cache"
	"threadline/internal/models"

	"gorm.io/gorm"
)

// FollowRepository persists follow edges. Duplicate and missing edges are
// detected by the write itself, never by a prior read.
type FollowRepository interface {
	Create(ctx context.Context, followerID, followedID uint) (*models.Follow, error)
	Delete(ctx context.Context, followerID, followedID uint) error
	Exists(ctx context.Context, followerID, followedID uint) (bool, error)
	FollowingIDs(ctx context.Context, userID uint) ([]uint, error)
	ListFollowers(ctx context.Context, userID uint, page Page) ([]models.UserBrief, error)
	ListFollowing(ctx context.Context, userID uint, page Page) ([]models.UserBrief, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Create(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
	follow := &models.Follow{FollowerID: followerID, FollowedID: followedID}
	if err := r.db.WithContext(ctx).Create(follow).Error; err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, models.NewAlreadyFollowingError()
		case isForeignKeyViolation(err):
			return nil, models.NewNotFoundError("User", followedID)
		default:
			return nil, models.NewInternalError(err)
		}
	}
	r.invalidate(ctx, followerID, followedID)
	return follow, nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followedID uint) error {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFollowingError()
	}
	r.invalidate(ctx, followerID, followedID)
	return nil
}

func (r *followRepository) invalidate(ctx context.Context, followerID, followedID uint) {
	cache.InvalidateFollowing(ctx, followerID)
	cache.InvalidateUser(ctx, followerID)
	cache.InvalidateUser(ctx, followedID)
}

func (r *followRepository) Exists(ctx context.Context, followerID, followedID uint) (bool, error) {
	var count int64
	err := readDB(r.db).WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	err := readDB(r.db).WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Order("id ASC").
		Pluck("followed_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// ListFollowers returns the users following userID, oldest edge first.
func (r *followRepository) ListFollowers(ctx context.Context, userID uint, page Page) ([]models.UserBrief, error) {
	return r.listBriefs(ctx, "follows.follower_id", "follows.followed_id", userID, page)
}

// ListFollowing returns the users userID follows, oldest edge first.
func (r *followRepository) ListFollowing(ctx context.Context, userID uint, page Page) ([]models.UserBrief, error) {
	return r.listBriefs(ctx, "follows.followed_id", "follows.follower_id", userID, page)
}

func (r *followRepository) listBriefs(ctx context.Context, joinCol, filterCol string, userID uint, page Page) ([]models.UserBrief, error) {
	briefs := []models.UserBrief{}
	q := readDB(r.db).WithContext(ctx).Table("follows").
		Select("users.id, users.username, users.verified").
		Joins("JOIN users ON users.id = "+joinCol).
		Where(filterCol+" = ?", userID).
		Order("follows.id ASC")
	if err := page.apply(q).Scan(&briefs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return briefs, nil
}
