package repository

import (
	"context"
	"errors"
	"strings"

	"threadline/internal/cache"
	"threadline/internal/models"
	"threadline/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetDetail(ctx context.Context, id, viewerID uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetPasswordHash(ctx context.Context, id uint) (string, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, search string, viewerID uint, page Page) ([]*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID returns the plain user row. It is cached, so it carries no counts.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetDetail returns the user with follower counts and the viewer's is_following flag.
func (r *userRepository) GetDetail(ctx context.Context, id, viewerID uint) (*models.User, error) {
	var user models.User
	err := userAggregates(readDB(r.db).WithContext(ctx).Model(&models.User{}), viewerID).
		Where("users.id = ?", id).
		Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByEmail returns nil, nil when no user has email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

// GetByUsername returns nil, nil when no user has username. The password
// hash is loaded so the caller can verify credentials.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetPasswordHash(ctx context.Context, id uint) (string, error) {
	var hash string
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Pluck("password", &hash).Error
	if err != nil {
		return "", models.NewInternalError(err)
	}
	if hash == "" {
		return "", models.NewNotFoundError("User", id)
	}
	return hash, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translateUserWriteError(err)
	}
	return nil
}

// Update writes the editable profile columns.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	res := r.db.WithContext(ctx).Model(&models.User{ID: user.ID}).
		Select("username", "email", "bio").
		Updates(map[string]any{"username": user.Username, "email": user.Email, "bio": user.Bio})
	if res.Error != nil {
		return translateUserWriteError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", user.ID)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{ID: id}).Update("password", hash)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

// Delete hard-deletes the user; foreign keys cascade to their content and edges.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	cache.InvalidateFollowing(ctx, id)
	return nil
}

// List searches username and bio case-insensitively, ordered by id.
func (r *userRepository) List(ctx context.Context, search string, viewerID uint, page Page) ([]*models.User, error) {
	defer observability.TrackQuery("list", "users")()

	q := userAggregates(readDB(r.db).WithContext(ctx).Model(&models.User{}), viewerID)
	if s := strings.TrimSpace(search); s != "" {
		like := containsPattern(s)
		q = q.Where(`LOWER(users.username) LIKE ? ESCAPE '\' OR LOWER(users.bio) LIKE ? ESCAPE '\'`, like, like)
	}

	var users []*models.User
	if err := page.apply(q.Order("users.id ASC")).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func translateUserWriteError(err error) error {
	if !isUniqueViolation(err) {
		return models.NewInternalError(err)
	}
	switch uniqueViolationOn(err, "username", "email") {
	case "username":
		return models.NewConstraintViolation("A user with that username already exists.", err).WithField("username")
	case "email":
		return models.NewConstraintViolation("A user with that email already exists.", err).WithField("email")
	default:
		return models.NewConstraintViolation("User already exists", err)
	}
}
