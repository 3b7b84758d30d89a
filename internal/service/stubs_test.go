package service

import (
	"context"
	"errors"
	"testing"

	"threadline/internal/models"
	"threadline/internal/repository"

	"github.com/stretchr/testify/require"
)

type userRepoStub struct {
	getByIDFn         func(context.Context, uint) (*models.User, error)
	getDetailFn       func(context.Context, uint, uint) (*models.User, error)
	getByEmailFn      func(context.Context, string) (*models.User, error)
	getByUsernameFn   func(context.Context, string) (*models.User, error)
	getPasswordHashFn func(context.Context, uint) (string, error)
	createFn          func(context.Context, *models.User) error
	updateFn          func(context.Context, *models.User) error
	updatePasswordFn  func(context.Context, uint, string) error
	deleteFn          func(context.Context, uint) error
	listFn            func(context.Context, string, uint, repository.Page) ([]*models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetDetail(ctx context.Context, id, viewerID uint) (*models.User, error) {
	return s.getDetailFn(ctx, id, viewerID)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetPasswordHash(ctx context.Context, id uint) (string, error) {
	return s.getPasswordHashFn(ctx, id)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return s.updatePasswordFn(ctx, id, hash)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, search string, viewerID uint, page repository.Page) ([]*models.User, error) {
	return s.listFn(ctx, search, viewerID, page)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:         func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getDetailFn:       func(_ context.Context, id, _ uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:      func(context.Context, string) (*models.User, error) { return nil, nil },
		getByUsernameFn:   func(context.Context, string) (*models.User, error) { return nil, nil },
		getPasswordHashFn: func(context.Context, uint) (string, error) { return "", nil },
		createFn:          func(context.Context, *models.User) error { return nil },
		updateFn:          func(context.Context, *models.User) error { return nil },
		updatePasswordFn:  func(context.Context, uint, string) error { return nil },
		deleteFn:          func(context.Context, uint) error { return nil },
		listFn:            func(context.Context, string, uint, repository.Page) ([]*models.User, error) { return nil, nil },
	}
}

type followRepoStub struct {
	createFn        func(context.Context, uint, uint) (*models.Follow, error)
	deleteFn        func(context.Context, uint, uint) error
	existsFn        func(context.Context, uint, uint) (bool, error)
	followingIDsFn  func(context.Context, uint) ([]uint, error)
	listFollowersFn func(context.Context, uint, repository.Page) ([]models.UserBrief, error)
	listFollowingFn func(context.Context, uint, repository.Page) ([]models.UserBrief, error)
}

func (s *followRepoStub) Create(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
	return s.createFn(ctx, followerID, followedID)
}
func (s *followRepoStub) Delete(ctx context.Context, followerID, followedID uint) error {
	return s.deleteFn(ctx, followerID, followedID)
}
func (s *followRepoStub) Exists(ctx context.Context, followerID, followedID uint) (bool, error) {
	return s.existsFn(ctx, followerID, followedID)
}
func (s *followRepoStub) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.followingIDsFn(ctx, userID)
}
func (s *followRepoStub) ListFollowers(ctx context.Context, userID uint, page repository.Page) ([]models.UserBrief, error) {
	return s.listFollowersFn(ctx, userID, page)
}
func (s *followRepoStub) ListFollowing(ctx context.Context, userID uint, page repository.Page) ([]models.UserBrief, error) {
	return s.listFollowingFn(ctx, userID, page)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		createFn: func(_ context.Context, followerID, followedID uint) (*models.Follow, error) {
			return &models.Follow{ID: 1, FollowerID: followerID, FollowedID: followedID}, nil
		},
		deleteFn:        func(context.Context, uint, uint) error { return nil },
		existsFn:        func(context.Context, uint, uint) (bool, error) { return false, nil },
		followingIDsFn:  func(context.Context, uint) ([]uint, error) { return nil, nil },
		listFollowersFn: func(context.Context, uint, repository.Page) ([]models.UserBrief, error) { return nil, nil },
		listFollowingFn: func(context.Context, uint, repository.Page) ([]models.UserBrief, error) { return nil, nil },
	}
}

type threadRepoStub struct {
	createFn        func(context.Context, *models.Thread) error
	getByIDFn       func(context.Context, uint) (*models.Thread, error)
	getDetailFn     func(context.Context, uint, uint) (*models.Thread, error)
	listFn          func(context.Context, repository.ThreadFilter, uint, repository.Page) ([]*models.Thread, error)
	updateContentFn func(context.Context, uint, string) error
	deleteFn        func(context.Context, uint) error
}

func (s *threadRepoStub) Create(ctx context.Context, thread *models.Thread) error {
	return s.createFn(ctx, thread)
}
func (s *threadRepoStub) GetByID(ctx context.Context, id uint) (*models.Thread, error) {
	return s.getByIDFn(ctx, id)
}
func (s *threadRepoStub) GetDetail(ctx context.Context, id, viewerID uint) (*models.Thread, error) {
	return s.getDetailFn(ctx, id, viewerID)
}
func (s *threadRepoStub) List(ctx context.Context, filter repository.ThreadFilter, viewerID uint, page repository.Page) ([]*models.Thread, error) {
	return s.listFn(ctx, filter, viewerID, page)
}
func (s *threadRepoStub) UpdateContent(ctx context.Context, id uint, content string) error {
	return s.updateContentFn(ctx, id, content)
}
func (s *threadRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopThreadRepo() *threadRepoStub {
	return &threadRepoStub{
		createFn:        func(_ context.Context, t *models.Thread) error { t.ID = 1; return nil },
		getByIDFn:       func(_ context.Context, id uint) (*models.Thread, error) { return &models.Thread{ID: id}, nil },
		getDetailFn:     func(_ context.Context, id, _ uint) (*models.Thread, error) { return &models.Thread{ID: id}, nil },
		listFn:          func(context.Context, repository.ThreadFilter, uint, repository.Page) ([]*models.Thread, error) { return nil, nil },
		updateContentFn: func(context.Context, uint, string) error { return nil },
		deleteFn:        func(context.Context, uint) error { return nil },
	}
}

type replyRepoStub struct {
	createFn          func(context.Context, *models.Reply) error
	getByIDFn         func(context.Context, uint) (*models.Reply, error)
	getDetailFn       func(context.Context, uint, uint) (*models.Reply, error)
	listFn            func(context.Context, repository.ReplyFilter, uint, repository.Page) ([]*models.Reply, error)
	recentByThreadsFn func(context.Context, []uint, int, uint) (map[uint][]*models.Reply, error)
	updateContentFn   func(context.Context, uint, string) error
	deleteFn          func(context.Context, uint) error
}

func (s *replyRepoStub) Create(ctx context.Context, reply *models.Reply) error {
	return s.createFn(ctx, reply)
}
func (s *replyRepoStub) GetByID(ctx context.Context, id uint) (*models.Reply, error) {
	return s.getByIDFn(ctx, id)
}
func (s *replyRepoStub) GetDetail(ctx context.Context, id, viewerID uint) (*models.Reply, error) {
	return s.getDetailFn(ctx, id, viewerID)
}
func (s *replyRepoStub) List(ctx context.Context, filter repository.ReplyFilter, viewerID uint, page repository.Page) ([]*models.Reply, error) {
	return s.listFn(ctx, filter, viewerID, page)
}
func (s *replyRepoStub) RecentByThreads(ctx context.Context, threadIDs []uint, perThread int, viewerID uint) (map[uint][]*models.Reply, error) {
	return s.recentByThreadsFn(ctx, threadIDs, perThread, viewerID)
}
func (s *replyRepoStub) UpdateContent(ctx context.Context, id uint, content string) error {
	return s.updateContentFn(ctx, id, content)
}
func (s *replyRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopReplyRepo() *replyRepoStub {
	return &replyRepoStub{
		createFn:    func(_ context.Context, r *models.Reply) error { r.ID = 1; return nil },
		getByIDFn:   func(_ context.Context, id uint) (*models.Reply, error) { return &models.Reply{ID: id}, nil },
		getDetailFn: func(_ context.Context, id, _ uint) (*models.Reply, error) { return &models.Reply{ID: id}, nil },
		listFn:      func(context.Context, repository.ReplyFilter, uint, repository.Page) ([]*models.Reply, error) { return nil, nil },
		recentByThreadsFn: func(context.Context, []uint, int, uint) (map[uint][]*models.Reply, error) {
			return map[uint][]*models.Reply{}, nil
		},
		updateContentFn: func(context.Context, uint, string) error { return nil },
		deleteFn:        func(context.Context, uint) error { return nil },
	}
}

type likeRepoStub struct {
	createFn func(context.Context, uint, models.LikeTarget) (*models.Like, error)
	deleteFn func(context.Context, uint, models.LikeTarget) error
	existsFn func(context.Context, uint, models.LikeTarget) (bool, error)
	countFn  func(context.Context, models.LikeTarget) (int64, error)
}

func (s *likeRepoStub) Create(ctx context.Context, userID uint, target models.LikeTarget) (*models.Like, error) {
	return s.createFn(ctx, userID, target)
}
func (s *likeRepoStub) Delete(ctx context.Context, userID uint, target models.LikeTarget) error {
	return s.deleteFn(ctx, userID, target)
}
func (s *likeRepoStub) Exists(ctx context.Context, userID uint, target models.LikeTarget) (bool, error) {
	return s.existsFn(ctx, userID, target)
}
func (s *likeRepoStub) Count(ctx context.Context, target models.LikeTarget) (int64, error) {
	return s.countFn(ctx, target)
}

func noopLikeRepo() *likeRepoStub {
	return &likeRepoStub{
		createFn: func(_ context.Context, userID uint, target models.LikeTarget) (*models.Like, error) {
			like := &models.Like{ID: 1, UserID: userID}
			target.Apply(like)
			return like, nil
		},
		deleteFn: func(context.Context, uint, models.LikeTarget) error { return nil },
		existsFn: func(context.Context, uint, models.LikeTarget) (bool, error) { return false, nil },
		countFn:  func(context.Context, models.LikeTarget) (int64, error) { return 0, nil },
	}
}

func assertAppCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %#v", err)
	require.Equal(t, code, appErr.Code, appErr.Message)
}
