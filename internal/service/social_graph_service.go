package service

import (
	"context"

	"threadline/internal/cache"
	"threadline/internal/models"
	"threadline/internal/observability"
	"threadline/internal/repository"
)

// SocialGraphService manages follow edges between users.
type SocialGraphService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
}

func NewSocialGraphService(follows repository.FollowRepository, users repository.UserRepository) *SocialGraphService {
	return &SocialGraphService{follows: follows, users: users}
}

// Follow creates the edge actor -> targetID. A duplicate edge is reported
// by the unique index as ALREADY_FOLLOWING.
func (s *SocialGraphService) Follow(ctx context.Context, actor models.Actor, targetID uint) (*models.Follow, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	if actor.UserID == targetID {
		return nil, models.NewSelfFollowError()
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return nil, err
	}

	follow, err := s.follows.Create(ctx, actor.UserID, targetID)
	if err != nil {
		return nil, err
	}
	observability.Follows.WithLabelValues("follow").Inc()
	return follow, nil
}

// Unfollow removes the edge actor -> targetID. An unknown target is
// NOT_FOUND; NOT_FOLLOWING is only for an existing user without the edge.
func (s *SocialGraphService) Unfollow(ctx context.Context, actor models.Actor, targetID uint) error {
	if err := actor.Require(); err != nil {
		return err
	}
	if err := s.follows.Delete(ctx, actor.UserID, targetID); err != nil {
		if models.IsCode(err, models.CodeNotFollowing) {
			if _, lookupErr := s.users.GetByID(ctx, targetID); lookupErr != nil {
				return lookupErr
			}
		}
		return err
	}
	observability.Follows.WithLabelValues("unfollow").Inc()
	return nil
}

func (s *SocialGraphService) ListFollowers(ctx context.Context, userID uint, page repository.Page) ([]models.UserBrief, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.follows.ListFollowers(ctx, userID, page)
}

func (s *SocialGraphService) ListFollowing(ctx context.Context, userID uint, page repository.Page) ([]models.UserBrief, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.follows.ListFollowing(ctx, userID, page)
}

// FollowingIDs returns the ids userID follows. The set is cached briefly and
// dropped by the repository whenever userID follows or unfollows someone.
func (s *SocialGraphService) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := cache.Aside(ctx, cache.FollowingKey(userID), &ids, cache.FollowingTTL, func() error {
		var err error
		ids, err = s.follows.FollowingIDs(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *SocialGraphService) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	if followerID == 0 {
		return false, nil
	}
	return s.follows.Exists(ctx, followerID, followedID)
}
