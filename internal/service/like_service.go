package service

import (
	"context"

	"threadline/internal/models"
	"threadline/internal/observability"
	"threadline/internal/repository"
)

// LikeService likes and unlikes threads and replies.
type LikeService struct {
	likes   repository.LikeRepository
	threads repository.ThreadRepository
	replies repository.ReplyRepository
}

func NewLikeService(likes repository.LikeRepository, threads repository.ThreadRepository, replies repository.ReplyRepository) *LikeService {
	return &LikeService{likes: likes, threads: threads, replies: replies}
}

// Like records the actor liking target. The insert itself decides
// ALREADY_LIKED and NOT_FOUND.
func (s *LikeService) Like(ctx context.Context, actor models.Actor, target models.LikeTarget) (*models.Like, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	like, err := s.likes.Create(ctx, actor.UserID, target)
	if err != nil {
		return nil, err
	}
	observability.Likes.WithLabelValues(string(target.Kind), "like").Inc()
	return like, nil
}

// Unlike removes the actor's like on target. When nothing was deleted the
// target is looked up, so a missing thread or reply is NOT_FOUND rather
// than NOT_LIKED.
func (s *LikeService) Unlike(ctx context.Context, actor models.Actor, target models.LikeTarget) error {
	if err := actor.Require(); err != nil {
		return err
	}
	if err := s.likes.Delete(ctx, actor.UserID, target); err != nil {
		if models.IsCode(err, models.CodeNotLiked) {
			if lookupErr := s.lookup(ctx, target); lookupErr != nil {
				return lookupErr
			}
		}
		return err
	}
	observability.Likes.WithLabelValues(string(target.Kind), "unlike").Inc()
	return nil
}

func (s *LikeService) lookup(ctx context.Context, target models.LikeTarget) error {
	var err error
	switch target.Kind {
	case models.LikeTargetThread:
		_, err = s.threads.GetByID(ctx, target.ID)
	case models.LikeTargetReply:
		_, err = s.replies.GetByID(ctx, target.ID)
	}
	return err
}
