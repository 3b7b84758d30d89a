package service

import (
	"context"
	"strings"

	"threadline/internal/models"
	"threadline/internal/repository"
	"threadline/internal/validation"
)

type UserService struct {
	userRepo repository.UserRepository
	threads  repository.ThreadRepository
	replies  repository.ReplyRepository
}

// UpdateProfileInput carries the editable profile fields; nil leaves a
// field unchanged.
type UpdateProfileInput struct {
	Username *string
	Email    *string
	Bio      *string
}

func NewUserService(userRepo repository.UserRepository, threads repository.ThreadRepository, replies repository.ReplyRepository) *UserService {
	return &UserService{userRepo: userRepo, threads: threads, replies: replies}
}

func (s *UserService) ListUsers(ctx context.Context, viewer models.Actor, search string, page repository.Page) ([]*models.User, error) {
	return s.userRepo.List(ctx, search, viewer.ViewerID(), page)
}

func (s *UserService) GetProfile(ctx context.Context, viewer models.Actor, id uint) (*models.User, error) {
	return s.userRepo.GetDetail(ctx, id, viewer.ViewerID())
}

func (s *UserService) UpdateProfile(ctx context.Context, actor models.Actor, in UpdateProfileInput) (*models.User, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	// The cached row carries no email, so edit the stored one.
	user, err := s.userRepo.GetDetail(ctx, actor.UserID, actor.UserID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, models.NewFieldError("username", err.Error())
		}
		user.Username = username
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewFieldError("email", err.Error())
		}
		user.Email = email
	}
	if in.Bio != nil {
		if err := validation.ValidateMaxLen(*in.Bio, models.MaxBioLen); err != nil {
			return nil, models.NewFieldError("bio", err.Error())
		}
		user.Bio = *in.Bio
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.userRepo.GetDetail(ctx, actor.UserID, actor.UserID)
}

// DeleteAccount removes the actor and, through cascades, everything they own.
func (s *UserService) DeleteAccount(ctx context.Context, actor models.Actor) error {
	if err := actor.Require(); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, actor.UserID)
}

func (s *UserService) ListUserThreads(ctx context.Context, viewer models.Actor, userID uint, page repository.Page) ([]*models.Thread, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	threads, err := s.threads.List(ctx, repository.ThreadFilter{AuthorID: userID}, viewer.ViewerID(), page)
	if err != nil {
		return nil, err
	}
	if err := attachPreviews(ctx, s.replies, threads, viewer.ViewerID()); err != nil {
		return nil, err
	}
	return threads, nil
}
