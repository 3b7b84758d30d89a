package service

import (
	"context"
	"strings"

	"threadline/internal/models"
	"threadline/internal/repository"
	"threadline/internal/validation"
)

// ReplyService manages replies under threads.
type ReplyService struct {
	replies repository.ReplyRepository
}

type CreateReplyInput struct {
	ThreadID uint
	Content  string
}

type UpdateReplyInput struct {
	ReplyID uint
	Content string
}

func NewReplyService(replies repository.ReplyRepository) *ReplyService {
	return &ReplyService{replies: replies}
}

// CreateReply adds a reply. A missing thread is reported by the foreign key.
func (s *ReplyService) CreateReply(ctx context.Context, actor models.Actor, in CreateReplyInput) (*models.Reply, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	if in.ThreadID == 0 {
		return nil, models.NewFieldError("thread", "This field is required.")
	}
	content := strings.TrimSpace(in.Content)
	if err := validation.ValidateContent(content, models.MaxContentLen); err != nil {
		return nil, models.NewFieldError("content", err.Error())
	}

	reply := &models.Reply{ThreadID: in.ThreadID, AuthorID: actor.UserID, Content: content}
	if err := s.replies.Create(ctx, reply); err != nil {
		return nil, err
	}
	return s.replies.GetDetail(ctx, reply.ID, actor.ViewerID())
}

func (s *ReplyService) GetReply(ctx context.Context, viewer models.Actor, id uint) (*models.Reply, error) {
	return s.replies.GetDetail(ctx, id, viewer.ViewerID())
}

// ListReplies lists replies oldest first, optionally for one thread.
func (s *ReplyService) ListReplies(ctx context.Context, viewer models.Actor, threadID uint, page repository.Page) ([]*models.Reply, error) {
	return s.replies.List(ctx, repository.ReplyFilter{ThreadID: threadID}, viewer.ViewerID(), page)
}

func (s *ReplyService) UpdateReply(ctx context.Context, actor models.Actor, in UpdateReplyInput) (*models.Reply, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, in.ReplyID, "update"); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(in.Content)
	if err := validation.ValidateContent(content, models.MaxContentLen); err != nil {
		return nil, models.NewFieldError("content", err.Error())
	}
	if err := s.replies.UpdateContent(ctx, in.ReplyID, content); err != nil {
		return nil, err
	}
	return s.replies.GetDetail(ctx, in.ReplyID, actor.ViewerID())
}

func (s *ReplyService) DeleteReply(ctx context.Context, actor models.Actor, id uint) error {
	if err := actor.Require(); err != nil {
		return err
	}
	if err := s.authorize(ctx, actor, id, "delete"); err != nil {
		return err
	}
	return s.replies.Delete(ctx, id)
}

func (s *ReplyService) authorize(ctx context.Context, actor models.Actor, id uint, verb string) error {
	reply, err := s.replies.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if reply.AuthorID != actor.UserID {
		return models.NewForbiddenError("You can only " + verb + " your own replies")
	}
	return nil
}
