package service

import (
	"context"
	"strings"

	"threadline/internal/featureflags"
	"threadline/internal/models"
	"threadline/internal/observability"
	"threadline/internal/repository"
	"threadline/internal/validation"
)

// ThreadService creates, reposts, edits and reads threads.
type ThreadService struct {
	threads repository.ThreadRepository
	replies repository.ReplyRepository
	flags   *featureflags.Manager
}

type CreateThreadInput struct {
	Content string
}

type RepostInput struct {
	OriginalID uint
	// Comment is only accepted when quote reposts are enabled for the actor.
	Comment string
}

type UpdateThreadInput struct {
	ThreadID uint
	Content  string
}

type ListThreadsInput struct {
	Search   string
	AuthorID uint
	Page     repository.Page
}

func NewThreadService(threads repository.ThreadRepository, replies repository.ReplyRepository, flags *featureflags.Manager) *ThreadService {
	return &ThreadService{threads: threads, replies: replies, flags: flags}
}

func (s *ThreadService) CreateThread(ctx context.Context, actor models.Actor, in CreateThreadInput) (*models.Thread, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(in.Content)
	if err := validation.ValidateContent(content, models.MaxContentLen); err != nil {
		return nil, models.NewFieldError("content", err.Error())
	}

	thread := &models.Thread{AuthorID: actor.UserID, Content: content}
	if err := s.threads.Create(ctx, thread); err != nil {
		return nil, err
	}
	observability.ThreadsCreated.WithLabelValues("thread").Inc()
	return s.reload(ctx, thread.ID, actor.ViewerID())
}

// Repost creates a new thread owned by the actor pointing at OriginalID.
// Reposting one's own threads, and reposting reposts, is allowed.
func (s *ThreadService) Repost(ctx context.Context, actor models.Actor, in RepostInput) (*models.Thread, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}

	comment := strings.TrimSpace(in.Comment)
	if comment != "" {
		if !s.flags.Enabled(featureflags.FlagQuoteReposts, actor.UserID) {
			return nil, models.NewFieldError("content", "Reposts cannot carry a comment.")
		}
		if err := validation.ValidateMaxLen(comment, models.MaxContentLen); err != nil {
			return nil, models.NewFieldError("content", err.Error())
		}
	}

	if _, err := s.threads.GetByID(ctx, in.OriginalID); err != nil {
		return nil, err
	}

	originalID := in.OriginalID
	repost := &models.Thread{
		AuthorID:         actor.UserID,
		Content:          comment,
		IsRepost:         true,
		OriginalThreadID: &originalID,
	}
	if err := s.threads.Create(ctx, repost); err != nil {
		return nil, err
	}
	observability.ThreadsCreated.WithLabelValues("repost").Inc()
	return s.reload(ctx, repost.ID, actor.ViewerID())
}

// GetThread returns the thread with its reply preview and full reply list.
func (s *ThreadService) GetThread(ctx context.Context, viewer models.Actor, id uint) (*models.Thread, error) {
	thread, err := s.threads.GetDetail(ctx, id, viewer.ViewerID())
	if err != nil {
		return nil, err
	}
	if err := attachPreviews(ctx, s.replies, []*models.Thread{thread}, viewer.ViewerID()); err != nil {
		return nil, err
	}
	replies, err := s.replies.List(ctx, repository.ReplyFilter{ThreadID: id}, viewer.ViewerID(), repository.Page{})
	if err != nil {
		return nil, err
	}
	thread.Replies = replies
	return thread, nil
}

func (s *ThreadService) ListThreads(ctx context.Context, viewer models.Actor, in ListThreadsInput) ([]*models.Thread, error) {
	filter := repository.ThreadFilter{AuthorID: in.AuthorID, Query: in.Search}
	threads, err := s.threads.List(ctx, filter, viewer.ViewerID(), in.Page)
	if err != nil {
		return nil, err
	}
	if err := attachPreviews(ctx, s.replies, threads, viewer.ViewerID()); err != nil {
		return nil, err
	}
	return threads, nil
}

func (s *ThreadService) UpdateThread(ctx context.Context, actor models.Actor, in UpdateThreadInput) (*models.Thread, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, in.ThreadID, "update"); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(in.Content)
	if err := validation.ValidateContent(content, models.MaxContentLen); err != nil {
		return nil, models.NewFieldError("content", err.Error())
	}
	if err := s.threads.UpdateContent(ctx, in.ThreadID, content); err != nil {
		return nil, err
	}
	return s.reload(ctx, in.ThreadID, actor.ViewerID())
}

func (s *ThreadService) DeleteThread(ctx context.Context, actor models.Actor, id uint) error {
	if err := actor.Require(); err != nil {
		return err
	}
	if err := s.authorize(ctx, actor, id, "delete"); err != nil {
		return err
	}
	return s.threads.Delete(ctx, id)
}

func (s *ThreadService) authorize(ctx context.Context, actor models.Actor, id uint, verb string) error {
	thread, err := s.threads.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if thread.AuthorID != actor.UserID {
		return models.NewForbiddenError("You can only " + verb + " your own threads")
	}
	return nil
}

func (s *ThreadService) reload(ctx context.Context, id, viewerID uint) (*models.Thread, error) {
	thread, err := s.threads.GetDetail(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	if err := attachPreviews(ctx, s.replies, []*models.Thread{thread}, viewerID); err != nil {
		return nil, err
	}
	return thread, nil
}
