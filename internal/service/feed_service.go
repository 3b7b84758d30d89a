package service

import (
	"context"

	"threadline/internal/models"
	"threadline/internal/observability"
	"threadline/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FollowingSource resolves the ids a user follows.
type FollowingSource interface {
	FollowingIDs(ctx context.Context, userID uint) ([]uint, error)
}

// FeedService composes the home feed: the viewer's own threads plus those
// of everyone they follow, newest first.
type FeedService struct {
	graph   FollowingSource
	threads repository.ThreadRepository
	replies repository.ReplyRepository
}

func NewFeedService(graph FollowingSource, threads repository.ThreadRepository, replies repository.ReplyRepository) *FeedService {
	return &FeedService{graph: graph, threads: threads, replies: replies}
}

// GetFeed returns one page of the viewer's home feed. A zero page limit
// returns the whole feed.
func (s *FeedService) GetFeed(ctx context.Context, viewer models.Actor, page repository.Page) (threads []*models.Thread, err error) {
	if err := viewer.Require(); err != nil {
		return nil, err
	}
	defer observability.TrackFeedBuild()()
	ctx, span := observability.StartSpan(ctx, "feed", "GetFeed", attribute.Int("viewer.id", int(viewer.UserID)))
	defer func() { observability.EndSpan(span, err) }()

	followees, err := s.graph.FollowingIDs(ctx, viewer.UserID)
	if err != nil {
		return nil, err
	}
	authors := make([]uint, 0, len(followees)+1)
	authors = append(authors, viewer.UserID)
	for _, id := range followees {
		if id != viewer.UserID {
			authors = append(authors, id)
		}
	}
	span.SetAttributes(attribute.Int("feed.authors", len(authors)))

	threads, err = s.threads.List(ctx, repository.ThreadFilter{AuthorIDs: authors}, viewer.UserID, page)
	if err != nil {
		return nil, err
	}
	if err := attachPreviews(ctx, s.replies, threads, viewer.UserID); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("feed.threads", len(threads)))
	return threads, nil
}
