package service

import (
	"context"

	"threadline/internal/models"
	"threadline/internal/repository"
)

// attachPreviews fills RecentReplies on every thread with one windowed query.
func attachPreviews(ctx context.Context, replies repository.ReplyRepository, threads []*models.Thread, viewerID uint) error {
	if len(threads) == 0 {
		return nil
	}
	ids := make([]uint, len(threads))
	for i, t := range threads {
		ids[i] = t.ID
	}

	recent, err := replies.RecentByThreads(ctx, ids, models.RecentRepliesPerThread, viewerID)
	if err != nil {
		return err
	}
	for _, t := range threads {
		t.RecentReplies = recent[t.ID]
		if t.RecentReplies == nil {
			t.RecentReplies = []*models.Reply{}
		}
	}
	return nil
}
