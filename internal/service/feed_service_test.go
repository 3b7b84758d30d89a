package service

import (
	"context"
	"errors"
	"testing"

	"threadline/internal/models"
	"threadline/internal/repository"
	"threadline/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type followingFunc func(context.Context, uint) ([]uint, error)

func (f followingFunc) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	return f(ctx, userID)
}

func TestFeedService_AuthorsIncludeViewer(t *testing.T) {
	t.Parallel()

	graph := followingFunc(func(context.Context, uint) ([]uint, error) { return []uint{5, 6}, nil })
	threads := noopThreadRepo()
	var filter repository.ThreadFilter
	threads.listFn = func(_ context.Context, f repository.ThreadFilter, viewerID uint, page repository.Page) ([]*models.Thread, error) {
		filter = f
		assert.Equal(t, uint(1), viewerID)
		assert.Equal(t, 20, page.Limit)
		return []*models.Thread{{ID: 3}}, nil
	}

	svc := NewFeedService(graph, threads, noopReplyRepo())
	feed, err := svc.GetFeed(context.Background(), models.UserActor(1), repository.Page{Limit: 20})
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, []uint{1, 5, 6}, filter.AuthorIDs)
	assert.NotNil(t, feed[0].RecentReplies)
}

func TestFeedService_Errors(t *testing.T) {
	t.Parallel()

	svc := NewFeedService(followingFunc(func(context.Context, uint) ([]uint, error) { return nil, nil }), noopThreadRepo(), noopReplyRepo())
	_, err := svc.GetFeed(context.Background(), models.AnonymousActor(), repository.Page{})
	assertAppCode(t, err, models.CodeUnauthorized)

	graphErr := errors.New("graph down")
	svc = NewFeedService(followingFunc(func(context.Context, uint) ([]uint, error) { return nil, graphErr }), noopThreadRepo(), noopReplyRepo())
	_, err = svc.GetFeed(context.Background(), models.UserActor(1), repository.Page{})
	assert.ErrorIs(t, err, graphErr)
}

type services struct {
	graph   *SocialGraphService
	threads *ThreadService
	likes   *LikeService
	feed    *FeedService
	users   *UserService
}

func newServices(t *testing.T) (*services, func(username string) *models.User) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	users := repository.NewUserRepository(db)
	follows := repository.NewFollowRepository(db)
	threads := repository.NewThreadRepository(db)
	replies := repository.NewReplyRepository(db)
	graph := NewSocialGraphService(follows, users)

	return &services{
			graph:   graph,
			threads: NewThreadService(threads, replies, nil),
			likes:   NewLikeService(repository.NewLikeRepository(db), threads, replies),
			feed:    NewFeedService(graph, threads, replies),
			users:   NewUserService(users, threads, replies),
		}, func(username string) *models.User {
			return testutil.CreateUser(t, db, username)
		}
}

func feedIDs(t *testing.T, s *services, viewer uint) []uint {
	t.Helper()
	feed, err := s.feed.GetFeed(context.Background(), models.UserActor(viewer), repository.Page{})
	require.NoError(t, err)
	ids := make([]uint, len(feed))
	for i, th := range feed {
		ids[i] = th.ID
	}
	return ids
}

func TestFeedScenario_FollowPostAndDeleteAccount(t *testing.T) {
	ctx := context.Background()
	s, newUser := newServices(t)
	alice, bob := newUser("alice"), newUser("bob")

	t1, err := s.threads.CreateThread(ctx, models.UserActor(alice.ID), CreateThreadInput{Content: "first"})
	require.NoError(t, err)
	assert.Equal(t, []uint{t1.ID}, feedIDs(t, s, alice.ID))
	assert.Empty(t, feedIDs(t, s, bob.ID))

	_, err = s.graph.Follow(ctx, models.UserActor(bob.ID), alice.ID)
	require.NoError(t, err)
	t2, err := s.threads.CreateThread(ctx, models.UserActor(bob.ID), CreateThreadInput{Content: "second"})
	require.NoError(t, err)
	assert.Equal(t, []uint{t2.ID, t1.ID}, feedIDs(t, s, bob.ID))
	assert.Equal(t, []uint{t1.ID}, feedIDs(t, s, alice.ID), "following is not symmetric")

	_, err = s.graph.Follow(ctx, models.UserActor(bob.ID), alice.ID)
	assertAppCode(t, err, models.CodeAlreadyFollowing)

	require.NoError(t, s.users.DeleteAccount(ctx, models.UserActor(alice.ID)))
	assert.Equal(t, []uint{t2.ID}, feedIDs(t, s, bob.ID))
}

func TestLikeScenario_CountsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, newUser := newServices(t)
	alice := newUser("alice")
	actor := models.UserActor(alice.ID)

	t1, err := s.threads.CreateThread(ctx, actor, CreateThreadInput{Content: "likeable"})
	require.NoError(t, err)
	assert.Zero(t, t1.LikesCount)

	likesOf := func() (int64, bool) {
		th, err := s.threads.GetThread(ctx, actor, t1.ID)
		require.NoError(t, err)
		return th.LikesCount, th.IsLiked
	}

	_, err = s.likes.Like(ctx, actor, models.ThreadTarget(t1.ID))
	require.NoError(t, err)
	count, liked := likesOf()
	assert.Equal(t, int64(1), count)
	assert.True(t, liked)

	_, err = s.likes.Like(ctx, actor, models.ThreadTarget(t1.ID))
	assertAppCode(t, err, models.CodeAlreadyLiked)
	count, _ = likesOf()
	assert.Equal(t, int64(1), count)

	require.NoError(t, s.likes.Unlike(ctx, actor, models.ThreadTarget(t1.ID)))
	count, liked = likesOf()
	assert.Zero(t, count)
	assert.False(t, liked)

	assertAppCode(t, s.likes.Unlike(ctx, actor, models.ThreadTarget(t1.ID)), models.CodeNotLiked)
}

func TestRepostScenario(t *testing.T) {
	ctx := context.Background()
	s, newUser := newServices(t)
	alice, bob := newUser("alice"), newUser("bob")

	original, err := s.threads.CreateThread(ctx, models.UserActor(alice.ID), CreateThreadInput{Content: "original"})
	require.NoError(t, err)
	repost, err := s.threads.Repost(ctx, models.UserActor(bob.ID), RepostInput{OriginalID: original.ID})
	require.NoError(t, err)

	assert.NotEqual(t, original.ID, repost.ID)
	assert.True(t, repost.IsRepost)
	require.NotNil(t, repost.OriginalThreadID)
	assert.Equal(t, original.ID, *repost.OriginalThreadID)

	reloaded, err := s.threads.GetThread(ctx, models.UserActor(bob.ID), original.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reloaded.RepostsCount)
	assert.True(t, reloaded.IsReposted)
}
