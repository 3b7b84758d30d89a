// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log/slog"

	"threadline/internal/middleware"
	"threadline/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers   int
	NumThreads int
	// FollowRatio is the chance any ordered user pair gets a follow edge.
	FollowRatio float64
	// MaxReplies bounds replies generated per thread.
	MaxReplies int
	// RepostRatio is the chance a generated thread is a repost.
	RepostRatio float64
	ShouldClean bool
	Factory     FactoryOptions
}

// Summary counts what a seeding run created.
type Summary struct {
	Users   int
	Follows int
	Threads int
	Reposts int
	Replies int
	Likes   int
}

func (s *Summary) like(f *Factory, user *models.User, target models.LikeTarget) error {
	created, err := f.CreateLike(user, target)
	if err != nil {
		return fmt.Errorf("failed to create likes: %w", err)
	}
	if created {
		s.Likes++
	}
	return nil
}

func (o *Options) withDefaults() {
	if o.FollowRatio <= 0 {
		o.FollowRatio = 0.3
	}
	if o.MaxReplies <= 0 {
		o.MaxReplies = 4
	}
	if o.RepostRatio <= 0 {
		o.RepostRatio = 0.15
	}
}

// Seed populates the database with test data
func Seed(db *gorm.DB, opts Options) (Summary, error) {
	opts.withDefaults()
	log := middleware.Logger
	log.Info("Starting database seeding",
		slog.Int("users", opts.NumUsers),
		slog.Int("threads", opts.NumThreads),
	)

	if opts.ShouldClean {
		if err := ClearData(db); err != nil {
			log.Warn("Could not clear existing data, continuing", slog.String("error", err.Error()))
		}
	}

	f := NewFactory(db, opts.Factory)
	var sum Summary

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return sum, fmt.Errorf("failed to create users: %w", err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)

	for _, follower := range users {
		for _, followed := range users {
			if follower.ID == followed.ID || !f.Chance(opts.FollowRatio) {
				continue
			}
			created, err := f.CreateFollow(follower, followed)
			if err != nil {
				return sum, fmt.Errorf("failed to create follows: %w", err)
			}
			if created {
				sum.Follows++
			}
		}
	}

	if len(users) == 0 {
		return sum, nil
	}

	threads := make([]*models.Thread, 0, opts.NumThreads)
	for i := 0; i < opts.NumThreads; i++ {
		author := users[f.Intn(len(users))]

		var (
			th  *models.Thread
			err error
		)
		if len(threads) > 0 && f.Chance(opts.RepostRatio) {
			original := threads[f.Intn(len(threads))]
			if original.IsRepost || original.AuthorID == author.ID {
				th, err = f.CreateThread(author)
			} else {
				th, err = f.CreateRepost(author, original)
				sum.Reposts++
			}
		} else {
			th, err = f.CreateThread(author)
		}
		if err != nil {
			return sum, fmt.Errorf("failed to create threads: %w", err)
		}
		threads = append(threads, th)

		if th.IsRepost {
			continue
		}
		n := f.Intn(opts.MaxReplies + 1)
		for j := 0; j < n; j++ {
			replier := users[f.Intn(len(users))]
			reply, err := f.CreateReply(replier, th)
			if err != nil {
				return sum, fmt.Errorf("failed to create replies: %w", err)
			}
			sum.Replies++
			if f.Chance(0.3) {
				if err := sum.like(f, users[f.Intn(len(users))], models.ReplyTarget(reply.ID)); err != nil {
					return sum, err
				}
			}
		}
		likers := f.Intn(len(users) + 1)
		for j := 0; j < likers; j++ {
			if err := sum.like(f, users[f.Intn(len(users))], models.ThreadTarget(th.ID)); err != nil {
				return sum, err
			}
		}
	}
	sum.Threads = len(threads)

	log.Info("Database seeding completed",
		slog.Int("users", sum.Users),
		slog.Int("follows", sum.Follows),
		slog.Int("threads", sum.Threads),
		slog.Int("reposts", sum.Reposts),
		slog.Int("replies", sum.Replies),
	)
	return sum, nil
}

// seededTables is ordered children first so plain DELETEs respect foreign keys.
var seededTables = []string{"likes", "replies", "follows", "threads", "users"}

// ClearData removes every row from the application tables.
func ClearData(db *gorm.DB) error {
	middleware.Logger.Info("Clearing existing data")
	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE likes, replies, follows, threads, users RESTART IDENTITY CASCADE`).Error
	}
	for _, table := range seededTables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
