// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"time"
	"unicode/utf8"

	"threadline/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password every seeded account logs in with.
const DefaultPassword = "password123"

// FactoryOptions tunes generated data.
type FactoryOptions struct {
	// Seed makes generated content reproducible. Zero picks a time-based seed.
	Seed int64
	// MaxDays spreads created_at over the last MaxDays days. Defaults to 90.
	MaxDays int
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder, scenarios and tests.
type Factory struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	opts  FactoryOptions
	now   time.Time
	hash  string
	next  int
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts FactoryOptions) *Factory {
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Factory{db: db, faker: gofakeit.New(opts.Seed), opts: opts, now: time.Now()}
}

func (f *Factory) passwordHash() (string, error) {
	if f.hash == "" {
		h, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), f.opts.BcryptCost)
		if err != nil {
			return "", err
		}
		f.hash = string(h)
	}
	return f.hash, nil
}

// pastTime returns a random instant within the configured window.
func (f *Factory) pastTime() time.Time {
	minutes := f.faker.Number(0, f.opts.MaxDays*24*60)
	return f.now.Add(-time.Duration(minutes) * time.Minute)
}

func (f *Factory) content(words int) string {
	s := f.faker.Sentence(words)
	for utf8.RuneCountInString(s) > models.MaxContentLen {
		s = string([]rune(s)[:models.MaxContentLen])
	}
	return s
}

// CreateUser constructs and persists a sample `models.User` that can log in
// with DefaultPassword. Optional override functions may modify the
// generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.passwordHash()
	if err != nil {
		return nil, err
	}
	f.next++
	username := fmt.Sprintf("%s%d", f.faker.Username(), f.next)
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: hash,
		Bio:      f.faker.Sentence(8),
	}
	if utf8.RuneCountInString(user.Bio) > models.MaxBioLen {
		user.Bio = string([]rune(user.Bio)[:models.MaxBioLen])
	}

	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// CreateThread persists a thread by author with generated content.
func (f *Factory) CreateThread(author *models.User, overrides ...func(*models.Thread)) (*models.Thread, error) {
	created := f.pastTime()
	thread := &models.Thread{
		AuthorID:  author.ID,
		Content:   f.content(f.faker.Number(4, 24)),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, override := range overrides {
		override(thread)
	}
	if err := f.db.Omit("Author", "OriginalThread").Create(thread).Error; err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	return thread, nil
}

// CreateRepost persists a content-less repost of original by author.
func (f *Factory) CreateRepost(author *models.User, original *models.Thread) (*models.Thread, error) {
	originalID := original.ID
	created := original.CreatedAt.Add(time.Duration(f.faker.Number(1, 72*60)) * time.Minute)
	if created.After(f.now) {
		created = f.now
	}
	return f.CreateThread(author, func(t *models.Thread) {
		t.Content = ""
		t.IsRepost = true
		t.OriginalThreadID = &originalID
		t.CreatedAt = created
		t.UpdatedAt = created
	})
}

// CreateReply persists a reply by author under thread.
func (f *Factory) CreateReply(author *models.User, thread *models.Thread, overrides ...func(*models.Reply)) (*models.Reply, error) {
	created := thread.CreatedAt.Add(time.Duration(f.faker.Number(1, 24*60)) * time.Minute)
	reply := &models.Reply{
		ThreadID:  thread.ID,
		AuthorID:  author.ID,
		Content:   f.content(f.faker.Number(3, 16)),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, override := range overrides {
		override(reply)
	}
	if err := f.db.Omit("Author", "Thread").Create(reply).Error; err != nil {
		return nil, fmt.Errorf("create reply: %w", err)
	}
	return reply, nil
}

// CreateLike persists a like from user on target. An existing like is left
// in place and reported as not created.
func (f *Factory) CreateLike(user *models.User, target models.LikeTarget) (bool, error) {
	like := &models.Like{UserID: user.ID}
	target.Apply(like)
	res := f.db.Omit("User", "Thread", "Reply").Clauses(clause.OnConflict{DoNothing: true}).Create(like)
	return res.RowsAffected > 0, res.Error
}

// CreateFollow persists follower -> followed. Self edges are skipped and an
// existing edge is left in place.
func (f *Factory) CreateFollow(follower, followed *models.User) (bool, error) {
	if follower.ID == followed.ID {
		return false, nil
	}
	follow := &models.Follow{FollowerID: follower.ID, FollowedID: followed.ID}
	res := f.db.Omit("Follower", "Followed").Clauses(clause.OnConflict{DoNothing: true}).Create(follow)
	return res.RowsAffected > 0, res.Error
}

// Intn returns a random number in [0, n).
func (f *Factory) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	return f.faker.Number(0, n-1)
}

// Chance reports true with probability p.
func (f *Factory) Chance(p float64) bool {
	return f.faker.Float64Range(0, 1) < p
}
