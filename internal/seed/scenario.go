package seed

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"threadline/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Scenario is a hand-written dataset with named accounts, used for demos
// and reproducible manual testing.
//
//	users:
//	  - username: alice
//	    bio: hello
//	follows:
//	  - {follower: bob, followed: alice}
//	threads:
//	  - author: alice
//	    content: first!
//	    liked_by: [bob]
//	    reposted_by: [bob]
//	    replies:
//	      - {author: bob, content: welcome}
type Scenario struct {
	Users   []ScenarioUser   `yaml:"users"`
	Follows []ScenarioFollow `yaml:"follows"`
	Threads []ScenarioThread `yaml:"threads"`
}

type ScenarioUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Bio      string `yaml:"bio"`
}

type ScenarioFollow struct {
	Follower string `yaml:"follower"`
	Followed string `yaml:"followed"`
}

type ScenarioThread struct {
	Author     string          `yaml:"author"`
	Content    string          `yaml:"content"`
	LikedBy    []string        `yaml:"liked_by"`
	RepostedBy []string        `yaml:"reposted_by"`
	Replies    []ScenarioReply `yaml:"replies"`
}

type ScenarioReply struct {
	Author  string   `yaml:"author"`
	Content string   `yaml:"content"`
	LikedBy []string `yaml:"liked_by"`
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes YAML and checks that every reference names a
// declared user. Unknown keys are rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) validate() error {
	known := make(map[string]bool, len(sc.Users))
	for _, u := range sc.Users {
		if u.Username == "" {
			return fmt.Errorf("scenario: user without username")
		}
		if known[u.Username] {
			return fmt.Errorf("scenario: duplicate user %q", u.Username)
		}
		known[u.Username] = true
	}
	check := func(where, name string) error {
		if !known[name] {
			return fmt.Errorf("scenario: %s references unknown user %q", where, name)
		}
		return nil
	}
	for _, f := range sc.Follows {
		if err := check("follow", f.Follower); err != nil {
			return err
		}
		if err := check("follow", f.Followed); err != nil {
			return err
		}
		if f.Follower == f.Followed {
			return fmt.Errorf("scenario: %q cannot follow themselves", f.Follower)
		}
	}
	for i, t := range sc.Threads {
		where := fmt.Sprintf("thread %d", i)
		if err := check(where, t.Author); err != nil {
			return err
		}
		for _, name := range append(append([]string{}, t.LikedBy...), t.RepostedBy...) {
			if err := check(where, name); err != nil {
				return err
			}
		}
		for _, r := range t.Replies {
			if err := check(where+" reply", r.Author); err != nil {
				return err
			}
			for _, name := range r.LikedBy {
				if err := check(where+" reply", name); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (sc *Scenario) entries() int {
	n := 0
	for _, t := range sc.Threads {
		n += 1 + len(t.Replies) + len(t.RepostedBy)
	}
	return n
}

// Apply writes the scenario inside a single transaction. Threads are
// created in file order so the last one listed is the newest.
func (sc *Scenario) Apply(db *gorm.DB, opts FactoryOptions) (Summary, error) {
	var sum Summary
	err := db.Transaction(func(tx *gorm.DB) error {
		f := NewFactory(tx, opts)
		users := make(map[string]*models.User, len(sc.Users))
		for _, su := range sc.Users {
			u, err := f.CreateUser(func(u *models.User) {
				u.Username = su.Username
				u.Email = su.Email
				if u.Email == "" {
					u.Email = su.Username + "@example.com"
				}
				u.Bio = su.Bio
			})
			if err != nil {
				return err
			}
			users[su.Username] = u
			sum.Users++
		}

		for _, sf := range sc.Follows {
			created, err := f.CreateFollow(users[sf.Follower], users[sf.Followed])
			if err != nil {
				return fmt.Errorf("create follow: %w", err)
			}
			if created {
				sum.Follows++
			}
		}

		// Every thread, reply and repost gets its own minute, ending before now.
		clock := f.now.Add(-time.Duration(sc.entries()+1) * time.Minute)
		tick := func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		}
		for _, st := range sc.Threads {
			th, err := f.CreateThread(users[st.Author], func(t *models.Thread) {
				t.Content = st.Content
				t.CreatedAt = tick()
				t.UpdatedAt = t.CreatedAt
			})
			if err != nil {
				return err
			}
			sum.Threads++
			for _, name := range st.LikedBy {
				if err := sum.like(f, users[name], models.ThreadTarget(th.ID)); err != nil {
					return err
				}
			}
			for _, sr := range st.Replies {
				reply, err := f.CreateReply(users[sr.Author], th, func(r *models.Reply) {
					r.Content = sr.Content
					r.CreatedAt = tick()
					r.UpdatedAt = r.CreatedAt
				})
				if err != nil {
					return err
				}
				sum.Replies++
				for _, name := range sr.LikedBy {
					if err := sum.like(f, users[name], models.ReplyTarget(reply.ID)); err != nil {
						return err
					}
				}
			}
			for _, name := range st.RepostedBy {
				originalID := th.ID
				at := tick()
				if _, err := f.CreateThread(users[name], func(t *models.Thread) {
					t.Content = ""
					t.IsRepost = true
					t.OriginalThreadID = &originalID
					t.CreatedAt = at
					t.UpdatedAt = at
				}); err != nil {
					return err
				}
				sum.Reposts++
			}
		}
		return nil
	})
	return sum, err
}
