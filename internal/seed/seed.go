// Package seed fills a development database with fake users, groups and
// posts.
package seed

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/yatube/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password of every generated account.
const DefaultPassword = "password123"

const batchSize = 100

var slugUnsafe = regexp.MustCompile(`[^a-z0-9_-]+`)

// Options controls how much data Run generates.
type Options struct {
	Users   int
	Groups  int
	Posts   int
	MaxDays int
	Clean   bool
}

// Summary reports what Run created.
type Summary struct {
	Users  int
	Groups int
	Posts  int
}

// Seeder writes generated rows through gorm.
type Seeder struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	now   func() time.Time
}

// NewSeeder binds a seeder to gdb. A zero seed picks a time-based one.
func NewSeeder(gdb *gorm.DB, fakeSeed int64) *Seeder {
	if fakeSeed == 0 {
		fakeSeed = time.Now().UnixNano()
	}
	return &Seeder{db: gdb, faker: gofakeit.New(fakeSeed), now: time.Now}
}

// Run optionally clears the tables, then creates users, groups and posts.
func (s *Seeder) Run(opts Options) (Summary, error) {
	if opts.Clean {
		if err := s.ClearAll(); err != nil {
			return Summary{}, err
		}
	}

	users, err := s.Users(opts.Users)
	if err != nil {
		return Summary{}, err
	}
	groups, err := s.Groups(opts.Groups)
	if err != nil {
		return Summary{}, err
	}
	posts, err := s.Posts(users, groups, opts.Posts, opts.MaxDays)
	if err != nil {
		return Summary{}, err
	}

	return Summary{Users: len(users), Groups: len(groups), Posts: len(posts)}, nil
}

// ClearAll deletes posts, groups and users in dependency order.
func (s *Seeder) ClearAll() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&db.Post{}, &db.Group{}, &db.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}
		return nil
	})
}

// Users creates n regular accounts sharing DefaultPassword.
func (s *Seeder) Users(n int) ([]db.User, error) {
	if n <= 0 {
		return nil, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]db.User, 0, n)
	for i := 0; i < n; i++ {
		users = append(users, db.User{
			Username:  fmt.Sprintf("%s_%d", s.faker.Username(), i+1),
			FirstName: s.faker.FirstName(),
			LastName:  s.faker.LastName(),
			Email:     s.faker.Email(),
			Password:  string(hash),
		})
	}

	if err := s.db.CreateInBatches(&users, batchSize).Error; err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}
	return users, nil
}

// Groups creates n groups with unique slugs.
func (s *Seeder) Groups(n int) ([]db.Group, error) {
	if n <= 0 {
		return nil, nil
	}

	groups := make([]db.Group, 0, n)
	for i := 0; i < n; i++ {
		word := s.faker.Word()
		groups = append(groups, db.Group{
			Title:       strings.TrimSuffix(s.faker.Sentence(3), "."),
			Slug:        makeSlug(word, i),
			Description: s.faker.Paragraph(1, 2, 8, " "),
		})
	}

	if err := s.db.CreateInBatches(&groups, batchSize).Error; err != nil {
		return nil, fmt.Errorf("create groups: %w", err)
	}
	return groups, nil
}

// Posts creates n posts spread over the last maxDays days. Roughly a third
// of them stay without a group.
func (s *Seeder) Posts(users []db.User, groups []db.Group, n, maxDays int) ([]db.Post, error) {
	if n <= 0 || len(users) == 0 {
		return nil, nil
	}
	if maxDays <= 0 {
		maxDays = 90
	}

	end := s.now()
	start := end.AddDate(0, 0, -maxDays)

	posts := make([]db.Post, 0, n)
	for i := 0; i < n; i++ {
		author := users[s.faker.Number(0, len(users)-1)]
		post := db.Post{
			Text:     s.faker.Paragraph(1, 3, 12, "\n"),
			AuthorID: author.ID,
			PubDate:  s.faker.DateRange(start, end),
		}
		if len(groups) > 0 && s.faker.Number(0, 2) > 0 {
			group := groups[s.faker.Number(0, len(groups)-1)]
			post.GroupID = &group.ID
		}
		posts = append(posts, post)
	}

	if err := s.db.Omit(clause.Associations).CreateInBatches(&posts, batchSize).Error; err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	return posts, nil
}

func makeSlug(word string, index int) string {
	slug := slugUnsafe.ReplaceAllString(strings.ToLower(word), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "group"
	}
	if len(slug) > 18 {
		slug = slug[:18]
	}
	return fmt.Sprintf("%s-%d", slug, index+1)
}
