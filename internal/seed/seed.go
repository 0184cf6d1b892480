// Package seed fills a development database with fake users, groups, posts,
// comments and follows.
package seed

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"yatube/internal/model"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Password is shared by every seeded user.
const Password = "password123"

// Options configuration for the seeder
type Options struct {
	Users       int
	Groups      int
	Posts       int
	Comments    int
	FollowsEach int
}

// Result counts what Run created.
type Result struct {
	Users    int
	Groups   int
	Posts    int
	Comments int
	Follows  int
}

type Seeder struct {
	db    *gorm.DB
	faker *gofakeit.Faker
}

func NewSeeder(db *gorm.DB, randomSource int64) *Seeder {
	if randomSource == 0 {
		randomSource = time.Now().UnixNano()
	}
	return &Seeder{db: db, faker: gofakeit.New(randomSource)}
}

var (
	notUsernameChar = regexp.MustCompile(`[^\w.@+-]`)
	notSlugChar     = regexp.MustCompile(`[^a-z0-9]+`)
)

// ClearAll removes every row, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	db := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []any{
		&model.SocialOutbox{}, &model.Comment{}, &model.Follow{},
		&model.Post{}, &model.Group{}, &model.User{},
	} {
		if err := db.Delete(m).Error; err != nil {
			return fmt.Errorf("clear %T: %w", m, err)
		}
	}
	return nil
}

// Run creates the requested amount of fake data.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	db := s.db.WithContext(ctx)
	res := &Result{}

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]model.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		name := notUsernameChar.ReplaceAllString(s.faker.Username(), "")
		users = append(users, model.User{
			Username: fmt.Sprintf("%s%d", strings.ToLower(name), i+1),
			Email:    s.faker.Email(),
			Password: string(hash),
		})
	}
	if len(users) > 0 {
		if err := db.CreateInBatches(&users, 100).Error; err != nil {
			return nil, fmt.Errorf("seed users: %w", err)
		}
	}
	res.Users = len(users)

	groups := make([]model.Group, 0, opts.Groups)
	for i := 0; i < opts.Groups; i++ {
		title := s.faker.BuzzWord()
		groups = append(groups, model.Group{
			Title:       title,
			Slug:        fmt.Sprintf("%s-%d", strings.Trim(notSlugChar.ReplaceAllString(strings.ToLower(title), "-"), "-"), i+1),
			Description: s.faker.Sentence(12),
		})
	}
	if len(groups) > 0 {
		if err := db.CreateInBatches(&groups, 100).Error; err != nil {
			return nil, fmt.Errorf("seed groups: %w", err)
		}
	}
	res.Groups = len(groups)

	if len(users) == 0 {
		return res, nil
	}

	now := time.Now()
	posts := make([]model.Post, 0, opts.Posts)
	for i := 0; i < opts.Posts; i++ {
		p := model.Post{
			Text:      s.faker.Paragraph(1, 3, 12, "\n"),
			AuthorID:  users[s.faker.Number(0, len(users)-1)].ID,
			CreatedAt: s.faker.DateRange(now.AddDate(0, -1, 0), now),
		}
		if len(groups) > 0 && s.faker.Bool() {
			p.GroupID = &groups[s.faker.Number(0, len(groups)-1)].ID
		}
		posts = append(posts, p)
	}
	if len(posts) > 0 {
		if err := db.CreateInBatches(&posts, 100).Error; err != nil {
			return nil, fmt.Errorf("seed posts: %w", err)
		}
	}
	res.Posts = len(posts)

	if len(posts) > 0 {
		comments := make([]model.Comment, 0, opts.Comments)
		for i := 0; i < opts.Comments; i++ {
			post := posts[s.faker.Number(0, len(posts)-1)]
			comments = append(comments, model.Comment{
				PostID:    post.ID,
				AuthorID:  users[s.faker.Number(0, len(users)-1)].ID,
				Text:      s.faker.Sentence(s.faker.Number(3, 15)),
				CreatedAt: s.faker.DateRange(post.CreatedAt, now),
			})
		}
		if len(comments) > 0 {
			if err := db.CreateInBatches(&comments, 100).Error; err != nil {
				return nil, fmt.Errorf("seed comments: %w", err)
			}
		}
		res.Comments = len(comments)
	}

	for _, u := range users {
		for j := 0; j < opts.FollowsEach && len(users) > 1; j++ {
			target := users[s.faker.Number(0, len(users)-1)]
			if target.ID == u.ID {
				continue
			}
			r := db.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&model.Follow{FollowerID: u.ID, FolloweeID: target.ID})
			if r.Error != nil {
				return nil, fmt.Errorf("seed follows: %w", r.Error)
			}
			res.Follows += int(r.RowsAffected)
		}
	}
	return res, nil
}
