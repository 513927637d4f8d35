// Package seed provides helpers to create demo data for the marketplace
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"xchangez/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the plain-text password of every seeded user.
const DefaultPassword = "password123"

// Options configure the seeder and its factory.
type Options struct {
	// Seed makes generated content reproducible. Zero picks a time-based seed.
	Seed int64
	// MaxDays bounds how far back created_at timestamps are spread.
	MaxDays int
	// SkipBcrypt stores a fixed hash instead of hashing per user.
	SkipBcrypt bool
	// DryRun assigns synthetic ids without touching the database.
	DryRun bool
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db     *gorm.DB
	opts   Options
	faker  *gofakeit.Faker
	hash   string
	nextID uint
}

// NewFactory creates a Factory bound to db.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	return &Factory{db: db, opts: opts, faker: gofakeit.New(seed), nextID: 1000}
}

func (f *Factory) passwordHash() string {
	if f.hash != "" {
		return f.hash
	}
	cost := bcrypt.DefaultCost
	if f.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		log.Printf("seed: hash password: %v", err)
	}
	f.hash = string(h)
	return f.hash
}

// pastTime returns a moment within the last MaxDays days.
func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.faker.Number(0, f.opts.MaxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}

func (f *Factory) create(value any, assignID func(uint)) error {
	if f.opts.DryRun {
		f.nextID++
		assignID(f.nextID)
		return nil
	}
	return f.db.Create(value).Error
}

// BuildUser returns an unsaved user with a unique email.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	first, last := f.faker.FirstName(), f.faker.LastName()
	birth := f.faker.DateRange(time.Now().AddDate(-70, 0, 0), time.Now().AddDate(-18, 0, 0))
	private := f.faker.Number(1, 10) == 1
	u := &models.User{
		Nick:      clip(strings.ToLower(first)+f.faker.Numerify("###"), 25),
		Name:      clip(first, 50),
		Surname:   clip(last, 50),
		Email:     clip(fmt.Sprintf("%s.%s@%s", strings.ToLower(first), f.faker.UUID()[:8], "example.com"), 50),
		Password:  f.passwordHash(),
		BirthDate: &birth,
		IsPrivate: &private,
		CreatedAt: f.pastTime(),
	}
	for _, override := range overrides {
		override(u)
	}
	return u
}

// CreateUser builds and persists a user.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	u := f.BuildUser(overrides...)
	if err := f.create(u, func(id uint) { u.ID = id }); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// BuildPost returns an unsaved post by author. About one post in ten is a draft.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	features := f.faker.Sentence(8)
	p := &models.Post{
		UserID:      author.ID,
		Title:       clip(f.faker.ProductName(), 50),
		Description: clip(f.faker.Paragraph(1, 3, 8, " "), 250),
		Features:    &features,
		IsDraft:     f.faker.Number(1, 10) == 1,
		Price:       f.faker.Price(1, 2000),
		Status:      f.faker.Number(0, 2),
		Visits:      f.faker.Number(0, 500),
		IsActive:    true,
		CreatedAt:   f.pastTime(),
	}
	for _, override := range overrides {
		override(p)
	}
	return p
}

// CreatePostsBatch persists posts in one statement.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts (no DB write)", len(posts))
		return nil
	}
	return f.db.CreateInBatches(posts, 100).Error
}

// CreateComment persists a comment on post. A nil parent makes it top-level.
func (f *Factory) CreateComment(author *models.User, post *models.Post, parent *models.Comment) (*models.Comment, error) {
	c := &models.Comment{
		PostID:    post.ID,
		UserID:    author.ID,
		Content:   clip(f.faker.Sentence(f.faker.Number(4, 20)), 250),
		CreatedAt: post.CreatedAt.Add(time.Duration(f.faker.Number(1, 72*60)) * time.Minute),
	}
	if parent != nil {
		c.ParentID = parent.ID
		c.CreatedAt = parent.CreatedAt.Add(time.Duration(f.faker.Number(1, 24*60)) * time.Minute)
	}
	if err := f.create(c, func(id uint) { c.ID = id }); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

// CreateFollow persists follower -> followed.
func (f *Factory) CreateFollow(follower, followed *models.User) (*models.Follow, error) {
	fl := &models.Follow{FollowerID: follower.ID, FollowedID: followed.ID, CreatedAt: f.pastTime()}
	if err := f.create(fl, func(id uint) { fl.ID = id }); err != nil {
		return nil, fmt.Errorf("create follow: %w", err)
	}
	return fl, nil
}

// CreateRating persists a score from rater to rated, skewed towards good ratings.
func (f *Factory) CreateRating(rater, rated *models.User) (*models.Rating, error) {
	amount := f.faker.Number(models.MinRatingAmount, models.MaxRatingAmount)
	if amount < 3 && f.faker.Bool() {
		amount += 2
	}
	r := &models.Rating{RaterID: rater.ID, RatedID: rated.ID, Amount: amount, CreatedAt: f.pastTime()}
	if f.faker.Bool() {
		comment := clip(f.faker.Sentence(10), 250)
		r.Comment = &comment
	}
	if err := f.create(r, func(id uint) { r.ID = id }); err != nil {
		return nil, fmt.Errorf("create rating: %w", err)
	}
	return r, nil
}

// CreateList persists a list with itemCount items.
func (f *Factory) CreateList(owner *models.User, itemCount int) (*models.List, error) {
	wanted := f.faker.Bool()
	name := "Ofrezco"
	if wanted {
		name = "Busco"
	}
	l := &models.List{
		UserID:    owner.ID,
		Name:      name,
		IsPublic:  f.faker.Number(1, 4) > 1,
		CreatedAt: f.pastTime(),
	}
	for i := 0; i < itemCount; i++ {
		l.Items = append(l.Items, models.ListItem{
			Name:        clip(f.faker.ProductName(), 50),
			Description: clip(f.faker.Sentence(6), 250),
			Wanted:      wanted,
		})
	}
	if err := f.create(l, func(id uint) { l.ID = id }); err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}
	return l, nil
}

// CreateMessage persists a direct message from sender to recipient.
func (f *Factory) CreateMessage(sender, recipient *models.User, at time.Time) (*models.Message, error) {
	m := &models.Message{
		UserID:    sender.ID,
		GroupID:   recipient.ID,
		Content:   f.faker.Sentence(f.faker.Number(2, 15)),
		CreatedAt: at,
	}
	if err := f.create(m, func(id uint) { m.ID = id }); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return m, nil
}
