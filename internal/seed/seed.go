package seed

import (
	"fmt"
	"log"
	"strings"
	"time"

	"xchangez/internal/models"

	"gorm.io/gorm"
)

// Counts sizes a seeding run.
type Counts struct {
	Users           int
	Posts           int
	CommentsPerPost int
	FollowsPerUser  int
	RatingsPerUser  int
	ListsPerUser    int
	Conversations   int
}

// Presets are named seeding sizes for the seed command.
var Presets = map[string]Counts{
	"minimal":   {Users: 5, Posts: 10, CommentsPerPost: 2, FollowsPerUser: 2, RatingsPerUser: 1, ListsPerUser: 1, Conversations: 3},
	"default":   {Users: 50, Posts: 200, CommentsPerPost: 4, FollowsPerUser: 8, RatingsPerUser: 3, ListsPerUser: 1, Conversations: 40},
	"populated": {Users: 200, Posts: 2000, CommentsPerPost: 6, FollowsPerUser: 25, RatingsPerUser: 6, ListsPerUser: 2, Conversations: 300},
}

// Summary reports what a run inserted.
type Summary struct {
	Users    int
	Posts    int
	Comments int
	Follows  int
	Ratings  int
	Lists    int
	Messages int
}

func (s Summary) String() string {
	return fmt.Sprintf("users=%d posts=%d comments=%d follows=%d ratings=%d lists=%d messages=%d",
		s.Users, s.Posts, s.Comments, s.Follows, s.Ratings, s.Lists, s.Messages)
}

// Seeder fills a database with a connected marketplace graph.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder returns a Seeder writing to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts)}
}

// tablesInDeleteOrder lists every seeded table, children first.
var tablesInDeleteOrder = []any{
	&models.Message{},
	&models.ListItem{},
	&models.List{},
	&models.Rating{},
	&models.Follow{},
	&models.Comment{},
	&models.Media{},
	&models.Post{},
	&models.User{},
}

// ClearAll deletes every seeded row.
func (s *Seeder) ClearAll() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range tablesInDeleteOrder {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}
		return nil
	})
}

// ApplyPreset runs Seed with a named size from Presets.
func (s *Seeder) ApplyPreset(name string) (Summary, error) {
	counts, ok := Presets[strings.ToLower(name)]
	if !ok {
		return Summary{}, fmt.Errorf("unknown preset %q", name)
	}
	return s.Seed(counts)
}

// Seed inserts users and then posts, comment threads, follows, ratings, lists
// and conversations between them.
func (s *Seeder) Seed(c Counts) (Summary, error) {
	var sum Summary
	if c.Users <= 0 {
		return sum, fmt.Errorf("at least one user is required")
	}
	f := s.factory

	users := make([]*models.User, 0, c.Users)
	for i := 0; i < c.Users; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return sum, err
		}
		users = append(users, u)
	}
	sum.Users = len(users)
	log.Printf("seeded %d users", sum.Users)

	posts := make([]*models.Post, 0, c.Posts)
	for i := 0; i < c.Posts; i++ {
		posts = append(posts, f.BuildPost(users[f.faker.Number(0, len(users)-1)]))
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return sum, fmt.Errorf("create posts: %w", err)
	}
	sum.Posts = len(posts)

	for _, p := range posts {
		if p.IsDraft {
			continue
		}
		var thread []*models.Comment
		for i := 0; i < c.CommentsPerPost; i++ {
			var parent *models.Comment
			if len(thread) > 0 && f.faker.Bool() {
				parent = thread[f.faker.Number(0, len(thread)-1)]
			}
			cm, err := f.CreateComment(users[f.faker.Number(0, len(users)-1)], p, parent)
			if err != nil {
				return sum, err
			}
			thread = append(thread, cm)
		}
		sum.Comments += len(thread)
	}

	n, err := s.pairs(users, c.FollowsPerUser, func(a, b *models.User) error {
		_, err := f.CreateFollow(a, b)
		return err
	})
	if err != nil {
		return sum, err
	}
	sum.Follows = n

	n, err = s.pairs(users, c.RatingsPerUser, func(a, b *models.User) error {
		_, err := f.CreateRating(a, b)
		return err
	})
	if err != nil {
		return sum, err
	}
	sum.Ratings = n

	for _, u := range users {
		for i := 0; i < c.ListsPerUser; i++ {
			if _, err := f.CreateList(u, f.faker.Number(1, 6)); err != nil {
				return sum, err
			}
			sum.Lists++
		}
	}

	if len(users) > 1 {
		for i := 0; i < c.Conversations; i++ {
			a, b := s.distinctPair(users)
			at := f.pastTime()
			for j := f.faker.Number(2, 8); j > 0; j-- {
				from, to := a, b
				if f.faker.Bool() {
					from, to = b, a
				}
				at = at.Add(time.Duration(f.faker.Number(1, 240)) * time.Minute)
				if _, err := f.CreateMessage(from, to, at); err != nil {
					return sum, err
				}
				sum.Messages++
			}
		}
	}

	return sum, nil
}

// pairs calls create for up to perUser distinct targets of every user, never
// pairing a user with itself or repeating a pair.
func (s *Seeder) pairs(users []*models.User, perUser int, create func(a, b *models.User) error) (int, error) {
	if perUser > len(users)-1 {
		perUser = len(users) - 1
	}
	created := 0
	for _, u := range users {
		seen := map[uint]bool{u.ID: true}
		for len(seen)-1 < perUser {
			target := users[s.factory.faker.Number(0, len(users)-1)]
			if seen[target.ID] {
				continue
			}
			seen[target.ID] = true
			if err := create(u, target); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

func (s *Seeder) distinctPair(users []*models.User) (*models.User, *models.User) {
	i := s.factory.faker.Number(0, len(users)-1)
	j := s.factory.faker.Number(0, len(users)-2)
	if j >= i {
		j++
	}
	return users[i], users[j]
}
