// Package seed creates demo data for development databases. It goes through
// the service layer so seeded rows obey the same rules as API writes.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"postboard/internal/cache"
	"postboard/internal/middleware"
	"postboard/internal/models"
	"postboard/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	maxUsernameLen = 50
	maxTitleLen    = 50
	maxContentLen  = 100
)

// Seeder generates fake users and posts.
type Seeder struct {
	users *service.UserService
	posts *service.PostService
	faker *gofakeit.Faker
}

// NewSeeder returns a Seeder. A zero seed draws a random one.
func NewSeeder(users *service.UserService, posts *service.PostService, seed int64) *Seeder {
	return &Seeder{users: users, posts: posts, faker: gofakeit.New(seed)}
}

// SeedUsers creates n users. Usernames carry a short uuid suffix so repeated
// runs never collide on the unique constraint.
func (s *Seeder) SeedUsers(ctx context.Context, n int) ([]models.User, error) {
	out := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		name := truncate(fmt.Sprintf("%s-%s", s.faker.Username(), uuid.NewString()[:8]), maxUsernameLen)
		user, err := s.users.CreateUser(ctx, models.User{Username: name})
		if err != nil {
			return out, fmt.Errorf("seed user %d: %w", i, err)
		}
		out = append(out, *user)
	}
	middleware.Logger.InfoContext(ctx, "Seeded users", slog.Int("count", len(out)))
	return out, nil
}

// SeedPosts creates n posts spread randomly across authors.
func (s *Seeder) SeedPosts(ctx context.Context, authors []models.User, n int) ([]models.Post, error) {
	if len(authors) == 0 {
		return nil, fmt.Errorf("seed posts: no authors")
	}

	out := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		author := authors[s.faker.Number(0, len(authors)-1)]
		post, err := s.posts.CreatePost(ctx, models.Post{
			Title:   truncate(s.faker.Sentence(4), maxTitleLen),
			Content: truncate(s.faker.Sentence(12), maxContentLen),
			UserID:  int64(author.ID),
		})
		if err != nil {
			return out, fmt.Errorf("seed post %d: %w", i, err)
		}
		out = append(out, *post)
	}
	middleware.Logger.InfoContext(ctx, "Seeded posts", slog.Int("count", len(out)))
	return out, nil
}

// Clear deletes every post and user in one transaction, then drops the cached
// record of each deleted user so a running API stops serving them. c may be nil.
func Clear(ctx context.Context, db *gorm.DB, c *cache.Cache) error {
	var ids []int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		if err := tx.Exec("DELETE FROM posts").Error; err != nil {
			return fmt.Errorf("clear posts: %w", err)
		}
		if err := tx.Exec("DELETE FROM users").Error; err != nil {
			return fmt.Errorf("clear users: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, id := range ids {
		c.InvalidateUser(ctx, id)
	}
	middleware.Logger.InfoContext(ctx, "Cleared users and posts", slog.Int("users", len(ids)))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
