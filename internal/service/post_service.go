package service

import (
	"context"

	"postboard/internal/models"
	"postboard/internal/repository"
)

type PostService struct {
	uow *repository.UnitOfWork
}

func NewPostService(uow *repository.UnitOfWork) *PostService {
	return &PostService{uow: uow}
}

// CreatePost persists a post after checking, in the same transaction, that
// its author exists. Nothing is written when the author is unknown.
func (s *PostService) CreatePost(ctx context.Context, in models.Post) (*models.Post, error) {
	post := &models.Post{Title: in.Title, Content: in.Content, UserID: in.UserID}
	err := s.uow.Do(ctx, "create_post", func(r repository.Repositories) error {
		ok, err := r.Users.Exists(ctx, in.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewNotFoundError(models.MsgIDNotFound)
		}
		return r.Posts.Create(ctx, post)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) ListPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	err := s.uow.Do(ctx, "list_posts", func(r repository.Repositories) error {
		var err error
		posts, err = r.Posts.List(ctx)
		return err
	})
	return posts, err
}

// CountPosts returns the number of stored posts.
func (s *PostService) CountPosts(ctx context.Context) (int64, error) {
	var n int64
	err := s.uow.Do(ctx, "count_posts", func(r repository.Repositories) error {
		var err error
		n, err = r.Posts.Count(ctx)
		return err
	})
	return n, err
}
