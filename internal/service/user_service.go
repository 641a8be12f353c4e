// Package service holds the business rules of the API. Every operation runs
// inside exactly one unit of work.
package service

import (
	"context"

	"postboard/internal/cache"
	"postboard/internal/models"
	"postboard/internal/repository"
)

type UserService struct {
	uow   *repository.UnitOfWork
	cache *cache.Cache
}

// NewUserService builds a UserService. c may be nil.
func NewUserService(uow *repository.UnitOfWork, c *cache.Cache) *UserService {
	return &UserService{uow: uow, cache: c}
}

// CreateUser persists a new user and returns it with its generated id.
func (s *UserService) CreateUser(ctx context.Context, in models.User) (*models.User, error) {
	user := &models.User{Username: in.Username}
	err := s.uow.Do(ctx, "create_user", func(r repository.Repositories) error {
		return r.Users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.uow.Do(ctx, "list_users", func(r repository.Repositories) error {
		var err error
		users, err = r.Users.List(ctx)
		return err
	})
	return users, err
}

// GetUser returns the user with id, served from the cache when possible.
func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		return s.uow.Do(ctx, "get_user", func(r repository.Repositories) error {
			found, err := r.Users.GetByID(ctx, id)
			if err != nil {
				return err
			}
			user = *found
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser overwrites the username of an existing user.
func (s *UserService) UpdateUser(ctx context.Context, id int64, in models.User) (*models.User, error) {
	var user *models.User
	err := s.uow.Do(ctx, "update_user", func(r repository.Repositories) error {
		var err error
		user, err = r.Users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		user.Username = in.Username
		return r.Users.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateUser(ctx, id)
	return user, nil
}

// DeleteUser removes an existing user and returns the row as it was.
func (s *UserService) DeleteUser(ctx context.Context, id int64) (*models.User, error) {
	var user *models.User
	err := s.uow.Do(ctx, "delete_user", func(r repository.Repositories) error {
		var err error
		user, err = r.Users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return r.Users.Delete(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateUser(ctx, id)
	return user, nil
}
