package server

import (
	"postboard/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// CreateUser handles POST {root}/users
func (s *Server) CreateUser(c *fiber.Ctx) error {
	var in validation.UserInput
	if err := validation.Bind(c.Body(), &in); err != nil {
		return respondWithError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.userService.CreateUser(ctx, in.ToModel())
	if err != nil {
		return respondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(validation.NewUserResponse(user))
}

// ListUsers handles GET {root}/users
func (s *Server) ListUsers(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := s.userService.ListUsers(ctx)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(validation.NewUserResponses(users))
}

// GetUser handles GET {root}/users/:user_id
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c, "user_id")
	if err != nil {
		return respondWithError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.userService.GetUser(ctx, id)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(validation.NewUserBase(user))
}

// UpdateUser handles PUT {root}/users/:user_id
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	id, err := parseID(c, "user_id")
	if err != nil {
		return respondWithError(c, err)
	}

	var in validation.UserInput
	if err := validation.Bind(c.Body(), &in); err != nil {
		return respondWithError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.userService.UpdateUser(ctx, id, in.ToModel())
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(validation.NewUserBase(user))
}

// DeleteUser handles DELETE {root}/users/:user_id
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c, "user_id")
	if err != nil {
		return respondWithError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.userService.DeleteUser(ctx, id)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(validation.NewUserResponse(user))
}
