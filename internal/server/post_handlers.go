package server

import (
	"postboard/internal/models"
	"postboard/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST {root}/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var in validation.PostInput
	if err := validation.Bind(c.Body(), &in); err != nil {
		return respondWithError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := s.postService.CreatePost(ctx, in.ToModel())
	if err != nil {
		return respondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(validation.NewPostResponse(post))
}

// ListPosts handles GET {root}/posts
func (s *Server) ListPosts(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	posts, err := s.postService.ListPosts(ctx)
	if err != nil {
		return respondWithError(c, err)
	}
	if len(posts) == 0 && s.config.PostsEmptyNotFound {
		return respondWithError(c, models.NewNotFoundError(models.MsgNoPosts))
	}
	return c.JSON(validation.NewPostResponses(posts))
}
