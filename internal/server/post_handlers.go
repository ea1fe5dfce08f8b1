package server

import (
	"cidadeemfoco/internal/models"
	"cidadeemfoco/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/publicacoes
// @Summary Create a post
// @Description Uploads the image to the media host and stores the post with zero likes.
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "JPEG or PNG image"
// @Param description formData string true "Post description"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /publicacoes [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return models.WriteError(c, err)
	}

	image, _, err := s.formImage(c, "image")
	if err != nil {
		return models.WriteError(c, err)
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:      id.UserID,
		Description: c.FormValue("description"),
		Image:       image,
	})
	if err != nil {
		return models.WriteError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// ListPosts handles GET /api/publicacoes
// @Summary List posts
// @Description Newest first, each with its author summary. Without limit every post is returned.
// @Tags posts
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Post
// @Router /publicacoes [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	page := parsePagination(c)

	posts, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return models.WriteError(c, err)
	}

	return c.JSON(posts)
}

// LikePost handles POST /api/publicacoes/:id/curtir
// @Summary Like a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} LikeResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /publicacoes/{id}/curtir [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	id, err := identity(c)
	if err != nil {
		return models.WriteError(c, err)
	}

	result, err := s.ledger.Like(c.UserContext(), postID, id.UserID)
	if err != nil {
		return models.WriteError(c, err)
	}

	return c.JSON(LikeResponse{Message: "Post liked successfully", Likes: result.Likes})
}

// UnlikePost handles DELETE /api/publicacoes/:id/curtir
// @Summary Remove a like
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} LikeResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /publicacoes/{id}/curtir [delete]
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	id, err := identity(c)
	if err != nil {
		return models.WriteError(c, err)
	}

	result, err := s.ledger.Unlike(c.UserContext(), postID, id.UserID)
	if err != nil {
		return models.WriteError(c, err)
	}

	return c.JSON(LikeResponse{Message: "Like removed successfully", Likes: result.Likes})
}
