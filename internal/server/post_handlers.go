package server

import (
	"guildkeeper/internal/models"
	"guildkeeper/internal/repository"
	"guildkeeper/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts
// @Summary List posts
// @Description Public posts by default. public=false lists hidden posts visible to the caller.
// @Tags posts
// @Produce json
// @Param public query bool false "Visibility, default true"
// @Param group query string false "general or dnd"
// @Param type query string false "Post type, ignored with group"
// @Param status query string false "planning, active, completed or on-hold"
// @Param categories query string false "Comma-separated category ids"
// @Param tags query string false "Comma-separated tag ids"
// @Param search query string false "Text search"
// @Param minLevel query int false "Level range reaches at least"
// @Param maxLevel query int false "Level range starts at most"
// @Param sortBy query string false "createdAt, updatedAt, title, type or status"
// @Param sortOrder query string false "asc or desc"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} models.Envelope{data=service.PostList}
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	in := service.ListPostsInput{
		Public:      queryBool(c, "public"),
		Group:       c.Query("group"),
		Type:        c.Query("type"),
		Status:      c.Query("status"),
		CategoryIDs: queryList(c, "categories"),
		TagIDs:      queryList(c, "tags"),
		Search:      c.Query("search"),
		MinLevel:    queryInt(c, "minLevel"),
		MaxLevel:    queryInt(c, "maxLevel"),
		Sort:        repository.ParseSort(c.Query("sortBy"), c.Query("sortOrder"), repository.PostSortFields),
		Page:        parsePage(c, service.DefaultPostPageSize, service.MaxPostPageSize),
	}

	list, err := s.postService.List(c.UserContext(), actor(c), in)
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.RespondOK(c, list)
}

// GetMyPosts handles GET /api/posts/my
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	page := parsePage(c, service.DefaultPostPageSize, service.MaxPostPageSize)

	list, err := s.postService.ListMine(c.UserContext(), actor(c), page)
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.RespondOK(c, list)
}

// GetPostCategories handles GET /api/posts/categories
func (s *Server) GetPostCategories(c *fiber.Ctx) error {
	cats, err := s.postService.UsedCategories(c.UserContext())
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.RespondOK(c, cats)
}

// GetPostTags handles GET /api/posts/tags
func (s *Server) GetPostTags(c *fiber.Ctx) error {
	tags, err := s.postService.UsedTags(c.UserContext())
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.RespondOK(c, tags)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path string true "Post id"
// @Success 200 {object} models.Envelope{data=models.Post}
// @Failure 403 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.Get(c.UserContext(), actor(c), id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.RespondOK(c, post)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Description Admin only. Unknown category and tag names are created.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.PostInput true "Post"
// @Success 201 {object} models.Envelope{data=models.Post}
// @Failure 400 {object} models.Envelope
// @Failure 403 {object} models.Envelope
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req service.PostInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.Create(c.UserContext(), actor(c), req)
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, "Post created successfully", post)
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.PostInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.Update(c.UserContext(), actor(c), id, req)
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Post updated successfully", post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.Delete(c.UserContext(), actor(c), id); err != nil {
		return mapServiceError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Post deleted successfully", nil)
}
