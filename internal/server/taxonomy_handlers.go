package server

import (
	"guildkeeper/internal/models"
	"guildkeeper/internal/service"

	"github.com/gofiber/fiber/v2"
)

// taxonomyHandlers serves the CRUD routes shared by categories and tags.
type taxonomyHandlers[T models.Category | models.Tag] struct {
	svc *service.TaxonomyService[T]
}

func newTaxonomyHandlers[T models.Category | models.Tag](svc *service.TaxonomyService[T]) *taxonomyHandlers[T] {
	return &taxonomyHandlers[T]{svc: svc}
}

// registerTaxonomy mounts the listing and lookup routes publicly and the
// write routes behind authentication and the admin check.
func registerTaxonomy[T models.Category | models.Tag](router fiber.Router, h *taxonomyHandlers[T], required, admin fiber.Handler) {
	router.Get("/", h.List)
	router.Get("/:id", h.Get)
	router.Post("/", required, admin, h.Create)
	router.Put("/:id", required, admin, h.Update)
	router.Delete("/:id", required, admin, h.Delete)
}

// List handles GET /api/categories and GET /api/tags
// @Summary List active categories or tags
// @Tags taxonomy
// @Produce json
// @Success 200 {object} models.Envelope
// @Router /categories [get]
// @Router /tags [get]
func (h *taxonomyHandlers[T]) List(c *fiber.Ctx) error {
	entries, err := h.svc.ListActive(c.UserContext())
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.RespondOK(c, entries)
}

func (h *taxonomyHandlers[T]) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	entry, err := h.svc.Get(c.UserContext(), id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.RespondOK(c, entry)
}

// Create handles POST /api/categories and POST /api/tags
// @Summary Create a category or tag
// @Tags taxonomy
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.TaxonomyInput true "Entry"
// @Success 201 {object} models.Envelope
// @Failure 400 {object} models.Envelope
// @Router /categories [post]
// @Router /tags [post]
func (h *taxonomyHandlers[T]) Create(c *fiber.Ctx) error {
	var req service.TaxonomyInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	entry, err := h.svc.Create(c.UserContext(), actor(c), req)
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, "Created successfully", entry)
}

func (h *taxonomyHandlers[T]) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.TaxonomyInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	entry, err := h.svc.Update(c.UserContext(), actor(c), id, req)
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Updated successfully", entry)
}

func (h *taxonomyHandlers[T]) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := h.svc.Delete(c.UserContext(), actor(c), id); err != nil {
		return mapServiceError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Deleted successfully", nil)
}
