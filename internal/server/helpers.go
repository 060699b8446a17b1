package server

import (
	"errors"
	"strconv"
	"strings"

	"guildkeeper/internal/middleware"
	"guildkeeper/internal/models"
	"guildkeeper/internal/policy"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parsePage extracts the 1-based page and limit query parameters. The limit falls back
// to defaultLimit and is capped at maxLimit. The page is capped at models.MaxPageNumber.
func parsePage(c *fiber.Ctx, defaultLimit, maxLimit int) models.Page {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	if page > models.MaxPageNumber {
		page = models.MaxPageNumber
	}

	limit := c.QueryInt("limit", defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return models.Page{Number: page, Limit: limit}
}

// parseID extracts a route parameter holding an entity id.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func parseID(c *fiber.Ctx, param string) (string, error) {
	id := c.Params(param)
	if !models.ValidID(id) {
		_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewInvalidIDError())
		return "", errResponseWritten
	}
	return id, nil
}

// parseBody decodes the JSON request body into dst.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// mapServiceError writes the failure envelope for an error returned by a service.
func mapServiceError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		appErr = models.NewInternalError(err)
	}
	if appErr.Code == models.CodeInternal {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"path", c.Path(), "error", err)
	}
	return models.RespondWithError(c, appErr.Status(), appErr)
}

// actor returns the caller attached by the authenticator.
func actor(c *fiber.Ctx) policy.Actor {
	return middleware.ActorFrom(c)
}

// queryBool parses a true/false query parameter. Missing or malformed values give nil.
func queryBool(c *fiber.Ctx, key string) *bool {
	v, err := strconv.ParseBool(c.Query(key))
	if err != nil {
		return nil
	}
	return &v
}

// queryInt parses an integer query parameter. Missing or malformed values give nil.
func queryInt(c *fiber.Ctx, key string) *int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return nil
	}
	return &v
}

// queryList splits a comma-separated query parameter, dropping blanks.
func queryList(c *fiber.Ctx, key string) []string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
