package server

import (
	"io"
	"mime/multipart"

	"guildkeeper/internal/models"
	"guildkeeper/internal/repository"
	"guildkeeper/internal/service"

	"github.com/gofiber/fiber/v2"
)

// avatarFields are the accepted multipart field names of an avatar upload.
var avatarFields = []string{"avatar", "slika"}

// GetUsers handles GET /api/users
// @Summary List accounts
// @Description Admin listing with role, status, gender and text filters
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param role query string false "admin or user"
// @Param active query bool false "Active flag"
// @Param gender query string false "male, female or other"
// @Param search query string false "Substring of name, surname or email"
// @Param sortBy query string false "Sort field"
// @Param sortOrder query string false "asc or desc"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} models.Envelope{data=service.UserList}
// @Failure 403 {object} models.Envelope
// @Router /users [get]
func (s *Server) GetUsers(c *fiber.Ctx) error {
	in := service.ListUsersInput{
		Filter: repository.UserFilter{
			Role:   models.Role(c.Query("role")),
			Active: queryBool(c, "active"),
			Gender: models.Gender(c.Query("gender")),
			Search: c.Query("search"),
		},
		Sort: repository.ParseSort(c.Query("sortBy"), c.Query("sortOrder"), repository.UserSortFields),
		Page: parsePage(c, service.DefaultUserPageSize, service.MaxUserPageSize),
	}

	list, err := s.userService.List(c.UserContext(), actor(c), in)
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.RespondOK(c, list)
}

// GetUser handles GET /api/users/:id
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	account, err := s.userService.Get(c.UserContext(), actor(c), id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.RespondOK(c, account)
}

// CreateUser handles POST /api/users
// @Summary Create an account
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateUserInput true "Account"
// @Success 201 {object} models.Envelope{data=models.Account}
// @Failure 400 {object} models.Envelope
// @Router /users [post]
func (s *Server) CreateUser(c *fiber.Ctx) error {
	var req service.CreateUserInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	account, err := s.userService.Create(c.UserContext(), actor(c), req)
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, "User created successfully", account)
}

// UpdateUser handles PUT /api/users/:id
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.UpdateUserInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	account, err := s.userService.Update(c.UserContext(), actor(c), id, req)
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "User updated successfully", account)
}

// DeleteUser handles DELETE /api/users/:id
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.userService.Delete(c.UserContext(), actor(c), id); err != nil {
		return mapServiceError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "User deleted successfully", nil)
}

// DeleteMe handles DELETE /api/users/me
func (s *Server) DeleteMe(c *fiber.Ctx) error {
	if err := s.userService.DeleteSelf(c.UserContext(), actor(c)); err != nil {
		return mapServiceError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Account deleted successfully", nil)
}

// ToggleUserRole handles PATCH /api/users/:id/role
func (s *Server) ToggleUserRole(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	account, err := s.userService.ToggleRole(c.UserContext(), actor(c), id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "User role updated to "+string(account.Role), account)
}

// ToggleUserStatus handles PATCH /api/users/:id/status
func (s *Server) ToggleUserStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	account, err := s.userService.ToggleStatus(c.UserContext(), actor(c), id)
	if err != nil {
		return mapServiceError(c, err)
	}
	message := "User deactivated"
	if account.Active {
		message = "User activated"
	}
	return models.Respond(c, fiber.StatusOK, message, account)
}

// BulkUsers handles POST /api/users/bulk
// @Summary Bulk account action
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{userIds=[]string,action=string} true "activate, deactivate, delete, makeAdmin or makeUser"
// @Success 200 {object} models.Envelope{data=service.BulkResult}
// @Failure 400 {object} models.Envelope
// @Router /users/bulk [post]
func (s *Server) BulkUsers(c *fiber.Ctx) error {
	var req struct {
		UserIDs []string `json:"userIds"`
		Action  string   `json:"action"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	res, err := s.userService.Bulk(c.UserContext(), actor(c), req.UserIDs, req.Action)
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, res.Message, res)
}

// UploadAvatar handles POST /api/users/:id/avatar
// @Summary Upload a profile image
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account id"
// @Param avatar formData file true "jpeg, png, gif or webp image"
// @Success 200 {object} models.Envelope{data=service.AvatarResult}
// @Failure 400 {object} models.Envelope
// @Router /users/{id}/avatar [post]
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var fh *multipart.FileHeader
	for _, field := range avatarFields {
		if fh, err = c.FormFile(field); err == nil {
			break
		}
	}
	if fh == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Image is required"))
	}

	upload, err := readUpload(fh, int64(s.config.MaxUploadSizeMB)*1024*1024)
	if err != nil {
		return mapServiceError(c, err)
	}

	res, err := s.avatarService.Upload(c.UserContext(), actor(c), id, upload)
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Avatar uploaded successfully", res)
}

// DeleteAvatar handles DELETE /api/users/:id/avatar
func (s *Server) DeleteAvatar(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	account, err := s.avatarService.Remove(c.UserContext(), actor(c), id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Avatar removed successfully", account)
}

// readUpload reads at most maxBytes+1 bytes so oversized files are detected without
// buffering them whole.
func readUpload(fh *multipart.FileHeader, maxBytes int64) (service.AvatarUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return service.AvatarUpload{}, models.NewValidationError("Could not read uploaded file")
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return service.AvatarUpload{}, models.NewInternalError(err)
	}
	return service.AvatarUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}
