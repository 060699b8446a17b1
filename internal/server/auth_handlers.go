package server

import (
	"guildkeeper/internal/featureflags"
	"guildkeeper/internal/middleware"
	"guildkeeper/internal/models"
	"guildkeeper/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/auth/register
// @Summary Register an account
// @Description Creates a regular account and returns a signed token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Registration"
// @Success 201 {object} models.Envelope{data=service.AuthResult}
// @Failure 400 {object} models.Envelope
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	if !s.featureFlags.EnabledOr(featureflags.Registration, c.IP(), true) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Registration is currently disabled"))
	}

	var req service.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	res, err := s.authService.Register(c.UserContext(), req)
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, "User registered successfully", res)
}

// Login handles POST /api/auth/login
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "Credentials"
// @Success 200 {object} models.Envelope{data=service.AuthResult}
// @Failure 401 {object} models.Envelope
// @Failure 403 {object} models.Envelope
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	res, err := s.authService.Login(c.UserContext(), req)
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Login successful", res)
}

// Me handles GET /api/auth/me
// @Summary Current account
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope{data=models.Account}
// @Failure 401 {object} models.Envelope
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	// The authenticator already loaded the account for this request.
	if account := middleware.AccountFrom(c); account != nil {
		return models.RespondOK(c, account)
	}
	account, err := s.authService.Me(c.UserContext(), actor(c).ID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.RespondOK(c, account)
}

// UpdateProfile handles PUT /api/auth/profile and PUT /api/auth/me
// @Summary Update own profile
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.AccountFields true "Profile fields"
// @Success 200 {object} models.Envelope{data=models.Account}
// @Failure 400 {object} models.Envelope
// @Router /auth/profile [put]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req service.AccountFields
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	account, err := s.authService.UpdateProfile(c.UserContext(), actor(c).ID, req)
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Profile updated successfully", account)
}
