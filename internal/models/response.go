package models

import "github.com/gofiber/fiber/v2"

// Envelope is the uniform response body of every API endpoint.
type Envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
	Stack   string   `json:"stack,omitempty"`
}

// Respond writes a successful envelope with the given status.
func Respond(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RespondOK writes a 200 envelope carrying data.
func RespondOK(c *fiber.Ctx, data any) error {
	return Respond(c, fiber.StatusOK, "", data)
}
