package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/auth"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

const msgInvalidBody = "Invalid JSON body"

// send writes the success envelope.
func send(c *fiber.Ctx, status int, data any) error {
	body := fiber.Map{"status": status}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError(msgInvalidBody, nil)
	}
	return nil
}

func principal(c *fiber.Ctx) (*auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok || p.UserID == "" {
		return nil, apperrors.NewUnauthorized("Missing Authorization Header")
	}
	return p, nil
}
