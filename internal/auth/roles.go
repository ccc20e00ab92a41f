package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/domain"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// RequireFresh ensures the caller holds an access token issued directly by a
// password login. Mount it after RequireAccess.
func RequireFresh() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Kind != domain.TokenKindAccess {
			return apperrors.NewUnauthorized("Missing Authorization Header")
		}
		if !principal.Fresh {
			return apperrors.NewUnauthorized("Fresh token required")
		}
		return c.Next()
	}
}
