package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/domain"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller as stated by a verified token.
type Principal struct {
	UserID    string
	Kind      domain.TokenKind
	Fresh     bool
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AuthMiddleware validates bearer tokens and stores the principal.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAccess enforces an access token on protected routes.
func (m *AuthMiddleware) RequireAccess(c *fiber.Ctx) error {
	return m.handle(c, domain.TokenKindAccess)
}

// RequireRefresh enforces a refresh token; used only by token endpoints.
func (m *AuthMiddleware) RequireRefresh(c *fiber.Ctx) error {
	return m.handle(c, domain.TokenKindRefresh)
}

func (m *AuthMiddleware) handle(c *fiber.Ctx, kind domain.TokenKind) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("Missing Authorization Header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return apperrors.NewUnauthorized("Bad Authorization header. Expected 'Authorization: Bearer <JWT>'")
	}

	claims, err := m.tokens.Parse(strings.TrimSpace(parts[1]), kind)
	if err != nil {
		if errors.Is(err, ErrWrongTokenType) {
			return apperrors.NewUnauthorized("Only " + string(kind) + " tokens are allowed")
		}
		return apperrors.NewUnauthorized("Invalid or expired token")
	}

	principal := &Principal{
		UserID:  claims.Subject,
		Kind:    claims.Kind,
		Fresh:   claims.Fresh,
		TokenID: claims.ID,
	}
	if claims.IssuedAt != nil {
		principal.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
