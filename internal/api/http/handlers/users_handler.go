package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/service"
)

// AccountService is the account surface the users handler depends on.
type AccountService interface {
	Register(ctx context.Context, in service.RegisterInput) (string, error)
	Login(ctx context.Context, in service.LoginInput) (auth.TokenPair, error)
	GetSelf(ctx context.Context, identity string) (domain.Profile, error)
	Modify(ctx context.Context, identity string, in service.ModifyInput) error
	Delete(ctx context.Context, identity string) error
	Refresh(ctx context.Context, principal *auth.Principal) (domain.Token, error)
	Logout(ctx context.Context, principal *auth.Principal) error
}

// UsersHandler exposes account and session endpoints.
type UsersHandler struct {
	accounts AccountService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(accounts AccountService) *UsersHandler {
	return &UsersHandler{accounts: accounts}
}

// Register handles POST /v1/users.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	id, err := h.accounts.Register(c.UserContext(), service.RegisterInput{
		Lastname:  req.Lastname,
		Firstname: req.Firstname,
		Age:       req.Age.StringPtr(),
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}

	return send(c, http.StatusCreated, fiber.Map{
		"message": "User successfully created.",
		"uuid":    id,
	})
}

// Login handles POST /v1/users/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	pair, err := h.accounts.Login(c.UserContext(), service.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}

	return send(c, http.StatusOK, fiber.Map{
		"message": "User successfully logged in.",
		"token":   dto.TokenPairResponse{Access: pair.Access.Signed, Refresh: pair.Refresh.Signed},
	})
}

// Refresh handles POST /v1/users/refresh. Requires a refresh token.
func (h *UsersHandler) Refresh(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	token, err := h.accounts.Refresh(c.UserContext(), p)
	if err != nil {
		return err
	}
	return send(c, http.StatusOK, fiber.Map{"token": dto.AccessTokenResponse{Access: token.Signed}})
}

// Logout handles POST /v1/users/logout. Requires a refresh token.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	if err := h.accounts.Logout(c.UserContext(), p); err != nil {
		return err
	}
	return send(c, http.StatusOK, fiber.Map{"message": "User successfully logged out."})
}

// Me handles GET /v1/users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	profile, err := h.accounts.GetSelf(c.UserContext(), p.UserID)
	if err != nil {
		return err
	}
	return send(c, http.StatusOK, profile)
}

// Modify handles PATCH /v1/users/me.
func (h *UsersHandler) Modify(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.UserModifyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	err = h.accounts.Modify(c.UserContext(), p.UserID, service.ModifyInput{
		Lastname:  req.Lastname,
		Firstname: req.Firstname,
		Age:       req.Age.StringPtr(),
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}
	return send(c, http.StatusOK, fiber.Map{"message": "User successfully modified."})
}

// Delete handles DELETE /v1/users/me.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	if err := h.accounts.Delete(c.UserContext(), p.UserID); err != nil {
		return err
	}
	return send(c, http.StatusOK, fiber.Map{"message": "User successfully deleted."})
}
