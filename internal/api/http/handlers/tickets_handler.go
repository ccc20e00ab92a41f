package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/domain"
)

// TicketService is the ticket surface the handler depends on.
type TicketService interface {
	List(ctx context.Context, identity string) ([]domain.Payload, error)
	Get(ctx context.Context, identity, id string) (domain.Payload, error)
	Create(ctx context.Context, identity string, showing json.RawMessage) (string, error)
	Delete(ctx context.Context, identity, id string) error
	DeleteAll(ctx context.Context, identity string) (int64, error)
}

// TicketsHandler exposes the caller's tickets.
type TicketsHandler struct {
	tickets TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

// List handles GET /v1/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	payloads, err := h.tickets.List(c.UserContext(), p.UserID)
	if err != nil {
		return err
	}
	return send(c, http.StatusOK, dto.TicketListResponse{Showings: payloads})
}

// Get handles GET /v1/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	payload, err := h.tickets.Get(c.UserContext(), p.UserID, c.Params("id"))
	if err != nil {
		return err
	}
	return send(c, http.StatusOK, dto.TicketResponse{Showing: payload})
}

// Create handles POST /v1/tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.TicketCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	id, err := h.tickets.Create(c.UserContext(), p.UserID, req.Showing)
	if err != nil {
		return err
	}
	return send(c, http.StatusCreated, fiber.Map{
		"message": "Ticket successfully created.",
		"uuid":    id,
	})
}

// Delete handles DELETE /v1/tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	if err := h.tickets.Delete(c.UserContext(), p.UserID, c.Params("id")); err != nil {
		return err
	}
	return send(c, http.StatusOK, fiber.Map{"message": "Ticket successfully deleted."})
}

// DeleteAll handles DELETE /v1/tickets.
func (h *TicketsHandler) DeleteAll(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	if _, err := h.tickets.DeleteAll(c.UserContext(), p.UserID); err != nil {
		return err
	}
	return send(c, http.StatusOK, fiber.Map{"message": "Tickets successfully deleted."})
}
