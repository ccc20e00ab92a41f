package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/persistence"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

const (
	msgNoTickets       = "No tickets were found."
	msgMissingShowing  = "Missing value: showing"
	msgInvalidShowing  = "Invalid value: showing must be a string or a JSON object"
	fmtTicketNotFound  = "The specified ticket was not found (%s)."
	fmtTicketNotExists = "Ticket %s not found."
)

// TicketService exposes ticket CRUD scoped to the calling identity.
type TicketService struct {
	tickets repository.TicketRepository
	tx      persistence.TxManager
}

// NewTicketService builds the service.
func NewTicketService(tickets repository.TicketRepository, tx persistence.TxManager) *TicketService {
	return &TicketService{tickets: tickets, tx: tx}
}

// List returns every payload owned by identity, oldest first.
func (s *TicketService) List(ctx context.Context, identity string) ([]domain.Payload, error) {
	var tickets []domain.Ticket
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		tickets, err = s.tickets.ListByUser(ctx, identity)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, apperrors.NewNotFound(msgNoTickets)
	}

	payloads := make([]domain.Payload, 0, len(tickets))
	for _, t := range tickets {
		payloads = append(payloads, t.Payload)
	}
	return payloads, nil
}

// Get returns one payload if identity owns it.
func (s *TicketService) Get(ctx context.Context, identity, id string) (domain.Payload, error) {
	var ticket *domain.Ticket
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		ticket, err = s.tickets.GetForUser(ctx, identity, id)
		return err
	})
	if errors.Is(err, repository.ErrTicketNotFound) {
		return domain.Payload{}, apperrors.NewNotFound(fmt.Sprintf(fmtTicketNotFound, id))
	}
	if err != nil {
		return domain.Payload{}, err
	}
	return ticket.Payload, nil
}

// Create stores a payload for identity and returns the new ticket id. A nil
// showing means the field was absent.
func (s *TicketService) Create(ctx context.Context, identity string, showing json.RawMessage) (string, error) {
	if showing == nil || string(showing) == "null" {
		return "", apperrors.NewValidationError(msgMissingShowing, map[string]any{"missing": []string{"showing"}})
	}
	payload, err := domain.ParsePayload(showing)
	if err != nil {
		return "", apperrors.NewValidationError(msgInvalidShowing, nil)
	}

	ticket := &domain.Ticket{ID: newID(), UserID: identity, Payload: payload}
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.tickets.Create(ctx, ticket)
	})
	if err != nil {
		return "", err
	}
	return ticket.ID, nil
}

// Delete removes one ticket owned by identity.
func (s *TicketService) Delete(ctx context.Context, identity, id string) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.tickets.DeleteForUser(ctx, identity, id)
	})
	if errors.Is(err, repository.ErrTicketNotFound) {
		return apperrors.NewNotFound(fmt.Sprintf(fmtTicketNotExists, id))
	}
	return err
}

// DeleteAll removes every ticket owned by identity. Having none is not an
// error.
func (s *TicketService) DeleteAll(ctx context.Context, identity string) (int64, error) {
	var n int64
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.tickets.DeleteAllForUser(ctx, identity)
		return err
	})
	return n, err
}
