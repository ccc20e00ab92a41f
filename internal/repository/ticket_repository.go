package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/persistence"
)

// TicketRepository encapsulates ticket persistence. Every method is scoped
// to an owner and never reads or writes another user's rows.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	ListByUser(ctx context.Context, userID string) ([]domain.Ticket, error)
	GetForUser(ctx context.Context, userID, id string) (*domain.Ticket, error)
	DeleteForUser(ctx context.Context, userID, id string) error
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}

type ticketRepository struct {
	db persistence.DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db persistence.DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, user_id, payload_kind, payload)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		ticket.ID,
		ticket.UserID,
		ticket.Payload.Kind,
		ticket.Payload.Value,
	).Scan(&ticket.CreatedAt)
}

func (r *ticketRepository) ListByUser(ctx context.Context, userID string) ([]domain.Ticket, error) {
	const query = `
        SELECT id, user_id, payload_kind, payload, created_at
        FROM tickets WHERE user_id=$1
        ORDER BY created_at, id`

	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, rows.Err()
}

func (r *ticketRepository) GetForUser(ctx context.Context, userID, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, user_id, payload_kind, payload, created_at
        FROM tickets WHERE id=$1 AND user_id=$2`

	ticket, err := scanTicket(persistence.Conn(ctx, r.db).QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	return ticket, err
}

func (r *ticketRepository) DeleteForUser(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM tickets WHERE id=$1 AND user_id=$2`

	cmd, err := persistence.Conn(ctx, r.db).Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTicketNotFound
	}
	return nil
}

func (r *ticketRepository) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	const query = `DELETE FROM tickets WHERE user_id=$1`

	cmd, err := persistence.Conn(ctx, r.db).Exec(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.UserID,
		&ticket.Payload.Kind,
		&ticket.Payload.Value,
		&ticket.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
