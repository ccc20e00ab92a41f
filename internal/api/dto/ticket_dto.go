package dto

import (
	"encoding/json"

	"github.com/spec-kit/account-service/internal/domain"
)

// TicketCreateRequest carries the ticket payload. Showing stays raw so the
// service can tell a string from a structured value.
type TicketCreateRequest struct {
	Showing json.RawMessage `json:"showing"`
}

// TicketListResponse lists the caller's payloads.
type TicketListResponse struct {
	Showings []domain.Payload `json:"showings"`
}

// TicketResponse wraps a single payload.
type TicketResponse struct {
	Showing domain.Payload `json:"showing"`
}
