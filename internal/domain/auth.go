package domain

import "time"

// TokenKind separates access tokens from refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Token represents an issued, signed credential.
type Token struct {
	ID        string
	SubjectID string
	Kind      TokenKind
	Fresh     bool
	Signed    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
