package domain

import (
	"strings"
	"time"
)

// Role is derived from the email domain and never set by the client.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// RoleForEmail returns admin when the normalized email ends with orgDomain.
func RoleForEmail(normalizedEmail, orgDomain string) Role {
	suffix := strings.ToLower(strings.TrimSpace(orgDomain))
	if suffix != "" && strings.HasSuffix(normalizedEmail, suffix) {
		return RoleAdmin
	}
	return RoleUser
}

// User is the stored identity record. Every PII field holds ciphertext; the
// plaintext only exists in Profile for the duration of a request.
type User struct {
	ID           string
	EmailHash    string
	Email        string
	Firstname    string
	Lastname     string
	Age          string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the decrypted view of a User. A nil field could not be decrypted.
type Profile struct {
	Lastname  *string `json:"lastname"`
	Firstname *string `json:"firstname"`
	Age       *string `json:"age"`
	Email     *string `json:"email"`
	Role      Role    `json:"role"`
}

// UserChanges lists the columns a profile update rewrites. Nil means unchanged.
type UserChanges struct {
	Email        *string
	EmailHash    *string
	Role         *Role
	Firstname    *string
	Lastname     *string
	Age          *string
	PasswordHash *string
}

// Empty reports whether no column would change.
func (c UserChanges) Empty() bool {
	return c.Email == nil && c.EmailHash == nil && c.Role == nil &&
		c.Firstname == nil && c.Lastname == nil && c.Age == nil && c.PasswordHash == nil
}
