package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong mirrors bcrypt's 72-byte input limit.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// Outcome is the result of checking a password against a stored digest.
type Outcome int

const (
	// Rejected means the candidate does not match; storage must not change.
	Rejected Outcome = iota
	// Current means the candidate matches and the digest uses current parameters.
	Current
	// Rehashed means the candidate matches and Digest holds an upgraded hash.
	Rehashed
)

// Verification is the pure result of VerifyAndRehash.
type Verification struct {
	Outcome Outcome
	Digest  string
}

// Valid reports whether the password matched.
func (v Verification) Valid() bool {
	return v.Outcome != Rejected
}

// PasswordHasher hashes and verifies passwords with bcrypt at a fixed cost.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher clamps cost into bcrypt's accepted range.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Cost returns the cost new digests are produced with.
func (h *PasswordHasher) Cost() int {
	return h.cost
}

// Hash hashes a plaintext password with the configured cost.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyAndRehash checks candidate against stored. When the password matches
// and stored was produced with a lower cost, a new digest is computed; the
// caller persists it only after this successful verification.
func (h *PasswordHasher) VerifyAndRehash(stored, candidate string) Verification {
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)); err != nil {
		return Verification{Outcome: Rejected, Digest: stored}
	}

	cost, err := bcrypt.Cost([]byte(stored))
	if err != nil || cost >= h.cost {
		return Verification{Outcome: Current, Digest: stored}
	}

	upgraded, err := h.Hash(candidate)
	if err != nil {
		return Verification{Outcome: Current, Digest: stored}
	}
	return Verification{Outcome: Rehashed, Digest: upgraded}
}

// IsTooLong reports whether err is bcrypt's length rejection.
func IsTooLong(err error) bool {
	return errors.Is(err, ErrPasswordTooLong)
}
