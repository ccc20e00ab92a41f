package service

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/repository"
)

// inlineTx runs the unit of work without a database and counts calls.
type inlineTx struct {
	calls int
}

func (t *inlineTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type stubUserRepo struct {
	mu         sync.Mutex
	byID       map[string]*domain.User
	createErr  error
	passwordUp int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: map[string]*domain.User{}}
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, u := range r.byID {
		if u.EmailHash == user.EmailHash {
			return repository.ErrEmailTaken
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.byID[user.ID] = &cp
	return nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubUserRepo) GetByEmailHash(_ context.Context, emailHash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.EmailHash == emailHash {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *stubUserRepo) ExistsByEmailHash(ctx context.Context, emailHash string) (bool, error) {
	_, err := r.GetByEmailHash(ctx, emailHash)
	return err == nil, nil
}

func (r *stubUserRepo) Update(_ context.Context, id string, c domain.UserChanges) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if c.EmailHash != nil {
		for otherID, other := range r.byID {
			if otherID != id && other.EmailHash == *c.EmailHash {
				return repository.ErrEmailTaken
			}
		}
		u.EmailHash = *c.EmailHash
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&u.Email, c.Email)
	set(&u.Firstname, c.Firstname)
	set(&u.Lastname, c.Lastname)
	set(&u.Age, c.Age)
	set(&u.PasswordHash, c.PasswordHash)
	if c.Role != nil {
		u.Role = *c.Role
	}
	return nil
}

func (r *stubUserRepo) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	r.passwordUp++
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

type stubTicketRepo struct {
	mu      sync.Mutex
	tickets []domain.Ticket
}

func (r *stubTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket.CreatedAt = time.Now()
	r.tickets = append(r.tickets, *ticket)
	return nil
}

func (r *stubTicketRepo) ListByUser(_ context.Context, userID string) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.tickets {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *stubTicketRepo) GetForUser(_ context.Context, userID, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.ID == id && t.UserID == userID {
			cp := t
			return &cp, nil
		}
	}
	return nil, repository.ErrTicketNotFound
}

func (r *stubTicketRepo) DeleteForUser(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.tickets {
		if t.ID == id && t.UserID == userID {
			r.tickets = append(r.tickets[:i], r.tickets[i+1:]...)
			return nil
		}
	}
	return repository.ErrTicketNotFound
}

func (r *stubTicketRepo) DeleteAllForUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.tickets[:0]
	var n int64
	for _, t := range r.tickets {
		if t.UserID == userID {
			n++
			continue
		}
		kept = append(kept, t)
	}
	r.tickets = kept
	return n, nil
}

type stubRevocations struct {
	mu       sync.Mutex
	tokens   map[string]time.Duration
	subjects map[string]time.Time
	err      error
}

func newStubRevocations() *stubRevocations {
	return &stubRevocations{tokens: map[string]time.Duration{}, subjects: map[string]time.Time{}}
}

func (r *stubRevocations) RevokeToken(_ context.Context, tokenID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.tokens[tokenID] = ttl
	return nil
}

func (r *stubRevocations) IsTokenRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.tokens[tokenID]
	return ok, nil
}

func (r *stubRevocations) RevokeSubject(_ context.Context, subjectID string, at time.Time, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.subjects[subjectID] = at
	return nil
}

func (r *stubRevocations) SubjectRevokedAt(_ context.Context, subjectID string) (time.Time, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return time.Time{}, false, r.err
	}
	at, ok := r.subjects[subjectID]
	return at, ok, nil
}
