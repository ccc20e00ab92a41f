package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/crypto"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/observability"
	"github.com/spec-kit/account-service/internal/persistence"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

const (
	msgAccountExists      = "Account already exists."
	msgInvalidCredentials = "Email or password invalid."
	msgUserNotFound       = "User not found."
	msgNoChanges          = "At least one field is required."
	msgPasswordTooLong    = "Password must be at most 72 bytes."
	msgTokenRevoked       = "Token has been revoked"
)

// RegisterInput carries a registration request. Nil means the field was
// absent from the body.
type RegisterInput struct {
	Lastname  *string `json:"lastname" validate:"required"`
	Firstname *string `json:"firstname" validate:"required"`
	Age       *string `json:"age" validate:"required"`
	Email     *string `json:"email" validate:"required"`
	Password  *string `json:"password" validate:"required"`
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    *string `json:"email" validate:"required"`
	Password *string `json:"password" validate:"required"`
}

// ModifyInput is a partial profile update. Nil fields are left untouched.
type ModifyInput struct {
	Lastname  *string
	Firstname *string
	Age       *string
	Email     *string
	Password  *string
}

// AccountDependencies bundles collaborators of AccountService.
type AccountDependencies struct {
	Users       repository.UserRepository
	Revocations repository.RevocationRepository
	Tx          persistence.TxManager
	Cipher      *crypto.FieldCipher
	Hasher      *auth.PasswordHasher
	Tokens      *auth.TokenManager
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	OrgDomain   string
}

// AccountService owns the identity record lifecycle and session issuance.
type AccountService struct {
	users       repository.UserRepository
	revocations repository.RevocationRepository
	tx          persistence.TxManager
	cipher      *crypto.FieldCipher
	hasher      *auth.PasswordHasher
	tokens      *auth.TokenManager
	metrics     *observability.Metrics
	logger      *zap.Logger
	orgDomain   string
	now         func() time.Time
}

// NewAccountService builds the service.
func NewAccountService(deps AccountDependencies) *AccountService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		users:       deps.Users,
		revocations: deps.Revocations,
		tx:          deps.Tx,
		cipher:      deps.Cipher,
		hasher:      deps.Hasher,
		tokens:      deps.Tokens,
		metrics:     deps.Metrics,
		logger:      logger,
		orgDomain:   deps.OrgDomain,
		now:         time.Now,
	}
}

// Register creates an identity record and returns its id.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (string, error) {
	if err := requireFields(in); err != nil {
		return "", err
	}

	email := crypto.NormalizeEmail(*in.Email)
	user := &domain.User{
		ID:        newID(),
		EmailHash: crypto.Fingerprint(email),
		Role:      domain.RoleForEmail(email, s.orgDomain),
	}

	var err error
	if user.Lastname, err = s.cipher.Encrypt(*in.Lastname); err != nil {
		return "", apperrors.NewInternalError(err)
	}
	if user.Firstname, err = s.cipher.Encrypt(*in.Firstname); err != nil {
		return "", apperrors.NewInternalError(err)
	}
	if user.Age, err = s.cipher.Encrypt(*in.Age); err != nil {
		return "", apperrors.NewInternalError(err)
	}
	if user.Email, err = s.cipher.Encrypt(email); err != nil {
		return "", apperrors.NewInternalError(err)
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		exists, err := s.users.ExistsByEmailHash(ctx, user.EmailHash)
		if err != nil {
			return err
		}
		if exists {
			return repository.ErrEmailTaken
		}

		if user.PasswordHash, err = s.hashPassword(*in.Password); err != nil {
			return err
		}
		return s.users.Create(ctx, user)
	})
	if errors.Is(err, repository.ErrEmailTaken) {
		return "", apperrors.NewConflict(msgAccountExists, nil)
	}
	if err != nil {
		return "", err
	}

	s.logger.Info("account registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user.ID, nil
}

// Authenticate checks credentials and returns the identity. Unknown email,
// a stored email that does not decrypt to the supplied one, and a wrong
// password all produce the same error. A digest produced under an older
// cost is replaced within the same transaction.
func (s *AccountService) Authenticate(ctx context.Context, in LoginInput) (string, error) {
	if err := requireFields(in); err != nil {
		return "", err
	}

	email := crypto.NormalizeEmail(*in.Email)
	var identity string

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		user, err := s.users.GetByEmailHash(ctx, crypto.Fingerprint(email))
		if errors.Is(err, repository.ErrUserNotFound) {
			return errInvalidCredentials()
		}
		if err != nil {
			return err
		}

		stored, ok := s.cipher.Decrypt(user.Email)
		if !ok || stored != email {
			return errInvalidCredentials()
		}

		result := s.hasher.VerifyAndRehash(user.PasswordHash, *in.Password)
		switch result.Outcome {
		case auth.Rejected:
			return errInvalidCredentials()
		case auth.Rehashed:
			if err := s.users.UpdatePasswordHash(ctx, user.ID, result.Digest); err != nil {
				return err
			}
			s.metrics.RecordRehash()
			s.logger.Info("password digest upgraded", zap.String("user_id", user.ID), zap.Int("cost", s.hasher.Cost()))
		}

		identity = user.ID
		return nil
	})
	if err != nil {
		if isInvalidCredentials(err) {
			s.metrics.RecordLogin("rejected")
		}
		return "", err
	}

	s.metrics.RecordLogin("success")
	return identity, nil
}

// Login authenticates and issues a fresh access token plus a refresh token.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (auth.TokenPair, error) {
	identity, err := s.Authenticate(ctx, in)
	if err != nil {
		return auth.TokenPair{}, err
	}
	pair, err := s.tokens.IssuePair(identity)
	if err != nil {
		return auth.TokenPair{}, apperrors.NewInternalError(err)
	}
	return pair, nil
}

// GetSelf returns the decrypted profile. Fields that fail to decrypt are nil.
func (s *AccountService) GetSelf(ctx context.Context, identity string) (domain.Profile, error) {
	var profile domain.Profile

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		user, err := s.users.GetByID(ctx, identity)
		if err != nil {
			return err
		}
		profile = domain.Profile{
			Lastname:  s.cipher.DecryptPtr(user.Lastname),
			Firstname: s.cipher.DecryptPtr(user.Firstname),
			Age:       s.cipher.DecryptPtr(user.Age),
			Email:     s.cipher.DecryptPtr(user.Email),
			Role:      user.Role,
		}
		return nil
	})
	if errors.Is(err, repository.ErrUserNotFound) {
		return domain.Profile{}, apperrors.NewNotFound(msgUserNotFound)
	}
	return profile, err
}

// Modify applies a partial update. Changing the email rewrites its
// ciphertext, fingerprint and role together.
func (s *AccountService) Modify(ctx context.Context, identity string, in ModifyInput) error {
	var changes domain.UserChanges

	encrypt := func(value *string) (*string, error) {
		if value == nil {
			return nil, nil
		}
		ct, err := s.cipher.Encrypt(*value)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		return &ct, nil
	}

	var err error
	if changes.Lastname, err = encrypt(in.Lastname); err != nil {
		return err
	}
	if changes.Firstname, err = encrypt(in.Firstname); err != nil {
		return err
	}
	if changes.Age, err = encrypt(in.Age); err != nil {
		return err
	}
	if in.Email != nil {
		email := crypto.NormalizeEmail(*in.Email)
		if changes.Email, err = encrypt(&email); err != nil {
			return err
		}
		hash := crypto.Fingerprint(email)
		role := domain.RoleForEmail(email, s.orgDomain)
		changes.EmailHash = &hash
		changes.Role = &role
	}
	if in.Password != nil {
		digest, err := s.hashPassword(*in.Password)
		if err != nil {
			return err
		}
		changes.PasswordHash = &digest
	}

	if changes.Empty() {
		return apperrors.NewValidationError(msgNoChanges, nil)
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.users.Update(ctx, identity, changes)
	})
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return apperrors.NewNotFound(msgUserNotFound)
	case errors.Is(err, repository.ErrEmailTaken):
		return apperrors.NewConflict(msgAccountExists, nil)
	}
	return err
}

// Delete removes the account and its tickets, then revokes every refresh
// token issued to it so far.
func (s *AccountService) Delete(ctx context.Context, identity string) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.users.Delete(ctx, identity)
	})
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperrors.NewNotFound(msgUserNotFound)
	}
	if err != nil {
		return err
	}

	if err := s.revocations.RevokeSubject(ctx, identity, s.now(), s.tokens.RefreshTTL()); err != nil {
		s.logger.Warn("failed to revoke refresh tokens of deleted account", zap.String("user_id", identity), zap.Error(err))
	}
	s.logger.Info("account deleted", zap.String("user_id", identity))
	return nil
}

// Refresh mints a non-fresh access token for the holder of a refresh token
// unless that token or its subject has been revoked.
func (s *AccountService) Refresh(ctx context.Context, principal *auth.Principal) (domain.Token, error) {
	revoked, err := s.revocations.IsTokenRevoked(ctx, principal.TokenID)
	if err != nil {
		return domain.Token{}, apperrors.NewInternalError(err)
	}
	if revoked {
		return domain.Token{}, apperrors.NewUnauthorized(msgTokenRevoked)
	}

	revokedAt, ok, err := s.revocations.SubjectRevokedAt(ctx, principal.UserID)
	if err != nil {
		return domain.Token{}, apperrors.NewInternalError(err)
	}
	if ok && !principal.IssuedAt.After(revokedAt) {
		return domain.Token{}, apperrors.NewUnauthorized(msgTokenRevoked)
	}

	token, err := s.tokens.Refresh(principal.UserID)
	if err != nil {
		return domain.Token{}, apperrors.NewInternalError(err)
	}
	return token, nil
}

// Logout revokes the presented refresh token for the rest of its lifetime.
func (s *AccountService) Logout(ctx context.Context, principal *auth.Principal) error {
	ttl := principal.ExpiresAt.Sub(s.now())
	if err := s.revocations.RevokeToken(ctx, principal.TokenID, ttl); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

func (s *AccountService) hashPassword(password string) (string, error) {
	digest, err := s.hasher.Hash(password)
	if auth.IsTooLong(err) {
		return "", apperrors.NewValidationError(msgPasswordTooLong, nil)
	}
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return digest, nil
}

func errInvalidCredentials() error {
	return apperrors.NewUnauthorized(msgInvalidCredentials)
}

func isInvalidCredentials(err error) bool {
	de := apperrors.ToDomainError(err)
	return de.HTTPStatus == http.StatusUnauthorized && de.Message == msgInvalidCredentials
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
