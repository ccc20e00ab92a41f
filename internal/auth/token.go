package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/account-service/internal/domain"
)

var (
	// ErrWrongTokenType is returned when a refresh token is presented where an
	// access token is required, or the other way around.
	ErrWrongTokenType = errors.New("wrong token type")
	// ErrInvalidToken covers bad signatures, expiry and malformed claims.
	ErrInvalidToken = errors.New("invalid token")
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// RefreshTTL is the lifetime of refresh tokens, and so the longest any
// revocation entry has to be kept.
func (tm *TokenManager) RefreshTTL() time.Duration {
	return tm.refreshTTL
}

// Claims describes JWT payload.
type Claims struct {
	Kind  domain.TokenKind `json:"type"`
	Fresh bool             `json:"fresh"`
	jwt.RegisteredClaims
}

// TokenPair is what a password login yields.
type TokenPair struct {
	Access  domain.Token
	Refresh domain.Token
}

// IssuePair mints a fresh access token and a refresh token for the subject.
func (tm *TokenManager) IssuePair(subjectID string) (TokenPair, error) {
	access, err := tm.generate(subjectID, domain.TokenKindAccess, true, tm.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := tm.generate(subjectID, domain.TokenKindRefresh, false, tm.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh mints a non-fresh access token for a subject that presented a
// valid refresh token.
func (tm *TokenManager) Refresh(subjectID string) (domain.Token, error) {
	return tm.generate(subjectID, domain.TokenKindAccess, false, tm.accessTTL)
}

func (tm *TokenManager) generate(subjectID string, kind domain.TokenKind, fresh bool, ttl time.Duration) (domain.Token, error) {
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(ttl)
	id := uuid.NewString()

	claims := &Claims{
		Kind:  kind,
		Fresh: fresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    tm.issuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return domain.Token{}, err
	}
	return domain.Token{
		ID:        id,
		SubjectID: subjectID,
		Kind:      kind,
		Fresh:     fresh,
		Signed:    signed,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Parse validates tokenStr and checks it is of the expected kind.
func (tm *TokenManager) Parse(tokenStr string, expected domain.TokenKind) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	},
		jwt.WithIssuer(tm.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	if claims.Kind != expected {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
