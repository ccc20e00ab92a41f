package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	revokedTokenPrefix   = "revoked:jti:"
	revokedSubjectPrefix = "revoked:sub:"
)

// RevocationRepository records refresh tokens and subjects that may no
// longer mint access tokens. Entries expire with the tokens they cover.
type RevocationRepository interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
	RevokeSubject(ctx context.Context, subjectID string, at time.Time, ttl time.Duration) error
	SubjectRevokedAt(ctx context.Context, subjectID string) (time.Time, bool, error)
}

type revocationRepository struct {
	client redis.UniversalClient
}

// NewRevocationRepository returns a Redis-backed implementation.
func NewRevocationRepository(client redis.UniversalClient) RevocationRepository {
	return &revocationRepository{client: client}
}

func (r *revocationRepository) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revokedTokenPrefix+tokenID, "1", ttl).Err()
}

func (r *revocationRepository) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedTokenPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RevokeSubject stores the revocation instant in unix seconds, matching the
// resolution of the iat claim.
func (r *revocationRepository) RevokeSubject(ctx context.Context, subjectID string, at time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revokedSubjectPrefix+subjectID, strconv.FormatInt(at.Unix(), 10), ttl).Err()
}

func (r *revocationRepository) SubjectRevokedAt(ctx context.Context, subjectID string) (time.Time, bool, error) {
	val, err := r.client.Get(ctx, revokedSubjectPrefix+subjectID).Int64()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.Unix(val, 0), true, nil
}
